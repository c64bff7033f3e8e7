// Package notify carries the change-notification bridge and the availability
// read cache. The bridge is hint-only: signals mean "something changed,
// recheck"; every mutating operation re-validates against Postgres, so a
// dropped or duplicated signal only widens cache staleness, never
// correctness.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "sched.changed."

// Signal is the invalidation hint published on every hold or appointment
// mutation. StaffID and Date narrow the hint; empty means "whole salon".
type Signal struct {
	SalonID string `json:"salon_id"`
	StaffID string `json:"staff_id,omitempty"`
	Date    string `json:"date,omitempty"`
}

type Bridge struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewBridge(rdb *redis.Client, logger *slog.Logger) *Bridge {
	return &Bridge{rdb: rdb, logger: logger}
}

// Publish fans the hint out to all subscribed replicas. Failures are logged
// and swallowed: cached readers fall back to their TTL.
func (b *Bridge) Publish(ctx context.Context, sig Signal) {
	if b == nil || b.rdb == nil || sig.SalonID == "" {
		return
	}
	payload, err := json.Marshal(sig)
	if err != nil {
		b.logger.Error("change signal marshal failed", "err", err)
		return
	}
	if err := b.rdb.Publish(ctx, channelPrefix+sig.SalonID, payload).Err(); err != nil {
		b.logger.Warn("change signal publish failed", "err", err, "salon_id", sig.SalonID)
	}
}

// Listen consumes invalidation hints until ctx is done. A payload that cannot
// be decoded degrades to a salon-wide hint derived from the channel name.
func (b *Bridge) Listen(ctx context.Context, onSignal func(context.Context, Signal)) {
	if b == nil || b.rdb == nil {
		return
	}

	sub := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var sig Signal
			if err := json.Unmarshal([]byte(msg.Payload), &sig); err != nil || sig.SalonID == "" {
				sig = Signal{SalonID: strings.TrimPrefix(msg.Channel, channelPrefix)}
			}
			onSignal(ctx, sig)
		}
	}
}
