package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cachePrefix = "avail:"

// SlotCache is a short-TTL read cache for computed availability. It only ever
// serves read-path queries; hold and confirm flows always hit Postgres.
// Cache errors degrade to a miss.
type SlotCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewSlotCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *SlotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SlotCache{rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(salonID, staffID, date, serviceID string) string {
	return cachePrefix + salonID + ":" + staffID + ":" + date + ":" + serviceID
}

func (c *SlotCache) Get(ctx context.Context, salonID, staffID, date, serviceID string) ([]time.Time, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey(salonID, staffID, date, serviceID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("slot cache get failed", "err", err)
		}
		return nil, false
	}
	var slots []time.Time
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

func (c *SlotCache) Put(ctx context.Context, salonID, staffID, date, serviceID string, slots []time.Time) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(salonID, staffID, date, serviceID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("slot cache put failed", "err", err)
	}
}

// Invalidate drops cached slot lists matching the hint. Empty StaffID or Date
// act as wildcards.
func (c *SlotCache) Invalidate(ctx context.Context, sig Signal) {
	if c == nil || c.rdb == nil || sig.SalonID == "" {
		return
	}
	staff := sig.StaffID
	if staff == "" {
		staff = "*"
	}
	date := sig.Date
	if date == "" {
		date = "*"
	}
	pattern := cachePrefix + sig.SalonID + ":" + staff + ":" + date + ":*"

	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.logger.Warn("slot cache scan failed", "err", err, "pattern", pattern)
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("slot cache del failed", "err", err)
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
