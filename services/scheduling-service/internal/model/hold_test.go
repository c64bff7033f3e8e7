package model

import (
	"testing"
	"time"
)

func TestHoldLapsed(t *testing.T) {
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	h := Hold{ExpiresAt: now.Add(HoldTTL)}

	if h.Lapsed(now) {
		t.Fatal("fresh hold should not be lapsed")
	}
	if h.Lapsed(h.ExpiresAt.Add(-time.Second)) {
		t.Fatal("hold should be live just before expiry")
	}
	if !h.Lapsed(h.ExpiresAt) {
		t.Fatal("hold should lapse exactly at its expiry instant")
	}
	if !h.Lapsed(h.ExpiresAt.Add(time.Minute)) {
		t.Fatal("hold should stay lapsed after expiry")
	}
}
