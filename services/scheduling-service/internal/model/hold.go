package model

import "time"

// HoldTTL is the fixed lifetime of a reservation hold. There is no renewal:
// a caller either confirms within the window or re-acquires.
const HoldTTL = 5 * time.Minute

// Hold is a provisional claim on a staff+time slot while a caller completes
// the booking flow. It is never mutated; it is confirmed (becoming an
// Appointment) or deleted.
type Hold struct {
	ID         string
	SalonID    string
	StaffID    string
	ServiceID  string
	ClientID   string
	OwnerToken string
	StartTime  time.Time
	EndTime    time.Time
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Lapsed reports whether the hold is past its expiry at the given instant.
// Expiry is authoritative server-side; client countdowns are advisory only.
func (h Hold) Lapsed(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}
