package availability

import (
	"testing"
	"time"
)

func at(day time.Time, hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func TestAvailableSlots_Basic(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	windowStart := at(day, 9, 0)
	windowEnd := at(day, 10, 0)

	busy := []Interval{
		{Start: at(day, 9, 15), End: at(day, 9, 45)},
	}

	slots := AvailableSlots(windowStart, windowEnd, 15*time.Minute, 15*time.Minute, busy, day)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].Equal(at(day, 9, 0)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].Format(time.RFC3339))
	}
	if !slots[1].Equal(at(day, 9, 45)) {
		t.Fatalf("expected second slot 09:45, got %s", slots[1].Format(time.RFC3339))
	}
}

func TestAvailableSlots_SubtractsBookingsAndHolds(t *testing.T) {
	// Working window 09:00-17:00, one appointment 10:00-11:00, one hold
	// 14:00-14:30, 30-minute service at 15-minute steps.
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	busy := []Interval{
		{Start: at(day, 10, 0), End: at(day, 11, 0)},
		{Start: at(day, 14, 0), End: at(day, 14, 30)},
	}

	slots := AvailableSlots(at(day, 9, 0), at(day, 17, 0), 30*time.Minute, 15*time.Minute, busy, day)

	excluded := []time.Time{at(day, 10, 0), at(day, 10, 15), at(day, 14, 0), at(day, 9, 45), at(day, 13, 45)}
	included := []time.Time{at(day, 9, 0), at(day, 11, 0), at(day, 13, 30), at(day, 14, 30), at(day, 16, 30)}

	has := func(want time.Time) bool {
		for _, s := range slots {
			if s.Equal(want) {
				return true
			}
		}
		return false
	}
	for _, ts := range excluded {
		if has(ts) {
			t.Errorf("slot %s should be excluded", ts.Format("15:04"))
		}
	}
	for _, ts := range included {
		if !has(ts) {
			t.Errorf("slot %s should be included", ts.Format("15:04"))
		}
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i-1].Before(slots[i]) {
			t.Fatalf("slots not sorted ascending at index %d", i)
		}
	}
}

func TestAvailableSlots_TouchingEndpointIsNotAConflict(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	busy := []Interval{
		{Start: at(day, 9, 0), End: at(day, 10, 0)},
	}

	slots := AvailableSlots(at(day, 9, 0), at(day, 11, 0), 60*time.Minute, 30*time.Minute, busy, day)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].Equal(at(day, 10, 0)) {
		t.Fatalf("expected slot starting at the busy interval's end, got %s", slots[0].Format(time.RFC3339))
	}
}

func TestAvailableSlots_SkipsBeforeNotBefore(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	notBefore := at(day, 9, 31)

	slots := AvailableSlots(at(day, 9, 0), at(day, 10, 0), 15*time.Minute, 15*time.Minute, nil, notBefore)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].Equal(at(day, 9, 45)) {
		t.Fatalf("expected slot 09:45, got %s", slots[0].Format(time.RFC3339))
	}
}

func TestAvailableSlots_DegenerateInputs(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	if got := AvailableSlots(at(day, 9, 0), at(day, 9, 0), 15*time.Minute, 15*time.Minute, nil, day); got != nil {
		t.Fatalf("empty window should yield no slots, got %v", got)
	}
	if got := AvailableSlots(at(day, 9, 0), at(day, 10, 0), 0, 15*time.Minute, nil, day); got != nil {
		t.Fatalf("zero duration should yield no slots, got %v", got)
	}
	if got := AvailableSlots(at(day, 9, 0), at(day, 9, 20), 30*time.Minute, 15*time.Minute, nil, day); got != nil {
		t.Fatalf("window shorter than duration should yield no slots, got %v", got)
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	if !Overlaps(at(day, 9, 0), at(day, 10, 0), at(day, 9, 30), at(day, 10, 30)) {
		t.Fatal("intersecting intervals should overlap")
	}
	if Overlaps(at(day, 9, 0), at(day, 10, 0), at(day, 10, 0), at(day, 10, 30)) {
		t.Fatal("touching intervals must not overlap")
	}
	if Overlaps(at(day, 9, 0), at(day, 10, 0), at(day, 11, 0), at(day, 12, 0)) {
		t.Fatal("disjoint intervals must not overlap")
	}
}
