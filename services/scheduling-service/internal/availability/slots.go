package availability

import "time"

type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
// Intervals sharing only an endpoint do not overlap: an appointment ending at
// 10:00 does not block a slot starting at 10:00.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// AvailableSlots returns slot start times within [windowStart, windowEnd)
// where a booking of length duration would not overlap any busy interval.
// Candidates starting before notBefore (typically now plus the minimum
// advance notice) are skipped.
//
// All times are expected to be in the same location (timezone).
func AvailableSlots(windowStart, windowEnd time.Time, duration, step time.Duration, busy []Interval, notBefore time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if !windowEnd.After(windowStart) {
		return nil
	}
	if windowStart.Add(duration).After(windowEnd) {
		return nil
	}

	var slots []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		if t.Before(notBefore) {
			continue
		}
		if !overlapsAny(t, t.Add(duration), busy) {
			slots = append(slots, t)
		}
	}
	return slots
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}
