package availability

import (
	"time"

	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/model"
)

// EffectiveWindow resolves the working window for a staff member on a given
// day (midnight-normalized, in the schedule's timezone). A schedule exception
// for that date wins over the weekly row; absence of both means day off.
func EffectiveWindow(weekly []model.WorkingHours, exceptions []model.ScheduleException, day time.Time) (Interval, bool) {
	for _, ex := range exceptions {
		if !sameDate(ex.Day, day) {
			continue
		}
		return minuteWindow(day, ex.IsWorking, ex.StartMinute, ex.EndMinute)
	}

	for _, wh := range weekly {
		if wh.Weekday != int(day.Weekday()) {
			continue
		}
		return minuteWindow(day, wh.IsWorking, wh.StartMinute, wh.EndMinute)
	}

	return Interval{}, false
}

func minuteWindow(day time.Time, isWorking bool, startMinute, endMinute int) (Interval, bool) {
	if !isWorking || endMinute <= startMinute {
		return Interval{}, false
	}
	return Interval{
		Start: day.Add(time.Duration(startMinute) * time.Minute),
		End:   day.Add(time.Duration(endMinute) * time.Minute),
	}, true
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
