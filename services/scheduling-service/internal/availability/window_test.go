package availability

import (
	"testing"
	"time"

	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/model"
)

func TestEffectiveWindow_WeeklyHours(t *testing.T) {
	// 2026-09-14 is a Monday.
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	weekly := []model.WorkingHours{
		{Weekday: int(time.Monday), IsWorking: true, StartMinute: 9 * 60, EndMinute: 17 * 60},
		{Weekday: int(time.Sunday), IsWorking: false},
	}

	win, ok := EffectiveWindow(weekly, nil, day)
	if !ok {
		t.Fatal("expected a working window on Monday")
	}
	if !win.Start.Equal(at(day, 9, 0)) || !win.End.Equal(at(day, 17, 0)) {
		t.Fatalf("unexpected window %s-%s", win.Start.Format("15:04"), win.End.Format("15:04"))
	}
}

func TestEffectiveWindow_ExceptionOverridesWeekly(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	weekly := []model.WorkingHours{
		{Weekday: int(time.Monday), IsWorking: true, StartMinute: 9 * 60, EndMinute: 17 * 60},
	}
	exceptions := []model.ScheduleException{
		{Day: day, IsWorking: true, StartMinute: 12 * 60, EndMinute: 16 * 60},
	}

	win, ok := EffectiveWindow(weekly, exceptions, day)
	if !ok {
		t.Fatal("expected a working window from the exception")
	}
	if !win.Start.Equal(at(day, 12, 0)) || !win.End.Equal(at(day, 16, 0)) {
		t.Fatalf("exception hours not applied, got %s-%s", win.Start.Format("15:04"), win.End.Format("15:04"))
	}
}

func TestEffectiveWindow_ExceptionDayOff(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	weekly := []model.WorkingHours{
		{Weekday: int(time.Monday), IsWorking: true, StartMinute: 9 * 60, EndMinute: 17 * 60},
	}
	exceptions := []model.ScheduleException{
		{Day: day, IsWorking: false},
	}

	if _, ok := EffectiveWindow(weekly, exceptions, day); ok {
		t.Fatal("day-off exception should close the day")
	}
}

func TestEffectiveWindow_NoScheduleMeansClosed(t *testing.T) {
	day := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	weekly := []model.WorkingHours{
		{Weekday: int(time.Monday), IsWorking: true, StartMinute: 9 * 60, EndMinute: 17 * 60},
	}

	if _, ok := EffectiveWindow(weekly, nil, day); ok {
		t.Fatal("a weekday without a schedule row should be closed")
	}
	if _, ok := EffectiveWindow(nil, nil, day); ok {
		t.Fatal("empty schedule should be closed")
	}
}

func TestEffectiveWindow_InvertedMinutesIsClosed(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	weekly := []model.WorkingHours{
		{Weekday: int(time.Monday), IsWorking: true, StartMinute: 17 * 60, EndMinute: 9 * 60},
	}

	if _, ok := EffectiveWindow(weekly, nil, day); ok {
		t.Fatal("end before start should be treated as closed")
	}
}
