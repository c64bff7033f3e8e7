package model

import "time"

// WorkingHours is one weekday row of a staff member's weekly schedule.
// Minutes are counted from midnight in the salon's working timezone.
type WorkingHours struct {
	StaffID     string
	Weekday     int
	IsWorking   bool
	StartMinute int
	EndMinute   int
}

// ScheduleException overrides the weekly schedule for a single date
// (vacation, sick day, custom hours). It wins over the weekday row.
type ScheduleException struct {
	ID          string
	StaffID     string
	Day         time.Time
	IsWorking   bool
	StartMinute int
	EndMinute   int
	Reason      string
}

type SalonService struct {
	ID              string
	SalonID         string
	Name            string
	DurationMinutes int
	SlotStepMinutes int
}

type Staff struct {
	ID       string
	SalonID  string
	Name     string
	IsActive bool
}
