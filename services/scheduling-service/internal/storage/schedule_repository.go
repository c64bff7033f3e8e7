package storage

import (
	"context"
	"time"

	"github.com/o-sarhan/salonbook/libs/db"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/model"
)

// ScheduleRepository reads the schedule data the engine needs: services,
// staff, weekly working hours, and per-date exceptions. Writes belong to the
// administrative surface, not to this engine.
type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func (r *ScheduleRepository) GetService(ctx context.Context, salonID, serviceID string) (model.SalonService, error) {
	var s model.SalonService
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, salon_id::text, name, duration_minutes, slot_step_minutes
		FROM salon_services
		WHERE salon_id = $1 AND id = $2
	`, salonID, serviceID).Scan(&s.ID, &s.SalonID, &s.Name, &s.DurationMinutes, &s.SlotStepMinutes)
	return s, err
}

func (r *ScheduleRepository) GetStaff(ctx context.Context, salonID, staffID string) (model.Staff, error) {
	var s model.Staff
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, salon_id::text, name, is_active
		FROM staff
		WHERE salon_id = $1 AND id = $2
	`, salonID, staffID).Scan(&s.ID, &s.SalonID, &s.Name, &s.IsActive)
	return s, err
}

// ListQualifiedStaff returns active staff members offering the service.
func (r *ScheduleRepository) ListQualifiedStaff(ctx context.Context, salonID, serviceID string) ([]model.Staff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id::text, s.salon_id::text, s.name, s.is_active
		FROM staff s
		JOIN staff_services ss ON ss.staff_id = s.id
		WHERE s.salon_id = $1
			AND ss.service_id = $2
			AND s.is_active
		ORDER BY s.name ASC
	`, salonID, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Staff
	for rows.Next() {
		var s model.Staff
		if err := rows.Scan(&s.ID, &s.SalonID, &s.Name, &s.IsActive); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ScheduleRepository) ListWorkingHours(ctx context.Context, salonID, staffID string) ([]model.WorkingHours, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT h.staff_id::text, h.weekday, h.is_working, h.start_minute, h.end_minute
		FROM staff_working_hours h
		JOIN staff s ON s.id = h.staff_id
		WHERE s.salon_id = $1 AND h.staff_id = $2
		ORDER BY h.weekday ASC
	`, salonID, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WorkingHours
	for rows.Next() {
		var wh model.WorkingHours
		if err := rows.Scan(&wh.StaffID, &wh.Weekday, &wh.IsWorking, &wh.StartMinute, &wh.EndMinute); err != nil {
			return nil, err
		}
		out = append(out, wh)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ListExceptions returns schedule exceptions for days in [from, to).
func (r *ScheduleRepository) ListExceptions(ctx context.Context, salonID, staffID string, from, to time.Time) ([]model.ScheduleException, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id::text, e.staff_id::text, e.day, e.is_working, e.start_minute, e.end_minute, COALESCE(e.reason, '')
		FROM schedule_exceptions e
		JOIN staff s ON s.id = e.staff_id
		WHERE s.salon_id = $1
			AND e.staff_id = $2
			AND e.day >= $3::date
			AND e.day < $4::date
		ORDER BY e.day ASC
	`, salonID, staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ScheduleException
	for rows.Next() {
		var ex model.ScheduleException
		if err := rows.Scan(&ex.ID, &ex.StaffID, &ex.Day, &ex.IsWorking, &ex.StartMinute, &ex.EndMinute, &ex.Reason); err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
