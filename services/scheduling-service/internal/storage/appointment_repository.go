package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/o-sarhan/salonbook/libs/db"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/model"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Create inserts a booked appointment. The exclusion constraint on
// (salon_id, staff_id, time range) rejects overlapping booked rows, surfaced
// to callers through IsConflict.
func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, salon_id, staff_id, service_id, client_id, customer_name, customer_email, customer_phone, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, appt.ID, appt.SalonID, appt.StaffID, appt.ServiceID, appt.ClientID,
		appt.CustomerName, appt.CustomerEmail, appt.CustomerPhone,
		appt.StartTime, appt.EndTime, appt.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, salonID, appointmentID string) (model.Appointment, error) {
	var appt model.Appointment
	var cancelledAt *time.Time
	err := tx.QueryRow(ctx, `
		SELECT id, salon_id, staff_id, service_id, COALESCE(client_id, ''),
			customer_name, customer_email, customer_phone,
			start_time, end_time, status, cancelled_at,
			COALESCE(cancellation_reason, ''), created_at
		FROM appointments
		WHERE id = $1 AND salon_id = $2
		FOR UPDATE
	`, appointmentID, salonID).Scan(
		&appt.ID, &appt.SalonID, &appt.StaffID, &appt.ServiceID, &appt.ClientID,
		&appt.CustomerName, &appt.CustomerEmail, &appt.CustomerPhone,
		&appt.StartTime, &appt.EndTime, &appt.Status, &cancelledAt,
		&appt.CancelReason, &appt.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.CancelledAt = cancelledAt
	return appt, nil
}

// Cancel is a status transition, never a delete; cancelled rows stop blocking
// availability because every overlap query filters on status = 'booked'.
func (r *AppointmentRepository) Cancel(ctx context.Context, tx pgx.Tx, salonID, appointmentID, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = $3
		WHERE id = $1 AND salon_id = $2
		RETURNING cancelled_at
	`, appointmentID, salonID, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

// ListBookedIntervals returns booked appointments for the staff member
// intersecting [start, end). Cancelled appointments do not block.
func (r *AppointmentRepository) ListBookedIntervals(ctx context.Context, salonID, staffID string, start, end time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, salon_id, staff_id, service_id, COALESCE(client_id, ''),
			customer_name, customer_email, customer_phone,
			start_time, end_time, status, cancelled_at,
			COALESCE(cancellation_reason, ''), created_at
		FROM appointments
		WHERE salon_id = $1
			AND staff_id = $2
			AND status = 'booked'
			AND start_time < $4
			AND end_time > $3
		ORDER BY start_time ASC
	`, salonID, staffID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *AppointmentRepository) ListBySalon(ctx context.Context, salonID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, salon_id, staff_id, service_id, COALESCE(client_id, ''),
			customer_name, customer_email, customer_phone,
			start_time, end_time, status, cancelled_at,
			COALESCE(cancellation_reason, ''), created_at
		FROM appointments
		WHERE salon_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, salonID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		var appt model.Appointment
		var cancelledAt *time.Time
		if err := rows.Scan(
			&appt.ID, &appt.SalonID, &appt.StaffID, &appt.ServiceID, &appt.ClientID,
			&appt.CustomerName, &appt.CustomerEmail, &appt.CustomerPhone,
			&appt.StartTime, &appt.EndTime, &appt.Status, &cancelledAt,
			&appt.CancelReason, &appt.CreatedAt,
		); err != nil {
			return nil, err
		}
		appt.CancelledAt = cancelledAt
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// IsConflict reports an exclusion-constraint violation (overlapping booked
// appointments for one staff member).
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
