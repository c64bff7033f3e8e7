package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/o-sarhan/salonbook/libs/db"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/model"
)

var (
	// ErrSlotUnavailable means the claim lost the race: a booked appointment
	// or a live hold already covers part of the requested window.
	ErrSlotUnavailable = errors.New("slot unavailable")
	ErrHoldNotFound    = errors.New("hold not found")
	ErrHoldExpired     = errors.New("hold expired")
)

type HoldRepository struct {
	pool *db.Pool
}

func NewHoldRepository(pool *db.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

func (r *HoldRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// CreateHold claims [StartTime, EndTime) for the staff member, or fails with
// ErrSlotUnavailable. The per-salon+staff advisory lock serializes concurrent
// claims so the conflict check and insert behave as one atomic storage
// operation; independent caller processes cannot both pass the check. The
// exclusion constraint on appointments remains the durable backstop.
func (r *HoldRepository) CreateHold(ctx context.Context, tx pgx.Tx, h *model.Hold) (model.Hold, error) {
	if _, err := tx.Exec(ctx, `
		SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))
	`, h.SalonID, h.StaffID); err != nil {
		return model.Hold{}, err
	}

	// Lapsed holds linger until the sweeper runs; clear any in the window so
	// they cannot shadow the claim.
	if _, err := tx.Exec(ctx, `
		DELETE FROM holds
		WHERE salon_id = $1
			AND staff_id = $2
			AND expires_at <= now()
			AND start_time < $4
			AND end_time > $3
	`, h.SalonID, h.StaffID, h.StartTime, h.EndTime); err != nil {
		return model.Hold{}, err
	}

	var conflict bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE salon_id = $1
				AND staff_id = $2
				AND status = 'booked'
				AND start_time < $4
				AND end_time > $3
		) OR EXISTS (
			SELECT 1 FROM holds
			WHERE salon_id = $1
				AND staff_id = $2
				AND expires_at > now()
				AND start_time < $4
				AND end_time > $3
		)
	`, h.SalonID, h.StaffID, h.StartTime, h.EndTime).Scan(&conflict)
	if err != nil {
		return model.Hold{}, err
	}
	if conflict {
		return model.Hold{}, ErrSlotUnavailable
	}

	out := *h
	err = tx.QueryRow(ctx, `
		INSERT INTO holds
			(id, salon_id, staff_id, service_id, client_id, owner_token, start_time, end_time, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now() + interval '5 minutes')
		RETURNING expires_at, created_at
	`, h.ID, h.SalonID, h.StaffID, h.ServiceID, h.ClientID, h.OwnerToken,
		h.StartTime, h.EndTime).Scan(&out.ExpiresAt, &out.CreatedAt)
	if err != nil {
		return model.Hold{}, err
	}
	return out, nil
}

// ReleaseHold deletes the hold if it still exists. Releasing a hold that
// already expired, was confirmed, or never existed is not an error; the slot
// converges to free either way.
func (r *HoldRepository) ReleaseHold(ctx context.Context, tx pgx.Tx, salonID, holdID string) (model.Hold, bool, error) {
	var h model.Hold
	err := tx.QueryRow(ctx, `
		DELETE FROM holds
		WHERE id = $1 AND salon_id = $2
		RETURNING id, salon_id, staff_id, service_id, client_id, owner_token,
			start_time, end_time, expires_at, created_at
	`, holdID, salonID).Scan(
		&h.ID, &h.SalonID, &h.StaffID, &h.ServiceID, &h.ClientID, &h.OwnerToken,
		&h.StartTime, &h.EndTime, &h.ExpiresAt, &h.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Hold{}, false, nil
	}
	if err != nil {
		return model.Hold{}, false, err
	}
	return h, true, nil
}

// GetHoldForUpdate locks the hold row for the rest of the transaction.
// Expiry is judged against the database clock, which is the authority: a
// lapsed row comes back with ErrHoldExpired so the caller can clean it up.
func (r *HoldRepository) GetHoldForUpdate(ctx context.Context, tx pgx.Tx, salonID, holdID string) (model.Hold, error) {
	var h model.Hold
	var lapsed bool
	err := tx.QueryRow(ctx, `
		SELECT id, salon_id, staff_id, service_id, client_id, owner_token,
			start_time, end_time, expires_at, created_at,
			now() >= expires_at AS lapsed
		FROM holds
		WHERE id = $1 AND salon_id = $2
		FOR UPDATE
	`, holdID, salonID).Scan(
		&h.ID, &h.SalonID, &h.StaffID, &h.ServiceID, &h.ClientID, &h.OwnerToken,
		&h.StartTime, &h.EndTime, &h.ExpiresAt, &h.CreatedAt, &lapsed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Hold{}, ErrHoldNotFound
	}
	if err != nil {
		return model.Hold{}, err
	}
	if lapsed {
		return h, ErrHoldExpired
	}
	return h, nil
}

// DeleteHold removes the hold row inside the caller's transaction.
func (r *HoldRepository) DeleteHold(ctx context.Context, tx pgx.Tx, holdID string) error {
	_, err := tx.Exec(ctx, `DELETE FROM holds WHERE id = $1`, holdID)
	return err
}

// ListActiveHolds returns non-expired holds for the staff member intersecting
// [start, end). Expiry is filtered at read time regardless of whether the
// sweeper has run.
func (r *HoldRepository) ListActiveHolds(ctx context.Context, salonID, staffID string, start, end time.Time) ([]model.Hold, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, salon_id, staff_id, service_id, client_id, owner_token,
			start_time, end_time, expires_at, created_at
		FROM holds
		WHERE salon_id = $1
			AND staff_id = $2
			AND expires_at > now()
			AND start_time < $4
			AND end_time > $3
		ORDER BY start_time ASC
	`, salonID, staffID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holds []model.Hold
	for rows.Next() {
		var h model.Hold
		if err := rows.Scan(
			&h.ID, &h.SalonID, &h.StaffID, &h.ServiceID, &h.ClientID, &h.OwnerToken,
			&h.StartTime, &h.EndTime, &h.ExpiresAt, &h.CreatedAt,
		); err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return holds, nil
}

// SweepExpired deletes a batch of lapsed holds for storage hygiene. A grace
// period keeps the hot just-expired window for the create path, which clears
// conflicting lapsed rows itself.
func (r *HoldRepository) SweepExpired(ctx context.Context, grace time.Duration, limit int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM holds
		WHERE id IN (
			SELECT id FROM holds
			WHERE expires_at <= now() - make_interval(secs => $1)
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
	`, grace.Seconds(), limit)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
