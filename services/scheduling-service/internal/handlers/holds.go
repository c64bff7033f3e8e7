package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/availability"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/model"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/notify"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/outbox"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/storage"
)

const clockLayout = "15:04"

type HoldHandler struct {
	holds        *storage.HoldRepository
	appointments *storage.AppointmentRepository
	schedule     *storage.ScheduleRepository
	outboxRepo   *outbox.Repository
	bridge       *notify.Bridge
	logger       *slog.Logger
	minNotice    time.Duration
}

func NewHoldHandler(
	holds *storage.HoldRepository,
	appointments *storage.AppointmentRepository,
	schedule *storage.ScheduleRepository,
	outboxRepo *outbox.Repository,
	bridge *notify.Bridge,
	logger *slog.Logger,
	minNotice time.Duration,
) *HoldHandler {
	return &HoldHandler{
		holds:        holds,
		appointments: appointments,
		schedule:     schedule,
		outboxRepo:   outboxRepo,
		bridge:       bridge,
		logger:       logger,
		minNotice:    minNotice,
	}
}

type createHoldRequest struct {
	SalonID         string `json:"salon_id"`
	StaffID         string `json:"staff_id"`
	ServiceID       string `json:"service_id"`
	ClientID        string `json:"client_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type createHoldResponse struct {
	HoldID    string `json:"hold_id"`
	ExpiresAt string `json:"expires_at"`
}

type releaseHoldRequest struct {
	SalonID string `json:"salon_id"`
	HoldID  string `json:"hold_id"`
}

type confirmHoldRequest struct {
	SalonID       string `json:"salon_id"`
	HoldID        string `json:"hold_id"`
	ClientID      string `json:"client_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

type appointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
	SalonID       string `json:"salon_id"`
	StaffID       string `json:"staff_id"`
	ServiceID     string `json:"service_id"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
}

// Create provisionally claims a slot while the caller finishes the booking
// flow. The claim either wins atomically at the storage layer or fails with
// a conflict; there is no check-then-insert split across round trips here.
func (h *HoldHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SalonID = strings.TrimSpace(req.SalonID)
	req.StaffID = strings.TrimSpace(req.StaffID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if req.SalonID == "" || req.StaffID == "" || req.ServiceID == "" || req.Date == "" || req.Time == "" {
		http.Error(w, "salon_id, staff_id, service_id, date, and time are required", http.StatusBadRequest)
		return
	}

	ownerToken := strings.TrimSpace(r.Header.Get(OwnerTokenHeader))
	if ownerToken == "" {
		http.Error(w, "owner token required", http.StatusBadRequest)
		return
	}

	day, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	clock, err := time.Parse(clockLayout, req.Time)
	if err != nil {
		http.Error(w, "invalid time", http.StatusBadRequest)
		return
	}
	start := day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)

	ctx := r.Context()
	svc, err := h.schedule.GetService(ctx, req.SalonID, req.ServiceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "unknown service", http.StatusNotFound)
			return
		}
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}
	durationMins := req.DurationMinutes
	if durationMins <= 0 {
		durationMins = svc.DurationMinutes
	}
	end := start.Add(time.Duration(durationMins) * time.Minute)

	// InvalidWindow cases are rejected before any storage write.
	if start.Before(time.Now().UTC().Add(h.minNotice)) {
		http.Error(w, "requested time is too soon to book", http.StatusUnprocessableEntity)
		return
	}
	within, err := h.withinWorkingWindow(r, req.SalonID, req.StaffID, day, start, end)
	if err != nil {
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}
	if !within {
		http.Error(w, "requested time is outside working hours", http.StatusUnprocessableEntity)
		return
	}

	hold := &model.Hold{
		ID:         uuid.NewString(),
		SalonID:    req.SalonID,
		StaffID:    req.StaffID,
		ServiceID:  req.ServiceID,
		ClientID:   strings.TrimSpace(req.ClientID),
		OwnerToken: ownerToken,
		StartTime:  start,
		EndTime:    end,
	}

	tx, err := h.holds.Begin(ctx)
	if err != nil {
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := h.holds.CreateHold(ctx, tx, hold)
	if err != nil {
		if errors.Is(err, storage.ErrSlotUnavailable) {
			http.Error(w, "this time was just taken, please choose another", http.StatusConflict)
			return
		}
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}

	if err := h.insertHoldEvent(ctx, tx, outbox.EventHoldCreated, created); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}

	h.bridge.Publish(ctx, notify.Signal{
		SalonID: created.SalonID,
		StaffID: created.StaffID,
		Date:    created.StartTime.UTC().Format(dateLayout),
	})

	writeJSON(w, http.StatusCreated, createHoldResponse{
		HoldID:    created.ID,
		ExpiresAt: created.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Release frees a held slot. It is idempotent: releasing a hold that already
// expired, was confirmed, or never existed succeeds with no effect.
func (h *HoldHandler) Release(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req releaseHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SalonID = strings.TrimSpace(req.SalonID)
	req.HoldID = strings.TrimSpace(req.HoldID)
	if req.SalonID == "" || req.HoldID == "" {
		http.Error(w, "salon_id and hold_id are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.holds.Begin(ctx)
	if err != nil {
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	released, deleted, err := h.holds.ReleaseHold(ctx, tx, req.SalonID, req.HoldID)
	if err != nil {
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}
	if deleted {
		if err := h.insertHoldEvent(ctx, tx, outbox.EventHoldReleased, released); err != nil {
			http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
			return
		}
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}

	if deleted {
		h.bridge.Publish(ctx, notify.Signal{
			SalonID: released.SalonID,
			StaffID: released.StaffID,
			Date:    released.StartTime.UTC().Format(dateLayout),
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

// Confirm converts a live hold into a booked appointment. Conversion and
// hold deletion commit together, so the caller can never end up with both a
// stale hold and a duplicate appointment, nor with neither.
func (h *HoldHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req confirmHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SalonID = strings.TrimSpace(req.SalonID)
	req.HoldID = strings.TrimSpace(req.HoldID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.SalonID == "" || req.HoldID == "" || req.CustomerName == "" {
		http.Error(w, "salon_id, hold_id, and customer_name are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.holds.Begin(ctx)
	if err != nil {
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	hold, err := h.holds.GetHoldForUpdate(ctx, tx, req.SalonID, req.HoldID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrHoldNotFound):
			http.Error(w, "hold not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrHoldExpired):
			// The row is garbage now; clean it up on the way out.
			if delErr := h.holds.DeleteHold(ctx, tx, hold.ID); delErr == nil {
				_ = tx.Commit(ctx)
			}
			http.Error(w, "hold has expired, please re-acquire", http.StatusGone)
		default:
			http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		}
		return
	}

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		clientID = hold.ClientID
	}
	appt := &model.Appointment{
		ID:            uuid.NewString(),
		SalonID:       hold.SalonID,
		StaffID:       hold.StaffID,
		ServiceID:     hold.ServiceID,
		ClientID:      clientID,
		CustomerName:  req.CustomerName,
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		StartTime:     hold.StartTime,
		EndTime:       hold.EndTime,
		Status:        model.StatusBooked,
	}

	id, err := h.appointments.Create(ctx, tx, appt)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "this time was just taken, please choose another", http.StatusConflict)
			return
		}
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}
	if err := h.holds.DeleteHold(ctx, tx, hold.ID); err != nil {
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"appointment_id": id,
		"salon_id":       appt.SalonID,
		"staff_id":       appt.StaffID,
		"service_id":     appt.ServiceID,
		"client_id":      appt.ClientID,
		"customer_email": appt.CustomerEmail,
		"customer_phone": appt.CustomerPhone,
		"start_time":     appt.StartTime.UTC().Format(time.RFC3339),
		"end_time":       appt.EndTime.UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   id,
		EventType:     outbox.EventAppointmentBooked,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}

	h.bridge.Publish(ctx, notify.Signal{
		SalonID: appt.SalonID,
		StaffID: appt.StaffID,
		Date:    appt.StartTime.UTC().Format(dateLayout),
	})

	writeJSON(w, http.StatusCreated, appointmentResponse{
		AppointmentID: id,
		SalonID:       appt.SalonID,
		StaffID:       appt.StaffID,
		ServiceID:     appt.ServiceID,
		StartTime:     appt.StartTime.UTC().Format(time.RFC3339),
		EndTime:       appt.EndTime.UTC().Format(time.RFC3339),
		Status:        appt.Status,
	})
}

func (h *HoldHandler) withinWorkingWindow(r *http.Request, salonID, staffID string, day time.Time, start, end time.Time) (bool, error) {
	ctx := r.Context()
	weekly, err := h.schedule.ListWorkingHours(ctx, salonID, staffID)
	if err != nil {
		return false, err
	}
	exceptions, err := h.schedule.ListExceptions(ctx, salonID, staffID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return false, err
	}
	win, ok := availability.EffectiveWindow(weekly, exceptions, day)
	if !ok {
		return false, nil
	}
	return !start.Before(win.Start) && !end.After(win.End), nil
}

func (h *HoldHandler) insertHoldEvent(ctx context.Context, tx pgx.Tx, eventType string, hold model.Hold) error {
	payload, err := json.Marshal(map[string]any{
		"hold_id":    hold.ID,
		"salon_id":   hold.SalonID,
		"staff_id":   hold.StaffID,
		"service_id": hold.ServiceID,
		"start_time": hold.StartTime.UTC().Format(time.RFC3339),
		"end_time":   hold.EndTime.UTC().Format(time.RFC3339),
		"expires_at": hold.ExpiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "hold",
		AggregateID:   hold.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}
