package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/availability"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/model"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/notify"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/storage"
)

// OwnerTokenHeader tags requests with the caller's hold ownership token
// (session-scoped for anonymous visitors, identity-scoped once known).
// A caller's own holds do not hide slots from them.
const OwnerTokenHeader = "X-Owner-Token"

const dateLayout = "2006-01-02"

const maxRangeDays = 31

type AvailabilityHandler struct {
	appointments *storage.AppointmentRepository
	holds        *storage.HoldRepository
	schedule     *storage.ScheduleRepository
	cache        *notify.SlotCache
	logger       *slog.Logger
	minNotice    time.Duration
}

func NewAvailabilityHandler(
	appointments *storage.AppointmentRepository,
	holds *storage.HoldRepository,
	schedule *storage.ScheduleRepository,
	cache *notify.SlotCache,
	logger *slog.Logger,
	minNotice time.Duration,
) *AvailabilityHandler {
	return &AvailabilityHandler{
		appointments: appointments,
		holds:        holds,
		schedule:     schedule,
		cache:        cache,
		logger:       logger,
		minNotice:    minNotice,
	}
}

type slotItem struct {
	StaffID   string `json:"staff_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Slots answers the single-day availability query:
// (salon, date, service, staff?) -> ordered bookable start times.
func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	salonID := strings.TrimSpace(r.URL.Query().Get("salon_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if salonID == "" || serviceID == "" || dateStr == "" {
		http.Error(w, "salon_id, service_id, and date are required", http.StatusBadRequest)
		return
	}

	day, err := time.ParseInLocation(dateLayout, dateStr, time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	svc, err := h.schedule.GetService(ctx, salonID, serviceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "unknown service", http.StatusNotFound)
			return
		}
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}

	staffList, err := h.resolveStaff(ctx, salonID, serviceID, staffID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "unknown staff member", http.StatusNotFound)
			return
		}
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}

	ownerToken := strings.TrimSpace(r.Header.Get(OwnerTokenHeader))

	items := make([]slotItem, 0)
	for _, staff := range staffList {
		slots, err := h.slotsForStaff(ctx, salonID, staff.ID, svc, day, ownerToken)
		if err != nil {
			http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
			return
		}
		duration := time.Duration(svc.DurationMinutes) * time.Minute
		for _, s := range slots {
			items = append(items, slotItem{
				StaffID:   staff.ID,
				StartTime: s.UTC().Format(time.RFC3339),
				EndTime:   s.Add(duration).UTC().Format(time.RFC3339),
			})
		}
	}

	writeJSON(w, http.StatusOK, items)
}

type dayAvailability struct {
	Date  string     `json:"date"`
	Slots []slotItem `json:"slots"`
}

// StaffAvailability applies the single-day rules across a date range, for
// calendar-level rendering. The range is inclusive and capped.
func (h *AvailabilityHandler) StaffAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	salonID := strings.TrimSpace(r.URL.Query().Get("salon_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	fromStr := strings.TrimSpace(r.URL.Query().Get("from"))
	toStr := strings.TrimSpace(r.URL.Query().Get("to"))
	if salonID == "" || serviceID == "" || fromStr == "" || toStr == "" {
		http.Error(w, "salon_id, service_id, from, and to are required", http.StatusBadRequest)
		return
	}

	from, err := time.ParseInLocation(dateLayout, fromStr, time.UTC)
	if err != nil {
		http.Error(w, "invalid from date", http.StatusBadRequest)
		return
	}
	to, err := time.ParseInLocation(dateLayout, toStr, time.UTC)
	if err != nil {
		http.Error(w, "invalid to date", http.StatusBadRequest)
		return
	}
	if to.Before(from) {
		http.Error(w, "to must not precede from", http.StatusBadRequest)
		return
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		http.Error(w, "date range too large", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	svc, err := h.schedule.GetService(ctx, salonID, serviceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "unknown service", http.StatusNotFound)
			return
		}
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}

	staffList, err := h.resolveStaff(ctx, salonID, serviceID, staffID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "unknown staff member", http.StatusNotFound)
			return
		}
		http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
		return
	}

	ownerToken := strings.TrimSpace(r.Header.Get(OwnerTokenHeader))
	duration := time.Duration(svc.DurationMinutes) * time.Minute

	days := make([]dayAvailability, 0)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		entry := dayAvailability{Date: day.Format(dateLayout), Slots: make([]slotItem, 0)}
		for _, staff := range staffList {
			slots, err := h.slotsForStaff(ctx, salonID, staff.ID, svc, day, ownerToken)
			if err != nil {
				http.Error(w, "storage unavailable, please retry", http.StatusServiceUnavailable)
				return
			}
			for _, s := range slots {
				entry.Slots = append(entry.Slots, slotItem{
					StaffID:   staff.ID,
					StartTime: s.UTC().Format(time.RFC3339),
					EndTime:   s.Add(duration).UTC().Format(time.RFC3339),
				})
			}
		}
		days = append(days, entry)
	}

	writeJSON(w, http.StatusOK, days)
}

func (h *AvailabilityHandler) resolveStaff(ctx context.Context, salonID, serviceID, staffID string) ([]model.Staff, error) {
	if staffID != "" {
		staff, err := h.schedule.GetStaff(ctx, salonID, staffID)
		if err != nil {
			return nil, err
		}
		return []model.Staff{staff}, nil
	}
	return h.schedule.ListQualifiedStaff(ctx, salonID, serviceID)
}

// slotsForStaff computes bookable start times for one staff member and day:
// effective working window minus booked appointments minus live holds not
// owned by the caller. Owner-tagged requests bypass the cache so a caller
// always sees their own pending hold as theirs.
func (h *AvailabilityHandler) slotsForStaff(ctx context.Context, salonID, staffID string, svc model.SalonService, day time.Time, ownerToken string) ([]time.Time, error) {
	dateStr := day.Format(dateLayout)
	if ownerToken == "" {
		if slots, ok := h.cache.Get(ctx, salonID, staffID, dateStr, svc.ID); ok {
			return slots, nil
		}
	}

	weekly, err := h.schedule.ListWorkingHours(ctx, salonID, staffID)
	if err != nil {
		return nil, err
	}
	exceptions, err := h.schedule.ListExceptions(ctx, salonID, staffID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	win, ok := availability.EffectiveWindow(weekly, exceptions, day)
	if !ok {
		if ownerToken == "" {
			h.cache.Put(ctx, salonID, staffID, dateStr, svc.ID, nil)
		}
		return nil, nil
	}

	booked, err := h.appointments.ListBookedIntervals(ctx, salonID, staffID, win.Start, win.End)
	if err != nil {
		return nil, err
	}
	holds, err := h.holds.ListActiveHolds(ctx, salonID, staffID, win.Start, win.End)
	if err != nil {
		return nil, err
	}

	busy := make([]availability.Interval, 0, len(booked)+len(holds))
	for _, a := range booked {
		busy = append(busy, availability.Interval{Start: a.StartTime, End: a.EndTime})
	}
	for _, hd := range holds {
		if ownerToken != "" && hd.OwnerToken == ownerToken {
			continue
		}
		busy = append(busy, availability.Interval{Start: hd.StartTime, End: hd.EndTime})
	}

	notBefore := time.Now().UTC().Add(h.minNotice)
	slots := availability.AvailableSlots(
		win.Start,
		win.End,
		time.Duration(svc.DurationMinutes)*time.Minute,
		time.Duration(svc.SlotStepMinutes)*time.Minute,
		busy,
		notBefore,
	)

	if ownerToken == "" {
		h.cache.Put(ctx, salonID, staffID, dateStr, svc.ID, slots)
	}
	return slots, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
