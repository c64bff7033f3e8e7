package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/layout"
)

// CalendarHandler serves the pure layout query: it never touches storage.
type CalendarHandler struct {
	maxColumns int
}

func NewCalendarHandler(maxColumns int) *CalendarHandler {
	if maxColumns <= 0 {
		maxColumns = layout.DefaultMaxColumns
	}
	return &CalendarHandler{maxColumns: maxColumns}
}

type layoutRequestItem struct {
	ID              string `json:"id"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type layoutRequest struct {
	Appointments []layoutRequestItem `json:"appointments"`
	MaxColumns   int                 `json:"max_columns"`
}

type renderRecordItem struct {
	ID           string  `json:"id"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Column       int     `json:"column"`
	TotalColumns int     `json:"total_columns"`
	WidthPercent float64 `json:"width_percent"`
	LeftPercent  float64 `json:"left_percent"`
}

// Layout assigns calendar columns so temporally overlapping appointments do
// not render on top of each other.
func (h *CalendarHandler) Layout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	events := make([]layout.Event, 0, len(req.Appointments))
	for _, item := range req.Appointments {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			http.Error(w, "appointment id required", http.StatusBadRequest)
			return
		}
		start, err := time.Parse(time.RFC3339, item.StartTime)
		if err != nil {
			http.Error(w, "invalid start_time for appointment "+id, http.StatusBadRequest)
			return
		}
		if item.DurationMinutes <= 0 {
			http.Error(w, "invalid duration_minutes for appointment "+id, http.StatusBadRequest)
			return
		}
		events = append(events, layout.Event{
			ID:    id,
			Start: start,
			End:   start.Add(time.Duration(item.DurationMinutes) * time.Minute),
		})
	}

	maxColumns := req.MaxColumns
	if maxColumns <= 0 {
		maxColumns = h.maxColumns
	}

	records := layout.Layout(events, maxColumns)
	items := make([]renderRecordItem, 0, len(records))
	for _, rec := range records {
		items = append(items, renderRecordItem{
			ID:           rec.ID,
			StartTime:    rec.Start.UTC().Format(time.RFC3339),
			EndTime:      rec.End.UTC().Format(time.RFC3339),
			Column:       rec.Column,
			TotalColumns: rec.TotalColumns,
			WidthPercent: rec.WidthPercent,
			LeftPercent:  rec.LeftPercent,
		})
	}

	writeJSON(w, http.StatusOK, items)
}
