package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCalendarLayout_OverlappingAppointments(t *testing.T) {
	h := NewCalendarHandler(4)
	body := `{"appointments":[
		{"id":"a","start_time":"2026-09-14T09:00:00Z","duration_minutes":60},
		{"id":"b","start_time":"2026-09-14T09:30:00Z","duration_minutes":60},
		{"id":"c","start_time":"2026-09-14T09:15:00Z","duration_minutes":30}
	]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/calendar/layout", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Layout(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var items []renderRecordItem
	if err := json.NewDecoder(rr.Body).Decode(&items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 records, got %d", len(items))
	}

	byID := make(map[string]renderRecordItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	wantCol := map[string]int{"a": 0, "c": 1, "b": 2}
	for id, col := range wantCol {
		it, ok := byID[id]
		if !ok {
			t.Fatalf("missing record %q", id)
		}
		if it.Column != col || it.TotalColumns != 3 {
			t.Errorf("%s: expected column %d of 3, got %d of %d", id, col, it.Column, it.TotalColumns)
		}
	}
	if byID["b"].EndTime != "2026-09-14T10:30:00Z" {
		t.Errorf("unexpected end_time for b: %s", byID["b"].EndTime)
	}
}

func TestCalendarLayout_NonOverlappingFullWidth(t *testing.T) {
	h := NewCalendarHandler(4)
	body := `{"appointments":[
		{"id":"d","start_time":"2026-09-14T09:00:00Z","duration_minutes":60},
		{"id":"e","start_time":"2026-09-14T10:00:00Z","duration_minutes":30}
	]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/calendar/layout", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Layout(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var items []renderRecordItem
	if err := json.NewDecoder(rr.Body).Decode(&items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, it := range items {
		if it.Column != 0 || it.TotalColumns != 1 || it.WidthPercent != 100.0 {
			t.Errorf("%s: touching appointments should each fill the full width, got %+v", it.ID, it)
		}
	}
}

func TestCalendarLayout_MaxColumnsOverride(t *testing.T) {
	h := NewCalendarHandler(4)
	body := `{"max_columns":2,"appointments":[
		{"id":"a","start_time":"2026-09-14T09:00:00Z","duration_minutes":120},
		{"id":"b","start_time":"2026-09-14T09:10:00Z","duration_minutes":120},
		{"id":"c","start_time":"2026-09-14T09:20:00Z","duration_minutes":120}
	]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/calendar/layout", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Layout(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var items []renderRecordItem
	if err := json.NewDecoder(rr.Body).Decode(&items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, it := range items {
		if it.TotalColumns != 2 {
			t.Errorf("%s: expected 2 total columns, got %d", it.ID, it.TotalColumns)
		}
		if it.Column > 1 {
			t.Errorf("%s: column %d exceeds the requested bound", it.ID, it.Column)
		}
	}
}

func TestCalendarLayout_RejectsBadInput(t *testing.T) {
	h := NewCalendarHandler(4)

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing id", `{"appointments":[{"id":"","start_time":"2026-09-14T09:00:00Z","duration_minutes":30}]}`},
		{"bad start_time", `{"appointments":[{"id":"a","start_time":"not-a-time","duration_minutes":30}]}`},
		{"zero duration", `{"appointments":[{"id":"a","start_time":"2026-09-14T09:00:00Z","duration_minutes":0}]}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/calendar/layout", strings.NewReader(tc.body))
		rr := httptest.NewRecorder()
		h.Layout(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, rr.Code)
		}
	}
}

func TestCalendarLayout_MethodNotAllowed(t *testing.T) {
	h := NewCalendarHandler(4)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar/layout", nil)
	rr := httptest.NewRecorder()
	h.Layout(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
