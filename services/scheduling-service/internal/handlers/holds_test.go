package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestHoldHandler() *HoldHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHoldHandler(nil, nil, nil, nil, nil, logger, 0)
}

func TestHoldCreate_RejectsBadRequests(t *testing.T) {
	h := newTestHoldHandler()

	cases := []struct {
		name       string
		body       string
		ownerToken string
		want       int
	}{
		{"invalid json", `{`, "tok-1", http.StatusBadRequest},
		{"missing fields", `{"salon_id":"s1"}`, "tok-1", http.StatusBadRequest},
		{
			"missing owner token",
			`{"salon_id":"s1","staff_id":"st1","service_id":"svc1","date":"2026-09-14","time":"10:00"}`,
			"",
			http.StatusBadRequest,
		},
		{
			"invalid date",
			`{"salon_id":"s1","staff_id":"st1","service_id":"svc1","date":"14/09/2026","time":"10:00"}`,
			"tok-1",
			http.StatusBadRequest,
		},
		{
			"invalid time",
			`{"salon_id":"s1","staff_id":"st1","service_id":"svc1","date":"2026-09-14","time":"10am"}`,
			"tok-1",
			http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/public/holds", strings.NewReader(tc.body))
		if tc.ownerToken != "" {
			req.Header.Set(OwnerTokenHeader, tc.ownerToken)
		}
		rr := httptest.NewRecorder()
		h.Create(rr, req)
		if rr.Code != tc.want {
			t.Errorf("%s: expected %d, got %d: %s", tc.name, tc.want, rr.Code, rr.Body.String())
		}
	}
}

func TestHoldCreate_MethodNotAllowed(t *testing.T) {
	h := newTestHoldHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/holds", nil)
	rr := httptest.NewRecorder()
	h.Create(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestHoldRelease_RejectsBadRequests(t *testing.T) {
	h := newTestHoldHandler()

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing hold_id", `{"salon_id":"s1"}`},
		{"missing salon_id", `{"hold_id":"h1"}`},
		{"blank ids", `{"salon_id":"  ","hold_id":"  "}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/public/holds/release", strings.NewReader(tc.body))
		rr := httptest.NewRecorder()
		h.Release(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, rr.Code)
		}
	}
}

func TestHoldConfirm_RejectsBadRequests(t *testing.T) {
	h := newTestHoldHandler()

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing customer_name", `{"salon_id":"s1","hold_id":"h1"}`},
		{"missing hold_id", `{"salon_id":"s1","customer_name":"Dana"}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/public/holds/confirm", strings.NewReader(tc.body))
		rr := httptest.NewRecorder()
		h.Confirm(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, rr.Code)
		}
	}
}
