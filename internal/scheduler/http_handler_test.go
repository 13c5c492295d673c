package scheduler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tbaxter/workshift/internal/events"
)

func newTestHandler(t *testing.T) (http.Handler, *stubStore, *events.Broker) {
	t.Helper()
	service, store := newTestService()
	broker := events.NewBroker()
	return NewHTTPHandler(service, broker), store, broker
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAssignShiftEndpoint(t *testing.T) {
	handler, _, broker := newTestHandler(t)
	_, feed := broker.Subscribe()

	rec := doRequest(t, handler, http.MethodPut, "/api/shifts/2026-07-01", `{"type":"day8"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var shift struct {
		Date  string `json:"date"`
		Type  string `json:"type"`
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &shift); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if shift.Type != "day8" || shift.Start != "07:00" || shift.End != "15:00" {
		t.Fatalf("unexpected shift payload: %+v", shift)
	}

	select {
	case event := <-feed:
		if event.Type != "shift_changed" {
			t.Fatalf("unexpected event type %q", event.Type)
		}
	default:
		t.Fatalf("expected a shift_changed broadcast")
	}
}

func TestAssignShiftEndpointRejectsUnknownType(t *testing.T) {
	handler, store, _ := newTestHandler(t)

	rec := doRequest(t, handler, http.MethodPut, "/api/shifts/2026-07-01", `{"type":"bogus"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(store.shifts) != 0 || len(store.entries) != 0 {
		t.Fatalf("rejected request must not touch state")
	}
}

func TestAssignShiftEndpointRejectsBadDate(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := doRequest(t, handler, http.MethodPut, "/api/shifts/not-a-date", `{"type":"day8"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetShiftEndpointNotFound(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/shifts/2026-07-01", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteShiftEndpointNoOp(t *testing.T) {
	handler, _, broker := newTestHandler(t)
	_, feed := broker.Subscribe()

	rec := doRequest(t, handler, http.MethodDelete, "/api/shifts/2026-07-01", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a no-op delete, got %d", rec.Code)
	}

	select {
	case event := <-feed:
		t.Fatalf("no-op delete must not broadcast, got %+v", event)
	default:
	}
}

func TestUndoEndpoint(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := doRequest(t, handler, http.MethodPut, "/api/shifts/2026-07-01", `{"type":"day8"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("assign failed: %d", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/undo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Message      string `json:"message"`
		RestoredDate string `json:"restored_date"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if result.RestoredDate != "2026-07-01" {
		t.Fatalf("unexpected restored date: %q", result.RestoredDate)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/undo", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 once history is exhausted, got %d", rec.Code)
	}
}

func TestListShiftsEndpointRequiresRange(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/shifts", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a range, got %d", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/shifts?from=2026-07-01&to=2026-07-31", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHistoryEndpointShape(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	doRequest(t, handler, http.MethodPut, "/api/shifts/2026-07-01", `{"type":"day8"}`)
	doRequest(t, handler, http.MethodPut, "/api/shifts/2026-07-01", `{"type":"night12"}`)

	rec := doRequest(t, handler, http.MethodGet, "/api/history?limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var items []struct {
		ID        int64  `json:"id"`
		Timestamp string `json:"timestamp"`
		Date      string `json:"date"`
		Change    string `json:"change"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(items))
	}
	if items[0].Change != "2026-07-01: day8 → night12" {
		t.Fatalf("unexpected newest change: %q", items[0].Change)
	}
	if items[1].Change != "Set 2026-07-01 → day8" {
		t.Fatalf("unexpected oldest change: %q", items[1].Change)
	}
	if items[0].Timestamp == "" {
		t.Fatalf("expected a timestamp")
	}
}

func TestShiftTypesEndpoint(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/shift_types", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var types map[string]struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &types); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(types) != 3 {
		t.Fatalf("expected 3 shift types, got %d", len(types))
	}
	if types["night12"].Start != "19:00" {
		t.Fatalf("unexpected night12 start: %q", types["night12"].Start)
	}
}

func TestNextShiftEndpointEmpty(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/next_shift", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with an empty schedule, got %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
