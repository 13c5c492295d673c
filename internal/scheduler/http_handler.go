package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tbaxter/workshift/internal/catalog"
	"github.com/tbaxter/workshift/internal/domain"
	"github.com/tbaxter/workshift/internal/events"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500

	// requestTimeout bounds every storage round trip behind a request.
	requestTimeout = 10 * time.Second
)

// Handler exposes the scheduler as REST endpoints and broadcasts
// live-update events after successful mutations.
type Handler struct {
	service *Service
	broker  *events.Broker
}

// NewHTTPHandler wraps the service with the /api endpoints.
func NewHTTPHandler(service *Service, broker *events.Broker) http.Handler {
	return &Handler{service: service, broker: broker}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	r = r.WithContext(ctx)

	switch {
	case r.URL.Path == "/api/shifts" && r.Method == http.MethodGet:
		h.handleListShifts(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/shifts/"):
		h.handleShiftByDate(w, r)
	case r.URL.Path == "/api/undo" && r.Method == http.MethodPost:
		h.handleUndo(w, r)
	case r.URL.Path == "/api/history" && r.Method == http.MethodGet:
		h.handleListHistory(w, r)
	case r.URL.Path == "/api/shift_types" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, catalog.Types())
	case r.URL.Path == "/api/next_shift" && r.Method == http.MethodGet:
		h.handleNextShift(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) handleListShifts(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid from date: %v", err), http.StatusBadRequest)
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid to date: %v", err), http.StatusBadRequest)
		return
	}

	shifts, err := h.service.ListShifts(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shifts)
}

type shiftUpdatePayload struct {
	Type string `json:"type"`
}

type messagePayload struct {
	Message string `json:"message"`
}

func (h *Handler) handleShiftByDate(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(strings.TrimPrefix(r.URL.Path, "/api/shifts/"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid date: %v", err), http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		shift, err := h.service.GetShift(r.Context(), date)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, shift)

	case http.MethodPut:
		defer r.Body.Close()
		var payload shiftUpdatePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
			return
		}

		shift, err := h.service.AssignShift(r.Context(), date, payload.Type)
		if err != nil {
			writeError(w, err)
			return
		}
		h.broker.Publish(events.Event{
			Type: "shift_changed",
			Data: map[string]any{"date": date, "type": shift.Type},
		})
		writeJSON(w, http.StatusOK, shift)

	case http.MethodDelete:
		if err := h.service.RemoveShift(r.Context(), date); err != nil {
			writeError(w, err)
			return
		}
		h.broker.Publish(events.Event{
			Type: "shift_deleted",
			Data: map[string]any{"date": date},
		})
		writeJSON(w, http.StatusOK, messagePayload{Message: fmt.Sprintf("Deleted shift on %s", date)})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleUndo(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.UndoLast(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	h.broker.Publish(events.Event{Type: "undo", Data: map[string]any{"date": result.RestoredDate}})
	writeJSON(w, http.StatusOK, result)
}

// historyItem is the external history shape: the change record stays
// internal, only the human-readable description goes out.
type historyItem struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Date      string `json:"date"`
	Change    string `json:"change"`
}

func (h *Handler) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid limit: %v", err), http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := h.service.ListHistory(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]historyItem, len(entries))
	for i, entry := range entries {
		items[i] = historyItem{
			ID:        entry.ID,
			Timestamp: entry.Timestamp.UTC().Format(time.RFC3339),
			Date:      entry.Date,
			Change:    entry.Description,
		}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleNextShift(w http.ResponseWriter, r *http.Request) {
	next, err := h.service.UpcomingShift(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func parseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", err
	}
	return raw, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownShiftType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrShiftNotFound),
		errors.Is(err, domain.ErrNoHistory),
		errors.Is(err, domain.ErrNoUpcomingShift):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Printf("[API] Internal error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
