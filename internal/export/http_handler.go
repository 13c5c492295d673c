package export

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultHistoryLimit = 500

// Handler exposes exports as a download endpoint.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a GET endpoint.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

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

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil || parsed < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	switch format := r.URL.Query().Get("format"); format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=schedule-%s-%s.csv", from, to))
		if err := h.service.WriteScheduleCSV(r.Context(), w, from, to); err != nil {
			log.Printf("[EXPORT] Failed to stream csv: %v", err)
		}

	case "", "xlsx":
		f, err := h.service.BuildWorkbook(r.Context(), from, to, limit)
		if err != nil {
			log.Printf("[EXPORT] Failed to build workbook: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=schedule-%s-%s.xlsx", from, to))
		if err := f.Write(w); err != nil {
			log.Printf("[EXPORT] Failed to stream workbook: %v", err)
		}

	default:
		http.Error(w, fmt.Sprintf("unsupported format %q", format), http.StatusBadRequest)
	}
}

func parseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", err
	}
	return raw, nil
}
