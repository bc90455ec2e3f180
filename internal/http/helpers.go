package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finlogs/internal/core"
	"finlogs/internal/fetcher"
)

// writeJSON renders v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// readJSON decodes the request body into v, rejecting unknown fields.
func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// writeError maps domain errors onto HTTP statuses. Validation problems
// are the client's fault; a dropped fetch is reported as 429 so the
// client backs off and retries.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, fetcher.ErrPageOutOfRange):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, fetcher.ErrFetchInFlight):
		slog.DebugContext(r.Context(), "Request dropped, fetch in flight", "url", r.URL.Path)
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "another fetch is in progress"})
	default:
		slog.ErrorContext(r.Context(), "Request failed", "url", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func isValidationError(err error) bool {
	for _, v := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrEmptyParty,
		core.ErrEmptyType,
		core.ErrEmptyMode,
		core.ErrNotCreditCustomer,
		core.ErrDuplicateParty,
		core.ErrBankPartyExists,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// parseDateParam reads a required ISO date query parameter.
func parseDateParam(r *http.Request, name string) (core.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.ParseDate(raw)
}

// parseRangeParams reads from/to query parameters, defaulting to the
// current calendar month.
func parseRangeParams(r *http.Request) (from, to core.Date, err error) {
	now := time.Now().UTC()
	from = core.NewDate(now.Year(), int(now.Month()), 1)
	to = core.Date{Time: from.AddDate(0, 1, -1)}

	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		if from, err = core.ParseDate(raw); err != nil {
			return core.Date{}, core.Date{}, err
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		if to, err = core.ParseDate(raw); err != nil {
			return core.Date{}, core.Date{}, err
		}
	}
	return from, to, nil
}

// parseIntParam reads an integer query parameter with a default.
func parseIntParam(r *http.Request, name string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
