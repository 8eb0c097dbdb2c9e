package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"momo/internal/auth"
	"momo/internal/core"
	"momo/internal/export"
)

// statusFor maps an error kind to the HTTP status it is reported with.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound), errors.Is(err, export.ErrNoRecords):
		return http.StatusNotFound
	case core.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the text shown to the agent for err. Store failures never
// leak driver details.
func publicMessage(err error) string {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		return "Invalid input: " + ve.Reason
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, export.ErrNoRecords):
		return "No records found"
	case errors.Is(err, core.ErrNotFound):
		return "Not found"
	default:
		return "Something went wrong. Please try again."
	}
}

// writeError replies with a plain-text error and logs server-side failures.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	http.Error(w, publicMessage(err), status)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode JSON response", "path", r.URL.Path, "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, r, status, map[string]string{"error": publicMessage(err)})
}

// sanitizeInput removes control characters except tab and newlines, then trims.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
