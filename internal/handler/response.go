package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// ERROR-DISCLOSURE CONTRACT:
// Every failure response has exactly one shape:
//
//	{"message": "..."}
//
// One field, one fixed message set. No error codes that differ between
// "unknown email" and "wrong password", no stack traces, no SQL fragments,
// no library error text. Whatever detail exists goes to the server log, not
// to the wire (OWASP A05 — Security Misconfiguration / information leakage).

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/secure-login/internal/apperror"
)

// ErrorResponse is the single-field error body returned by all endpoints.
type ErrorResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status code must be set BEFORE writing the body. Once
// Encode calls w.Write(), the headers are sent and later changes are
// silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code.
//
// The service layer returns apperror sentinels; this is the one place they
// become status codes. Duplicate registration maps to 400 alongside
// validation — the client treats both as "fix your input and resubmit".
//
// errors.Is() walks the wrapped error chain, so a service error like
// fmt.Errorf("creating user: %w", apperror.Conflict(...)) still matches.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		}

		writeJSON(w, status, ErrorResponse{Message: appErr.Message})
		return
	}

	// Unknown error — a server fault. The generic message is deliberate:
	// the raw error might contain file paths, SQL, or config detail.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Message: "an internal error occurred",
	})
}
