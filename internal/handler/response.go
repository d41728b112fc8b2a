// Package handler exposes the HTTP surface. Handlers decode requests, call
// the service layer, and translate results and errors into JSON responses;
// no business logic lives here.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tasteboard/tasteboard/internal/apperror"
)

type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable type, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending field for validation errors
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; logging is all that is left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Only the AppError
// message crosses the boundary; wrapped internal detail never reaches the
// client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	errorType := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
		errorType = "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	case errors.Is(err, apperror.ErrUnavailable):
		status = http.StatusServiceUnavailable
		errorType = "unavailable"
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: "an unexpected error occurred",
	})
}
