package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/seatplan-core/internal/arrangement"
	"github.com/nerrad567/seatplan-core/internal/publish"
	"github.com/nerrad567/seatplan-core/internal/roster"
	"github.com/nerrad567/seatplan-core/internal/seating"
	"github.com/nerrad567/seatplan-core/internal/workflow"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeStepLocked  = "step_locked"
	ErrCodeInternal    = "internal_error"
	ErrCodeValidation  = "validation_error"
	ErrCodeUnavailable = "service_unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnavailable writes a 503 error response.
func writeUnavailable(w http.ResponseWriter, message string) {
	writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// validationErrors are domain errors caused by the request content.
var validationErrors = []error{
	seating.ErrInvalidLayout,
	seating.ErrInvalidSeatKey,
	seating.ErrInvalidZone,
	seating.ErrInvalidPart,
	seating.ErrInvalidMember,
	seating.ErrCapacityExceeded,
	arrangement.ErrInvalidDocument,
	arrangement.ErrMemberNotSeated,
	arrangement.ErrInvalidEmergency,
	arrangement.ErrNoCheckpoint,
	workflow.ErrInvalidStep,
	workflow.ErrNothingToReset,
	roster.ErrInvalidDate,
	publish.ErrInvalidDocument,
	publish.ErrNoRecipients,
}

// writeDomainError maps a domain error to a response. Unknown errors are
// logged and reported as 500 without detail.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, arrangement.ErrSessionNotFound):
		writeNotFound(w, "arrangement is not open")
	case errors.Is(err, arrangement.ErrNotFound):
		writeNotFound(w, "arrangement not found")
	case errors.Is(err, roster.ErrMemberNotFound):
		writeNotFound(w, "member not found")
	case errors.Is(err, arrangement.ErrVersionConflict):
		writeError(w, http.StatusConflict, ErrCodeConflict, "arrangement was modified elsewhere; reopen it")
	case errors.Is(err, roster.ErrMemberExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, "member already exists")
	case errors.Is(err, seating.ErrMemberSeated):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, workflow.ErrStepLocked):
		writeError(w, http.StatusConflict, ErrCodeStepLocked, err.Error())
	case errors.Is(err, publish.ErrTransportDisabled):
		writeUnavailable(w, "message broker is not connected")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeUnavailable(w, "request cancelled")
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		s.logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, "internal server error")
	}
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
