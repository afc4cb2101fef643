package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/islandrides/vehicle-rental/internal/booking"
	log "github.com/sirupsen/logrus"
)

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("failed to encode response")
	}
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error  string               `json:"error"`
	Fields []booking.FieldError `json:"fields,omitempty"`
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	if fields, ok := booking.AsValidationErrors(err); ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid booking request", Fields: fields})
		return
	}
	if booking.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	var invalidTransition *booking.InvalidTransitionError
	switch {
	case errors.As(err, &invalidTransition):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrVehicleUnavailable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrActiveBookingsExist):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrMissingDriver):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrInvalidDriver):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrDateRangeRequired):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.WithError(err).Error("internal error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
