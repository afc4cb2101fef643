package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/islandrides/vehicle-rental/internal/models"
)

var (
	// ErrMissingDriver is returned when confirming a with-driver booking
	// without a driver assigned or supplied.
	ErrMissingDriver = errors.New("booking requires a driver before confirmation")

	// ErrInvalidDriver is returned when a supplied driver id does not
	// resolve to an active account with the driver role.
	ErrInvalidDriver = errors.New("driver id does not resolve to a driver account")

	// ErrVehicleUnavailable is returned when the requested range conflicts
	// with an existing blocked period on the vehicle.
	ErrVehicleUnavailable = errors.New("vehicle is not available for the requested dates")

	// ErrActiveBookingsExist blocks driver deletion while the driver has
	// bookings in an active status.
	ErrActiveBookingsExist = errors.New("driver has active bookings")

	// ErrForbidden is returned when the caller's role or identity does not
	// permit the requested operation.
	ErrForbidden = errors.New("caller is not permitted to perform this operation")

	// ErrDateRangeRequired is returned when a mandatory pickup/return range
	// is missing or out of order (driver availability lookups).
	ErrDateRangeRequired = errors.New("a valid pickup and return date range is required")
)

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// InvalidTransitionError reports a rejected booking status change.
type InvalidTransitionError struct {
	From models.BookingStatus
	To   models.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid booking status transition: %s -> %s", e.From, e.To)
}

// FieldError is a single per-field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects per-field validation failures for a booking
// request. It is surfaced to the caller as a whole, never retried.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "invalid booking request: " + strings.Join(msgs, "; ")
}

// AsValidationErrors unwraps err into ValidationErrors if possible.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
