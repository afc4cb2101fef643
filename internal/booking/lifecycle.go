package booking

import (
	"time"

	"github.com/islandrides/vehicle-rental/internal/models"
)

// allowedTransitions is the booking lifecycle as a directed graph.
// pending is the sole initial state; completed and cancelled are terminal.
// Progress transitions are strictly forward, no step skipping.
var allowedTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusPending:   {models.BookingStatusConfirmed, models.BookingStatusCancelled},
	models.BookingStatusConfirmed: {models.BookingStatusPickedUp, models.BookingStatusCancelled},
	models.BookingStatusPickedUp:  {models.BookingStatusEnRoute, models.BookingStatusCompleted},
	models.BookingStatusEnRoute:   {models.BookingStatusCompleted},
	models.BookingStatusCompleted: {},
	models.BookingStatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to models.BookingStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// progressTransitions are the steps performed by the assigned driver.
var progressTransitions = map[models.BookingStatus]bool{
	models.BookingStatusPickedUp:  true,
	models.BookingStatusEnRoute:   true,
	models.BookingStatusCompleted: true,
}

// authorizeTransition checks that the caller may request this transition.
// Admins may drive any legal transition. The assigned driver may perform
// progress steps on their own booking. A tourist may cancel their own
// booking. Everything else is forbidden.
func authorizeTransition(b *models.Booking, to models.BookingStatus, callerRole models.Role, callerID string) error {
	switch callerRole {
	case models.RoleAdmin:
		return nil
	case models.RoleDriver:
		if !progressTransitions[to] {
			return ErrForbidden
		}
		if b.DriverID == nil || b.DriverID.Hex() != callerID {
			return ErrForbidden
		}
		return nil
	case models.RoleTourist:
		if to != models.BookingStatusCancelled || b.TouristID.Hex() != callerID {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

// applyTransition mutates the booking in memory: status, the per-state
// timestamp, and the driver id (assignment on confirm, clearing on cancel).
// Callers must have verified CanTransition and the confirmation
// preconditions first.
func applyTransition(b *models.Booking, to models.BookingStatus, now time.Time) {
	b.Status = to
	b.UpdatedAt = now

	switch to {
	case models.BookingStatusConfirmed:
		t := now
		b.ConfirmedAt = &t
	case models.BookingStatusPickedUp:
		t := now
		b.PickedUpAt = &t
	case models.BookingStatusEnRoute:
		t := now
		b.EnRouteAt = &t
	case models.BookingStatusCompleted:
		t := now
		b.CompletedAt = &t
	case models.BookingStatusCancelled:
		t := now
		b.CancelledAt = &t
		// A cancelled booking no longer occupies driver time.
		b.DriverID = nil
	}
}
