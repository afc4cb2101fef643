package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/islandrides/vehicle-rental/internal/db"
	"github.com/islandrides/vehicle-rental/internal/events"
	"github.com/islandrides/vehicle-rental/internal/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// keyedMutex serializes operations per key. Booking creation is serialized
// per vehicle so that "check availability + append blocked period" is
// atomic within this process; status transitions are serialized per booking.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Engine is the booking and availability engine. It owns the availability
// checks, the booking lifecycle and their invariants; HTTP controllers call
// into it with the caller's role and id made explicit.
type Engine struct {
	vehicles db.VehicleCollection
	bookings db.BookingCollection
	users    db.UserCollection
	events   events.Publisher

	vehicleLocks *keyedMutex
	bookingLocks *keyedMutex
}

// NewEngine creates a booking engine over the given collections.
func NewEngine(vehicles db.VehicleCollection, bookings db.BookingCollection, users db.UserCollection, publisher events.Publisher) *Engine {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Engine{
		vehicles:     vehicles,
		bookings:     bookings,
		users:        users,
		events:       publisher,
		vehicleLocks: newKeyedMutex(),
		bookingLocks: newKeyedMutex(),
	}
}

// notFoundFrom maps storage lookup failures for entity/id to the engine's
// error taxonomy. Malformed object ids are reported as not-found rather
// than leaked as driver errors.
func notFoundFrom(err error, entity, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("storage error loading %s %s: %w", entity, id, err)
}

// computeTotalPrice prices a rental: hourly rate for rentals under a day,
// daily rate otherwise, partial units rounded up.
func computeTotalPrice(v *models.Vehicle, pickup, ret time.Time) float64 {
	d := ret.Sub(pickup)
	if d < 24*time.Hour {
		hours := math.Ceil(d.Hours())
		return hours * v.PricePerHour
	}
	days := math.Ceil(d.Hours() / 24)
	return days * v.PricePerDay
}

// RequestBooking validates a raw booking request, checks vehicle
// availability and creates a pending booking. The vehicle's blocked period
// is appended at creation time: a pending booking already occupies the
// vehicle, preventing a double-booking while an admin decides. Cancellation
// releases the period again.
func (e *Engine) RequestBooking(ctx context.Context, raw models.BookingRequest, touristID string) (*models.Booking, error) {
	parsed, err := ValidateBookingRequest(raw)
	if err != nil {
		return nil, err
	}

	touristOID, err := primitive.ObjectIDFromHex(touristID)
	if err != nil {
		return nil, &NotFoundError{Entity: "user", ID: touristID}
	}

	if _, err := primitive.ObjectIDFromHex(parsed.VehicleID); err != nil {
		return nil, &NotFoundError{Entity: "vehicle", ID: parsed.VehicleID}
	}

	unlock := e.vehicleLocks.lock(parsed.VehicleID)
	defer unlock()

	vehicle, err := e.vehicles.FindVehicleByID(ctx, parsed.VehicleID)
	if err != nil {
		return nil, notFoundFrom(err, "vehicle", parsed.VehicleID)
	}

	if !vehicle.Available {
		return nil, ErrVehicleUnavailable
	}
	if !IsVehicleAvailable(vehicle, parsed.Pickup, parsed.Return) {
		return nil, ErrVehicleUnavailable
	}

	now := time.Now()
	booking := models.Booking{
		ID:              primitive.NewObjectID(),
		Reference:       "BK-" + strings.ToUpper(uuid.NewString()[:8]),
		VehicleID:       vehicle.ID,
		TouristID:       touristOID,
		PickupDate:      parsed.Pickup,
		ReturnDate:      parsed.Return,
		PickupLocation:  parsed.PickupLocation,
		ReturnLocation:  parsed.ReturnLocation,
		Passengers:      parsed.Passengers,
		DriverOption:    parsed.DriverOption,
		SpecialRequests: parsed.SpecialRequests,
		TotalPrice:      computeTotalPrice(vehicle, parsed.Pickup, parsed.Return),
		Status:          models.BookingStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	period := models.BlockedPeriod{StartDate: parsed.Pickup, EndDate: parsed.Return}
	if err := e.vehicles.AppendBlockedPeriod(ctx, parsed.VehicleID, period); err != nil {
		return nil, fmt.Errorf("storage error reserving vehicle %s: %w", parsed.VehicleID, err)
	}
	if err := e.bookings.InsertBooking(ctx, booking); err != nil {
		// Release the period again so a failed insert does not leave the
		// vehicle blocked with no booking behind it.
		if rbErr := e.vehicles.RemoveBlockedPeriod(ctx, parsed.VehicleID, period); rbErr != nil {
			log.WithError(rbErr).WithField("vehicle_id", parsed.VehicleID).
				Error("failed to release blocked period after insert failure")
		}
		return nil, fmt.Errorf("storage error creating booking: %w", err)
	}

	e.events.PublishBookingEvent("created", booking)
	return &booking, nil
}

// ListAvailableVehicles lists vehicles for the public catalogue. The type
// filter and the date range are both optional; vehicles switched off by an
// admin are never listed. See FilterAvailableVehicles for the
// missing/invalid-range policy.
func (e *Engine) ListAvailableVehicles(ctx context.Context, vehicleType string, start, end *time.Time) ([]models.Vehicle, error) {
	vehicles, err := e.vehicles.FindVehicles(ctx, vehicleType)
	if err != nil {
		return nil, fmt.Errorf("storage error listing vehicles: %w", err)
	}

	listed := make([]models.Vehicle, 0, len(vehicles))
	for i := range vehicles {
		if vehicles[i].Available {
			listed = append(listed, vehicles[i])
		}
	}
	return FilterAvailableVehicles(listed, start, end, ""), nil
}

// ListAvailableDrivers lists the drivers free for the given range. Both
// instants are mandatory.
func (e *Engine) ListAvailableDrivers(ctx context.Context, start, end time.Time) ([]models.User, error) {
	drivers, err := e.users.FindUsersByRole(ctx, models.RoleDriver)
	if err != nil {
		return nil, fmt.Errorf("storage error listing drivers: %w", err)
	}
	active, err := e.bookings.FindBookings(ctx, db.BookingFilter{Statuses: models.ActiveBookingStatuses})
	if err != nil {
		return nil, fmt.Errorf("storage error listing active bookings: %w", err)
	}
	return AvailableDrivers(drivers, start, end, active)
}

// resolveDriver checks that id belongs to an active account with the
// driver role and returns its object id.
func (e *Engine) resolveDriver(ctx context.Context, id string) (primitive.ObjectID, error) {
	user, err := e.users.FindUserByID(ctx, id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidDriver
	}
	if user.Role != models.RoleDriver || !user.IsActive {
		return primitive.NilObjectID, ErrInvalidDriver
	}
	return user.ID, nil
}

// TransitionBooking applies a lifecycle transition to a booking on behalf
// of the caller. driverID is only meaningful when confirming a with-driver
// booking; it must be empty otherwise. The current-state read and
// next-state write are serialized per booking and additionally guarded by
// a conditional write at the storage layer.
func (e *Engine) TransitionBooking(ctx context.Context, bookingID string, callerRole models.Role, callerID string, target models.BookingStatus, driverID string) (*models.Booking, error) {
	if !models.IsValidBookingStatus(target) || target == models.BookingStatusPending {
		return nil, &InvalidTransitionError{To: target}
	}

	unlock := e.bookingLocks.lock(bookingID)
	defer unlock()

	booking, err := e.bookings.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, notFoundFrom(err, "booking", bookingID)
	}

	if err := authorizeTransition(booking, target, callerRole, callerID); err != nil {
		return nil, err
	}
	if !CanTransition(booking.Status, target) {
		return nil, &InvalidTransitionError{From: booking.Status, To: target}
	}

	if target == models.BookingStatusConfirmed {
		if err := e.prepareConfirmation(ctx, booking, driverID); err != nil {
			return nil, err
		}
	} else if driverID != "" {
		return nil, ErrInvalidDriver
	}

	prev := booking.Status
	applyTransition(booking, target, time.Now())

	if err := e.bookings.ReplaceBookingIfStatus(ctx, bookingID, prev, *booking); err != nil {
		if errors.Is(err, db.ErrStaleWrite) {
			// A concurrent transition won the race; the state we read is gone.
			return nil, &InvalidTransitionError{From: prev, To: target}
		}
		return nil, fmt.Errorf("storage error updating booking %s: %w", bookingID, err)
	}

	if target == models.BookingStatusCancelled {
		// Blocked periods are materialized at creation, so cancellation
		// must release the vehicle for those dates again.
		period := models.BlockedPeriod{StartDate: booking.PickupDate, EndDate: booking.ReturnDate}
		if err := e.vehicles.RemoveBlockedPeriod(ctx, booking.VehicleID.Hex(), period); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"booking_id": bookingID,
				"vehicle_id": booking.VehicleID.Hex(),
			}).Error("failed to release blocked period on cancellation")
		}
	}

	e.events.PublishBookingEvent(string(target), *booking)
	return booking, nil
}

// prepareConfirmation enforces the driver-option preconditions of the
// pending -> confirmed step and assigns the driver onto the booking.
func (e *Engine) prepareConfirmation(ctx context.Context, booking *models.Booking, driverID string) error {
	switch booking.DriverOption {
	case models.DriverOptionWithDriver:
		if driverID != "" {
			oid, err := e.resolveDriver(ctx, driverID)
			if err != nil {
				return err
			}
			booking.DriverID = &oid
		}
		if booking.DriverID == nil {
			return ErrMissingDriver
		}
	case models.DriverOptionSelfDrive:
		// Self-drive confirmations neither require nor accept a driver.
		if driverID != "" {
			return ErrInvalidDriver
		}
	}
	return nil
}

// DeleteDriver removes a driver account. Deletion is rejected while the
// driver still has bookings in an active status; completed, cancelled and
// never-assigned bookings do not block it.
func (e *Engine) DeleteDriver(ctx context.Context, driverID string) error {
	user, err := e.users.FindUserByID(ctx, driverID)
	if err != nil {
		return notFoundFrom(err, "driver", driverID)
	}
	if user.Role != models.RoleDriver {
		return &NotFoundError{Entity: "driver", ID: driverID}
	}

	oid := user.ID
	active, err := e.bookings.FindBookings(ctx, db.BookingFilter{
		Statuses: models.ActiveBookingStatuses,
		DriverID: &oid,
	})
	if err != nil {
		return fmt.Errorf("storage error checking driver bookings: %w", err)
	}
	if len(active) > 0 {
		return ErrActiveBookingsExist
	}

	if err := e.users.DeleteUser(ctx, driverID); err != nil {
		return fmt.Errorf("storage error deleting driver %s: %w", driverID, err)
	}
	return nil
}

// FindBooking loads a single booking.
func (e *Engine) FindBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := e.bookings.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, notFoundFrom(err, "booking", bookingID)
	}
	return booking, nil
}

// ListBookings queries bookings with the given filter (admin and portal
// read path; a single canonical implementation).
func (e *Engine) ListBookings(ctx context.Context, filter db.BookingFilter) ([]models.Booking, error) {
	bookings, err := e.bookings.FindBookings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("storage error listing bookings: %w", err)
	}
	return bookings, nil
}
