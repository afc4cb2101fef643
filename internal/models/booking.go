package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus is the lifecycle state of a booking (persisted as a string).
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPickedUp  BookingStatus = "picked_up"
	BookingStatusEnRoute   BookingStatus = "en_route"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Driver options for a booking.
const (
	DriverOptionSelfDrive  = "self-drive"
	DriverOptionWithDriver = "with-driver"
)

// ActiveBookingStatuses are the statuses that reserve driver time.
// Pending requests and terminal statuses do not block a driver.
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusConfirmed,
	BookingStatusPickedUp,
	BookingStatusEnRoute,
}

// IsTerminal reports whether no further transition is permitted from s.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// IsValidBookingStatus checks if a status is one of the known lifecycle states.
func IsValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusPickedUp,
		BookingStatusEnRoute, BookingStatusCompleted, BookingStatusCancelled:
		return true
	default:
		return false
	}
}

// Booking represents a rental booking. Vehicle, driver and tourist are
// referenced by id only; the authoritative "is X busy" state is derived
// from bookings filtered by status and date range.
type Booking struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Reference       string              `bson:"reference" json:"reference"`
	VehicleID       primitive.ObjectID  `bson:"vehicle_id" json:"vehicle_id"`
	DriverID        *primitive.ObjectID `bson:"driver_id,omitempty" json:"driver_id,omitempty"`
	TouristID       primitive.ObjectID  `bson:"tourist_id" json:"tourist_id"`
	PickupDate      time.Time           `bson:"pickup_date" json:"pickup_date"`
	ReturnDate      time.Time           `bson:"return_date" json:"return_date"`
	PickupLocation  string              `bson:"pickup_location" json:"pickup_location"`
	ReturnLocation  string              `bson:"return_location" json:"return_location"`
	Passengers      int                 `bson:"passengers" json:"passengers"`
	DriverOption    string              `bson:"driver_option" json:"driver_option"` // self-drive or with-driver
	SpecialRequests string              `bson:"special_requests" json:"special_requests"`
	TotalPrice      float64             `bson:"total_price" json:"total_price"`
	Status          BookingStatus       `bson:"status" json:"status"`
	ConfirmedAt     *time.Time          `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	PickedUpAt      *time.Time          `bson:"picked_up_at,omitempty" json:"picked_up_at,omitempty"`
	EnRouteAt       *time.Time          `bson:"en_route_at,omitempty" json:"en_route_at,omitempty"`
	CompletedAt     *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CancelledAt     *time.Time          `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CreatedAt       time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updated_at"`
}

// BookingRequest is the raw client payload for creating a booking.
// It is validated and parsed before any availability check runs.
type BookingRequest struct {
	VehicleID       string `json:"vehicle_id"`
	PickupDate      string `json:"pickup_date"`
	PickupTime      string `json:"pickup_time,omitempty"`
	ReturnDate      string `json:"return_date"`
	ReturnTime      string `json:"return_time,omitempty"`
	PickupLocation  string `json:"pickup_location"`
	ReturnLocation  string `json:"return_location"`
	Passengers      int    `json:"passengers"`
	DriverOption    string `json:"driver_option"`
	SpecialRequests string `json:"special_requests"`
}
