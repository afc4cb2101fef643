package db

import (
	"context"
	"errors"

	"github.com/islandrides/vehicle-rental/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrStaleWrite is returned by conditional updates when the stored document
// no longer matches the expected state (a concurrent writer got there first).
var ErrStaleWrite = errors.New("document changed since it was read")

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) error
	FindVehicles(ctx context.Context, vehicleType string) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
	AppendBlockedPeriod(ctx context.Context, id string, period models.BlockedPeriod) error
	RemoveBlockedPeriod(ctx context.Context, id string, period models.BlockedPeriod) error
}

// BookingFilter narrows booking queries. Zero-value fields are ignored.
type BookingFilter struct {
	Statuses  []models.BookingStatus
	DriverID  *primitive.ObjectID
	TouristID *primitive.ObjectID
	VehicleID *primitive.ObjectID
}

// BookingCollection defines the interface for booking data operations.
// ReplaceBookingIfStatus is the storage-level compare-and-swap that keeps
// status transitions atomic: the replace only applies while the stored
// status still equals expected, and fails with ErrStaleWrite otherwise.
type BookingCollection interface {
	InsertBooking(ctx context.Context, booking models.Booking) error
	FindBookingByID(ctx context.Context, id string) (*models.Booking, error)
	FindBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error)
	ReplaceBookingIfStatus(ctx context.Context, id string, expected models.BookingStatus, booking models.Booking) error
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	DeleteUser(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string) error
}
