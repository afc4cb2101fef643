package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle types offered for rental.
const (
	VehicleTypeCar     = "Car"
	VehicleTypeVan     = "Van"
	VehicleTypeSUV     = "SUV"
	VehicleTypeBus     = "Bus"
	VehicleTypeScooter = "Scooter"
)

// BlockedPeriod is a date range during which a vehicle is reserved.
// Invariant: EndDate is strictly after StartDate.
type BlockedPeriod struct {
	StartDate time.Time `bson:"start_date" json:"start_date"`
	EndDate   time.Time `bson:"end_date" json:"end_date"`
}

// Vehicle represents a rentable vehicle.
type Vehicle struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type           string             `bson:"type" json:"type"` // Car, Van, SUV, Bus, Scooter
	Brand          string             `bson:"brand" json:"brand"`
	Model          string             `bson:"model" json:"model"`
	Seats          int                `bson:"seats" json:"seats"`
	Features       []string           `bson:"features" json:"features"`
	PricePerDay    float64            `bson:"price_per_day" json:"price_per_day"`
	PricePerHour   float64            `bson:"price_per_hour" json:"price_per_hour"`
	ImageURL       string             `bson:"image_url" json:"image_url"`
	Available      bool               `bson:"available" json:"available"` // admin override, independent of bookings
	BlockedPeriods []BlockedPeriod    `bson:"blocked_periods" json:"blocked_periods"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsValidVehicleType checks if a vehicle type is one of the supported types.
func IsValidVehicleType(vehicleType string) bool {
	switch vehicleType {
	case VehicleTypeCar, VehicleTypeVan, VehicleTypeSUV, VehicleTypeBus, VehicleTypeScooter:
		return true
	default:
		return false
	}
}
