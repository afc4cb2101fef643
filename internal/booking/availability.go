package booking

import (
	"time"

	"github.com/islandrides/vehicle-rental/internal/models"
)

// IsVehicleAvailable reports whether the vehicle has no blocked period
// overlapping the requested range. A vehicle with no blocked periods is
// always available. The administrative availability flag is a separate
// concern and is not consulted here.
func IsVehicleAvailable(v *models.Vehicle, start, end time.Time) bool {
	for _, p := range v.BlockedPeriods {
		if Overlaps(start, end, p.StartDate, p.EndDate) {
			return false
		}
	}
	return true
}

// FilterAvailableVehicles applies an optional type filter, then an optional
// availability filter, preserving storage order.
//
// The date filter only applies when both instants are present and start is
// strictly before end. A missing or malformed range degrades to "show all"
// rather than "show none": hiding the whole inventory on a client-side date
// bug is worse than showing a vehicle the booking flow will later reject.
func FilterAvailableVehicles(vehicles []models.Vehicle, start, end *time.Time, vehicleType string) []models.Vehicle {
	result := make([]models.Vehicle, 0, len(vehicles))
	checkDates := start != nil && end != nil && start.Before(*end)
	for i := range vehicles {
		v := vehicles[i]
		if vehicleType != "" && v.Type != vehicleType {
			continue
		}
		if checkDates && !IsVehicleAvailable(&v, *start, *end) {
			continue
		}
		result = append(result, v)
	}
	return result
}
