package booking

import (
	"time"

	"github.com/islandrides/vehicle-rental/internal/models"
)

// AvailableDrivers returns the drivers free for the requested range.
//
// activeBookings must be pre-filtered to statuses in
// models.ActiveBookingStatuses; pending and cancelled bookings never block
// a driver. Unlike the vehicle listing, both instants are mandatory here:
// assigning an unavailable driver has real-world consequences, so a missing
// or out-of-order range is a caller error, not a degrade-to-all case.
func AvailableDrivers(drivers []models.User, start, end time.Time, activeBookings []models.Booking) ([]models.User, error) {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return nil, ErrDateRangeRequired
	}

	busy := make(map[string]struct{})
	for _, b := range activeBookings {
		if b.DriverID == nil {
			continue
		}
		if Overlaps(start, end, b.PickupDate, b.ReturnDate) {
			busy[b.DriverID.Hex()] = struct{}{}
		}
	}

	free := make([]models.User, 0, len(drivers))
	for _, d := range drivers {
		if _, taken := busy[d.ID.Hex()]; taken {
			continue
		}
		free = append(free, d)
	}
	return free, nil
}
