package booking

import (
	"time"

	"github.com/islandrides/vehicle-rental/internal/models"
)

// Date/time layouts accepted from clients.
const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04"
	dateTimeLayout = "2006-01-02 15:04"
)

// ParsedBooking is a booking request that passed structural and temporal
// validation. Dates are comparable instants, ready for availability checks.
type ParsedBooking struct {
	VehicleID       string
	Pickup          time.Time
	Return          time.Time
	PickupLocation  string
	ReturnLocation  string
	Passengers      int
	DriverOption    string
	SpecialRequests string
}

// parseInstant parses a client-supplied date with an optional separate time
// component. Accepted forms: RFC 3339, "2006-01-02 15:04" combined, or a
// bare date (midnight) plus an optional "15:04" time field.
func parseInstant(date, clock string) (time.Time, bool) {
	if date == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t, true
	}
	if t, err := time.Parse(dateTimeLayout, date); err == nil {
		return t, true
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	if clock == "" {
		return d, true
	}
	c, err := time.Parse(timeLayout, clock)
	if err != nil {
		return time.Time{}, false
	}
	return d.Add(time.Duration(c.Hour())*time.Hour + time.Duration(c.Minute())*time.Minute), true
}

// ValidateBookingRequest checks an incoming booking request for structural
// and temporal correctness. It runs before any availability check; a
// request that fails here never reaches the vehicle or driver resolvers.
// On failure it returns ValidationErrors with one entry per bad field.
func ValidateBookingRequest(raw models.BookingRequest) (*ParsedBooking, error) {
	var errs ValidationErrors

	if raw.VehicleID == "" {
		errs = append(errs, FieldError{Field: "vehicle_id", Message: "vehicle id is required"})
	}

	pickup, pickupOK := parseInstant(raw.PickupDate, raw.PickupTime)
	if raw.PickupDate == "" {
		errs = append(errs, FieldError{Field: "pickup_date", Message: "pickup date is required"})
	} else if !pickupOK {
		errs = append(errs, FieldError{Field: "pickup_date", Message: "pickup date is not a valid date"})
	}

	ret, retOK := parseInstant(raw.ReturnDate, raw.ReturnTime)
	if raw.ReturnDate == "" {
		errs = append(errs, FieldError{Field: "return_date", Message: "return date is required"})
	} else if !retOK {
		errs = append(errs, FieldError{Field: "return_date", Message: "return date is not a valid date"})
	}

	if pickupOK && retOK && !ret.After(pickup) {
		errs = append(errs, FieldError{Field: "return_date", Message: "return date must be after pickup date"})
	}

	if raw.PickupLocation == "" {
		errs = append(errs, FieldError{Field: "pickup_location", Message: "pickup location is required"})
	}
	if raw.ReturnLocation == "" {
		errs = append(errs, FieldError{Field: "return_location", Message: "return location is required"})
	}
	if raw.Passengers < 1 {
		errs = append(errs, FieldError{Field: "passengers", Message: "passenger count must be at least 1"})
	}

	driverOption := raw.DriverOption
	if driverOption == "" {
		driverOption = models.DriverOptionSelfDrive
	}
	if driverOption != models.DriverOptionSelfDrive && driverOption != models.DriverOptionWithDriver {
		errs = append(errs, FieldError{Field: "driver_option", Message: "driver option must be self-drive or with-driver"})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &ParsedBooking{
		VehicleID:       raw.VehicleID,
		Pickup:          pickup,
		Return:          ret,
		PickupLocation:  raw.PickupLocation,
		ReturnLocation:  raw.ReturnLocation,
		Passengers:      raw.Passengers,
		DriverOption:    driverOption,
		SpecialRequests: raw.SpecialRequests,
	}, nil
}
