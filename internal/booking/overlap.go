package booking

import "time"

// Overlaps reports whether the half-open ranges [aStart, aEnd) and
// [bStart, bEnd) share any instant. A range ending exactly when another
// begins does not overlap. Both ranges must already satisfy start < end;
// this is the request validator's responsibility, not re-checked here.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
