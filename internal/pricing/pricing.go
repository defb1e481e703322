// Package pricing computes booking totals. Money is handled in
// integer minor currency units throughout; binary floating point is
// never used for amounts that get persisted or charged.
package pricing

import (
	"errors"
	"time"

	"github.com/iliyamo/villa-booking/internal/availability"
)

// ErrInvalidRange is returned when the requested stay covers no
// whole night (check-out on or before check-in).
var ErrInvalidRange = errors.New("pricing: check-out must be after check-in")

// Total returns the price for a stay of [checkIn, checkOut) at the
// given nightly rate: nights × rate. It fails with ErrInvalidRange
// rather than returning zero when the range covers no nights.
func Total(checkIn, checkOut time.Time, nightlyRateCents int64) (int64, error) {
	nights := availability.Range{CheckIn: checkIn, CheckOut: checkOut}.Nights()
	if nights <= 0 {
		return 0, ErrInvalidRange
	}
	return int64(nights) * nightlyRateCents, nil
}
