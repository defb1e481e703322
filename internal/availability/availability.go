// Package availability implements the date-range availability check
// for a villa. All functions are pure: the caller supplies the
// blocked dates and paid booking ranges, typically loaded by the
// repository layer, and no I/O happens here.
//
// Date ranges are half-open [check_in, check_out): the checkout day
// is excluded, so it remains free for the next guest's check-in.
package availability

import "time"

// DayFormat is the wire format for calendar dates in requests and
// responses.
const DayFormat = "2006-01-02"

// Range is a half-open date range [CheckIn, CheckOut). Both bounds
// are expected to be UTC midnights; use NormalizeDay or ParseDay to
// produce them.
type Range struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Valid reports whether the range covers at least one night.
func (r Range) Valid() bool {
	return r.CheckOut.After(r.CheckIn)
}

// Nights returns the number of whole nights covered by the range.
func (r Range) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn) / (24 * time.Hour))
}

// Overlaps reports whether two half-open ranges share at least one
// night: [a,b) and [c,d) conflict iff a < d && c < b.
func (r Range) Overlaps(other Range) bool {
	return r.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(r.CheckOut)
}

// Contains reports whether the given day falls inside the range.
func (r Range) Contains(day time.Time) bool {
	return !day.Before(r.CheckIn) && day.Before(r.CheckOut)
}

// NormalizeDay truncates a timestamp to UTC midnight so that dates
// loaded from the database and dates parsed from requests compare
// equal regardless of their original time-of-day or zone.
func NormalizeDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a 2006-01-02 wire date into a UTC midnight.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayFormat, s)
}

// IsRangeAvailable reports whether the requested range is free of
// conflicts: no night of req may appear in blocked, and req must not
// overlap any paid booking range. The caller must ensure req.Valid()
// before calling.
func IsRangeAvailable(req Range, blocked []time.Time, paid []Range) bool {
	blockedSet := make(map[time.Time]struct{}, len(blocked))
	for _, d := range blocked {
		blockedSet[NormalizeDay(d)] = struct{}{}
	}
	for d := req.CheckIn; d.Before(req.CheckOut); d = d.AddDate(0, 0, 1) {
		if _, ok := blockedSet[d]; ok {
			return false
		}
	}
	for _, p := range paid {
		if req.Overlaps(p) {
			return false
		}
	}
	return true
}

// UnavailableDays returns every calendar day inside [from, to) that
// is blocked or covered by a paid booking, in ascending order. It
// backs the public calendar endpoint so clients can grey out dates
// before submitting a booking.
func UnavailableDays(from, to time.Time, blocked []time.Time, paid []Range) []time.Time {
	blockedSet := make(map[time.Time]struct{}, len(blocked))
	for _, d := range blocked {
		blockedSet[NormalizeDay(d)] = struct{}{}
	}
	var out []time.Time
	for d := NormalizeDay(from); d.Before(to); d = d.AddDate(0, 0, 1) {
		if _, ok := blockedSet[d]; ok {
			out = append(out, d)
			continue
		}
		for _, p := range paid {
			if p.Contains(d) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}
