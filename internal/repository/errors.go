// Package repository implements data access over MySQL. This file
// defines sentinel error values shared across repositories so that
// handlers and services can distinguish failure scenarios with
// errors.Is instead of inspecting driver-specific error codes.
package repository

import "errors"

// ErrVillaNotFound is returned when a referenced villa does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrVillaNotFound = errors.New("villa not found")

// ErrBookingNotFound is returned when a referenced booking does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrBookingNotFound = errors.New("booking not found")

// ErrDateBlocked is returned when inserting a blocked date that
// already exists for the same (villa, date). Handlers should
// translate this into an HTTP 409 response.
var ErrDateBlocked = errors.New("date already blocked")

// ErrOrderMismatch is returned by the confirmation path when the
// supplied gateway order id is not the one recorded on the booking
// at initiation. A payment proves only the order it was made for.
var ErrOrderMismatch = errors.New("gateway order does not belong to booking")

// ErrDatesUnavailable is returned by the transactional confirmation
// path when another paid booking or a blocked date has claimed part
// of the requested range since the order was initiated.
var ErrDatesUnavailable = errors.New("dates unavailable")

// ErrAlreadyPaid is returned when an operation valid only for
// pending or failed bookings targets a paid one, such as marking a
// paid booking as failed.
var ErrAlreadyPaid = errors.New("booking already paid")
