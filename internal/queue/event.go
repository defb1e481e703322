// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking's payment is
// verified. It carries enough information for downstream consumers
// to send the guest's confirmation email or feed analytics without
// querying the primary database.
type BookingConfirmedEvent struct {
	BookingID        string `json:"booking_id"`
	VillaID          string `json:"villa_id"`
	VillaName        string `json:"villa_name"`
	GuestName        string `json:"guest_name"`
	Email            string `json:"email"`
	CheckIn          string `json:"check_in"`
	CheckOut         string `json:"check_out"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	Currency         string `json:"currency"`
	ConfirmedAt      string `json:"confirmed_at"`
}
