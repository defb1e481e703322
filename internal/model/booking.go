package model

import "time"

// Payment status values for a booking. Only PAID bookings make a
// villa's dates unavailable to other guests; PENDING rows are
// abandonable carts and FAILED rows are kept for bookkeeping.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Booking records a guest's reservation of a villa for a half-open
// date range [CheckIn, CheckOut). The checkout day itself is free
// for the next guest's check-in. The total amount is computed
// server-side from the villa's nightly rate and stored in minor
// currency units.
//
// Fields:
//  ID               – UUID primary key.
//  VillaID          – villa being booked (reference, not ownership).
//  CheckIn          – first night, inclusive (UTC midnight).
//  CheckOut         – checkout day, exclusive (UTC midnight).
//  GuestName        – name supplied by the guest.
//  Email            – guest contact email.
//  Phone            – guest contact phone.
//  TotalAmountCents – total price in minor units for all nights.
//  PaymentStatus    – one of pending, paid, failed.
//  GatewayOrderID   – payment gateway order id, once created.
//  GatewayPaymentID – payment gateway payment id, once paid.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Booking struct {
	ID               string     // bookings.id
	VillaID          string     // bookings.villa_id
	CheckIn          time.Time  // bookings.check_in
	CheckOut         time.Time  // bookings.check_out
	GuestName        string     // bookings.guest_name
	Email            string     // bookings.email
	Phone            string     // bookings.phone
	TotalAmountCents int64      // bookings.total_amount_cents
	PaymentStatus    string     // bookings.payment_status
	GatewayOrderID   *string    // bookings.gateway_order_id (nullable)
	GatewayPaymentID *string    // bookings.gateway_payment_id (nullable)
	CreatedAt        time.Time  // bookings.created_at
	UpdatedAt        time.Time  // bookings.updated_at
}
