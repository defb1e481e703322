// Package service implements the booking workflows: order
// initiation against the payment gateway and signature-verified
// payment confirmation. The service depends on narrow store
// interfaces rather than concrete repositories so the flows can be
// exercised in tests without a database.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/villa-booking/internal/availability"
	"github.com/iliyamo/villa-booking/internal/model"
	"github.com/iliyamo/villa-booking/internal/payment"
	"github.com/iliyamo/villa-booking/internal/pricing"
	"github.com/iliyamo/villa-booking/internal/queue"
	"github.com/iliyamo/villa-booking/internal/repository"
)

// Sentinel errors produced by the booking workflows. Store-level
// failures keep their repository sentinels (ErrVillaNotFound,
// ErrBookingNotFound, ErrDatesUnavailable) and gateway failures
// surface payment.ErrGatewayUnavailable; the values below cover the
// cases the service itself detects.
var (
	// ErrInvalidRequest flags missing or malformed input fields.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidRange flags a stay that covers no whole night.
	ErrInvalidRange = errors.New("check-out must be after check-in")
	// ErrInvalidSignature flags a payment signature that does not
	// match the gateway secret. State is never mutated in this case.
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrPersistence flags a store write that failed after the
	// payment itself was cryptographically valid. It is distinct
	// from validation failures so reconciliation can retry the
	// state update without re-charging the guest.
	ErrPersistence = errors.New("failed to record payment")
)

// VillaStore is the villa lookup needed by order initiation.
type VillaStore interface {
	GetByID(ctx context.Context, id string) (*model.Villa, error)
}

// BookingStore covers booking persistence for both workflows.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	SetGatewayOrder(ctx context.Context, bookingID, orderID string) error
	PaidRanges(ctx context.Context, villaID string) ([]availability.Range, error)
	ConfirmPaid(ctx context.Context, bookingID, orderID, paymentID string) (alreadyPaid bool, err error)
}

// BlockedDateStore supplies admin-blocked dates for a villa within
// a window.
type BlockedDateStore interface {
	Dates(ctx context.Context, villaID string, from, to time.Time) ([]time.Time, error)
}

// Notifier publishes a confirmation event after a successful
// payment. Publishing is fire-and-forget: failures are logged and
// never fail the verification response.
type Notifier func(ctx context.Context, ev queue.BookingConfirmedEvent) error

// BookingService wires the stores, the payment gateway and the
// notification publisher into the two booking workflows.
type BookingService struct {
	Villas   VillaStore
	Bookings BookingStore
	Blocks   BlockedDateStore
	Gateway  payment.Gateway
	Secret   string // gateway shared secret for signature checks
	Currency string
	Notify   Notifier // optional
}

// NewBookingService constructs a BookingService. Notify may be nil
// when no notification transport is configured.
func NewBookingService(villas VillaStore, bookings BookingStore, blocks BlockedDateStore, gw payment.Gateway, secret, currency string, notify Notifier) *BookingService {
	if villas == nil || bookings == nil || blocks == nil || gw == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{
		Villas:   villas,
		Bookings: bookings,
		Blocks:   blocks,
		Gateway:  gw,
		Secret:   secret,
		Currency: currency,
		Notify:   notify,
	}
}

// InitiateRequest carries the guest's booking submission. Dates are
// wire-format 2006-01-02 strings. ClaimedTotalCents is what the
// client-side price preview computed; it is accepted for shape
// compatibility but the charged amount is always recomputed
// server-side from the villa's nightly rate.
type InitiateRequest struct {
	VillaID           string
	CheckIn           string
	CheckOut          string
	GuestName         string
	Email             string
	Phone             string
	ClaimedTotalCents int64
}

// OrderResult is returned to the client for use by the payment
// widget.
type OrderResult struct {
	BookingID   string
	OrderID     string
	AmountCents int64
	Currency    string
}

// InitiateBooking validates the request, re-checks availability
// server-side, persists a pending booking and creates a gateway
// order for the server-computed total.
//
// If the gateway call fails after the booking row exists, the row
// is left pending without an order id; such orphans never block
// other guests and are picked up by reconciliation, so the error is
// reported without rolling back.
func (s *BookingService) InitiateBooking(ctx context.Context, req InitiateRequest) (*OrderResult, error) {
	if strings.TrimSpace(req.VillaID) == "" ||
		strings.TrimSpace(req.GuestName) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Phone) == "" ||
		req.CheckIn == "" || req.CheckOut == "" {
		return nil, ErrInvalidRequest
	}
	checkIn, err := availability.ParseDay(req.CheckIn)
	if err != nil {
		return nil, fmt.Errorf("%w: bad check_in date", ErrInvalidRequest)
	}
	checkOut, err := availability.ParseDay(req.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("%w: bad check_out date", ErrInvalidRequest)
	}
	stay := availability.Range{CheckIn: checkIn, CheckOut: checkOut}
	if !stay.Valid() {
		return nil, ErrInvalidRange
	}

	villa, err := s.Villas.GetByID(ctx, req.VillaID)
	if err != nil {
		return nil, err
	}

	// Read-then-decide: the availability snapshot is taken now and a
	// conflicting request can still be admitted as pending. That is
	// acceptable because pending rows block nobody; the definitive
	// exclusion happens inside ConfirmPaid's transaction.
	blocked, err := s.Blocks.Dates(ctx, villa.ID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return nil, err
	}
	paid, err := s.Bookings.PaidRanges(ctx, villa.ID)
	if err != nil {
		return nil, err
	}
	if !availability.IsRangeAvailable(stay, blocked, paid) {
		return nil, repository.ErrDatesUnavailable
	}

	total, err := pricing.Total(stay.CheckIn, stay.CheckOut, villa.PricePerNightCents)
	if err != nil {
		return nil, ErrInvalidRange
	}
	if req.ClaimedTotalCents != 0 && req.ClaimedTotalCents != total {
		log.Printf("booking: client-claimed total %d differs from computed %d for villa %s; using computed",
			req.ClaimedTotalCents, total, villa.ID)
	}

	booking := &model.Booking{
		VillaID:          villa.ID,
		CheckIn:          stay.CheckIn,
		CheckOut:         stay.CheckOut,
		GuestName:        strings.TrimSpace(req.GuestName),
		Email:            strings.TrimSpace(req.Email),
		Phone:            strings.TrimSpace(req.Phone),
		TotalAmountCents: total,
		PaymentStatus:    model.PaymentPending,
	}
	if err := s.Bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	order, err := s.Gateway.CreateOrder(total, s.Currency, "booking_"+booking.ID, map[string]interface{}{
		"booking_id": booking.ID,
		"villa_id":   villa.ID,
		"guest_name": booking.GuestName,
		"email":      booking.Email,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Bookings.SetGatewayOrder(ctx, booking.ID, order.ID); err != nil {
		// The gateway order exists but was not linked; reconciliation
		// can recover it through the receipt. Surface as persistence.
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return &OrderResult{
		BookingID:   booking.ID,
		OrderID:     order.ID,
		AmountCents: order.AmountCents,
		Currency:    order.Currency,
	}, nil
}

// VerifyRequest carries the payment widget's result forwarded by
// the client.
type VerifyRequest struct {
	BookingID        string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// VerifyAndConfirm validates the gateway signature and, on match,
// transitions the booking to paid inside a storage transaction that
// re-checks date exclusivity. Re-verifying an already-paid booking
// is idempotent and succeeds without side effects.
func (s *BookingService) VerifyAndConfirm(ctx context.Context, req VerifyRequest) error {
	if req.BookingID == "" || req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return ErrInvalidRequest
	}
	if !payment.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature, s.Secret) {
		return ErrInvalidSignature
	}

	alreadyPaid, err := s.Bookings.ConfirmPaid(ctx, req.BookingID, req.GatewayOrderID, req.GatewayPaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) || errors.Is(err, repository.ErrDatesUnavailable) {
			return err
		}
		// A signature can be genuine yet signed for a different
		// booking's order; that is an authorization failure, not a
		// storage one.
		if errors.Is(err, repository.ErrOrderMismatch) {
			return ErrInvalidSignature
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if alreadyPaid || s.Notify == nil {
		return nil
	}

	s.publishConfirmation(ctx, req.BookingID)
	return nil
}

// publishConfirmation assembles and publishes the booking.confirmed
// event in the background. Any failure is logged and ignored.
func (s *BookingService) publishConfirmation(ctx context.Context, bookingID string) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		log.Printf("booking: load for confirmation event failed: %v", err)
		return
	}
	villaName := ""
	if villa, err := s.Villas.GetByID(ctx, booking.VillaID); err == nil {
		villaName = villa.Name
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:        booking.ID,
		VillaID:          booking.VillaID,
		VillaName:        villaName,
		GuestName:        booking.GuestName,
		Email:            booking.Email,
		CheckIn:          booking.CheckIn.Format(availability.DayFormat),
		CheckOut:         booking.CheckOut.Format(availability.DayFormat),
		TotalAmountCents: booking.TotalAmountCents,
		Currency:         s.Currency,
		ConfirmedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Notify(pctx, ev); err != nil {
			log.Printf("booking: confirmation publish failed: %v", err)
		}
	}()
}
