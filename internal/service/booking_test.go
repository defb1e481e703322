package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iliyamo/villa-booking/internal/availability"
	"github.com/iliyamo/villa-booking/internal/model"
	"github.com/iliyamo/villa-booking/internal/payment"
	"github.com/iliyamo/villa-booking/internal/queue"
	"github.com/iliyamo/villa-booking/internal/repository"
)

// ----- fakes -----

type fakeVillas struct {
	villas map[string]*model.Villa
}

func (f *fakeVillas) GetByID(_ context.Context, id string) (*model.Villa, error) {
	v, ok := f.villas[id]
	if !ok {
		return nil, repository.ErrVillaNotFound
	}
	return v, nil
}

type fakeBookings struct {
	seq        int
	rows       map[string]*model.Booking
	paid       map[string][]availability.Range
	confirmErr error // injected ConfirmPaid failure
	createErr  error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{rows: map[string]*model.Booking{}, paid: map[string][]availability.Range{}}
}

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	b.ID = fmt.Sprintf("bk-%d", f.seq)
	cp := *b
	f.rows[b.ID] = &cp
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
	b, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) SetGatewayOrder(_ context.Context, bookingID, orderID string) error {
	b, ok := f.rows[bookingID]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.GatewayOrderID = &orderID
	return nil
}

func (f *fakeBookings) PaidRanges(_ context.Context, villaID string) ([]availability.Range, error) {
	return f.paid[villaID], nil
}

func (f *fakeBookings) ConfirmPaid(_ context.Context, bookingID, orderID, paymentID string) (bool, error) {
	if f.confirmErr != nil {
		return false, f.confirmErr
	}
	b, ok := f.rows[bookingID]
	if !ok {
		return false, repository.ErrBookingNotFound
	}
	if b.GatewayOrderID == nil || *b.GatewayOrderID != orderID {
		return false, repository.ErrOrderMismatch
	}
	if b.PaymentStatus == model.PaymentPaid {
		return true, nil
	}
	stay := availability.Range{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
	for _, p := range f.paid[b.VillaID] {
		if stay.Overlaps(p) {
			return false, repository.ErrDatesUnavailable
		}
	}
	b.PaymentStatus = model.PaymentPaid
	b.GatewayOrderID = &orderID
	b.GatewayPaymentID = &paymentID
	f.paid[b.VillaID] = append(f.paid[b.VillaID], stay)
	return false, nil
}

type fakeBlocks struct {
	dates map[string][]time.Time
}

func (f *fakeBlocks) Dates(_ context.Context, villaID string, from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, d := range f.dates[villaID] {
		if !d.Before(from) && d.Before(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeGateway struct {
	lastAmount  int64
	lastReceipt string
	lastNotes   map[string]interface{}
	calls       int
	err         error
}

func (f *fakeGateway) CreateOrder(amountCents int64, currency, receipt string, notes map[string]interface{}) (payment.Order, error) {
	f.calls++
	if f.err != nil {
		return payment.Order{}, f.err
	}
	f.lastAmount = amountCents
	f.lastReceipt = receipt
	f.lastNotes = notes
	return payment.Order{ID: fmt.Sprintf("order_fake_%d", f.calls), AmountCents: amountCents, Currency: currency}, nil
}

// ----- helpers -----

const testSecret = "test_gateway_secret"

func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := availability.ParseDay(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

type fixture struct {
	svc      *BookingService
	villas   *fakeVillas
	bookings *fakeBookings
	blocks   *fakeBlocks
	gateway  *fakeGateway
	events   chan queue.BookingConfirmedEvent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		villas: &fakeVillas{villas: map[string]*model.Villa{
			"villa-1": {ID: "villa-1", Name: "Casa Palma", PricePerNightCents: 5000},
		}},
		bookings: newFakeBookings(),
		blocks:   &fakeBlocks{dates: map[string][]time.Time{}},
		gateway:  &fakeGateway{},
		events:   make(chan queue.BookingConfirmedEvent, 4),
	}
	notify := func(_ context.Context, ev queue.BookingConfirmedEvent) error {
		f.events <- ev
		return nil
	}
	f.svc = NewBookingService(f.villas, f.bookings, f.blocks, f.gateway, testSecret, "INR", notify)
	return f
}

func validRequest() InitiateRequest {
	return InitiateRequest{
		VillaID:   "villa-1",
		CheckIn:   "2024-02-02",
		CheckOut:  "2024-02-04",
		GuestName: "Asha Rao",
		Email:     "asha@example.com",
		Phone:     "+911234567890",
	}
}

// ----- initiation -----

func TestInitiateBookingMissingFields(t *testing.T) {
	mutations := map[string]func(*InitiateRequest){
		"villa id":   func(r *InitiateRequest) { r.VillaID = "" },
		"check in":   func(r *InitiateRequest) { r.CheckIn = "" },
		"check out":  func(r *InitiateRequest) { r.CheckOut = "" },
		"guest name": func(r *InitiateRequest) { r.GuestName = "  " },
		"email":      func(r *InitiateRequest) { r.Email = "" },
		"phone":      func(r *InitiateRequest) { r.Phone = "" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			req := validRequest()
			mutate(&req)
			if _, err := f.svc.InitiateBooking(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("err = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestInitiateBookingBadDate(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.CheckIn = "02/01/2024"
	if _, err := f.svc.InitiateBooking(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestInitiateBookingInvalidRange(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.CheckIn, req.CheckOut = "2024-02-04", "2024-02-02"
	if _, err := f.svc.InitiateBooking(context.Background(), req); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
	if f.gateway.calls != 0 {
		t.Fatal("gateway must not be called for invalid input")
	}
}

func TestInitiateBookingVillaNotFound(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.VillaID = "nope"
	if _, err := f.svc.InitiateBooking(context.Background(), req); !errors.Is(err, repository.ErrVillaNotFound) {
		t.Fatalf("err = %v, want ErrVillaNotFound", err)
	}
}

func TestInitiateBookingBlockedDate(t *testing.T) {
	f := newFixture(t)
	f.blocks.dates["villa-1"] = []time.Time{day(t, "2024-02-01")}
	req := validRequest()
	req.CheckIn, req.CheckOut = "2024-02-01", "2024-02-03"
	if _, err := f.svc.InitiateBooking(context.Background(), req); !errors.Is(err, repository.ErrDatesUnavailable) {
		t.Fatalf("err = %v, want ErrDatesUnavailable", err)
	}
}

func TestInitiateBookingPaidOverlap(t *testing.T) {
	f := newFixture(t)
	f.bookings.paid["villa-1"] = []availability.Range{
		{CheckIn: day(t, "2024-02-03"), CheckOut: day(t, "2024-02-05")},
	}
	if _, err := f.svc.InitiateBooking(context.Background(), validRequest()); !errors.Is(err, repository.ErrDatesUnavailable) {
		t.Fatalf("err = %v, want ErrDatesUnavailable", err)
	}
}

func TestInitiateBookingSuccess(t *testing.T) {
	f := newFixture(t)
	// Day before the stay is blocked: must not interfere.
	f.blocks.dates["villa-1"] = []time.Time{day(t, "2024-02-01")}
	req := validRequest()
	req.ClaimedTotalCents = 1 // tampered client total is ignored

	res, err := f.svc.InitiateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("InitiateBooking: %v", err)
	}
	if res.AmountCents != 10000 {
		t.Fatalf("amount = %d, want 10000 (2 nights x 5000)", res.AmountCents)
	}
	if res.Currency != "INR" {
		t.Fatalf("currency = %q, want INR", res.Currency)
	}
	if f.gateway.lastAmount != 10000 {
		t.Fatalf("gateway charged %d, want server-computed 10000", f.gateway.lastAmount)
	}
	if f.gateway.lastReceipt != "booking_"+res.BookingID {
		t.Fatalf("receipt = %q, want booking_%s", f.gateway.lastReceipt, res.BookingID)
	}
	b, err := f.bookings.GetByID(context.Background(), res.BookingID)
	if err != nil {
		t.Fatalf("booking not persisted: %v", err)
	}
	if b.PaymentStatus != model.PaymentPending {
		t.Fatalf("status = %q, want pending", b.PaymentStatus)
	}
	if b.TotalAmountCents != 10000 {
		t.Fatalf("persisted total = %d, want 10000", b.TotalAmountCents)
	}
	if b.GatewayOrderID == nil || *b.GatewayOrderID != res.OrderID {
		t.Fatalf("gateway order id not linked: %v", b.GatewayOrderID)
	}
}

func TestInitiateBookingGatewayFailureKeepsPendingRow(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = payment.ErrGatewayUnavailable

	_, err := f.svc.InitiateBooking(context.Background(), validRequest())
	if !errors.Is(err, payment.ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}
	// The pending row stays for reconciliation, without an order id.
	b, err := f.bookings.GetByID(context.Background(), "bk-1")
	if err != nil {
		t.Fatalf("pending booking missing after gateway failure: %v", err)
	}
	if b.PaymentStatus != model.PaymentPending || b.GatewayOrderID != nil {
		t.Fatalf("orphan row = status %q order %v, want pending/nil", b.PaymentStatus, b.GatewayOrderID)
	}
}

// ----- verification -----

func initiate(t *testing.T, f *fixture) *OrderResult {
	t.Helper()
	res, err := f.svc.InitiateBooking(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("InitiateBooking: %v", err)
	}
	return res
}

func TestVerifyMissingFields(t *testing.T) {
	f := newFixture(t)
	err := f.svc.VerifyAndConfirm(context.Background(), VerifyRequest{BookingID: "bk-1"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestVerifyInvalidSignatureDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	res := initiate(t, f)

	good := sign(res.OrderID, "pay_1")
	for i := 0; i < len(good); i++ {
		bad := []byte(good)
		bad[i] ^= 0x01
		err := f.svc.VerifyAndConfirm(context.Background(), VerifyRequest{
			BookingID:        res.BookingID,
			GatewayOrderID:   res.OrderID,
			GatewayPaymentID: "pay_1",
			Signature:        string(bad),
		})
		if !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("byte %d: err = %v, want ErrInvalidSignature", i, err)
		}
	}
	b, _ := f.bookings.GetByID(context.Background(), res.BookingID)
	if b.PaymentStatus != model.PaymentPending {
		t.Fatalf("status mutated to %q on invalid signature", b.PaymentStatus)
	}
}

func TestVerifySuccessAndIdempotentReplay(t *testing.T) {
	f := newFixture(t)
	res := initiate(t, f)
	req := VerifyRequest{
		BookingID:        res.BookingID,
		GatewayOrderID:   res.OrderID,
		GatewayPaymentID: "pay_1",
		Signature:        sign(res.OrderID, "pay_1"),
	}

	if err := f.svc.VerifyAndConfirm(context.Background(), req); err != nil {
		t.Fatalf("VerifyAndConfirm: %v", err)
	}
	b, _ := f.bookings.GetByID(context.Background(), res.BookingID)
	if b.PaymentStatus != model.PaymentPaid {
		t.Fatalf("status = %q, want paid", b.PaymentStatus)
	}
	if b.GatewayPaymentID == nil || *b.GatewayPaymentID != "pay_1" {
		t.Fatalf("payment id not stored: %v", b.GatewayPaymentID)
	}
	select {
	case ev := <-f.events:
		if ev.BookingID != res.BookingID || ev.VillaName != "Casa Palma" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation event not published")
	}

	// Replaying the same valid signature succeeds without side effects.
	if err := f.svc.VerifyAndConfirm(context.Background(), req); err != nil {
		t.Fatalf("replay: %v", err)
	}
	select {
	case <-f.events:
		t.Fatal("replay must not publish a second event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestVerifyLosesConfirmTimeRace(t *testing.T) {
	f := newFixture(t)
	res := initiate(t, f)

	// A competing booking for overlapping dates is confirmed first.
	competitor := &model.Booking{
		VillaID:       "villa-1",
		CheckIn:       day(t, "2024-02-03"),
		CheckOut:      day(t, "2024-02-05"),
		GuestName:     "Ben",
		Email:         "ben@example.com",
		Phone:         "1",
		PaymentStatus: model.PaymentPending,
	}
	if err := f.bookings.Create(context.Background(), competitor); err != nil {
		t.Fatal(err)
	}
	if err := f.bookings.SetGatewayOrder(context.Background(), competitor.ID, "order_x"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.bookings.ConfirmPaid(context.Background(), competitor.ID, "order_x", "pay_x"); err != nil {
		t.Fatal(err)
	}

	err := f.svc.VerifyAndConfirm(context.Background(), VerifyRequest{
		BookingID:        res.BookingID,
		GatewayOrderID:   res.OrderID,
		GatewayPaymentID: "pay_2",
		Signature:        sign(res.OrderID, "pay_2"),
	})
	if !errors.Is(err, repository.ErrDatesUnavailable) {
		t.Fatalf("err = %v, want ErrDatesUnavailable for the losing confirmation", err)
	}
	b, _ := f.bookings.GetByID(context.Background(), res.BookingID)
	if b.PaymentStatus != model.PaymentPending {
		t.Fatalf("losing booking mutated to %q", b.PaymentStatus)
	}
}

func TestVerifyRejectsTripleFromAnotherBooking(t *testing.T) {
	f := newFixture(t)
	cheap := initiate(t, f)

	longStay := validRequest()
	longStay.CheckIn, longStay.CheckOut = "2024-03-01", "2024-03-20"
	expensive, err := f.svc.InitiateBooking(context.Background(), longStay)
	if err != nil {
		t.Fatalf("InitiateBooking: %v", err)
	}

	// A genuine signature for the cheap order must not confirm the
	// expensive booking it was never signed for.
	err = f.svc.VerifyAndConfirm(context.Background(), VerifyRequest{
		BookingID:        expensive.BookingID,
		GatewayOrderID:   cheap.OrderID,
		GatewayPaymentID: "pay_cheap",
		Signature:        sign(cheap.OrderID, "pay_cheap"),
	})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
	b, _ := f.bookings.GetByID(context.Background(), expensive.BookingID)
	if b.PaymentStatus != model.PaymentPending {
		t.Fatalf("expensive booking mutated to %q", b.PaymentStatus)
	}
	select {
	case <-f.events:
		t.Fatal("no event may be published for a rejected confirmation")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestVerifyBookingNotFound(t *testing.T) {
	f := newFixture(t)
	err := f.svc.VerifyAndConfirm(context.Background(), VerifyRequest{
		BookingID:        "missing",
		GatewayOrderID:   "order_1",
		GatewayPaymentID: "pay_1",
		Signature:        sign("order_1", "pay_1"),
	})
	if !errors.Is(err, repository.ErrBookingNotFound) {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
}

func TestVerifyPersistenceErrorIsDistinct(t *testing.T) {
	f := newFixture(t)
	res := initiate(t, f)
	f.bookings.confirmErr = errors.New("store unreachable")

	err := f.svc.VerifyAndConfirm(context.Background(), VerifyRequest{
		BookingID:        res.BookingID,
		GatewayOrderID:   res.OrderID,
		GatewayPaymentID: "pay_1",
		Signature:        sign(res.OrderID, "pay_1"),
	})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	if errors.Is(err, ErrInvalidSignature) {
		t.Fatal("persistence failure must be distinguishable from a bad signature")
	}
}
