package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-booking/internal/availability"
	"github.com/iliyamo/villa-booking/internal/model"
	"github.com/iliyamo/villa-booking/internal/payment"
	"github.com/iliyamo/villa-booking/internal/repository"
	"github.com/iliyamo/villa-booking/internal/service"
)

const testSecret = "handler-test-secret"

type stubVillas struct{ villa *model.Villa }

func (s *stubVillas) GetByID(_ context.Context, id string) (*model.Villa, error) {
	if s.villa != nil && s.villa.ID == id {
		v := *s.villa
		return &v, nil
	}
	return nil, repository.ErrVillaNotFound
}

type stubBookings struct {
	created    *model.Booking
	confirmErr error
	paid       bool
}

func (s *stubBookings) Create(_ context.Context, b *model.Booking) error {
	b.ID = "bk-1"
	cp := *b
	s.created = &cp
	return nil
}

func (s *stubBookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
	if s.created != nil && s.created.ID == id {
		cp := *s.created
		return &cp, nil
	}
	return nil, repository.ErrBookingNotFound
}

func (s *stubBookings) SetGatewayOrder(_ context.Context, bookingID, orderID string) error {
	if s.created != nil && s.created.ID == bookingID {
		s.created.GatewayOrderID = &orderID
	}
	return nil
}

func (s *stubBookings) PaidRanges(context.Context, string) ([]availability.Range, error) {
	return nil, nil
}

func (s *stubBookings) ConfirmPaid(_ context.Context, bookingID, orderID, _ string) (bool, error) {
	if s.confirmErr != nil {
		return false, s.confirmErr
	}
	if s.created == nil || s.created.ID != bookingID {
		return false, repository.ErrBookingNotFound
	}
	if s.created.GatewayOrderID == nil || *s.created.GatewayOrderID != orderID {
		return false, repository.ErrOrderMismatch
	}
	if s.paid {
		return true, nil
	}
	s.paid = true
	s.created.PaymentStatus = model.PaymentPaid
	return false, nil
}

type stubBlocks struct{ days []time.Time }

func (s *stubBlocks) Dates(context.Context, string, time.Time, time.Time) ([]time.Time, error) {
	return s.days, nil
}

type stubGateway struct{ err error }

func (g *stubGateway) CreateOrder(amountCents int64, currency, _ string, _ map[string]interface{}) (payment.Order, error) {
	if g.err != nil {
		return payment.Order{}, g.err
	}
	return payment.Order{ID: "order_test_1", AmountCents: amountCents, Currency: currency}, nil
}

func newTestHandler(bookings *stubBookings, gw *stubGateway) *BookingHandler {
	svc := service.NewBookingService(
		&stubVillas{villa: &model.Villa{ID: "villa-1", Name: "Casa Palma", PricePerNightCents: 5000}},
		bookings,
		&stubBlocks{},
		gw,
		testSecret,
		"INR",
		nil,
	)
	return &BookingHandler{Svc: svc}
}

func doJSON(h echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		panic(err)
	}
	return rec
}

func signFor(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateOrderSuccess(t *testing.T) {
	bookings := &stubBookings{}
	h := newTestHandler(bookings, &stubGateway{})

	rec := doJSON(h.CreateOrder, http.MethodPost, "/v1/bookings/create-order", `{
        "villa_id": "villa-1",
        "check_in": "2026-10-10",
        "check_out": "2026-10-12",
        "guest_name": "Asha Rao",
        "email": "asha@example.com",
        "phone": "+911234567890",
        "total_amount": 1
    }`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		BookingID string `json:"booking_id"`
		OrderID   string `json:"order_id"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Amount != 10000 {
		t.Errorf("amount = %d, want server-computed 10000", resp.Amount)
	}
	if resp.OrderID != "order_test_1" || resp.BookingID == "" {
		t.Errorf("unexpected ids: %+v", resp)
	}
	if bookings.created == nil || bookings.created.PaymentStatus != model.PaymentPending {
		t.Errorf("booking not persisted as pending: %+v", bookings.created)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing fields", `{"villa_id":"villa-1"}`, http.StatusBadRequest},
		{"checkout before checkin", `{
            "villa_id":"villa-1","check_in":"2026-10-12","check_out":"2026-10-10",
            "guest_name":"A","email":"a@b.c","phone":"1"}`, http.StatusBadRequest},
		{"unknown villa", `{
            "villa_id":"nope","check_in":"2026-10-10","check_out":"2026-10-12",
            "guest_name":"A","email":"a@b.c","phone":"1"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(&stubBookings{}, &stubGateway{})
			rec := doJSON(h.CreateOrder, http.MethodPost, "/v1/bookings/create-order", tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestCreateOrderGatewayDown(t *testing.T) {
	h := newTestHandler(&stubBookings{}, &stubGateway{err: payment.ErrGatewayUnavailable})
	rec := doJSON(h.CreateOrder, http.MethodPost, "/v1/bookings/create-order", `{
        "villa_id":"villa-1","check_in":"2026-10-10","check_out":"2026-10-12",
        "guest_name":"A","email":"a@b.c","phone":"1"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestVerifyPayment(t *testing.T) {
	bookings := &stubBookings{}
	h := newTestHandler(bookings, &stubGateway{})

	// Create a pending booking first.
	doJSON(h.CreateOrder, http.MethodPost, "/v1/bookings/create-order", `{
        "villa_id":"villa-1","check_in":"2026-10-10","check_out":"2026-10-12",
        "guest_name":"A","email":"a@b.c","phone":"1"}`)

	goodSig := signFor("order_test_1", "pay_1")

	rec := doJSON(h.VerifyPayment, http.MethodPost, "/v1/bookings/verify-payment", `{
        "booking_id":"bk-1","gateway_order_id":"order_test_1",
        "gateway_payment_id":"pay_1","signature":"`+goodSig+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if bookings.created.PaymentStatus != model.PaymentPaid {
		t.Errorf("payment status = %q, want paid", bookings.created.PaymentStatus)
	}

	// Replaying the same callback succeeds without another transition.
	rec = doJSON(h.VerifyPayment, http.MethodPost, "/v1/bookings/verify-payment", `{
        "booking_id":"bk-1","gateway_order_id":"order_test_1",
        "gateway_payment_id":"pay_1","signature":"`+goodSig+`"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("replay status = %d, want 200", rec.Code)
	}
}

func TestVerifyPaymentRejections(t *testing.T) {
	badSig := signFor("order_test_1", "pay_other")

	cases := []struct {
		name       string
		confirmErr error
		body       string
		want       int
	}{
		{"missing fields", nil, `{"booking_id":"bk-1"}`, http.StatusBadRequest},
		{"tampered signature", nil, `{
            "booking_id":"bk-1","gateway_order_id":"order_test_1",
            "gateway_payment_id":"pay_1","signature":"` + badSig + `"}`, http.StatusBadRequest},
		{"dates taken at confirm", repository.ErrDatesUnavailable, `{
            "booking_id":"bk-1","gateway_order_id":"order_test_1",
            "gateway_payment_id":"pay_1","signature":"` + signFor("order_test_1", "pay_1") + `"}`, http.StatusConflict},
		{"booking missing", repository.ErrBookingNotFound, `{
            "booking_id":"bk-x","gateway_order_id":"order_test_1",
            "gateway_payment_id":"pay_1","signature":"` + signFor("order_test_1", "pay_1") + `"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bookings := &stubBookings{confirmErr: tc.confirmErr}
			h := newTestHandler(bookings, &stubGateway{})
			rec := doJSON(h.VerifyPayment, http.MethodPost, "/v1/bookings/verify-payment", tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}
