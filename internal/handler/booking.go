package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-booking/internal/availability"
	"github.com/iliyamo/villa-booking/internal/payment"
	"github.com/iliyamo/villa-booking/internal/repository"
	"github.com/iliyamo/villa-booking/internal/service"
)

// BookingHandler exposes the public booking flow: order creation,
// payment verification and the confirmation-page lookup. The heavy
// lifting lives in service.BookingService; this layer binds JSON,
// maps sentinel errors to HTTP statuses and shapes responses.
type BookingHandler struct {
	Svc      *service.BookingService
	Bookings *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler. All dependencies
// must be non-nil.
func NewBookingHandler(svc *service.BookingService, bookings *repository.BookingRepo) *BookingHandler {
	if svc == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc, Bookings: bookings}
}

type createOrderReq struct {
	VillaID     string `json:"villa_id"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`
	GuestName   string `json:"guest_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	TotalAmount int64  `json:"total_amount"` // client preview, informational only
}

type createOrderResp struct {
	BookingID string `json:"booking_id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// CreateOrder handles POST /v1/bookings/create-order. It validates
// the submission, re-checks availability server-side, persists a
// pending booking and returns the gateway order for the payment
// widget. The charged amount is always the server-computed total.
func (h *BookingHandler) CreateOrder(c echo.Context) error {
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Svc.InitiateBooking(c.Request().Context(), service.InitiateRequest{
		VillaID:           req.VillaID,
		CheckIn:           req.CheckIn,
		CheckOut:          req.CheckOut,
		GuestName:         req.GuestName,
		Email:             req.Email,
		Phone:             req.Phone,
		ClaimedTotalCents: req.TotalAmount,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing required fields"})
		case errors.Is(err, service.ErrInvalidRange):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date range"})
		case errors.Is(err, repository.ErrVillaNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "villa not found"})
		case errors.Is(err, repository.ErrDatesUnavailable):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "selected dates are not available"})
		case errors.Is(err, payment.ErrGatewayUnavailable):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable, please retry"})
		case errors.Is(err, service.ErrPersistence):
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
		}
	}
	return c.JSON(http.StatusOK, createOrderResp{
		BookingID: res.BookingID,
		OrderID:   res.OrderID,
		Amount:    res.AmountCents,
		Currency:  res.Currency,
	})
}

type verifyPaymentReq struct {
	BookingID        string `json:"booking_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// VerifyPayment handles POST /v1/bookings/verify-payment. It checks
// the gateway signature and finalises the booking. The response
// carries a success flag so the payment widget callback can branch
// without inspecting status codes.
func (h *BookingHandler) VerifyPayment(c echo.Context) error {
	var req verifyPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request body"})
	}
	err := h.Svc.VerifyAndConfirm(c.Request().Context(), service.VerifyRequest{
		BookingID:        req.BookingID,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "missing required fields"})
		case errors.Is(err, service.ErrInvalidSignature):
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid payment signature"})
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "booking not found"})
		case errors.Is(err, repository.ErrDatesUnavailable):
			// Signature was valid but another paid booking claimed the
			// dates first; the guest must be refunded, not charged twice.
			return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "selected dates are no longer available"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "payment verified but booking update failed, support has been notified"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "payment verified and booking confirmed",
	})
}

type bookingResp struct {
	ID            string `json:"id"`
	VillaID       string `json:"villa_id"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	GuestName     string `json:"guest_name"`
	Email         string `json:"email"`
	TotalAmount   int64  `json:"total_amount"`
	PaymentStatus string `json:"payment_status"`
}

// GetBooking handles GET /v1/bookings/:id, backing the confirmation
// page shown after payment. Phone and gateway identifiers are not
// exposed on the public surface.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": bookingResp{
		ID:            b.ID,
		VillaID:       b.VillaID,
		CheckIn:       b.CheckIn.Format(availability.DayFormat),
		CheckOut:      b.CheckOut.Format(availability.DayFormat),
		GuestName:     b.GuestName,
		Email:         b.Email,
		TotalAmount:   b.TotalAmountCents,
		PaymentStatus: b.PaymentStatus,
	}})
}
