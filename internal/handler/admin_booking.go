package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-booking/internal/availability"
	"github.com/iliyamo/villa-booking/internal/repository"
)

type adminBookingResp struct {
	ID               string  `json:"id"`
	VillaID          string  `json:"villa_id"`
	VillaName        string  `json:"villa_name"`
	CheckIn          string  `json:"check_in"`
	CheckOut         string  `json:"check_out"`
	GuestName        string  `json:"guest_name"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	TotalAmount      int64   `json:"total_amount"`
	PaymentStatus    string  `json:"payment_status"`
	GatewayOrderID   *string `json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string `json:"gateway_payment_id,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// ListBookings handles GET /v1/admin/bookings. The optional
// villa_id query parameter narrows the listing to one villa.
// Unlike the public booking lookup, the admin view includes guest
// phone and gateway identifiers.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	details, err := h.Bookings.ListAll(c.Request().Context(), c.QueryParam("villa_id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	out := make([]adminBookingResp, 0, len(details))
	for _, d := range details {
		out = append(out, adminBookingResp{
			ID:               d.ID,
			VillaID:          d.VillaID,
			VillaName:        d.VillaName,
			CheckIn:          d.CheckIn.Format(availability.DayFormat),
			CheckOut:         d.CheckOut.Format(availability.DayFormat),
			GuestName:        d.GuestName,
			Email:            d.Email,
			Phone:            d.Phone,
			TotalAmount:      d.TotalAmountCents,
			PaymentStatus:    d.PaymentStatus,
			GatewayOrderID:   d.GatewayOrderID,
			GatewayPaymentID: d.GatewayPaymentID,
			CreatedAt:        d.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// MarkBookingFailed handles PATCH /v1/admin/bookings/:id/fail. It
// flags a pending booking whose payment was declined or abandoned;
// paid bookings are never demoted and answer 409.
func (h *AdminHandler) MarkBookingFailed(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	if err := h.Bookings.MarkFailed(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		if errors.Is(err, repository.ErrAlreadyPaid) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is already paid"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update booking"})
	}
	return c.NoContent(http.StatusNoContent)
}
