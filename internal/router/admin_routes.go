package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-booking/internal/handler"
	"github.com/iliyamo/villa-booking/internal/middleware"
)

// RegisterAdmin registers the management endpoints under /v1/admin.
// Every route requires a valid access token with the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// Villas
	g.POST("/villas", a.CreateVilla)
	g.PUT("/villas/:id", a.UpdateVilla)
	g.PATCH("/villas/:id", a.UpdateVilla)
	g.DELETE("/villas/:id", a.DeleteVilla)

	// Blocked dates
	g.POST("/block-dates", a.BlockDate)
	g.GET("/block-dates", a.ListBlockedDates)
	g.DELETE("/block-dates/:id", a.UnblockDate)

	// Bookings
	g.GET("/bookings", a.ListBookings)
	g.PATCH("/bookings/:id/fail", a.MarkBookingFailed)
}
