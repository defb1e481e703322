package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-booking/internal/handler"
)

// RegisterPublic registers the unauthenticated catalog endpoints:
// villa listings and the unavailable-date feed the date picker reads.
// The optional cache middleware wraps only this group; booking writes
// and admin routes stay uncached.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/villas", p.ListVillas)
	g.GET("/villas/:id", p.GetVilla)
	g.GET("/villas/:id/unavailable-dates", p.UnavailableDates)
}

// RegisterBooking registers the guest booking flow. These endpoints
// are public; the payment signature is what proves a confirmation
// request is genuine.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler) {
	g := e.Group("/v1/bookings")
	g.POST("/create-order", b.CreateOrder)
	g.POST("/verify-payment", b.VerifyPayment)
	g.GET("/:id", b.GetBooking)
}
