package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-booking/internal/availability"
	"github.com/iliyamo/villa-booking/internal/model"
	"github.com/iliyamo/villa-booking/internal/repository"
)

// PublicHandler exposes the unauthenticated catalog: villa listing,
// villa detail and the unavailable-dates calendar feed. These
// routes are read-only and sit behind the response cache.
type PublicHandler struct {
	VillaRepo   *repository.VillaRepo
	BookingRepo *repository.BookingRepo
	BlockRepo   *repository.BlockedDateRepo
}

// NewPublicHandler constructs a PublicHandler with the provided
// repositories. All dependencies must be non-nil.
func NewPublicHandler(villaRepo *repository.VillaRepo, bookingRepo *repository.BookingRepo, blockRepo *repository.BlockedDateRepo) *PublicHandler {
	if villaRepo == nil || bookingRepo == nil || blockRepo == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{VillaRepo: villaRepo, BookingRepo: bookingRepo, BlockRepo: blockRepo}
}

type villaResp struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	PricePerNight int64    `json:"price_per_night"`
	Amenities     []string `json:"amenities"`
	Images        []string `json:"images"`
}

func toVillaResp(v *model.Villa) villaResp {
	return villaResp{
		ID:            v.ID,
		Name:          v.Name,
		Description:   v.Description,
		PricePerNight: v.PricePerNightCents,
		Amenities:     v.Amenities,
		Images:        v.Images,
	}
}

// ListVillas handles GET /v1/villas and returns the full catalog,
// newest first.
func (h *PublicHandler) ListVillas(c echo.Context) error {
	villas, err := h.VillaRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load villas"})
	}
	items := make([]villaResp, 0, len(villas))
	for i := range villas {
		items = append(items, toVillaResp(&villas[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetVilla handles GET /v1/villas/:id.
func (h *PublicHandler) GetVilla(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid villa id"})
	}
	v, err := h.VillaRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrVillaNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "villa not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load villa"})
	}
	return c.JSON(http.StatusOK, echo.Map{"villa": toVillaResp(v)})
}

// UnavailableDates handles GET /v1/villas/:id/unavailable-dates.
// It returns every date inside the requested window (default: the
// next 12 months) that is blocked or covered by a paid booking, so
// booking calendars can grey out unavailable days. Pending bookings
// do not appear: they block nobody.
func (h *PublicHandler) UnavailableDates(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid villa id"})
	}
	from := availability.NormalizeDay(time.Now().UTC())
	to := from.AddDate(1, 0, 0)
	if s := c.QueryParam("from"); s != "" {
		d, err := availability.ParseDay(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date"})
		}
		from = d
	}
	if s := c.QueryParam("to"); s != "" {
		d, err := availability.ParseDay(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to date"})
		}
		to = d
	}
	if !to.After(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be after from"})
	}
	// The feed walks the window day by day; an unbounded span would
	// iterate millions of days per request.
	if to.After(from.AddDate(3, 0, 0)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date window too large"})
	}

	ctx := c.Request().Context()
	if _, err := h.VillaRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrVillaNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "villa not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load villa"})
	}

	blocked, err := h.BlockRepo.Dates(ctx, id, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load blocked dates"})
	}
	paid, err := h.BookingRepo.PaidRanges(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}

	days := availability.UnavailableDays(from, to, blocked, paid)
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Format(availability.DayFormat))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"villa_id":          id,
		"from":              from.Format(availability.DayFormat),
		"to":                to.Format(availability.DayFormat),
		"unavailable_dates": out,
	})
}
