package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-booking/internal/model"
	"github.com/iliyamo/villa-booking/internal/repository"
)

// VillaStore covers the villa operations the back-office needs.
type VillaStore interface {
	Create(ctx context.Context, v *model.Villa) error
	GetByID(ctx context.Context, id string) (*model.Villa, error)
	Update(ctx context.Context, v *model.Villa) error
	Delete(ctx context.Context, id string) error
}

// BookingStore covers the booking overview operations.
type BookingStore interface {
	ListAll(ctx context.Context, villaID string) ([]repository.BookingDetail, error)
	MarkFailed(ctx context.Context, bookingID string) error
}

// BlockedDateStore covers blocked-date management.
type BlockedDateStore interface {
	Insert(ctx context.Context, bd *model.BlockedDate) error
	ListByVilla(ctx context.Context, villaID string) ([]model.BlockedDate, error)
	Delete(ctx context.Context, id string) error
}

// AdminHandler bundles the stores behind the back-office: villa
// CRUD, blocked-date management and the booking overview. JWT
// authentication and the ADMIN role check run in middleware before
// any of these methods.
type AdminHandler struct {
	Villas   VillaStore
	Bookings BookingStore
	Blocks   BlockedDateStore
}

// NewAdminHandler constructs an AdminHandler and panics if any
// dependency is nil.
func NewAdminHandler(villas VillaStore, bookings BookingStore, blocks BlockedDateStore) *AdminHandler {
	if villas == nil || bookings == nil || blocks == nil {
		panic("nil store passed to NewAdminHandler")
	}
	return &AdminHandler{Villas: villas, Bookings: bookings, Blocks: blocks}
}

type villaReq struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	PricePerNight int64    `json:"price_per_night"`
	Amenities     []string `json:"amenities"`
	Images        []string `json:"images"`
}

func (r *villaReq) validate() string {
	if strings.TrimSpace(r.Name) == "" {
		return "name is required"
	}
	if strings.TrimSpace(r.Description) == "" {
		return "description is required"
	}
	if r.PricePerNight <= 0 {
		return "price_per_night must be positive"
	}
	return ""
}

// CreateVilla handles POST /v1/admin/villas.
func (h *AdminHandler) CreateVilla(c echo.Context) error {
	var req villaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	v := &model.Villa{
		Name:               strings.TrimSpace(req.Name),
		Description:        req.Description,
		PricePerNightCents: req.PricePerNight,
		Amenities:          req.Amenities,
		Images:             req.Images,
	}
	if err := h.Villas.Create(c.Request().Context(), v); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create villa"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"villa": toVillaResp(v)})
}

// UpdateVilla handles PUT /v1/admin/villas/:id.
func (h *AdminHandler) UpdateVilla(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid villa id"})
	}
	var req villaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	v := &model.Villa{
		ID:                 id,
		Name:               strings.TrimSpace(req.Name),
		Description:        req.Description,
		PricePerNightCents: req.PricePerNight,
		Amenities:          req.Amenities,
		Images:             req.Images,
	}
	if err := h.Villas.Update(c.Request().Context(), v); err != nil {
		if errors.Is(err, repository.ErrVillaNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "villa not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update villa"})
	}
	return c.JSON(http.StatusOK, echo.Map{"villa": toVillaResp(v)})
}

// DeleteVilla handles DELETE /v1/admin/villas/:id. Villas with
// existing bookings cannot be deleted (foreign key restriction).
func (h *AdminHandler) DeleteVilla(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid villa id"})
	}
	if err := h.Villas.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrVillaNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "villa not found"})
		}
		return c.JSON(http.StatusConflict, echo.Map{"error": "villa has bookings and cannot be deleted"})
	}
	return c.NoContent(http.StatusNoContent)
}
