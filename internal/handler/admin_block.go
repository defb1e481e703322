package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-booking/internal/availability"
	"github.com/iliyamo/villa-booking/internal/model"
	"github.com/iliyamo/villa-booking/internal/repository"
)

type blockDateReq struct {
	VillaID string `json:"villa_id"`
	Date    string `json:"date"`
	Reason  string `json:"reason"`
}

type blockDateResp struct {
	ID      string  `json:"id"`
	VillaID string  `json:"villa_id"`
	Date    string  `json:"date"`
	Reason  *string `json:"reason,omitempty"`
}

// BlockDate handles POST /v1/admin/block-dates. A duplicate
// (villa, date) pair is rejected with 409; the storage layer
// reports it as the typed repository.ErrDateBlocked.
func (h *AdminHandler) BlockDate(c echo.Context) error {
	var req blockDateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.VillaID == "" || req.Date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing required fields"})
	}
	day, err := availability.ParseDay(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	ctx := c.Request().Context()
	if _, err := h.Villas.GetByID(ctx, req.VillaID); err != nil {
		if errors.Is(err, repository.ErrVillaNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "villa not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load villa"})
	}

	bd := &model.BlockedDate{VillaID: req.VillaID, Date: day}
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		bd.Reason = &reason
	}
	if err := h.Blocks.Insert(ctx, bd); err != nil {
		if errors.Is(err, repository.ErrDateBlocked) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "this date is already blocked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to block date"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"blocked_date": blockDateResp{
		ID:      bd.ID,
		VillaID: bd.VillaID,
		Date:    bd.Date.Format(availability.DayFormat),
		Reason:  bd.Reason,
	}})
}

// ListBlockedDates handles GET /v1/admin/block-dates?villa_id=...
func (h *AdminHandler) ListBlockedDates(c echo.Context) error {
	villaID := c.QueryParam("villa_id")
	if villaID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "villa_id is required"})
	}
	items, err := h.Blocks.ListByVilla(c.Request().Context(), villaID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load blocked dates"})
	}
	out := make([]blockDateResp, 0, len(items))
	for _, bd := range items {
		out = append(out, blockDateResp{
			ID:      bd.ID,
			VillaID: bd.VillaID,
			Date:    bd.Date.Format(availability.DayFormat),
			Reason:  bd.Reason,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// UnblockDate handles DELETE /v1/admin/block-dates/:id.
func (h *AdminHandler) UnblockDate(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid blocked date id"})
	}
	if err := h.Blocks.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "blocked date not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to unblock date"})
	}
	return c.NoContent(http.StatusNoContent)
}
