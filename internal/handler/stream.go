package handler

import (
	"errors"

	"foodcourt-ordering/internal/apperr"
	"foodcourt-ordering/internal/notify"
	"foodcourt-ordering/internal/repository"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type StreamHandler struct {
	hub           *notify.Hub
	foodCourtRepo repository.FoodCourtRepository
}

func NewStreamHandler(hub *notify.Hub, foodCourtRepo repository.FoodCourtRepository) *StreamHandler {
	return &StreamHandler{
		hub:           hub,
		foodCourtRepo: foodCourtRepo,
	}
}

// Orders streams status changes of a food court's orders to a kitchen screen.
func (h *StreamHandler) Orders(c echo.Context) error {
	ctx := c.Request().Context()

	foodCourtID := c.Param("id")
	if _, err := h.foodCourtRepo.Get(ctx, foodCourtID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("food court not found")
		}
		return err
	}

	// the upgrade writes its own response on failure
	_ = h.hub.Serve(c.Response(), c.Request(), foodCourtID)
	return nil
}
