package handler

import (
	"net/http"
	"strconv"

	"foodcourt-ordering/internal/dto"
	"foodcourt-ordering/internal/service"

	"github.com/labstack/echo/v4"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
	}
}

func (h *InventoryHandler) AdjustStock(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.StockRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.inventoryService.AdjustStock(ctx, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, result)
}

func (h *InventoryHandler) ListLogs(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	logs, err := h.inventoryService.ListLogs(ctx, c.Param("id"), limit)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, logs)
}
