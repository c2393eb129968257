package handler

import (
	"net/http"

	"foodcourt-ordering/internal/dto"
	"foodcourt-ordering/internal/middleware"
	"foodcourt-ordering/internal/service"

	"github.com/labstack/echo/v4"
)

const idempotencyHeader = "Idempotency-Key"

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	principal := middleware.PrincipalFrom(c)
	result, err := h.orderService.Create(ctx, principal.Owner(), middleware.LanguageFrom(c), c.Request().Header.Get(idempotencyHeader), &req)
	if err != nil {
		return err
	}

	if result.Replayed {
		return respond(c, http.StatusOK, result)
	}
	return respond(c, http.StatusCreated, result)
}

func (h *OrderHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	var query dto.ListOrdersQuery
	if err := bind(c, &query); err != nil {
		return err
	}

	result, err := h.orderService.List(ctx, middleware.PrincipalFrom(c).UserID, &query)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, result)
}

func (h *OrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.Get(ctx, middleware.PrincipalFrom(c).Actor(), c.Param("id"))
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CancelOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.Cancel(ctx, middleware.PrincipalFrom(c).Actor(), c.Param("id"), req.Reason)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, order)
}

func (h *OrderHandler) Complete(c echo.Context) error {
	ctx := c.Request().Context()

	orderID := c.Param("id")
	completed, err := h.orderService.Complete(ctx, orderID)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"order_id":  orderID,
		"completed": completed,
	})
}

func (h *OrderHandler) Refund(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RefundOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.orderService.Refund(ctx, middleware.PrincipalFrom(c).Actor(), c.Param("id"), &req)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, result)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateOrderStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.AdvanceStatus(ctx, c.Param("id"), req.Status)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, order)
}
