package handler

import (
	"net/http"

	"foodcourt-ordering/internal/dto"
	"foodcourt-ordering/internal/middleware"
	"foodcourt-ordering/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// ensureOwner hands anonymous callers a guest session so their cart survives the request.
func ensureOwner(c echo.Context) middleware.Principal {
	if middleware.PrincipalFrom(c).Owner().Empty() {
		middleware.SetSession(c, uuid.NewString())
	}
	return middleware.PrincipalFrom(c)
}

func (h *CartHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	cart, err := h.cartService.Get(ctx, middleware.PrincipalFrom(c).Owner(), middleware.LanguageFrom(c))
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.Item
	if err := bind(c, &req); err != nil {
		return err
	}

	principal := ensureOwner(c)
	line, err := h.cartService.AddItem(ctx, principal.Owner(), middleware.LanguageFrom(c), &req)
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, line)
}

func (h *CartHandler) AddBatch(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.BatchAddRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	principal := ensureOwner(c)
	result := h.cartService.AddBatch(ctx, principal.Owner(), middleware.LanguageFrom(c), req.Items)

	if len(result.Errors) > 0 {
		return respond(c, http.StatusMultiStatus, result)
	}
	return respond(c, http.StatusCreated, result)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateCartItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	line, err := h.cartService.UpdateQuantity(ctx, middleware.PrincipalFrom(c).Owner(), c.Param("id"), req.Quantity)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, line)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.cartService.RemoveItem(ctx, middleware.PrincipalFrom(c).Owner(), c.Param("id")); err != nil {
		return err
	}

	return respond(c, http.StatusOK, nil)
}

func (h *CartHandler) Clear(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.cartService.Clear(ctx, middleware.PrincipalFrom(c).Owner()); err != nil {
		return err
	}

	return respond(c, http.StatusOK, nil)
}
