package handler

import (
	"net/http"

	"foodcourt-ordering/internal/apperr"
	"foodcourt-ordering/internal/dto"
	"foodcourt-ordering/internal/middleware"
	"foodcourt-ordering/internal/payment"
	"foodcourt-ordering/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	webhookService service.WebhookService
	mock           *payment.MockProvider
}

func NewPaymentHandler(paymentService service.PaymentService, webhookService service.WebhookService, mock *payment.MockProvider) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		webhookService: webhookService,
		mock:           mock,
	}
}

func (h *PaymentHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.paymentService.Create(ctx, nil, &req)
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, result)
}

// CreateForOrder is the owner-checked variant mounted under /orders/:id/payment.
func (h *PaymentHandler) CreateForOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidBody("invalid request body")
	}
	req.OrderID = c.Param("id")
	if err := c.Validate(&req); err != nil {
		return err
	}

	actor := middleware.PrincipalFrom(c).Actor()
	result, err := h.paymentService.Create(ctx, &actor, &req)
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, result)
}

func (h *PaymentHandler) Status(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.paymentService.Status(ctx, c.Param("paymentId"), c.QueryParam("provider"))
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, result)
}

// Return is where the buyer lands after approving a checkout on the gateway.
func (h *PaymentHandler) Return(c echo.Context) error {
	ctx := c.Request().Context()

	paymentID := c.QueryParam("token")
	if paymentID == "" {
		return apperr.Validation("missing payment token")
	}

	result, err := h.paymentService.Capture(ctx, c.Param("provider"), paymentID)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, result)
}

// MockPay stands in for the customer completing checkout on the mock gateway.
func (h *PaymentHandler) MockPay(c echo.Context) error {
	ctx := c.Request().Context()

	body, headers, err := h.mock.SimulateWebhook(c.Param("paymentId"), payment.StatusPaid)
	if err != nil {
		return apperr.NotFound("payment not found")
	}

	receipt, err := h.webhookService.Ingest(ctx, h.mock.Name(), headers, body)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, receipt)
}
