package handler

import (
	"io"
	"net/http"
	"strconv"

	"foodcourt-ordering/internal/apperr"
	"foodcourt-ordering/internal/service"

	"github.com/labstack/echo/v4"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return nil, apperr.InvalidBody("unreadable request body")
	}
	return body, nil
}

func (h *WebhookHandler) Payment(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := readBody(c)
	if err != nil {
		return err
	}

	receipt, err := h.webhookService.Ingest(ctx, c.Param("provider"), c.Request().Header, body)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, receipt)
}

func (h *WebhookHandler) Translation(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := readBody(c)
	if err != nil {
		return err
	}

	receipt, err := h.webhookService.LogTranslation(ctx, c.Request().Header, body)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, receipt)
}

func (h *WebhookHandler) ListLogs(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	logs, err := h.webhookService.ListLogs(ctx, c.QueryParam("status"), limit)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, logs)
}

func (h *WebhookHandler) Retry(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.Validation("invalid webhook log id")
	}

	receipt, err := h.webhookService.Replay(ctx, uint(id))
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, receipt)
}
