package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"foodcourt-ordering/internal/apperr"

	"github.com/labstack/echo/v4"
)

type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// Response is the envelope every endpoint answers with; Code 0 means success.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Details interface{} `json:"details,omitempty"`
	Meta    Meta        `json:"meta"`
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Response{
		Code:    0,
		Message: "success",
		Data:    data,
		Meta:    Meta{Timestamp: time.Now().UTC()},
	})
}

// NewErrorHandler renders every error returned by handlers or middleware in the envelope.
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	log := logger.With("component", "http")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"code", body.Code,
				"error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("write error response failed", "error", err)
		}
	}
}

func errorResponse(err error) (int, Response) {
	body := Response{Meta: Meta{Timestamp: time.Now().UTC()}}

	if appErr, ok := apperr.As(err); ok {
		body.Code = appErr.Code
		body.Message = appErr.Message
		body.Details = appErr.Details
		return appErr.HTTPStatus(), body
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		body.Code = he.Code*100 + 1
		body.Message = fmt.Sprint(he.Message)
		return he.Code, body
	}

	body.Code = apperr.CodeInternal
	body.Message = "internal server error"
	return http.StatusInternalServerError, body
}
