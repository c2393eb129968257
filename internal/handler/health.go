package handler

import (
	"net/http"
	"time"

	"foodcourt-ordering/internal/dto"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{
		db: db,
	}
}

func (h *HealthHandler) Check(c echo.Context) error {
	status := "ok"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
		status = "degraded"
	}

	return respond(c, http.StatusOK, dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
	})
}
