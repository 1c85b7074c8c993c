package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	driver string
	search bool
}

func NewHealthHandler(driver string, search bool) *HealthHandler {
	return &HealthHandler{driver: driver, search: search}
}

// HealthHandler handles GET /health
func (h *HealthHandler) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"driver": h.driver,
		"search": h.search,
	})
}
