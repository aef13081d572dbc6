package handler

import (
	"net/http"

	"hms-service/pkg/database"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports service liveness
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"service": "hms-service",
	})
}

// ReadyCheck reports readiness including shared database connectivity
func ReadyCheck(c echo.Context) error {
	sqlDB, err := database.GetDB().DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status": "unavailable",
			"error":  "shared database unreachable",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
}
