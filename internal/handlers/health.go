package handlers

import (
	"scanpay/internal/repositories"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports liveness of the service and its dependencies.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := fiber.Map{
		"status":   "ok",
		"database": "ok",
		"cache":    "ok",
	}
	healthy := true

	if repositories.DB == nil {
		status["database"] = "not configured"
		healthy = false
	} else if sqlDB, err := repositories.DB.DB(); err != nil || sqlDB.PingContext(c.Context()) != nil {
		status["database"] = "unreachable"
		healthy = false
	}

	if repositories.CacheService == nil {
		status["cache"] = "not configured"
	} else if err := repositories.CacheService.HealthCheck(c.Context()); err != nil {
		status["cache"] = "unreachable"
		healthy = false
	}

	if !healthy {
		status["status"] = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "service degraded",
			"data":  status,
		})
	}
	return response.Success(c, "Service healthy", status)
}
