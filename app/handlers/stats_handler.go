// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	businessflow "github.com/TecnoAcceso/Piker-sub000/business_flow"
	"github.com/gofiber/fiber/v3"
)

// StatsHandlerInterface defines the contract for statistics handlers
type StatsHandlerInterface interface {
	UserStats(c fiber.Ctx) error
}

// StatsHandler handles usage statistics HTTP requests
type StatsHandler struct {
	statsFlow businessflow.StatsFlow
}

func (h *StatsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *StatsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsFlow businessflow.StatsFlow) *StatsHandler {
	return &StatsHandler{statsFlow: statsFlow}
}

// UserStats returns send counters and a license snapshot for the authenticated user
// @Summary User Statistics
// @Description Return today/this-week/total send counters and the license state
// @Tags Stats
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.UserStatsResponse} "Statistics retrieved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/stats [get]
func (h *StatsHandler) UserStats(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.statsFlow.UserStats(h.createRequestContext(c, "/api/v1/stats"), userID)
	if err != nil {
		log.Println("User stats failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load statistics", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Statistics retrieved successfully", result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *StatsHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *StatsHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
