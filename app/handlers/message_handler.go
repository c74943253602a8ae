// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	"github.com/TecnoAcceso/Piker-sub000/app/middleware"
	businessflow "github.com/TecnoAcceso/Piker-sub000/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// MessageHandlerInterface defines the contract for message sending handlers
type MessageHandlerInterface interface {
	SendBatch(c fiber.Ctx) error
	ListBatches(c fiber.Ctx) error
	MessageLog(c fiber.Ctx) error
}

// MessageHandler handles batch sending and history HTTP requests
type MessageHandler struct {
	batchFlow businessflow.BatchFlow
	validator *validator.Validate
}

func (h *MessageHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *MessageHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(batchFlow businessflow.BatchFlow) *MessageHandler {
	return &MessageHandler{
		batchFlow: batchFlow,
		validator: validator.New(),
	}
}

// SendBatch sends one message to a list of recipients
// @Summary Send Batch
// @Description Send the same message to every recipient in the list and report per-recipient outcomes
// @Tags Messages
// @Accept json
// @Produce json
// @Param request body dto.SendBatchRequest true "Message content and recipient list"
// @Success 200 {object} dto.APIResponse{data=dto.SendBatchResponse} "Batch processed"
// @Failure 400 {object} dto.APIResponse "Validation error or empty batch"
// @Failure 401 {object} dto.APIResponse "Blocked or exhausted license"
// @Failure 404 {object} dto.APIResponse "Template not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/messages/batch [post]
func (h *MessageHandler) SendBatch(c fiber.Ctx) error {
	var req dto.SendBatchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorValidation, validationErrors)
	}

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	// Get authenticated user ID from context
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	// Sending up to 500 messages takes longer than the default request budget
	ctx := h.createRequestContextWithTimeout(c, "/api/v1/messages/batch", 5*time.Minute)

	result, err := h.batchFlow.SendBatch(ctx, userID, &req, metadata)
	if err != nil {
		if businessflow.IsBatchEmpty(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Recipient list is empty", dto.ErrorValidation, nil)
		}
		if businessflow.IsBatchTooLarge(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, userFacingMessage(err, "Recipient list is too large"), dto.ErrorValidation, nil)
		}
		if businessflow.IsBatchContentEmpty(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Message content is empty", dto.ErrorValidation, nil)
		}
		if businessflow.IsInvalidMessageType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown message type", dto.ErrorValidation, nil)
		}
		if businessflow.IsLicenseRequired(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "An active license is required to send messages", dto.ErrorLicenseRequired, nil)
		}
		if businessflow.IsLicensePendingAPI(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "License is waiting for messaging credentials", dto.ErrorLicensePendingAPI, nil)
		}
		if businessflow.IsMessageLimitReached(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "License message allotment is exhausted", dto.ErrorLicenseRequired, nil)
		}
		if businessflow.IsTemplateNotFound(err) || businessflow.IsTemplateAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Template not found", dto.ErrorNotFound, nil)
		}

		log.Println("Batch send failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Batch send failed", dto.ErrorBatchFailed, nil)
	}

	middleware.RecordBatch(req.MessageType)
	middleware.RecordMessageOutcomes(req.MessageType, "sent", result.TotalSent)
	middleware.RecordMessageOutcomes(req.MessageType, "failed", result.TotalFailed)

	return h.SuccessResponse(c, fiber.StatusOK, "Batch processed", fiber.Map{
		"batch_id":     result.BatchID,
		"total_sent":   result.TotalSent,
		"total_failed": result.TotalFailed,
		"results":      result.Results,
	})
}

// ListBatches returns the authenticated user's batch history
// @Summary List Batches
// @Description Page through the authenticated user's batch summaries, newest first
// @Tags Messages
// @Accept json
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListBatchesResponse} "Batches retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid pagination"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/messages/batches [get]
func (h *MessageHandler) ListBatches(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	page, pageSize := parsePagination(c)

	result, err := h.batchFlow.ListBatches(h.createRequestContext(c, "/api/v1/messages/batches"), userID, page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", dto.ErrorValidation, nil)
		}

		log.Println("List batches failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list batches", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Batches retrieved successfully", fiber.Map{
		"batches": result.Batches,
		"total":   result.Total,
	})
}

// MessageLog returns the authenticated user's per-recipient send log
// @Summary Message Log
// @Description Page through every delivery attempt recorded for the authenticated user
// @Tags Messages
// @Accept json
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.MessageLogResponse} "Log retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid pagination"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/messages/log [get]
func (h *MessageHandler) MessageLog(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	page, pageSize := parsePagination(c)

	result, err := h.batchFlow.MessageLog(h.createRequestContext(c, "/api/v1/messages/log"), userID, page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", dto.ErrorValidation, nil)
		}

		log.Println("Message log failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load message log", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Message log retrieved successfully", fiber.Map{
		"messages": result.Messages,
		"total":    result.Total,
	})
}

// parsePagination reads page/page_size query parameters with sane defaults
func parsePagination(c fiber.Ctx) (int, int) {
	page := 1
	if v, err := strconv.Atoi(c.Query("page", "1")); err == nil && v > 0 {
		page = v
	}
	pageSize := 20
	if v, err := strconv.Atoi(c.Query("page_size", "20")); err == nil && v > 0 {
		pageSize = v
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *MessageHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *MessageHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
