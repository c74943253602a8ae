// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	businessflow "github.com/TecnoAcceso/Piker-sub000/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// PhoneHandlerInterface defines the contract for phone capture handlers
type PhoneHandlerInterface interface {
	ValidatePhone(c fiber.Ctx) error
	ScanQR(c fiber.Ctx) error
}

// PhoneHandler handles phone validation and QR capture HTTP requests
type PhoneHandler struct {
	phoneFlow businessflow.PhoneFlow
	validator *validator.Validate
}

func (h *PhoneHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *PhoneHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewPhoneHandler creates a new phone handler
func NewPhoneHandler(phoneFlow businessflow.PhoneFlow) *PhoneHandler {
	return &PhoneHandler{
		phoneFlow: phoneFlow,
		validator: validator.New(),
	}
}

// ValidatePhone normalizes a manually entered phone number and checks the daily duplicate guard
// @Summary Validate Phone Number
// @Description Normalize a phone number to +58 format and reject same-day duplicates
// @Tags Phones
// @Accept json
// @Produce json
// @Param request body dto.ValidatePhoneRequest true "Phone number and message type"
// @Success 200 {object} dto.APIResponse{data=dto.ValidatePhoneResponse} "Phone number accepted"
// @Failure 400 {object} dto.APIResponse "Validation error or malformed phone number"
// @Failure 409 {object} dto.APIResponse "Already messaged today"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/phones/validate [post]
func (h *PhoneHandler) ValidatePhone(c fiber.Ctx) error {
	var req dto.ValidatePhoneRequest
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

	// Get authenticated user ID from context
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.phoneFlow.ValidatePhone(h.createRequestContext(c, "/api/v1/phones/validate"), userID, &req)
	if err != nil {
		if businessflow.IsPhoneInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, userFacingMessage(err, "Phone number is not valid"), dto.ErrorPhoneInvalid, nil)
		}
		if businessflow.IsDuplicatePhone(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, userFacingMessage(err, "This number was already messaged today"), dto.ErrorDuplicatePhone, nil)
		}
		if businessflow.IsInvalidMessageType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown message type", dto.ErrorValidation, nil)
		}

		log.Println("Phone validation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Phone validation failed", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Phone number accepted", fiber.Map{
		"input":      result.Input,
		"normalized": result.Normalized,
	})
}

// ScanQR extracts the recipient number from a scanned WhatsApp QR payload
// @Summary Scan QR Code
// @Description Extract and validate the recipient phone number from a QR payload
// @Tags Phones
// @Accept json
// @Produce json
// @Param request body dto.ScanQRRequest true "QR payload and message type"
// @Success 200 {object} dto.APIResponse{data=dto.ScanQRResponse} "Recipient extracted"
// @Failure 400 {object} dto.APIResponse "Malformed QR payload"
// @Failure 409 {object} dto.APIResponse "Already messaged today"
// @Failure 422 {object} dto.APIResponse "QR payload carries no sender number"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/phones/scan [post]
func (h *PhoneHandler) ScanQR(c fiber.Ctx) error {
	var req dto.ScanQRRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrorValidation, validationErrors)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.phoneFlow.ScanQR(h.createRequestContext(c, "/api/v1/phones/scan"), userID, &req)
	if err != nil {
		if businessflow.IsQRInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, userFacingMessage(err, "QR payload is not recognized"), dto.ErrorQRInvalid, nil)
		}
		if businessflow.IsQRSenderUnknown(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, userFacingMessage(err, "QR payload carries no sender number"), dto.ErrorQRSenderUnknown, nil)
		}
		if businessflow.IsPhoneInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, userFacingMessage(err, "Extracted number is not valid"), dto.ErrorPhoneInvalid, nil)
		}
		if businessflow.IsDuplicatePhone(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, userFacingMessage(err, "This number was already messaged today"), dto.ErrorDuplicatePhone, nil)
		}
		if businessflow.IsInvalidMessageType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown message type", dto.ErrorValidation, nil)
		}

		log.Println("QR scan failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "QR scan failed", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Recipient extracted successfully", fiber.Map{
		"phone_number": result.PhoneNumber,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *PhoneHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *PhoneHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
