// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	businessflow "github.com/TecnoAcceso/Piker-sub000/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// TemplateHandlerInterface defines the contract for template handlers
type TemplateHandlerInterface interface {
	ListTemplates(c fiber.Ctx) error
	CreateTemplate(c fiber.Ctx) error
	UpdateTemplate(c fiber.Ctx) error
	DeleteTemplate(c fiber.Ctx) error
}

// TemplateHandler handles message template HTTP requests
type TemplateHandler struct {
	templateFlow businessflow.TemplateFlow
	validator    *validator.Validate
}

func (h *TemplateHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TemplateHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templateFlow businessflow.TemplateFlow) *TemplateHandler {
	return &TemplateHandler{
		templateFlow: templateFlow,
		validator:    validator.New(),
	}
}

// ListTemplates returns the authenticated user's templates
// @Summary List Templates
// @Description List every message template owned by the authenticated user
// @Tags Templates
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListTemplatesResponse} "Templates retrieved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/templates [get]
func (h *TemplateHandler) ListTemplates(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.templateFlow.ListTemplates(h.createRequestContext(c, "/api/v1/templates"), userID)
	if err != nil {
		log.Println("List templates failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list templates", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Templates retrieved successfully", fiber.Map{
		"templates": result.Templates,
	})
}

// CreateTemplate creates a new message template
// @Summary Create Template
// @Description Create a reusable message template for one of the flow types
// @Tags Templates
// @Accept json
// @Produce json
// @Param request body dto.CreateTemplateRequest true "Template data"
// @Success 201 {object} dto.APIResponse{data=dto.TemplateDTO} "Template created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/templates [post]
func (h *TemplateHandler) CreateTemplate(c fiber.Ctx) error {
	var req dto.CreateTemplateRequest
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

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.templateFlow.CreateTemplate(h.createRequestContext(c, "/api/v1/templates"), userID, &req, metadata)
	if err != nil {
		if businessflow.IsInvalidMessageType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown message type", dto.ErrorValidation, nil)
		}

		log.Println("Template creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Template creation failed", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Template created successfully", result)
}

// UpdateTemplate updates an existing template
// @Summary Update Template
// @Description Update name, type, content, or active state of an owned template
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path int true "Template ID"
// @Param request body dto.UpdateTemplateRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.TemplateDTO} "Template updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Template not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/templates/{id} [put]
func (h *TemplateHandler) UpdateTemplate(c fiber.Ctx) error {
	templateID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid template ID", dto.ErrorValidation, nil)
	}

	var req dto.UpdateTemplateRequest
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

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.templateFlow.UpdateTemplate(h.createRequestContext(c, "/api/v1/templates/:id"), userID, templateID, &req, metadata)
	if err != nil {
		if businessflow.IsTemplateNotFound(err) || businessflow.IsTemplateAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Template not found", dto.ErrorNotFound, nil)
		}
		if businessflow.IsInvalidMessageType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown message type", dto.ErrorValidation, nil)
		}

		log.Println("Template update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Template update failed", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Template updated successfully", result)
}

// DeleteTemplate removes an owned template
// @Summary Delete Template
// @Description Delete a template owned by the authenticated user
// @Tags Templates
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} dto.APIResponse "Template deleted"
// @Failure 404 {object} dto.APIResponse "Template not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/templates/{id} [delete]
func (h *TemplateHandler) DeleteTemplate(c fiber.Ctx) error {
	templateID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid template ID", dto.ErrorValidation, nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	if err := h.templateFlow.DeleteTemplate(h.createRequestContext(c, "/api/v1/templates/:id"), userID, templateID, metadata); err != nil {
		if businessflow.IsTemplateNotFound(err) || businessflow.IsTemplateAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Template not found", dto.ErrorNotFound, nil)
		}

		log.Println("Template deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Template deletion failed", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Template deleted successfully", nil)
}

// parseIDParam reads a positive numeric path parameter
func parseIDParam(c fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || v == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(v), nil
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *TemplateHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *TemplateHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
