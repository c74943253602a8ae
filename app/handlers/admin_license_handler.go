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

// AdminLicenseHandlerInterface defines the contract for license management handlers
type AdminLicenseHandlerInterface interface {
	ListLicenses(c fiber.Ctx) error
	CreateLicense(c fiber.Ctx) error
	UpdateLicense(c fiber.Ctx) error
	DeleteLicense(c fiber.Ctx) error
}

// AdminLicenseHandler handles license management HTTP requests
type AdminLicenseHandler struct {
	licenseFlow businessflow.AdminLicenseFlow
	validator   *validator.Validate
}

func (h *AdminLicenseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdminLicenseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewAdminLicenseHandler creates a new admin license handler
func NewAdminLicenseHandler(licenseFlow businessflow.AdminLicenseFlow) *AdminLicenseHandler {
	return &AdminLicenseHandler{
		licenseFlow: licenseFlow,
		validator:   validator.New(),
	}
}

// ListLicenses pages through all licenses
// @Summary List Licenses
// @Description Page through every license. Auth tokens are never returned.
// @Tags Admin
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListLicensesResponse} "Licenses retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid pagination"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/licenses [get]
func (h *AdminLicenseHandler) ListLicenses(c fiber.Ctx) error {
	page, pageSize := parsePagination(c)

	result, err := h.licenseFlow.ListLicenses(h.createRequestContext(c, "/api/v1/admin/licenses"), page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", dto.ErrorValidation, nil)
		}

		log.Println("List licenses failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list licenses", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Licenses retrieved successfully", fiber.Map{
		"licenses": result.Licenses,
		"total":    result.Total,
	})
}

// CreateLicense creates a license for an existing user
// @Summary Create License
// @Description Create a license for a user that has none. Starts inactive until credentials arrive.
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.CreateLicenseRequest true "License data"
// @Success 201 {object} dto.APIResponse{data=dto.LicenseDTO} "License created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Failure 409 {object} dto.APIResponse "User already has a license"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/licenses [post]
func (h *AdminLicenseHandler) CreateLicense(c fiber.Ctx) error {
	var req dto.CreateLicenseRequest
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

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.licenseFlow.CreateLicense(h.createRequestContext(c, "/api/v1/admin/licenses"), &req, metadata)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "User not found", dto.ErrorNotFound, nil)
		}
		if businessflow.IsLicenseExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "User already has a license", dto.ErrorValidation, nil)
		}

		log.Println("License creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "License creation failed", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "License created successfully", result)
}

// UpdateLicense applies a partial update to a license
// @Summary Update License
// @Description Renew, reconfigure, or toggle a license. Activation requires stored credentials.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "License ID"
// @Param request body dto.UpdateLicenseRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.LicenseDTO} "License updated"
// @Failure 400 {object} dto.APIResponse "Validation error or activation without credentials"
// @Failure 404 {object} dto.APIResponse "License not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/licenses/{id} [put]
func (h *AdminLicenseHandler) UpdateLicense(c fiber.Ctx) error {
	licenseID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid license ID", dto.ErrorValidation, nil)
	}

	var req dto.UpdateLicenseRequest
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

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.licenseFlow.UpdateLicense(h.createRequestContext(c, "/api/v1/admin/licenses/:id"), licenseID, &req, metadata)
	if err != nil {
		if businessflow.IsLicenseNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "License not found", dto.ErrorNotFound, nil)
		}
		if businessflow.IsLicenseNotConfigured(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "License cannot be activated without messaging credentials", dto.ErrorLicensePendingAPI, nil)
		}

		log.Println("License update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "License update failed", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "License updated successfully", result)
}

// DeleteLicense removes a license
// @Summary Delete License
// @Description Delete a license. The owning user can no longer sign in until a new one is issued.
// @Tags Admin
// @Produce json
// @Param id path int true "License ID"
// @Success 200 {object} dto.APIResponse "License deleted"
// @Failure 404 {object} dto.APIResponse "License not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/licenses/{id} [delete]
func (h *AdminLicenseHandler) DeleteLicense(c fiber.Ctx) error {
	licenseID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid license ID", dto.ErrorValidation, nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	if err := h.licenseFlow.DeleteLicense(h.createRequestContext(c, "/api/v1/admin/licenses/:id"), licenseID, metadata); err != nil {
		if businessflow.IsLicenseNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "License not found", dto.ErrorNotFound, nil)
		}

		log.Println("License deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "License deletion failed", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "License deleted successfully", nil)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *AdminLicenseHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *AdminLicenseHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
