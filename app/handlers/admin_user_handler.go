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

// AdminUserHandlerInterface defines the contract for admin user management handlers
type AdminUserHandlerInterface interface {
	CreateUser(c fiber.Ctx) error
	ListUsers(c fiber.Ctx) error
	UpdateUser(c fiber.Ctx) error
	DeleteUser(c fiber.Ctx) error
}

// AdminUserHandler handles admin user management HTTP requests
type AdminUserHandler struct {
	adminUserFlow businessflow.AdminUserFlow
	validator     *validator.Validate
}

func (h *AdminUserHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdminUserHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewAdminUserHandler creates a new admin user handler
func NewAdminUserHandler(adminUserFlow businessflow.AdminUserFlow) *AdminUserHandler {
	return &AdminUserHandler{
		adminUserFlow: adminUserFlow,
		validator:     validator.New(),
	}
}

// CreateUser creates a user account together with its license
// @Summary Create User
// @Description Create a new user and an inactive license awaiting credentials
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.CreateUserRequest true "User and plan data"
// @Success 201 {object} dto.APIResponse{data=dto.AdminUserDTO} "User created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Username or email already exists"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/users [post]
func (h *AdminUserHandler) CreateUser(c fiber.Ctx) error {
	var req dto.CreateUserRequest
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

	result, err := h.adminUserFlow.CreateUser(h.createRequestContext(c, "/api/v1/admin/users"), &req, metadata)
	if err != nil {
		if businessflow.IsUsernameExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Username already exists", dto.ErrorValidation, nil)
		}
		if businessflow.IsEmailExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Email already exists", dto.ErrorValidation, nil)
		}

		log.Println("User creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "User creation failed", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "User created successfully", result)
}

// ListUsers pages through all user accounts
// @Summary List Users
// @Description Page through every user account with license snapshots
// @Tags Admin
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListUsersResponse} "Users retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid pagination"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/users [get]
func (h *AdminUserHandler) ListUsers(c fiber.Ctx) error {
	page, pageSize := parsePagination(c)

	result, err := h.adminUserFlow.ListUsers(h.createRequestContext(c, "/api/v1/admin/users"), page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", dto.ErrorValidation, nil)
		}

		log.Println("List users failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list users", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Users retrieved successfully", fiber.Map{
		"users": result.Users,
		"total": result.Total,
	})
}

// UpdateUser applies a partial update to a user account
// @Summary Update User
// @Description Change email, name, role, active state, or password of a user
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.AdminUserDTO} "User updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Failure 409 {object} dto.APIResponse "Email already exists"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/users/{id} [put]
func (h *AdminUserHandler) UpdateUser(c fiber.Ctx) error {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID", dto.ErrorValidation, nil)
	}

	var req dto.UpdateUserRequest
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

	result, err := h.adminUserFlow.UpdateUser(h.createRequestContext(c, "/api/v1/admin/users/:id"), targetID, &req, metadata)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "User not found", dto.ErrorNotFound, nil)
		}
		if businessflow.IsEmailExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Email already exists", dto.ErrorValidation, nil)
		}

		log.Println("User update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "User update failed", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "User updated successfully", result)
}

// DeleteUser removes a user account
// @Summary Delete User
// @Description Delete a user account. An admin cannot delete their own account.
// @Tags Admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse "User deleted"
// @Failure 400 {object} dto.APIResponse "Self deletion refused"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/users/{id} [delete]
func (h *AdminUserHandler) DeleteUser(c fiber.Ctx) error {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID", dto.ErrorValidation, nil)
	}

	actorID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	if err := h.adminUserFlow.DeleteUser(h.createRequestContext(c, "/api/v1/admin/users/:id"), actorID, targetID, metadata); err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "User not found", dto.ErrorNotFound, nil)
		}
		if businessflow.IsSelfDeleteRefused(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "You cannot delete your own account", dto.ErrorValidation, nil)
		}

		log.Println("User deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "User deletion failed", dto.ErrorInternal, nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "User deleted successfully", nil)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *AdminUserHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *AdminUserHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
