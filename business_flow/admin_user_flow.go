// Package businessflow contains the core business logic and use cases for messaging workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/repository"
	"github.com/TecnoAcceso/Piker-sub000/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminUserFlow handles user administration (admin role and above)
type AdminUserFlow interface {
	CreateUser(ctx context.Context, request *dto.CreateUserRequest, metadata *ClientMetadata) (*dto.AdminUserDTO, error)
	ListUsers(ctx context.Context, page, pageSize int) (*dto.ListUsersResponse, error)
	UpdateUser(ctx context.Context, targetID uint, request *dto.UpdateUserRequest, metadata *ClientMetadata) (*dto.AdminUserDTO, error)
	DeleteUser(ctx context.Context, actorID, targetID uint, metadata *ClientMetadata) error
}

// AdminUserFlowImpl implements the admin user flow
type AdminUserFlowImpl struct {
	profileRepo repository.UserProfileRepository
	licenseRepo repository.LicenseRepository
	sessionRepo repository.UserSessionRepository
	auditRepo   repository.AuditLogRepository
	db          *gorm.DB
}

// NewAdminUserFlow creates a new admin user flow instance
func NewAdminUserFlow(
	profileRepo repository.UserProfileRepository,
	licenseRepo repository.LicenseRepository,
	sessionRepo repository.UserSessionRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) AdminUserFlow {
	return &AdminUserFlowImpl{
		profileRepo: profileRepo,
		licenseRepo: licenseRepo,
		sessionRepo: sessionRepo,
		auditRepo:   auditRepo,
		db:          db,
	}
}

// CreateUser creates a profile together with its license in one
// transaction. The license starts inactive; activation happens through
// license management once credentials are configured.
func (af *AdminUserFlowImpl) CreateUser(ctx context.Context, request *dto.CreateUserRequest, metadata *ClientMetadata) (*dto.AdminUserDTO, error) {
	username := strings.ToLower(strings.TrimSpace(request.Username))

	resp, err := af.WithUserTransaction(ctx, func(ctx context.Context) (*dto.AdminUserDTO, error) {
		existing, err := af.profileRepo.ByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrUsernameExists
		}

		existing, err = af.profileRepo.ByEmail(ctx, request.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailExists
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}

		profile := &models.UserProfile{
			UUID:         uuid.New(),
			Username:     username,
			Email:        strings.TrimSpace(request.Email),
			FullName:     request.FullName,
			Role:         request.Role,
			PasswordHash: string(hashed),
			IsActive:     utils.ToPtr(true),
		}
		if err := af.profileRepo.Save(ctx, profile); err != nil {
			return nil, err
		}

		validUntil, err := parseDatePtr(request.ValidUntil)
		if err != nil {
			return nil, err
		}

		license := &models.License{
			UserID:       profile.ID,
			PlanType:     request.PlanType,
			MessageLimit: request.MessageLimit,
			ValidUntil:   validUntil,
			IsActive:     utils.ToPtr(false),
		}
		if err := af.licenseRepo.Save(ctx, license); err != nil {
			return nil, err
		}

		profile.License = license
		out := ToAdminUserDTO(*profile)
		return &out, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("User creation failed: %s", err.Error())
		_ = af.logAdminEvent(ctx, nil, models.AuditActionUserCreated, errMsg, false, metadata)
		return nil, NewBusinessError("USER_CREATE_FAILED", "User creation failed", err)
	}

	desc := fmt.Sprintf("User created: %s (%d)", resp.Username, resp.ID)
	_ = af.logAdminEvent(ctx, &resp.ID, models.AuditActionUserCreated, desc, true, metadata)

	return resp, nil
}

// ListUsers returns a page of users with their licenses
func (af *AdminUserFlowImpl) ListUsers(ctx context.Context, page, pageSize int) (*dto.ListUsersResponse, error) {
	if err := validatePagination(page, pageSize); err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", err.Error(), err)
	}

	users, err := af.profileRepo.ByFilter(ctx, models.UserProfileFilter{}, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("USER_LIST_FAILED", "Failed to list users", err)
	}

	total, err := af.profileRepo.Count(ctx, models.UserProfileFilter{})
	if err != nil {
		return nil, NewBusinessError("USER_LIST_FAILED", "Failed to count users", err)
	}

	out := make([]dto.AdminUserDTO, 0, len(users))
	for _, u := range users {
		if u.License == nil {
			if lic, lErr := af.licenseRepo.ByUserID(ctx, u.ID); lErr == nil {
				u.License = lic
			}
		}
		out = append(out, ToAdminUserDTO(*u))
	}

	return &dto.ListUsersResponse{Users: out, Total: total}, nil
}

// UpdateUser applies a partial update to a user
func (af *AdminUserFlowImpl) UpdateUser(ctx context.Context, targetID uint, request *dto.UpdateUserRequest, metadata *ClientMetadata) (*dto.AdminUserDTO, error) {
	profile, err := af.profileRepo.ByID(ctx, targetID)
	if err != nil {
		return nil, NewBusinessError("USER_UPDATE_FAILED", "Failed to load user", err)
	}
	if profile == nil {
		return nil, NewBusinessError("NOT_FOUND", "User not found", ErrUserNotFound)
	}

	if request.Email != nil {
		other, err := af.profileRepo.ByEmail(ctx, *request.Email)
		if err != nil {
			return nil, NewBusinessError("USER_UPDATE_FAILED", "Failed to check email", err)
		}
		if other != nil && other.ID != profile.ID {
			return nil, NewBusinessError("USER_UPDATE_FAILED", "Email already exists", ErrEmailExists)
		}
		profile.Email = strings.TrimSpace(*request.Email)
	}
	if request.FullName != nil {
		profile.FullName = *request.FullName
	}
	if request.Role != nil {
		profile.Role = *request.Role
	}
	if request.IsActive != nil {
		profile.IsActive = request.IsActive
	}
	if request.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*request.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, NewBusinessError("USER_UPDATE_FAILED", "Failed to hash password", err)
		}
		profile.PasswordHash = string(hashed)
	}

	if err := af.profileRepo.Update(ctx, profile); err != nil {
		return nil, NewBusinessError("USER_UPDATE_FAILED", "Failed to update user", err)
	}

	// Deactivation or password change invalidates open sessions
	if (request.IsActive != nil && !*request.IsActive) || request.Password != nil {
		if err := af.sessionRepo.DeactivateAllUserSessions(ctx, profile.ID); err != nil {
			return nil, NewBusinessError("USER_UPDATE_FAILED", "Failed to invalidate sessions", err)
		}
	}

	desc := fmt.Sprintf("User updated: %s (%d)", profile.Username, profile.ID)
	_ = af.logAdminEvent(ctx, &profile.ID, models.AuditActionUserUpdated, desc, true, metadata)

	out := ToAdminUserDTO(*profile)
	return &out, nil
}

// DeleteUser removes a user. Deleting your own account is refused.
func (af *AdminUserFlowImpl) DeleteUser(ctx context.Context, actorID, targetID uint, metadata *ClientMetadata) error {
	if actorID == targetID {
		return NewBusinessError("VALIDATION_ERROR", "Cannot delete own account", ErrSelfDeleteRefused)
	}

	profile, err := af.profileRepo.ByID(ctx, targetID)
	if err != nil {
		return NewBusinessError("USER_DELETE_FAILED", "Failed to load user", err)
	}
	if profile == nil {
		return NewBusinessError("NOT_FOUND", "User not found", ErrUserNotFound)
	}

	if err := af.sessionRepo.DeactivateAllUserSessions(ctx, profile.ID); err != nil {
		return NewBusinessError("USER_DELETE_FAILED", "Failed to invalidate sessions", err)
	}

	if err := af.profileRepo.Delete(ctx, profile.ID); err != nil {
		return NewBusinessError("USER_DELETE_FAILED", "Failed to delete user", err)
	}

	desc := fmt.Sprintf("User deleted: %s (%d)", profile.Username, profile.ID)
	_ = af.logAdminEvent(ctx, &targetID, models.AuditActionUserDeleted, desc, true, metadata)

	return nil
}

func (af *AdminUserFlowImpl) logAdminEvent(ctx context.Context, userID *uint, action, description string, success bool, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:      userID,
		Action:      action,
		Description: &description,
		Success:     utils.ToPtr(success),
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		if requestIDStr, ok := requestID.(string); ok {
			audit.RequestID = &requestIDStr
		}
	}

	return af.auditRepo.Save(ctx, audit)
}

func (af *AdminUserFlowImpl) WithUserTransaction(ctx context.Context, fn func(context.Context) (*dto.AdminUserDTO, error)) (*dto.AdminUserDTO, error) {
	var result *dto.AdminUserDTO
	var fnErr error

	err := repository.WithTransaction(ctx, af.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

// parseDatePtr parses an optional yyyy-mm-dd date string
func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", *s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", *s, err)
	}
	return &t, nil
}
