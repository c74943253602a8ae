// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"fmt"
	"log"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	"github.com/TecnoAcceso/Piker-sub000/app/services"
	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/repository"
	"github.com/TecnoAcceso/Piker-sub000/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginFlow handles user authentication and session operations
type LoginFlow interface {
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	Logout(ctx context.Context, sessionToken string, metadata *ClientMetadata) (*dto.LogoutResponse, error)
	RefreshToken(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.RefreshTokenResponse, error)
	ForgotPassword(ctx context.Context, request *dto.ForgotPasswordRequest, metadata *ClientMetadata) (*dto.ForgotPasswordResponse, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	profileRepo  repository.UserProfileRepository
	licenseRepo  repository.LicenseRepository
	sessionRepo  repository.UserSessionRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	emailService services.EmailService
	db           *gorm.DB
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	profileRepo repository.UserProfileRepository,
	licenseRepo repository.LicenseRepository,
	sessionRepo repository.UserSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	emailService services.EmailService,
	db *gorm.DB,
) LoginFlow {
	return &LoginFlowImpl{
		profileRepo:  profileRepo,
		licenseRepo:  licenseRepo,
		sessionRepo:  sessionRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		emailService: emailService,
		db:           db,
	}
}

// Login authenticates a user with username and password. Unless the user
// is a system admin, a usable license is part of the gate: a missing,
// inactive or expired license refuses the login with ErrLicenseRequired,
// and an active license without messaging credentials refuses it with
// ErrLicensePendingAPI.
func (lf *LoginFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	var user *models.UserProfile

	resp, err := lf.WithLoginTransaction(ctx, func(ctx context.Context) (*dto.LoginResponse, error) {
		var err error
		user, err = lf.profileRepo.ByUsername(ctx, request.Username)
		if err != nil {
			return nil, err
		}
		if user == nil {
			// A prefix match is only a diagnostic hint; it never authenticates.
			if suggestion, sErr := lf.profileRepo.SuggestUsername(ctx, request.Username); sErr == nil && suggestion != "" {
				return nil, NewBusinessError("LOGIN_ERROR",
					fmt.Sprintf("User not found, did you mean %q", suggestion), ErrUserNotFound)
			}
			return nil, ErrUserNotFound
		}

		if !utils.IsTrue(user.IsActive) {
			return nil, ErrAccountInactive
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
			return nil, ErrIncorrectPassword
		}

		if user.Role != models.RoleSystemAdmin {
			if err := lf.checkLicenseGate(ctx, user); err != nil {
				return nil, err
			}
		}

		session, err := lf.CreateSession(ctx, user, metadata)
		if err != nil {
			return nil, err
		}

		if err := lf.profileRepo.UpdateLastLogin(ctx, user.ID, utils.UTCNow()); err != nil {
			return nil, err
		}

		return &dto.LoginResponse{
			User:    ToAuthUserDTO(*user),
			Session: ToSessionDTO(*session),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Login failed: %s", err.Error())
		_ = lf.LogAuthEvent(ctx, user, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		var be *BusinessError
		if ok := asBusinessError(err, &be); ok {
			return nil, be
		}
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	msg := fmt.Sprintf("User logged in successfully: %d", resp.User.ID)
	_ = lf.LogAuthEvent(ctx, user, models.AuditActionLoginSuccess, msg, true, nil, metadata)

	return resp, nil
}

// checkLicenseGate applies the license portion of the login gate
func (lf *LoginFlowImpl) checkLicenseGate(ctx context.Context, user *models.UserProfile) error {
	license := user.License
	if license == nil {
		var err error
		license, err = lf.licenseRepo.ByUserID(ctx, user.ID)
		if err != nil {
			return err
		}
	}

	now := utils.UTCNow()
	if license == nil || !utils.IsTrue(license.IsActive) || license.IsExpired(now) {
		return ErrLicenseRequired
	}
	if !license.IsConfigured() {
		return ErrLicensePendingAPI
	}
	return nil
}

// Logout unconditionally deactivates the session for the given token
func (lf *LoginFlowImpl) Logout(ctx context.Context, sessionToken string, metadata *ClientMetadata) (*dto.LogoutResponse, error) {
	session, err := lf.sessionRepo.BySessionToken(ctx, sessionToken)
	if err != nil {
		return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
	}
	if session == nil {
		return nil, NewBusinessError("LOGOUT_FAILED", "Session not found", ErrSessionNotFound)
	}

	if err := lf.sessionRepo.DeactivateSession(ctx, session.ID); err != nil {
		return nil, NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
	}

	// Best effort; the session row is already inactive
	_ = lf.tokenService.RevokeToken(sessionToken)

	msg := fmt.Sprintf("User logged out: %d", session.UserID)
	_ = lf.LogAuthEvent(ctx, &session.User, models.AuditActionLogout, msg, true, nil, metadata)

	return &dto.LogoutResponse{Message: "Logged out"}, nil
}

// RefreshToken rotates a session's tokens using a valid refresh token
func (lf *LoginFlowImpl) RefreshToken(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.RefreshTokenResponse, error) {
	resp, err := lf.WithRefreshTransaction(ctx, func(ctx context.Context) (*dto.RefreshTokenResponse, error) {
		session, err := lf.sessionRepo.ByRefreshToken(ctx, request.RefreshToken)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}

		if !utils.IsTrue(session.User.IsActive) {
			return nil, ErrAccountInactive
		}

		if err := lf.sessionRepo.DeactivateSession(ctx, session.ID); err != nil {
			return nil, err
		}

		newSession, err := lf.CreateSession(ctx, &session.User, metadata)
		if err != nil {
			return nil, err
		}

		return &dto.RefreshTokenResponse{Session: ToSessionDTO(*newSession)}, nil
	})

	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "Token refresh failed", err)
	}
	return resp, nil
}

// ForgotPassword starts operator-assisted recovery. The support inbox is
// notified; no reset link is mailed to the requester. Email delivery is
// fail-open: a relay error is logged and the caller still gets a generic
// acknowledgement, so usernames cannot be probed through this endpoint.
func (lf *LoginFlowImpl) ForgotPassword(ctx context.Context, request *dto.ForgotPasswordRequest, metadata *ClientMetadata) (*dto.ForgotPasswordResponse, error) {
	user, err := lf.profileRepo.ByUsername(ctx, request.Username)
	if err != nil {
		log.Printf("forgot password lookup failed for %q: %v", request.Username, err)
	}

	if user != nil {
		if err := lf.emailService.SendPasswordRecovery(ctx, user.Email, user.Username); err != nil {
			log.Printf("password recovery email failed for user %d: %v", user.ID, err)
		}
		msg := fmt.Sprintf("Password recovery requested: %d", user.ID)
		_ = lf.LogAuthEvent(ctx, user, models.AuditActionPasswordRecovery, msg, true, nil, metadata)
	}

	return &dto.ForgotPasswordResponse{
		Message: "If the account exists, the operator has been notified",
	}, nil
}

// CreateSession issues tokens and persists a new session row
func (lf *LoginFlowImpl) CreateSession(ctx context.Context, user *models.UserProfile, metadata *ClientMetadata) (*models.UserSession, error) {
	accessToken, refreshToken, err := lf.tokenService.GenerateTokens(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	expiresAt := utils.UTCNowAdd(utils.SessionTimeout)

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	session := &models.UserSession{
		UserID:        user.ID,
		CorrelationID: uuid.New(),
		SessionToken:  accessToken,
		RefreshToken:  &refreshToken,
		ExpiresAt:     expiresAt,
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	if err := lf.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// LogAuthEvent writes an audit row for an authentication event
func (lf *LoginFlowImpl) LogAuthEvent(ctx context.Context, user *models.UserProfile, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	var userID *uint
	if user != nil {
		userID = &user.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		if requestIDStr, ok := requestID.(string); ok {
			audit.RequestID = &requestIDStr
		}
	}

	return lf.auditRepo.Save(ctx, audit)
}

func (lf *LoginFlowImpl) WithLoginTransaction(ctx context.Context, fn func(context.Context) (*dto.LoginResponse, error)) (*dto.LoginResponse, error) {
	var result *dto.LoginResponse
	var fnErr error

	err := repository.WithTransaction(ctx, lf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

func (lf *LoginFlowImpl) WithRefreshTransaction(ctx context.Context, fn func(context.Context) (*dto.RefreshTokenResponse, error)) (*dto.RefreshTokenResponse, error) {
	var result *dto.RefreshTokenResponse
	var fnErr error

	err := repository.WithTransaction(ctx, lf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
