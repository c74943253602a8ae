// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserProfileRepository defines operations for user profiles
type UserProfileRepository interface {
	Repository[models.UserProfile, models.UserProfileFilter]
	ByUsername(ctx context.Context, username string) (*models.UserProfile, error)
	ByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.UserProfile, error)
	SuggestUsername(ctx context.Context, partial string) (string, error)
	ListActive(ctx context.Context, limit, offset int) ([]*models.UserProfile, error)
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error
	Update(ctx context.Context, profile *models.UserProfile) error
	Delete(ctx context.Context, userID uint) error
}

// LicenseRepository defines operations for licenses
type LicenseRepository interface {
	Repository[models.License, models.LicenseFilter]
	ByUserID(ctx context.Context, userID uint) (*models.License, error)
	Update(ctx context.Context, license *models.License) error
	Delete(ctx context.Context, licenseID uint) error
	IncrementMessagesUsed(ctx context.Context, licenseID uint, delta int) error
}

// MessageTemplateRepository defines operations for message templates
type MessageTemplateRepository interface {
	Repository[models.MessageTemplate, models.MessageTemplateFilter]
	ListByUser(ctx context.Context, userID uint) ([]*models.MessageTemplate, error)
	Update(ctx context.Context, template *models.MessageTemplate) error
	Delete(ctx context.Context, templateID uint) error
}

// MessageBatchRepository defines operations for batch summaries
type MessageBatchRepository interface {
	Repository[models.MessageBatch, models.MessageBatchFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.MessageBatch, error)
}

// SentMessageRepository defines operations for the per-recipient send log
type SentMessageRepository interface {
	Repository[models.SentMessage, models.SentMessageFilter]
	ListByBatch(ctx context.Context, batchID uint) ([]*models.SentMessage, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.SentMessage, error)
	// ExistsForDay reports whether a message of the given type was already
	// sent to phone by userID during the calendar day containing at (UTC).
	ExistsForDay(ctx context.Context, userID uint, phoneNumber, messageType string, at time.Time) (bool, error)
	CountByUserSince(ctx context.Context, userID uint, since time.Time) (int64, error)
}

// UserSessionRepository defines operations for user sessions
type UserSessionRepository interface {
	Repository[models.UserSession, models.UserSessionFilter]
	BySessionToken(ctx context.Context, token string) (*models.UserSession, error)
	ByRefreshToken(ctx context.Context, token string) (*models.UserSession, error)
	ListActiveByUser(ctx context.Context, userID uint) ([]*models.UserSession, error)
	DeactivateSession(ctx context.Context, sessionID uint) error
	DeactivateAllUserSessions(ctx context.Context, userID uint) error
	CleanupExpired(ctx context.Context) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}
