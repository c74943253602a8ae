// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserProfileRepositoryImpl implements UserProfileRepository interface
type UserProfileRepositoryImpl struct {
	*BaseRepository[models.UserProfile, models.UserProfileFilter]
}

// NewUserProfileRepository creates a new user profile repository
func NewUserProfileRepository(db *gorm.DB) UserProfileRepository {
	return &UserProfileRepositoryImpl{
		BaseRepository: NewBaseRepository[models.UserProfile, models.UserProfileFilter](db),
	}
}

// ByUsername retrieves a profile by username. The lookup is a single
// case-insensitive exact match; usernames are stored lowercase.
func (r *UserProfileRepositoryImpl) ByUsername(ctx context.Context, username string) (*models.UserProfile, error) {
	db := r.getDB(ctx)

	var profile models.UserProfile
	err := db.Where("username = ?", strings.ToLower(strings.TrimSpace(username))).
		Preload("License").
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find profile by username: %w", err)
	}

	return &profile, nil
}

// ByEmail retrieves a profile by email address
func (r *UserProfileRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	db := r.getDB(ctx)

	var profile models.UserProfile
	err := db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find profile by email: %w", err)
	}

	return &profile, nil
}

// ByUUID retrieves a profile by its public UUID
func (r *UserProfileRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	db := r.getDB(ctx)

	var profile models.UserProfile
	err := db.Where("uuid = ?", id).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find profile by uuid: %w", err)
	}

	return &profile, nil
}

// SuggestUsername returns an existing username that starts with partial.
// It is a diagnostic aid for failed logins and never authenticates anyone.
func (r *UserProfileRepositoryImpl) SuggestUsername(ctx context.Context, partial string) (string, error) {
	partial = strings.ToLower(strings.TrimSpace(partial))
	if len(partial) < 3 {
		return "", nil
	}

	db := r.getDB(ctx)
	var profile models.UserProfile
	err := db.Where("username LIKE ?", partial+"%").
		Order("username ASC").
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to suggest username: %w", err)
	}

	return profile.Username, nil
}

// ListActive retrieves active profiles ordered by creation time
func (r *UserProfileRepositoryImpl) ListActive(ctx context.Context, limit, offset int) ([]*models.UserProfile, error) {
	filter := models.UserProfileFilter{IsActive: utils.ToPtr(true)}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

// UpdatePassword replaces the stored password hash for a user
func (r *UserProfileRepositoryImpl) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.UserProfile{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"updated_at":    utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// UpdateLastLogin records the time of a successful login
func (r *UserProfileRepositoryImpl) UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.UserProfile{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// Update persists changes to an existing profile
func (r *UserProfileRepositoryImpl) Update(ctx context.Context, profile *models.UserProfile) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	profile.Username = strings.ToLower(strings.TrimSpace(profile.Username))
	profile.UpdatedAt = utils.UTCNow()
	err = db.Save(profile).Error
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return nil
}

// Delete removes a profile row. Dependent rows (license, sessions, logs)
// are removed by ON DELETE CASCADE at the schema level.
func (r *UserProfileRepositoryImpl) Delete(ctx context.Context, userID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Delete(&models.UserProfile{}, userID).Error
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	return nil
}

func (r *UserProfileRepositoryImpl) applyFilter(db *gorm.DB, f models.UserProfileFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.Username != nil {
		db = db.Where("username = ?", strings.ToLower(*f.Username))
	}
	if f.Email != nil {
		db = db.Where("LOWER(email) = ?", strings.ToLower(*f.Email))
	}
	if f.Role != nil {
		db = db.Where("role = ?", *f.Role)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *UserProfileRepositoryImpl) ByFilter(ctx context.Context, filter models.UserProfileFilter, orderBy string, limit, offset int) ([]*models.UserProfile, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.UserProfile{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.UserProfile
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *UserProfileRepositoryImpl) Count(ctx context.Context, filter models.UserProfileFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.UserProfile{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserProfileRepositoryImpl) Exists(ctx context.Context, filter models.UserProfileFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
