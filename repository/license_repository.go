package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/utils"
	"gorm.io/gorm"
)

// LicenseRepositoryImpl implements LicenseRepository
type LicenseRepositoryImpl struct {
	*BaseRepository[models.License, models.LicenseFilter]
}

func NewLicenseRepository(db *gorm.DB) LicenseRepository {
	return &LicenseRepositoryImpl{
		BaseRepository: NewBaseRepository[models.License, models.LicenseFilter](db),
	}
}

// ByUserID retrieves the license belonging to a user (one license per user)
func (r *LicenseRepositoryImpl) ByUserID(ctx context.Context, userID uint) (*models.License, error) {
	db := r.getDB(ctx)

	var license models.License
	err := db.Where("user_id = ?", userID).First(&license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find license by user id: %w", err)
	}

	return &license, nil
}

// Update persists changes to an existing license
func (r *LicenseRepositoryImpl) Update(ctx context.Context, license *models.License) error {
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

	license.UpdatedAt = utils.UTCNow()
	err = db.Save(license).Error
	if err != nil {
		return fmt.Errorf("failed to update license: %w", err)
	}

	return nil
}

// Delete removes a license row
func (r *LicenseRepositoryImpl) Delete(ctx context.Context, licenseID uint) error {
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

	err = db.Delete(&models.License{}, licenseID).Error
	if err != nil {
		return fmt.Errorf("failed to delete license: %w", err)
	}

	return nil
}

// IncrementMessagesUsed atomically adds delta to the usage counter
func (r *LicenseRepositoryImpl) IncrementMessagesUsed(ctx context.Context, licenseID uint, delta int) error {
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

	err = db.Model(&models.License{}).
		Where("id = ?", licenseID).
		Updates(map[string]any{
			"messages_used": gorm.Expr("messages_used + ?", delta),
			"updated_at":    utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to increment messages used: %w", err)
	}

	return nil
}

func (r *LicenseRepositoryImpl) applyFilter(db *gorm.DB, f models.LicenseFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	if f.PlanType != nil {
		db = db.Where("plan_type = ?", *f.PlanType)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.ValidBefore != nil {
		db = db.Where("valid_until < ?", *f.ValidBefore)
	}
	if f.ValidAfter != nil {
		db = db.Where("valid_until >= ?", *f.ValidAfter)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *LicenseRepositoryImpl) ByFilter(ctx context.Context, filter models.LicenseFilter, orderBy string, limit, offset int) ([]*models.License, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.License{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.License
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *LicenseRepositoryImpl) Count(ctx context.Context, filter models.LicenseFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.License{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LicenseRepositoryImpl) Exists(ctx context.Context, filter models.LicenseFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
