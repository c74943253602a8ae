package repository

import (
	"context"

	"github.com/TecnoAcceso/Piker-sub000/models"
	"gorm.io/gorm"
)

// MessageBatchRepositoryImpl implements MessageBatchRepository
type MessageBatchRepositoryImpl struct {
	*BaseRepository[models.MessageBatch, models.MessageBatchFilter]
}

func NewMessageBatchRepository(db *gorm.DB) MessageBatchRepository {
	return &MessageBatchRepositoryImpl{
		BaseRepository: NewBaseRepository[models.MessageBatch, models.MessageBatchFilter](db),
	}
}

// ListByUser retrieves batch summaries for a user, newest first
func (r *MessageBatchRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.MessageBatch, error) {
	filter := models.MessageBatchFilter{UserID: &userID}
	return r.ByFilter(ctx, filter, "sent_at DESC", limit, offset)
}

func (r *MessageBatchRepositoryImpl) applyFilter(db *gorm.DB, f models.MessageBatchFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	if f.MessageType != nil {
		db = db.Where("message_type = ?", *f.MessageType)
	}
	if f.TemplateID != nil {
		db = db.Where("template_id = ?", *f.TemplateID)
	}
	if f.SentAfter != nil {
		db = db.Where("sent_at >= ?", *f.SentAfter)
	}
	if f.SentBefore != nil {
		db = db.Where("sent_at < ?", *f.SentBefore)
	}
	return db
}

func (r *MessageBatchRepositoryImpl) ByFilter(ctx context.Context, filter models.MessageBatchFilter, orderBy string, limit, offset int) ([]*models.MessageBatch, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.MessageBatch{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.MessageBatch
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *MessageBatchRepositoryImpl) Count(ctx context.Context, filter models.MessageBatchFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.MessageBatch{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageBatchRepositoryImpl) Exists(ctx context.Context, filter models.MessageBatchFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
