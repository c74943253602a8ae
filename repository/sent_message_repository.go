package repository

import (
	"context"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/utils"
	"gorm.io/gorm"
)

// SentMessageRepositoryImpl implements SentMessageRepository
type SentMessageRepositoryImpl struct {
	*BaseRepository[models.SentMessage, models.SentMessageFilter]
}

func NewSentMessageRepository(db *gorm.DB) SentMessageRepository {
	return &SentMessageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SentMessage, models.SentMessageFilter](db),
	}
}

// ListByBatch retrieves every delivery attempt recorded for a batch
func (r *SentMessageRepositoryImpl) ListByBatch(ctx context.Context, batchID uint) ([]*models.SentMessage, error) {
	filter := models.SentMessageFilter{BatchID: &batchID}
	return r.ByFilter(ctx, filter, "id ASC", 0, 0)
}

// ListByUser retrieves the send log for a user, newest first
func (r *SentMessageRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.SentMessage, error) {
	filter := models.SentMessageFilter{UserID: &userID}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

// ExistsForDay reports whether a message of the given type was already sent
// to phoneNumber by userID during the UTC calendar day containing at. Only
// successful sends count; a failed attempt does not block a retry.
func (r *SentMessageRepositoryImpl) ExistsForDay(ctx context.Context, userID uint, phoneNumber, messageType string, at time.Time) (bool, error) {
	start, end := utils.DayBoundsUTC(at)
	status := models.SendStatusSent
	filter := models.SentMessageFilter{
		UserID:        &userID,
		PhoneNumber:   &phoneNumber,
		MessageType:   &messageType,
		Status:        &status,
		CreatedAfter:  &start,
		CreatedBefore: &end,
	}
	return r.Exists(ctx, filter)
}

// CountByUserSince counts delivery attempts by a user after the given time
func (r *SentMessageRepositoryImpl) CountByUserSince(ctx context.Context, userID uint, since time.Time) (int64, error) {
	filter := models.SentMessageFilter{
		UserID:       &userID,
		CreatedAfter: &since,
	}
	return r.Count(ctx, filter)
}

func (r *SentMessageRepositoryImpl) applyFilter(db *gorm.DB, f models.SentMessageFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	if f.BatchID != nil {
		db = db.Where("batch_id = ?", *f.BatchID)
	}
	if f.PhoneNumber != nil {
		db = db.Where("phone_number = ?", *f.PhoneNumber)
	}
	if f.MessageType != nil {
		db = db.Where("message_type = ?", *f.MessageType)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *SentMessageRepositoryImpl) ByFilter(ctx context.Context, filter models.SentMessageFilter, orderBy string, limit, offset int) ([]*models.SentMessage, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SentMessage{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.SentMessage
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SentMessageRepositoryImpl) Count(ctx context.Context, filter models.SentMessageFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SentMessage{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SentMessageRepositoryImpl) Exists(ctx context.Context, filter models.SentMessageFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
