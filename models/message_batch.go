package models

import (
	"time"

	"github.com/lib/pq"
)

// MessageBatch is the append-only summary of one user-initiated send
// operation. It is created once after every recipient has been attempted
// and never mutated. Per-recipient outcomes live in sent_messages; the
// ordered number list here is kept for display, not for inferring which
// numbers succeeded.
type MessageBatch struct {
	ID     uint        `gorm:"primaryKey" json:"id"`
	UserID uint        `gorm:"not null;index:idx_batches_user_id" json:"user_id"`
	User   UserProfile `gorm:"foreignKey:UserID;references:ID" json:"-"`

	MessageType  string  `gorm:"type:message_type;size:20;not null;index:idx_batches_message_type" json:"message_type"`
	TemplateID   *uint   `gorm:"index:idx_batches_template_id" json:"template_id,omitempty"`
	TemplateName *string `gorm:"size:120" json:"template_name,omitempty"`
	Content      string  `gorm:"type:text;not null" json:"content"`

	PhoneNumbers pq.StringArray `gorm:"type:text[];not null" json:"phone_numbers"`
	TotalSent    int            `gorm:"not null;default:0" json:"total_sent"`
	TotalFailed  int            `gorm:"not null;default:0" json:"total_failed"`

	SentAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_batches_sent_at" json:"sent_at"`
}

func (MessageBatch) TableName() string {
	return "message_batches"
}

// MessageBatchFilter represents filter criteria for batch queries
type MessageBatchFilter struct {
	ID          *uint
	UserID      *uint
	MessageType *string
	TemplateID  *uint
	SentAfter   *time.Time
	SentBefore  *time.Time
}
