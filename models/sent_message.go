package models

import "time"

// SendStatus enumerates the outcome of one delivery attempt
type SendStatus string

const (
	SendStatusSent   SendStatus = "sent"
	SendStatusFailed SendStatus = "failed"
)

// SentMessage records a single per-recipient delivery attempt. One row is
// written for every attempt regardless of provider outcome, which makes
// this table both the audit log and the source for the per-day duplicate
// check.
type SentMessage struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	UserID  uint  `gorm:"not null;index:idx_sent_messages_user_id" json:"user_id"`
	BatchID *uint `gorm:"index:idx_sent_messages_batch_id" json:"batch_id,omitempty"`

	PhoneNumber  string     `gorm:"size:20;not null;index:idx_sent_messages_phone_number" json:"phone_number"`
	MessageType  string     `gorm:"type:message_type;size:20;not null;index:idx_sent_messages_message_type" json:"message_type"`
	Status       SendStatus `gorm:"type:send_status;not null;index:idx_sent_messages_status" json:"status"`
	ErrorMessage *string    `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_sent_messages_created_at" json:"created_at"`
}

func (SentMessage) TableName() string {
	return "sent_messages"
}

// SentMessageFilter provides filter fields for repository queries
type SentMessageFilter struct {
	ID            *uint
	UserID        *uint
	BatchID       *uint
	PhoneNumber   *string
	MessageType   *string
	Status        *SendStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
