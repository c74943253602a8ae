package models

import "time"

// Message type constants shared by templates, batches and the sent log
const (
	MessageTypeReceived = "received"
	MessageTypeReminder = "reminder"
	MessageTypeReturn   = "return"
)

// IsValidMessageType reports whether t is one of the known message types.
func IsValidMessageType(t string) bool {
	switch t {
	case MessageTypeReceived, MessageTypeReminder, MessageTypeReturn:
		return true
	}
	return false
}

// MessageTemplate is a reusable message body owned by a user
type MessageTemplate struct {
	ID     uint        `gorm:"primaryKey" json:"id"`
	UserID uint        `gorm:"not null;index:idx_templates_user_id" json:"user_id"`
	User   UserProfile `gorm:"foreignKey:UserID;references:ID" json:"-"`

	Name        string `gorm:"size:120;not null" json:"name"`
	MessageType string `gorm:"type:message_type;size:20;not null;index:idx_templates_message_type" json:"message_type"`
	Content     string `gorm:"type:text;not null" json:"content"`
	IsActive    *bool  `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (MessageTemplate) TableName() string {
	return "message_templates"
}

// MessageTemplateFilter represents filter criteria for template queries
type MessageTemplateFilter struct {
	ID          *uint
	UserID      *uint
	Name        *string
	MessageType *string
	IsActive    *bool
}
