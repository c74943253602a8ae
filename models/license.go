package models

import (
	"time"
)

// Plan type constants for license records
const (
	PlanTypeBasic       = "basic"
	PlanTypePro         = "pro"
	PlanTypeEnterprise  = "enterprise"
	PlanTypeSystemAdmin = "system_admin"
)

// License holds the per-user subscription and the Twilio credentials used
// to deliver WhatsApp messages on that user's behalf. One license per user.
type License struct {
	ID     uint        `gorm:"primaryKey" json:"id"`
	UserID uint        `gorm:"not null;uniqueIndex:uk_licenses_user_id" json:"user_id"`
	User   UserProfile `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`

	PlanType     string `gorm:"type:license_plan;size:20;not null;default:'basic'" json:"plan_type"`
	MessageLimit int    `gorm:"not null;default:0" json:"message_limit"`
	MessagesUsed int    `gorm:"not null;default:0" json:"messages_used"`

	ValidUntil *time.Time `gorm:"type:date;index:idx_licenses_valid_until" json:"valid_until,omitempty"`
	IsActive   *bool      `gorm:"default:false;index:idx_licenses_is_active" json:"is_active"`

	// Messaging provider credentials. A license must never be active
	// without AccountSID, AuthToken and WhatsappNumber all populated.
	TwilioAccountSID          *string `gorm:"size:64" json:"twilio_account_sid,omitempty"`
	TwilioAuthToken           *string `gorm:"size:64" json:"-"` // Never serialize the secret token
	TwilioWhatsappNumber      *string `gorm:"size:20" json:"twilio_whatsapp_number,omitempty"`
	TwilioMessagingServiceSID *string `gorm:"size:64" json:"twilio_messaging_service_sid,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (License) TableName() string {
	return "licenses"
}

// IsConfigured reports whether all Twilio credential fields required for
// sending are populated. The messaging service SID is optional.
func (l *License) IsConfigured() bool {
	return strPresent(l.TwilioAccountSID) &&
		strPresent(l.TwilioAuthToken) &&
		strPresent(l.TwilioWhatsappNumber)
}

// IsExpired reports whether ValidUntil has passed. A license without a
// ValidUntil date never expires.
func (l *License) IsExpired(now time.Time) bool {
	if l.ValidUntil == nil {
		return false
	}
	// ValidUntil is a date; the license is good through the end of that day
	endOfDay := time.Date(l.ValidUntil.Year(), l.ValidUntil.Month(), l.ValidUntil.Day(), 23, 59, 59, 0, time.UTC)
	return now.After(endOfDay)
}

// IsUsable reports whether the license currently permits sending:
// active, credentials configured, and not expired.
func (l *License) IsUsable(now time.Time) bool {
	return l.IsActive != nil && *l.IsActive && l.IsConfigured() && !l.IsExpired(now)
}

// RemainingMessages returns the number of messages left under the plan
// limit, or -1 when the plan is unmetered (limit 0).
func (l *License) RemainingMessages() int {
	if l.MessageLimit <= 0 {
		return -1
	}
	remaining := l.MessageLimit - l.MessagesUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func strPresent(s *string) bool {
	return s != nil && *s != ""
}

// LicenseFilter represents filter criteria for license queries
type LicenseFilter struct {
	ID              *uint
	UserID          *uint
	PlanType        *string
	IsActive        *bool
	ValidBefore     *time.Time
	ValidAfter      *time.Time
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
}
