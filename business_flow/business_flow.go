// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	"github.com/TecnoAcceso/Piker-sub000/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToAuthUserDTO converts a profile model to AuthUserDTO for authentication responses
func ToAuthUserDTO(profile models.UserProfile) dto.AuthUserDTO {
	out := dto.AuthUserDTO{
		ID:        profile.ID,
		UUID:      profile.UUID.String(),
		Username:  profile.Username,
		Email:     profile.Email,
		FullName:  profile.FullName,
		Role:      profile.Role,
		IsActive:  profile.IsActive,
		CreatedAt: profile.CreatedAt.Format(time.RFC3339),
	}
	if profile.LastLoginAt != nil {
		s := profile.LastLoginAt.Format(time.RFC3339)
		out.LastLoginAt = &s
	}
	if profile.License != nil {
		lic := ToLicenseDTO(*profile.License)
		out.License = &lic
	}
	return out
}

// ToSessionDTO converts a session model to SessionDTO
func ToSessionDTO(session models.UserSession) dto.SessionDTO {
	return dto.SessionDTO{
		SessionToken: session.SessionToken,
		RefreshToken: session.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(time.Until(session.ExpiresAt).Seconds()),
		CreatedAt:    session.CreatedAt.Format(time.RFC3339),
	}
}

// ToLicenseDTO converts a license model to LicenseDTO. The auth token is
// deliberately excluded.
func ToLicenseDTO(license models.License) dto.LicenseDTO {
	out := dto.LicenseDTO{
		ID:                   license.ID,
		UserID:               license.UserID,
		PlanType:             license.PlanType,
		MessageLimit:         license.MessageLimit,
		MessagesUsed:         license.MessagesUsed,
		RemainingMessages:    license.RemainingMessages(),
		IsActive:             license.IsActive,
		IsConfigured:         license.IsConfigured(),
		TwilioAccountSID:     license.TwilioAccountSID,
		TwilioWhatsappNumber: license.TwilioWhatsappNumber,
	}
	if license.ValidUntil != nil {
		s := license.ValidUntil.Format("2006-01-02")
		out.ValidUntil = &s
	}
	return out
}

// ToTemplateDTO converts a template model to TemplateDTO
func ToTemplateDTO(t models.MessageTemplate) dto.TemplateDTO {
	return dto.TemplateDTO{
		ID:          t.ID,
		Name:        t.Name,
		MessageType: t.MessageType,
		Content:     t.Content,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

// ToBatchDTO converts a batch model to BatchDTO
func ToBatchDTO(b models.MessageBatch) dto.BatchDTO {
	return dto.BatchDTO{
		ID:           b.ID,
		MessageType:  b.MessageType,
		TemplateName: b.TemplateName,
		Content:      b.Content,
		PhoneNumbers: b.PhoneNumbers,
		TotalSent:    b.TotalSent,
		TotalFailed:  b.TotalFailed,
		SentAt:       b.SentAt.Format(time.RFC3339),
	}
}

// ToSentMessageDTO converts a sent message model to SentMessageDTO
func ToSentMessageDTO(m models.SentMessage) dto.SentMessageDTO {
	return dto.SentMessageDTO{
		ID:           m.ID,
		BatchID:      m.BatchID,
		PhoneNumber:  m.PhoneNumber,
		MessageType:  m.MessageType,
		Status:       string(m.Status),
		ErrorMessage: m.ErrorMessage,
		CreatedAt:    m.CreatedAt.Format(time.RFC3339),
	}
}

// ToAdminUserDTO converts a profile model to AdminUserDTO for admin listings
func ToAdminUserDTO(profile models.UserProfile) dto.AdminUserDTO {
	out := dto.AdminUserDTO{
		ID:        profile.ID,
		UUID:      profile.UUID.String(),
		Username:  profile.Username,
		Email:     profile.Email,
		FullName:  profile.FullName,
		Role:      profile.Role,
		IsActive:  profile.IsActive,
		CreatedAt: profile.CreatedAt.Format(time.RFC3339),
	}
	if profile.LastLoginAt != nil {
		s := profile.LastLoginAt.Format(time.RFC3339)
		out.LastLoginAt = &s
	}
	if profile.License != nil {
		lic := ToLicenseDTO(*profile.License)
		out.License = &lic
	}
	return out
}
