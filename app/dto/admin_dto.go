// Package dto contains Data Transfer Objects for API request and response structures
package dto

// LicenseDTO represents license data in API responses. The auth token is
// never included.
type LicenseDTO struct {
	ID                   uint    `json:"id"`
	UserID               uint    `json:"user_id"`
	PlanType             string  `json:"plan_type"`
	MessageLimit         int     `json:"message_limit"`
	MessagesUsed         int     `json:"messages_used"`
	RemainingMessages    int     `json:"remaining_messages"` // -1 means unmetered
	ValidUntil           *string `json:"valid_until,omitempty"`
	IsActive             *bool   `json:"is_active"`
	IsConfigured         bool    `json:"is_configured"`
	TwilioAccountSID     *string `json:"twilio_account_sid,omitempty"`
	TwilioWhatsappNumber *string `json:"twilio_whatsapp_number,omitempty"`
}

// CreateUserRequest represents the admin request to create a user together
// with their license
type CreateUserRequest struct {
	Username     string  `json:"username" validate:"required,min=3,max=60,alphanum"`
	Email        string  `json:"email" validate:"required,email,max=255"`
	FullName     string  `json:"full_name" validate:"required,min=1,max=255"`
	Password     string  `json:"password" validate:"required,min=8,max=100"`
	Role         string  `json:"role" validate:"required,oneof=user admin system_admin"`
	PlanType     string  `json:"plan_type" validate:"required,oneof=basic pro enterprise system_admin"`
	MessageLimit int     `json:"message_limit" validate:"min=0"`
	ValidUntil   *string `json:"valid_until,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateUserRequest represents a partial admin update of a user
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=255"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=user admin system_admin"`
	IsActive *bool   `json:"is_active,omitempty"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=100"`
}

// AdminUserDTO represents a user in admin listings
type AdminUserDTO struct {
	ID          uint        `json:"id"`
	UUID        string      `json:"uuid"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FullName    string      `json:"full_name"`
	Role        string      `json:"role"`
	IsActive    *bool       `json:"is_active"`
	CreatedAt   string      `json:"created_at"`
	LastLoginAt *string     `json:"last_login_at,omitempty"`
	License     *LicenseDTO `json:"license,omitempty"`
}

// ListUsersResponse represents the admin user listing
type ListUsersResponse struct {
	Users []AdminUserDTO `json:"users"`
	Total int64          `json:"total"`
}

// CreateLicenseRequest represents the system admin request to create a
// license for an existing user
type CreateLicenseRequest struct {
	UserID                    uint    `json:"user_id" validate:"required"`
	PlanType                  string  `json:"plan_type" validate:"required,oneof=basic pro enterprise system_admin"`
	MessageLimit              int     `json:"message_limit" validate:"min=0"`
	ValidUntil                *string `json:"valid_until,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TwilioAccountSID          *string `json:"twilio_account_sid,omitempty" validate:"omitempty,max=64"`
	TwilioAuthToken           *string `json:"twilio_auth_token,omitempty" validate:"omitempty,max=64"`
	TwilioWhatsappNumber      *string `json:"twilio_whatsapp_number,omitempty" validate:"omitempty,max=20"`
	TwilioMessagingServiceSID *string `json:"twilio_messaging_service_sid,omitempty" validate:"omitempty,max=64"`
}

// UpdateLicenseRequest represents a partial license update. Renewal is an
// update that extends valid_until and sets is_active true.
type UpdateLicenseRequest struct {
	PlanType                  *string `json:"plan_type,omitempty" validate:"omitempty,oneof=basic pro enterprise system_admin"`
	MessageLimit              *int    `json:"message_limit,omitempty" validate:"omitempty,min=0"`
	ValidUntil                *string `json:"valid_until,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsActive                  *bool   `json:"is_active,omitempty"`
	ResetUsage                *bool   `json:"reset_usage,omitempty"`
	TwilioAccountSID          *string `json:"twilio_account_sid,omitempty" validate:"omitempty,max=64"`
	TwilioAuthToken           *string `json:"twilio_auth_token,omitempty" validate:"omitempty,max=64"`
	TwilioWhatsappNumber      *string `json:"twilio_whatsapp_number,omitempty" validate:"omitempty,max=20"`
	TwilioMessagingServiceSID *string `json:"twilio_messaging_service_sid,omitempty" validate:"omitempty,max=64"`
}

// ListLicensesResponse represents the license listing
type ListLicensesResponse struct {
	Licenses []LicenseDTO `json:"licenses"`
	Total    int64        `json:"total"`
}
