package dto

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail represents error details in API responses
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}

// Error codes returned across the API
const (
	ErrorValidation        = "VALIDATION_ERROR"
	ErrorPhoneInvalid      = "PHONE_INVALID"
	ErrorDuplicatePhone    = "DUPLICATE_PHONE"
	ErrorLicenseRequired   = "LICENSE_REQUIRED"
	ErrorLicensePendingAPI = "LICENSE_PENDING_API"
	ErrorRoleInsufficient  = "ROLE_INSUFFICIENT"
	ErrorQRInvalid         = "QR_INVALID"
	ErrorQRSenderUnknown   = "QR_SENDER_UNKNOWN"
	ErrorLogin             = "LOGIN_ERROR"
	ErrorBatchFailed       = "BATCH_FAILED"
	ErrorNotFound          = "NOT_FOUND"
	ErrorInternal          = "INTERNAL_ERROR"
)
