// Package dto contains Data Transfer Objects for API request and response structures
package dto

// ValidatePhoneRequest represents a manual number entry to validate
type ValidatePhoneRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=7,max=20"`
	MessageType string `json:"message_type" validate:"required,oneof=received reminder return"`
}

// ValidatePhoneResponse carries the canonical number for a valid input
type ValidatePhoneResponse struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized"`
}

// ScanQRRequest represents a decoded QR payload to extract a number from.
// For received and reminder flows the recipient field is extracted; for
// return flows the sender field is extracted.
type ScanQRRequest struct {
	Payload     string `json:"payload" validate:"required,min=1,max=4096"`
	MessageType string `json:"message_type" validate:"required,oneof=received reminder return"`
}

// ScanQRResponse carries the extracted, normalized number
type ScanQRResponse struct {
	PhoneNumber string `json:"phone_number"`
}
