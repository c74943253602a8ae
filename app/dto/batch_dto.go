// Package dto contains Data Transfer Objects for API request and response structures
package dto

// SendBatchRequest represents the request to send one message to many numbers
type SendBatchRequest struct {
	MessageType  string   `json:"message_type" validate:"required,oneof=received reminder return"`
	TemplateID   *uint    `json:"template_id,omitempty" validate:"omitempty"`
	Content      string   `json:"content" validate:"required,min=1,max=4096"`
	PhoneNumbers []string `json:"phone_numbers" validate:"required,min=1,max=500,dive,min=7,max=20"`
}

// RecipientResultDTO represents the outcome of one delivery attempt
type RecipientResultDTO struct {
	PhoneNumber string  `json:"phone_number"`
	Status      string  `json:"status"` // "sent" or "failed"
	Error       *string `json:"error,omitempty"`
}

// SendBatchResponse represents the summary returned after a batch completes
type SendBatchResponse struct {
	BatchID     *uint                `json:"batch_id,omitempty"`
	TotalSent   int                  `json:"total_sent"`
	TotalFailed int                  `json:"total_failed"`
	Results     []RecipientResultDTO `json:"results"`
}

// BatchDTO represents one batch summary in history listings
type BatchDTO struct {
	ID           uint     `json:"id"`
	MessageType  string   `json:"message_type"`
	TemplateName *string  `json:"template_name,omitempty"`
	Content      string   `json:"content"`
	PhoneNumbers []string `json:"phone_numbers"`
	TotalSent    int      `json:"total_sent"`
	TotalFailed  int      `json:"total_failed"`
	SentAt       string   `json:"sent_at"`
}

// ListBatchesResponse represents the batch history page
type ListBatchesResponse struct {
	Batches []BatchDTO `json:"batches"`
	Total   int64      `json:"total"`
}

// SentMessageDTO represents one row of the per-recipient send log
type SentMessageDTO struct {
	ID           uint    `json:"id"`
	BatchID      *uint   `json:"batch_id,omitempty"`
	PhoneNumber  string  `json:"phone_number"`
	MessageType  string  `json:"message_type"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// MessageLogResponse represents the send log page
type MessageLogResponse struct {
	Messages []SentMessageDTO `json:"messages"`
	Total    int64            `json:"total"`
}
