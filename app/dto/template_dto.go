// Package dto contains Data Transfer Objects for API request and response structures
package dto

// CreateTemplateRequest represents the request to create a message template
type CreateTemplateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	MessageType string `json:"message_type" validate:"required,oneof=received reminder return"`
	Content     string `json:"content" validate:"required,min=1,max=4096"`
}

// UpdateTemplateRequest represents a partial template update
type UpdateTemplateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	MessageType *string `json:"message_type,omitempty" validate:"omitempty,oneof=received reminder return"`
	Content     *string `json:"content,omitempty" validate:"omitempty,min=1,max=4096"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// TemplateDTO represents a template in API responses
type TemplateDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	MessageType string `json:"message_type"`
	Content     string `json:"content"`
	IsActive    *bool  `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ListTemplatesResponse represents the template listing
type ListTemplatesResponse struct {
	Templates []TemplateDTO `json:"templates"`
}
