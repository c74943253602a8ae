// Package businessflow contains the core business logic and use cases for messaging workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/repository"
	"github.com/TecnoAcceso/Piker-sub000/utils"
)

// TemplateFlow handles message template CRUD for the owning user
type TemplateFlow interface {
	ListTemplates(ctx context.Context, userID uint) (*dto.ListTemplatesResponse, error)
	CreateTemplate(ctx context.Context, userID uint, request *dto.CreateTemplateRequest, metadata *ClientMetadata) (*dto.TemplateDTO, error)
	UpdateTemplate(ctx context.Context, userID, templateID uint, request *dto.UpdateTemplateRequest, metadata *ClientMetadata) (*dto.TemplateDTO, error)
	DeleteTemplate(ctx context.Context, userID, templateID uint, metadata *ClientMetadata) error
}

// TemplateFlowImpl implements the template business flow
type TemplateFlowImpl struct {
	templateRepo repository.MessageTemplateRepository
	auditRepo    repository.AuditLogRepository
}

// NewTemplateFlow creates a new template flow instance
func NewTemplateFlow(
	templateRepo repository.MessageTemplateRepository,
	auditRepo repository.AuditLogRepository,
) TemplateFlow {
	return &TemplateFlowImpl{
		templateRepo: templateRepo,
		auditRepo:    auditRepo,
	}
}

// ListTemplates returns every template owned by the user
func (tf *TemplateFlowImpl) ListTemplates(ctx context.Context, userID uint) (*dto.ListTemplatesResponse, error) {
	templates, err := tf.templateRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("TEMPLATE_LIST_FAILED", "Failed to list templates", err)
	}

	out := make([]dto.TemplateDTO, 0, len(templates))
	for _, t := range templates {
		out = append(out, ToTemplateDTO(*t))
	}
	return &dto.ListTemplatesResponse{Templates: out}, nil
}

// CreateTemplate creates a new template for the user
func (tf *TemplateFlowImpl) CreateTemplate(ctx context.Context, userID uint, request *dto.CreateTemplateRequest, metadata *ClientMetadata) (*dto.TemplateDTO, error) {
	if !models.IsValidMessageType(request.MessageType) {
		return nil, NewBusinessError("VALIDATION_ERROR", "Invalid message type", ErrInvalidMessageType)
	}

	template := &models.MessageTemplate{
		UserID:      userID,
		Name:        request.Name,
		MessageType: request.MessageType,
		Content:     request.Content,
		IsActive:    utils.ToPtr(true),
	}

	if err := tf.templateRepo.Save(ctx, template); err != nil {
		return nil, NewBusinessError("TEMPLATE_CREATE_FAILED", "Failed to create template", err)
	}

	desc := fmt.Sprintf("Template created: %s (%d)", template.Name, template.ID)
	_ = tf.logTemplateEvent(ctx, userID, models.AuditActionTemplateCreated, desc, metadata)

	out := ToTemplateDTO(*template)
	return &out, nil
}

// UpdateTemplate applies a partial update to a template the user owns
func (tf *TemplateFlowImpl) UpdateTemplate(ctx context.Context, userID, templateID uint, request *dto.UpdateTemplateRequest, metadata *ClientMetadata) (*dto.TemplateDTO, error) {
	template, err := tf.ownedTemplate(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}

	if request.Name != nil {
		template.Name = *request.Name
	}
	if request.MessageType != nil {
		if !models.IsValidMessageType(*request.MessageType) {
			return nil, NewBusinessError("VALIDATION_ERROR", "Invalid message type", ErrInvalidMessageType)
		}
		template.MessageType = *request.MessageType
	}
	if request.Content != nil {
		template.Content = *request.Content
	}
	if request.IsActive != nil {
		template.IsActive = request.IsActive
	}

	if err := tf.templateRepo.Update(ctx, template); err != nil {
		return nil, NewBusinessError("TEMPLATE_UPDATE_FAILED", "Failed to update template", err)
	}

	desc := fmt.Sprintf("Template updated: %s (%d)", template.Name, template.ID)
	_ = tf.logTemplateEvent(ctx, userID, models.AuditActionTemplateUpdated, desc, metadata)

	out := ToTemplateDTO(*template)
	return &out, nil
}

// DeleteTemplate removes a template the user owns
func (tf *TemplateFlowImpl) DeleteTemplate(ctx context.Context, userID, templateID uint, metadata *ClientMetadata) error {
	template, err := tf.ownedTemplate(ctx, userID, templateID)
	if err != nil {
		return err
	}

	if err := tf.templateRepo.Delete(ctx, template.ID); err != nil {
		return NewBusinessError("TEMPLATE_DELETE_FAILED", "Failed to delete template", err)
	}

	desc := fmt.Sprintf("Template deleted: %s (%d)", template.Name, template.ID)
	_ = tf.logTemplateEvent(ctx, userID, models.AuditActionTemplateDeleted, desc, metadata)

	return nil
}

func (tf *TemplateFlowImpl) ownedTemplate(ctx context.Context, userID, templateID uint) (*models.MessageTemplate, error) {
	template, err := tf.templateRepo.ByID(ctx, templateID)
	if err != nil {
		return nil, NewBusinessError("TEMPLATE_LOOKUP_FAILED", "Failed to load template", err)
	}
	if template == nil {
		return nil, NewBusinessError("NOT_FOUND", "Template not found", ErrTemplateNotFound)
	}
	if template.UserID != userID {
		return nil, NewBusinessError("NOT_FOUND", "Template not found", ErrTemplateAccessDenied)
	}
	return template, nil
}

func (tf *TemplateFlowImpl) logTemplateEvent(ctx context.Context, userID uint, action, description string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:      &userID,
		Action:      action,
		Description: &description,
		Success:     utils.ToPtr(true),
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		if requestIDStr, ok := requestID.(string); ok {
			audit.RequestID = &requestIDStr
		}
	}

	return tf.auditRepo.Save(ctx, audit)
}
