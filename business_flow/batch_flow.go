// Package businessflow contains the core business logic and use cases for messaging workflows
package businessflow

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	"github.com/TecnoAcceso/Piker-sub000/app/services"
	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/phone"
	"github.com/TecnoAcceso/Piker-sub000/repository"
	"github.com/TecnoAcceso/Piker-sub000/utils"
	"github.com/lib/pq"
)

// BatchFlow handles fan-out sending of one message to many recipients
type BatchFlow interface {
	SendBatch(ctx context.Context, userID uint, request *dto.SendBatchRequest, metadata *ClientMetadata) (*dto.SendBatchResponse, error)
	ListBatches(ctx context.Context, userID uint, page, pageSize int) (*dto.ListBatchesResponse, error)
	MessageLog(ctx context.Context, userID uint, page, pageSize int) (*dto.MessageLogResponse, error)
}

// BatchFlowImpl implements the batch business flow
type BatchFlowImpl struct {
	licenseRepo  repository.LicenseRepository
	templateRepo repository.MessageTemplateRepository
	batchRepo    repository.MessageBatchRepository
	sentRepo     repository.SentMessageRepository
	auditRepo    repository.AuditLogRepository
	whatsappSvc  services.WhatsAppService
	guard        *DuplicateGuard
}

// NewBatchFlow creates a new batch flow instance
func NewBatchFlow(
	licenseRepo repository.LicenseRepository,
	templateRepo repository.MessageTemplateRepository,
	batchRepo repository.MessageBatchRepository,
	sentRepo repository.SentMessageRepository,
	auditRepo repository.AuditLogRepository,
	whatsappSvc services.WhatsAppService,
	guard *DuplicateGuard,
) BatchFlow {
	return &BatchFlowImpl{
		licenseRepo:  licenseRepo,
		templateRepo: templateRepo,
		batchRepo:    batchRepo,
		sentRepo:     sentRepo,
		auditRepo:    auditRepo,
		whatsappSvc:  whatsappSvc,
		guard:        guard,
	}
}

// recipientOutcome is the join result of one send goroutine
type recipientOutcome struct {
	phoneNumber string
	err         error
}

// SendBatch delivers one message to every number in the request, one
// goroutine per recipient. Every attempt is persisted as a SentMessage
// row tagged sent or failed; afterwards exactly one MessageBatch summary
// is written best-effort. There are no retries at this layer.
func (bf *BatchFlowImpl) SendBatch(ctx context.Context, userID uint, request *dto.SendBatchRequest, metadata *ClientMetadata) (*dto.SendBatchResponse, error) {
	if len(request.PhoneNumbers) == 0 {
		return nil, NewBusinessError("VALIDATION_ERROR", "Phone number list is empty", ErrBatchEmpty)
	}
	if len(request.PhoneNumbers) > utils.MaxBatchRecipients {
		return nil, NewBusinessError("VALIDATION_ERROR",
			fmt.Sprintf("At most %d numbers per batch", utils.MaxBatchRecipients), ErrBatchTooLarge)
	}
	if request.Content == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "Message content is empty", ErrBatchContentEmpty)
	}
	if !models.IsValidMessageType(request.MessageType) {
		return nil, NewBusinessError("VALIDATION_ERROR", "Invalid message type", ErrInvalidMessageType)
	}

	license, err := bf.licenseRepo.ByUserID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("BATCH_FAILED", "Failed to load license", err)
	}
	now := utils.UTCNow()
	if license == nil || !utils.IsTrue(license.IsActive) || license.IsExpired(now) {
		return nil, NewBusinessError("LICENSE_REQUIRED", "License is missing, inactive or expired", ErrLicenseRequired)
	}
	if !license.IsConfigured() {
		return nil, NewBusinessError("LICENSE_PENDING_API", "Messaging credentials are not configured", ErrLicensePendingAPI)
	}
	if remaining := license.RemainingMessages(); remaining == 0 {
		return nil, NewBusinessError("BATCH_FAILED", "License message limit reached", ErrMessageLimitReached)
	}

	var templateName *string
	if request.TemplateID != nil {
		template, err := bf.templateRepo.ByID(ctx, *request.TemplateID)
		if err != nil {
			return nil, NewBusinessError("BATCH_FAILED", "Failed to load template", err)
		}
		if template == nil {
			return nil, NewBusinessError("VALIDATION_ERROR", "Template not found", ErrTemplateNotFound)
		}
		if template.UserID != userID {
			return nil, NewBusinessError("VALIDATION_ERROR", "Template belongs to another user", ErrTemplateAccessDenied)
		}
		templateName = &template.Name
	}

	creds := services.SenderCredentials{
		AccountSID:          derefStr(license.TwilioAccountSID),
		AuthToken:           derefStr(license.TwilioAuthToken),
		WhatsappNumber:      derefStr(license.TwilioWhatsappNumber),
		MessagingServiceSID: derefStr(license.TwilioMessagingServiceSID),
	}

	outcomes := make([]recipientOutcome, len(request.PhoneNumbers))
	var wg sync.WaitGroup
	for i, raw := range request.PhoneNumbers {
		wg.Add(1)
		go func(idx int, raw string) {
			defer wg.Done()

			normalized, ok := phone.Normalize(raw)
			if !ok {
				outcomes[idx] = recipientOutcome{phoneNumber: raw, err: ErrPhoneInvalid}
				return
			}
			err := bf.whatsappSvc.Send(ctx, creds, normalized, request.Content)
			outcomes[idx] = recipientOutcome{phoneNumber: normalized, err: err}
		}(i, raw)
	}
	wg.Wait()

	rows := make([]*models.SentMessage, 0, len(outcomes))
	results := make([]dto.RecipientResultDTO, 0, len(outcomes))
	totalSent, totalFailed := 0, 0
	for _, out := range outcomes {
		row := &models.SentMessage{
			UserID:      userID,
			PhoneNumber: out.phoneNumber,
			MessageType: request.MessageType,
		}
		result := dto.RecipientResultDTO{PhoneNumber: out.phoneNumber}
		if out.err != nil {
			totalFailed++
			row.Status = models.SendStatusFailed
			errMsg := out.err.Error()
			row.ErrorMessage = &errMsg
			result.Status = string(models.SendStatusFailed)
			result.Error = &errMsg
		} else {
			totalSent++
			row.Status = models.SendStatusSent
			result.Status = string(models.SendStatusSent)
			bf.guard.MarkSent(ctx, userID, out.phoneNumber, request.MessageType)
		}
		rows = append(rows, row)
		results = append(results, result)
	}

	batch := &models.MessageBatch{
		UserID:       userID,
		MessageType:  request.MessageType,
		TemplateID:   request.TemplateID,
		TemplateName: templateName,
		Content:      request.Content,
		PhoneNumbers: pq.StringArray(request.PhoneNumbers),
		TotalSent:    totalSent,
		TotalFailed:  totalFailed,
		SentAt:       utils.UTCNow(),
	}

	var batchID *uint
	if err := bf.batchRepo.Save(ctx, batch); err != nil {
		// Send outcomes are already decided; a summary write failure must
		// not turn a delivered batch into an error.
		log.Printf("batch summary persistence failed for user %d: %v", userID, err)
	} else {
		batchID = &batch.ID
		for _, row := range rows {
			row.BatchID = batchID
		}
	}

	if err := bf.sentRepo.SaveBatch(ctx, rows); err != nil {
		log.Printf("sent log persistence failed for user %d: %v", userID, err)
	}

	if totalSent > 0 {
		if err := bf.licenseRepo.IncrementMessagesUsed(ctx, license.ID, totalSent); err != nil {
			log.Printf("license usage update failed for license %d: %v", license.ID, err)
		}
	}

	action := models.AuditActionBatchSent
	success := true
	if totalSent == 0 {
		action = models.AuditActionBatchFailed
		success = false
	}
	desc := fmt.Sprintf("Batch of %d numbers: %d sent, %d failed", len(request.PhoneNumbers), totalSent, totalFailed)
	_ = bf.logBatchEvent(ctx, userID, action, desc, success, metadata)

	return &dto.SendBatchResponse{
		BatchID:     batchID,
		TotalSent:   totalSent,
		TotalFailed: totalFailed,
		Results:     results,
	}, nil
}

// ListBatches returns a page of batch summaries, newest first
func (bf *BatchFlowImpl) ListBatches(ctx context.Context, userID uint, page, pageSize int) (*dto.ListBatchesResponse, error) {
	if err := validatePagination(page, pageSize); err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", err.Error(), err)
	}

	batches, err := bf.batchRepo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("BATCH_LIST_FAILED", "Failed to list batches", err)
	}

	total, err := bf.batchRepo.Count(ctx, models.MessageBatchFilter{UserID: &userID})
	if err != nil {
		return nil, NewBusinessError("BATCH_LIST_FAILED", "Failed to count batches", err)
	}

	out := make([]dto.BatchDTO, 0, len(batches))
	for _, b := range batches {
		out = append(out, ToBatchDTO(*b))
	}

	return &dto.ListBatchesResponse{Batches: out, Total: total}, nil
}

// MessageLog returns a page of the per-recipient send log, newest first
func (bf *BatchFlowImpl) MessageLog(ctx context.Context, userID uint, page, pageSize int) (*dto.MessageLogResponse, error) {
	if err := validatePagination(page, pageSize); err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", err.Error(), err)
	}

	messages, err := bf.sentRepo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("MESSAGE_LOG_FAILED", "Failed to list messages", err)
	}

	total, err := bf.sentRepo.Count(ctx, models.SentMessageFilter{UserID: &userID})
	if err != nil {
		return nil, NewBusinessError("MESSAGE_LOG_FAILED", "Failed to count messages", err)
	}

	out := make([]dto.SentMessageDTO, 0, len(messages))
	for _, m := range messages {
		out = append(out, ToSentMessageDTO(*m))
	}

	return &dto.MessageLogResponse{Messages: out, Total: total}, nil
}

func (bf *BatchFlowImpl) logBatchEvent(ctx context.Context, userID uint, action, description string, success bool, metadata *ClientMetadata) error {
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
		Success:     utils.ToPtr(success),
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		if requestIDStr, ok := requestID.(string); ok {
			audit.RequestID = &requestIDStr
		}
	}

	return bf.auditRepo.Save(ctx, audit)
}

func validatePagination(page, pageSize int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return ErrInvalidPageSize
	}
	return nil
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
