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

// AdminLicenseFlow handles license administration (system admin only)
type AdminLicenseFlow interface {
	ListLicenses(ctx context.Context, page, pageSize int) (*dto.ListLicensesResponse, error)
	CreateLicense(ctx context.Context, request *dto.CreateLicenseRequest, metadata *ClientMetadata) (*dto.LicenseDTO, error)
	UpdateLicense(ctx context.Context, licenseID uint, request *dto.UpdateLicenseRequest, metadata *ClientMetadata) (*dto.LicenseDTO, error)
	DeleteLicense(ctx context.Context, licenseID uint, metadata *ClientMetadata) error
}

// AdminLicenseFlowImpl implements the admin license flow
type AdminLicenseFlowImpl struct {
	licenseRepo repository.LicenseRepository
	profileRepo repository.UserProfileRepository
	auditRepo   repository.AuditLogRepository
}

// NewAdminLicenseFlow creates a new admin license flow instance
func NewAdminLicenseFlow(
	licenseRepo repository.LicenseRepository,
	profileRepo repository.UserProfileRepository,
	auditRepo repository.AuditLogRepository,
) AdminLicenseFlow {
	return &AdminLicenseFlowImpl{
		licenseRepo: licenseRepo,
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
	}
}

// ListLicenses returns a page of licenses
func (lf *AdminLicenseFlowImpl) ListLicenses(ctx context.Context, page, pageSize int) (*dto.ListLicensesResponse, error) {
	if err := validatePagination(page, pageSize); err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", err.Error(), err)
	}

	licenses, err := lf.licenseRepo.ByFilter(ctx, models.LicenseFilter{}, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LICENSE_LIST_FAILED", "Failed to list licenses", err)
	}

	total, err := lf.licenseRepo.Count(ctx, models.LicenseFilter{})
	if err != nil {
		return nil, NewBusinessError("LICENSE_LIST_FAILED", "Failed to count licenses", err)
	}

	out := make([]dto.LicenseDTO, 0, len(licenses))
	for _, l := range licenses {
		out = append(out, ToLicenseDTO(*l))
	}

	return &dto.ListLicensesResponse{Licenses: out, Total: total}, nil
}

// CreateLicense creates a license for a user that has none. The license
// starts inactive unless credentials are supplied in full, in which case
// it still starts inactive and activation is a separate update.
func (lf *AdminLicenseFlowImpl) CreateLicense(ctx context.Context, request *dto.CreateLicenseRequest, metadata *ClientMetadata) (*dto.LicenseDTO, error) {
	user, err := lf.profileRepo.ByID(ctx, request.UserID)
	if err != nil {
		return nil, NewBusinessError("LICENSE_CREATE_FAILED", "Failed to load user", err)
	}
	if user == nil {
		return nil, NewBusinessError("NOT_FOUND", "User not found", ErrUserNotFound)
	}

	existing, err := lf.licenseRepo.ByUserID(ctx, request.UserID)
	if err != nil {
		return nil, NewBusinessError("LICENSE_CREATE_FAILED", "Failed to check existing license", err)
	}
	if existing != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "User already has a license", ErrLicenseExists)
	}

	validUntil, err := parseDatePtr(request.ValidUntil)
	if err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", err.Error(), err)
	}

	license := &models.License{
		UserID:                    request.UserID,
		PlanType:                  request.PlanType,
		MessageLimit:              request.MessageLimit,
		ValidUntil:                validUntil,
		IsActive:                  utils.ToPtr(false),
		TwilioAccountSID:          request.TwilioAccountSID,
		TwilioAuthToken:           request.TwilioAuthToken,
		TwilioWhatsappNumber:      request.TwilioWhatsappNumber,
		TwilioMessagingServiceSID: request.TwilioMessagingServiceSID,
	}

	if err := lf.licenseRepo.Save(ctx, license); err != nil {
		return nil, NewBusinessError("LICENSE_CREATE_FAILED", "Failed to create license", err)
	}

	desc := fmt.Sprintf("License created for user %d (%s)", license.UserID, license.PlanType)
	_ = lf.logLicenseEvent(ctx, license.UserID, models.AuditActionLicenseCreated, desc, metadata)

	out := ToLicenseDTO(*license)
	return &out, nil
}

// UpdateLicense applies a partial update. Activation is refused while the
// Twilio credentials are incomplete; a license must never be active
// without them. Renewal is an update carrying a new valid_until together
// with is_active true.
func (lf *AdminLicenseFlowImpl) UpdateLicense(ctx context.Context, licenseID uint, request *dto.UpdateLicenseRequest, metadata *ClientMetadata) (*dto.LicenseDTO, error) {
	license, err := lf.licenseRepo.ByID(ctx, licenseID)
	if err != nil {
		return nil, NewBusinessError("LICENSE_UPDATE_FAILED", "Failed to load license", err)
	}
	if license == nil {
		return nil, NewBusinessError("NOT_FOUND", "License not found", ErrLicenseNotFound)
	}

	credentialsChanged := false
	if request.PlanType != nil {
		license.PlanType = *request.PlanType
	}
	if request.MessageLimit != nil {
		license.MessageLimit = *request.MessageLimit
	}
	if request.ValidUntil != nil {
		validUntil, err := parseDatePtr(request.ValidUntil)
		if err != nil {
			return nil, NewBusinessError("VALIDATION_ERROR", err.Error(), err)
		}
		license.ValidUntil = validUntil
	}
	if request.TwilioAccountSID != nil {
		license.TwilioAccountSID = request.TwilioAccountSID
		credentialsChanged = true
	}
	if request.TwilioAuthToken != nil {
		license.TwilioAuthToken = request.TwilioAuthToken
		credentialsChanged = true
	}
	if request.TwilioWhatsappNumber != nil {
		license.TwilioWhatsappNumber = request.TwilioWhatsappNumber
		credentialsChanged = true
	}
	if request.TwilioMessagingServiceSID != nil {
		license.TwilioMessagingServiceSID = request.TwilioMessagingServiceSID
		credentialsChanged = true
	}
	if utils.IsTrue(request.ResetUsage) {
		license.MessagesUsed = 0
	}
	if request.IsActive != nil {
		if *request.IsActive && !license.IsConfigured() {
			return nil, NewBusinessError("LICENSE_PENDING_API",
				"License cannot be activated without messaging credentials", ErrLicenseNotConfigured)
		}
		license.IsActive = request.IsActive
	}

	if err := lf.licenseRepo.Update(ctx, license); err != nil {
		return nil, NewBusinessError("LICENSE_UPDATE_FAILED", "Failed to update license", err)
	}

	action := models.AuditActionLicenseRenewed
	if credentialsChanged {
		action = models.AuditActionLicenseConfigured
	}
	desc := fmt.Sprintf("License %d updated for user %d", license.ID, license.UserID)
	_ = lf.logLicenseEvent(ctx, license.UserID, action, desc, metadata)

	out := ToLicenseDTO(*license)
	return &out, nil
}

// DeleteLicense removes a license
func (lf *AdminLicenseFlowImpl) DeleteLicense(ctx context.Context, licenseID uint, metadata *ClientMetadata) error {
	license, err := lf.licenseRepo.ByID(ctx, licenseID)
	if err != nil {
		return NewBusinessError("LICENSE_DELETE_FAILED", "Failed to load license", err)
	}
	if license == nil {
		return NewBusinessError("NOT_FOUND", "License not found", ErrLicenseNotFound)
	}

	if err := lf.licenseRepo.Delete(ctx, license.ID); err != nil {
		return NewBusinessError("LICENSE_DELETE_FAILED", "Failed to delete license", err)
	}

	desc := fmt.Sprintf("License %d deleted for user %d", license.ID, license.UserID)
	_ = lf.logLicenseEvent(ctx, license.UserID, models.AuditActionLicenseDeleted, desc, metadata)

	return nil
}

func (lf *AdminLicenseFlowImpl) logLicenseEvent(ctx context.Context, userID uint, action, description string, metadata *ClientMetadata) error {
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

	return lf.auditRepo.Save(ctx, audit)
}
