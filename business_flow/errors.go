// Package businessflow contains the core business logic and use cases for messaging workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User-related errors
	ErrUserNotFound      = errors.New("user not found")
	ErrAccountInactive   = errors.New("account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrSessionNotFound   = errors.New("session not found")
	ErrRoleInsufficient  = errors.New("role does not permit this operation")
	ErrSelfDeleteRefused = errors.New("cannot delete own account")

	// License-related errors
	ErrLicenseRequired      = errors.New("license is missing, inactive or expired")
	ErrLicensePendingAPI    = errors.New("license is active but messaging credentials are not configured")
	ErrLicenseNotFound      = errors.New("license not found")
	ErrLicenseExists        = errors.New("user already has a license")
	ErrLicenseNotConfigured = errors.New("license cannot be activated without messaging credentials")
	ErrMessageLimitReached  = errors.New("license message limit reached")

	// Phone-related errors
	ErrPhoneInvalid    = errors.New("phone number is invalid")
	ErrDuplicatePhone  = errors.New("message of this type already sent to this number today")
	ErrQRInvalid       = errors.New("qr payload contains no usable phone number")
	ErrQRSenderUnknown = errors.New("qr payload contains no sender number")

	// Batch-related errors
	ErrBatchEmpty           = errors.New("phone number list is empty")
	ErrBatchContentEmpty    = errors.New("message content is empty")
	ErrBatchTooLarge        = errors.New("phone number list exceeds the batch limit")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrTemplateAccessDenied = errors.New("template belongs to another user")
	ErrInvalidMessageType   = errors.New("invalid message type")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func asBusinessError(err error, target **BusinessError) bool {
	return errors.As(err, target)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsUsernameExists(err error) bool {
	return errors.Is(err, ErrUsernameExists)
}

func IsEmailExists(err error) bool {
	return errors.Is(err, ErrEmailExists)
}

func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

func IsRoleInsufficient(err error) bool {
	return errors.Is(err, ErrRoleInsufficient)
}

func IsSelfDeleteRefused(err error) bool {
	return errors.Is(err, ErrSelfDeleteRefused)
}

func IsLicenseRequired(err error) bool {
	return errors.Is(err, ErrLicenseRequired)
}

func IsLicensePendingAPI(err error) bool {
	return errors.Is(err, ErrLicensePendingAPI)
}

func IsLicenseNotFound(err error) bool {
	return errors.Is(err, ErrLicenseNotFound)
}

func IsLicenseExists(err error) bool {
	return errors.Is(err, ErrLicenseExists)
}

func IsLicenseNotConfigured(err error) bool {
	return errors.Is(err, ErrLicenseNotConfigured)
}

func IsMessageLimitReached(err error) bool {
	return errors.Is(err, ErrMessageLimitReached)
}

func IsPhoneInvalid(err error) bool {
	return errors.Is(err, ErrPhoneInvalid)
}

func IsDuplicatePhone(err error) bool {
	return errors.Is(err, ErrDuplicatePhone)
}

func IsQRInvalid(err error) bool {
	return errors.Is(err, ErrQRInvalid)
}

func IsQRSenderUnknown(err error) bool {
	return errors.Is(err, ErrQRSenderUnknown)
}

func IsBatchEmpty(err error) bool {
	return errors.Is(err, ErrBatchEmpty)
}

func IsBatchContentEmpty(err error) bool {
	return errors.Is(err, ErrBatchContentEmpty)
}

func IsBatchTooLarge(err error) bool {
	return errors.Is(err, ErrBatchTooLarge)
}

func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

func IsTemplateAccessDenied(err error) bool {
	return errors.Is(err, ErrTemplateAccessDenied)
}

func IsInvalidMessageType(err error) bool {
	return errors.Is(err, ErrInvalidMessageType)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
