// Package businessflow contains the core business logic and use cases for messaging workflows
package businessflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/phone"
	"github.com/TecnoAcceso/Piker-sub000/repository"
	"github.com/TecnoAcceso/Piker-sub000/utils"
	"github.com/redis/go-redis/v9"
)

// DuplicateGuard answers "was a message of this type already sent to this
// number today". Redis is a fast path only; the sent_messages table is the
// source of truth. The guard fails open: any cache or database error is
// logged and reported as "not duplicate", because blocking sends on an
// infrastructure fault is worse than an occasional repeated message.
type DuplicateGuard struct {
	sentRepo repository.SentMessageRepository
	rc       *redis.Client
}

// NewDuplicateGuard creates a new duplicate guard. rc may be nil.
func NewDuplicateGuard(sentRepo repository.SentMessageRepository, rc *redis.Client) *DuplicateGuard {
	return &DuplicateGuard{sentRepo: sentRepo, rc: rc}
}

func (g *DuplicateGuard) dayKey(userID uint, messageType, phoneNumber string, at time.Time) string {
	return fmt.Sprintf("piker:dup:%d:%s:%s:%s", userID, messageType, utils.DayKeyUTC(at), phoneNumber)
}

// IsDuplicate reports whether a message of messageType already went to
// phoneNumber today (UTC day) for this user.
func (g *DuplicateGuard) IsDuplicate(ctx context.Context, userID uint, phoneNumber, messageType string) bool {
	now := utils.UTCNow()

	if g.rc != nil {
		if val, err := g.rc.Get(ctx, g.dayKey(userID, messageType, phoneNumber, now)).Result(); err == nil && val == "1" {
			return true
		}
	}

	exists, err := g.sentRepo.ExistsForDay(ctx, userID, phoneNumber, messageType, now)
	if err != nil {
		log.Printf("duplicate check failed for user %d phone %s: %v", userID, phoneNumber, err)
		return false
	}

	if exists && g.rc != nil {
		_, end := utils.DayBoundsUTC(now)
		_ = g.rc.Set(ctx, g.dayKey(userID, messageType, phoneNumber, now), "1", time.Until(end)).Err()
	}

	return exists
}

// MarkSent records a successful send in the cache so same-day rechecks
// skip the database. Best effort.
func (g *DuplicateGuard) MarkSent(ctx context.Context, userID uint, phoneNumber, messageType string) {
	if g.rc == nil {
		return
	}
	now := utils.UTCNow()
	_, end := utils.DayBoundsUTC(now)
	_ = g.rc.Set(ctx, g.dayKey(userID, messageType, phoneNumber, now), "1", time.Until(end)).Err()
}

// PhoneFlow handles number validation and QR extraction
type PhoneFlow interface {
	ValidatePhone(ctx context.Context, userID uint, request *dto.ValidatePhoneRequest) (*dto.ValidatePhoneResponse, error)
	ScanQR(ctx context.Context, userID uint, request *dto.ScanQRRequest) (*dto.ScanQRResponse, error)
}

// PhoneFlowImpl implements the phone business flow
type PhoneFlowImpl struct {
	guard *DuplicateGuard
}

// NewPhoneFlow creates a new phone flow instance
func NewPhoneFlow(guard *DuplicateGuard) PhoneFlow {
	return &PhoneFlowImpl{guard: guard}
}

// ValidatePhone validates and normalizes a manually entered number, then
// runs the per-day duplicate guard for the requested message type.
func (pf *PhoneFlowImpl) ValidatePhone(ctx context.Context, userID uint, request *dto.ValidatePhoneRequest) (*dto.ValidatePhoneResponse, error) {
	if !models.IsValidMessageType(request.MessageType) {
		return nil, NewBusinessError("VALIDATION_ERROR", "Invalid message type", ErrInvalidMessageType)
	}

	if err := phone.ValidatePhoneNumber(request.PhoneNumber); err != nil {
		return nil, NewBusinessError("PHONE_INVALID", err.Error(), ErrPhoneInvalid)
	}

	normalized, ok := phone.Normalize(request.PhoneNumber)
	if !ok {
		return nil, NewBusinessError("PHONE_INVALID", "Number could not be normalized", ErrPhoneInvalid)
	}

	if err := phone.ValidateWhatsAppFormat(normalized); err != nil {
		return nil, NewBusinessError("PHONE_INVALID", err.Error(), ErrPhoneInvalid)
	}

	if pf.guard.IsDuplicate(ctx, userID, normalized, request.MessageType) {
		return nil, NewBusinessError("DUPLICATE_PHONE",
			fmt.Sprintf("A %s message already went to %s today", request.MessageType, normalized),
			ErrDuplicatePhone)
	}

	return &dto.ValidatePhoneResponse{
		Input:      request.PhoneNumber,
		Normalized: normalized,
	}, nil
}

// ScanQR extracts a number from a decoded QR payload. Received and
// reminder flows take the recipient field; return flows take the sender
// field, whose absence is its own error class so the client can tell
// "bad scan" from "this label has no sender".
func (pf *PhoneFlowImpl) ScanQR(ctx context.Context, userID uint, request *dto.ScanQRRequest) (*dto.ScanQRResponse, error) {
	if !models.IsValidMessageType(request.MessageType) {
		return nil, NewBusinessError("VALIDATION_ERROR", "Invalid message type", ErrInvalidMessageType)
	}

	var extracted string
	var ok bool
	if request.MessageType == models.MessageTypeReturn {
		extracted, ok = phone.ExtractSenderPhone(request.Payload)
		if !ok {
			return nil, NewBusinessError("QR_SENDER_UNKNOWN", "No sender number in QR payload", ErrQRSenderUnknown)
		}
	} else {
		extracted, ok = phone.ExtractRecipientPhone(request.Payload)
		if !ok {
			return nil, NewBusinessError("QR_INVALID", "No usable number in QR payload", ErrQRInvalid)
		}
	}

	if err := phone.ValidateWhatsAppFormat(extracted); err != nil {
		return nil, NewBusinessError("QR_INVALID", err.Error(), ErrQRInvalid)
	}

	if pf.guard.IsDuplicate(ctx, userID, extracted, request.MessageType) {
		return nil, NewBusinessError("DUPLICATE_PHONE",
			fmt.Sprintf("A %s message already went to %s today", request.MessageType, extracted),
			ErrDuplicatePhone)
	}

	return &dto.ScanQRResponse{PhoneNumber: extracted}, nil
}
