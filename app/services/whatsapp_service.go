// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/config"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// WhatsApp service error constants
var (
	ErrMissingCredentials = errors.New("whatsapp credentials are not configured")
	ErrSandboxRecipient   = errors.New("recipient has not joined the whatsapp sandbox")
)

// Twilio error codes raised when a sandbox sender messages a number that
// never sent the join keyword.
const (
	twilioErrSandboxNotJoined  = 63015
	twilioErrSandboxRestricted = 63016
)

// SenderCredentials carries the per-license Twilio credentials used for
// one delivery. Each user sends through their own Twilio account.
type SenderCredentials struct {
	AccountSID          string
	AuthToken           string
	WhatsappNumber      string // E.164, without the whatsapp: prefix
	MessagingServiceSID string // Optional
}

// WhatsAppService delivers WhatsApp messages through Twilio
type WhatsAppService interface {
	Send(ctx context.Context, creds SenderCredentials, to, body string) error
}

// WhatsAppServiceImpl implements WhatsAppService. REST clients are cached
// per account SID so repeated sends under the same license reuse one client.
type WhatsAppServiceImpl struct {
	mu            sync.Mutex
	clients       map[string]*twilio.RestClient
	sendTimeout   time.Duration
	sandboxNumber string
}

// NewWhatsAppService creates a new WhatsApp service instance
func NewWhatsAppService(cfg *config.WhatsAppConfig) WhatsAppService {
	return &WhatsAppServiceImpl{
		clients:       make(map[string]*twilio.RestClient),
		sendTimeout:   cfg.SendTimeout,
		sandboxNumber: cfg.SandboxNumber,
	}
}

func (s *WhatsAppServiceImpl) clientFor(creds SenderCredentials) *twilio.RestClient {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := creds.AccountSID + ":" + creds.AuthToken
	if c, ok := s.clients[key]; ok {
		return c
	}
	c := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: creds.AccountSID,
		Password: creds.AuthToken,
	})
	if s.sendTimeout > 0 {
		c.SetTimeout(s.sendTimeout)
	}
	s.clients[key] = c
	return c
}

// Send delivers one WhatsApp message. The to number must be E.164.
// A license without its own sender number falls back to the shared
// sandbox number.
func (s *WhatsAppServiceImpl) Send(ctx context.Context, creds SenderCredentials, to, body string) error {
	if creds.AccountSID == "" || creds.AuthToken == "" {
		return ErrMissingCredentials
	}
	from := creds.WhatsappNumber
	if from == "" {
		from = s.sandboxNumber
	}
	if from == "" {
		return ErrMissingCredentials
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + to)
	params.SetFrom("whatsapp:" + from)
	params.SetBody(body)
	if creds.MessagingServiceSID != "" {
		params.SetMessagingServiceSid(creds.MessagingServiceSID)
	}

	client := s.clientFor(creds)
	_, err := client.Api.CreateMessage(params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			if restErr.Code == twilioErrSandboxNotJoined || restErr.Code == twilioErrSandboxRestricted {
				return fmt.Errorf("%w: %s", ErrSandboxRecipient, to)
			}
		}
		return fmt.Errorf("failed to send whatsapp message to %s: %w", to, err)
	}

	return nil
}

// MockWhatsAppService implements WhatsAppService for testing
type MockWhatsAppService struct {
	mu           sync.Mutex
	SentMessages []MockWhatsAppMessage
	FailFor      map[string]error // to -> error to return
}

// MockWhatsAppMessage represents a mock WhatsApp message
type MockWhatsAppMessage struct {
	To     string
	From   string
	Body   string
	SentAt time.Time
}

// NewMockWhatsAppService creates a new mock WhatsApp service
func NewMockWhatsAppService() *MockWhatsAppService {
	return &MockWhatsAppService{
		SentMessages: make([]MockWhatsAppMessage, 0),
		FailFor:      make(map[string]error),
	}
}

// Send records a mock WhatsApp message
func (m *MockWhatsAppService) Send(ctx context.Context, creds SenderCredentials, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.FailFor[to]; ok {
		return err
	}
	m.SentMessages = append(m.SentMessages, MockWhatsAppMessage{
		To:     to,
		From:   creds.WhatsappNumber,
		Body:   body,
		SentAt: time.Now(),
	})
	return nil
}

// SentTo reports whether a mock message was recorded for the number
func (m *MockWhatsAppService) SentTo(to string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, msg := range m.SentMessages {
		if strings.EqualFold(msg.To, to) {
			return true
		}
	}
	return false
}
