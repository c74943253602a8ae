// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/config"
)

// EmailService handles transactional email delivery
type EmailService interface {
	SendPasswordRecovery(ctx context.Context, recipient, username string) error
}

// EmailServiceImpl implements EmailService against the Resend HTTP API
type EmailServiceImpl struct {
	config *config.EmailConfig
	client *http.Client
}

// resendRequest represents the request payload for the Resend send API
type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// resendResponse represents the Resend send API response
type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg *config.EmailConfig) EmailService {
	return &EmailServiceImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SendPasswordRecovery notifies the configured support address that a user
// requested help with their password. Recovery is operator-assisted; no
// reset link is ever mailed to the requester.
func (s *EmailServiceImpl) SendPasswordRecovery(ctx context.Context, recipient, username string) error {
	subject := fmt.Sprintf("Password recovery requested for %s", username)
	html := fmt.Sprintf(
		"<p>User <strong>%s</strong> requested password assistance.</p><p>Contact address on file: %s</p>",
		username, recipient)

	payload := resendRequest{
		From:    s.config.FromAddress,
		To:      []string{s.config.SupportAddress},
		Subject: subject,
		HTML:    html,
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.APIURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email request: %w", err)
	}
	defer resp.Body.Close()

	var result resendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode email response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || result.ID == "" {
		return fmt.Errorf("email delivery failed: %s (%d)", result.Message, resp.StatusCode)
	}

	return nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SentEmails []MockEmail
	FailNext   error
}

// MockEmail represents a mock email message
type MockEmail struct {
	Recipient string
	Username  string
	SentAt    time.Time
}

// NewMockEmailService creates a new mock email service
func NewMockEmailService() *MockEmailService {
	return &MockEmailService{
		SentEmails: make([]MockEmail, 0),
	}
}

// SendPasswordRecovery records a mock recovery email
func (m *MockEmailService) SendPasswordRecovery(ctx context.Context, recipient, username string) error {
	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}
	m.SentEmails = append(m.SentEmails, MockEmail{
		Recipient: recipient,
		Username:  username,
		SentAt:    time.Now(),
	})
	return nil
}
