// Package testing provides test utilities and database setup for testing the messaging console
package testing

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates an active user profile with the given role
func (tf *TestFixtures) CreateTestUser(role string) (*models.UserProfile, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := fmt.Sprintf("%07d", rand.Intn(9000000)+1000000)

	user := &models.UserProfile{
		UUID:         uuid.New(),
		Username:     fmt.Sprintf("tester%s", suffix),
		Email:        fmt.Sprintf("tester.%s@example.com", suffix),
		FullName:     "Test User",
		Role:         role,
		PasswordHash: string(hashedPassword),
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}

	return user, nil
}

// CreateTestLicense creates an active license for the user. When configured
// is true the Twilio credential fields are populated so the license passes
// the send gate.
func (tf *TestFixtures) CreateTestLicense(userID uint, configured bool) (*models.License, error) {
	validUntil := time.Now().UTC().AddDate(0, 1, 0)

	license := &models.License{
		UserID:       userID,
		PlanType:     models.PlanTypeBasic,
		MessageLimit: 1000,
		ValidUntil:   &validUntil,
		IsActive:     utils.ToPtr(true),
	}

	if configured {
		license.TwilioAccountSID = utils.ToPtr("AC" + fmt.Sprintf("%032d", rand.Intn(1000000)))
		license.TwilioAuthToken = utils.ToPtr("token-" + fmt.Sprintf("%012d", rand.Intn(1000000)))
		license.TwilioWhatsappNumber = utils.ToPtr("+14155238886")
	}

	if err := tf.DB.DB.Create(license).Error; err != nil {
		return nil, fmt.Errorf("failed to create test license: %w", err)
	}

	return license, nil
}

// CreateTestTemplate creates an active template owned by the user
func (tf *TestFixtures) CreateTestTemplate(userID uint, messageType string) (*models.MessageTemplate, error) {
	template := &models.MessageTemplate{
		UserID:      userID,
		Name:        fmt.Sprintf("Template %d", rand.Intn(100000)),
		MessageType: messageType,
		Content:     "Su equipo esta listo para retirar.",
		IsActive:    utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(template).Error; err != nil {
		return nil, fmt.Errorf("failed to create test template: %w", err)
	}

	return template, nil
}

func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CreateTestSession creates an active session for the user
func (tf *TestFixtures) CreateTestSession(userID uint) (*models.UserSession, error) {
	sessionToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure session token: %w", err)
	}

	refreshToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure refresh token: %w", err)
	}

	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	session := &models.UserSession{
		CorrelationID: uuid.New(), // Groups related session records
		UserID:        userID,
		SessionToken:  sessionToken,
		RefreshToken:  &refreshToken,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	if err := tf.DB.DB.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}

	return session, nil
}

// CreateTestSentMessage creates one delivery attempt row for the user
func (tf *TestFixtures) CreateTestSentMessage(userID uint, phoneNumber, messageType string, status models.SendStatus) (*models.SentMessage, error) {
	msg := &models.SentMessage{
		UserID:      userID,
		PhoneNumber: phoneNumber,
		MessageType: messageType,
		Status:      status,
	}
	if status == models.SendStatusFailed {
		msg.ErrorMessage = utils.ToPtr("delivery failed")
	}

	if err := tf.DB.DB.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to create test sent message: %w", err)
	}

	return msg, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(userID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		UserID:      userID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}

// CreateExpiredSession creates a session whose expiry already passed
func (tf *TestFixtures) CreateExpiredSession(userID uint) (*models.UserSession, error) {
	sessionToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure session token: %w", err)
	}

	session := &models.UserSession{
		CorrelationID: uuid.New(),
		UserID:        userID,
		SessionToken:  sessionToken,
		ExpiresAt:     time.Now().Add(-1 * time.Hour), // Expired 1 hour ago
		IsActive:      utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create expired session: %w", err)
	}

	return session, nil
}
