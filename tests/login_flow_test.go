// Package tests contains integration tests for the login flow
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	"github.com/TecnoAcceso/Piker-sub000/app/services"
	businessflow "github.com/TecnoAcceso/Piker-sub000/business_flow"
	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/repository"
	testingutil "github.com/TecnoAcceso/Piker-sub000/testing"
	"github.com/TecnoAcceso/Piker-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoginFlow(t *testing.T, testDB *testingutil.TestDB, emailSvc services.EmailService) businessflow.LoginFlow {
	t.Helper()

	profileRepo := repository.NewUserProfileRepository(testDB.DB)
	licenseRepo := repository.NewLicenseRepository(testDB.DB)
	sessionRepo := repository.NewUserSessionRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	tokenService, err := services.NewTokenService(1*time.Hour, 24*time.Hour, "test-issuer", "test-audience", false, "", "", "test-secret-key-that-is-long-enough")
	require.NoError(t, err)

	return businessflow.NewLoginFlow(
		profileRepo,
		licenseRepo,
		sessionRepo,
		auditRepo,
		tokenService,
		emailSvc,
		testDB.DB,
	)
}

func TestLoginFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		loginFlow := newLoginFlow(t, testDB, services.NewMockEmailService())
		meta := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("SuccessfulLogin", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			_, err = fixtures.CreateTestLicense(user.ID, true)
			require.NoError(t, err)

			result, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Username: user.Username,
				Password: "TestPass123!",
			}, meta)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, user.ID, result.User.ID)
			assert.Equal(t, user.Username, result.User.Username)
			assert.Equal(t, models.RoleUser, result.User.Role)
			assert.True(t, utils.IsTrue(result.User.IsActive))

			assert.NotEmpty(t, result.Session.SessionToken)
			assert.NotNil(t, result.Session.RefreshToken)
			assert.Equal(t, "Bearer", result.Session.TokenType)
		})

		t.Run("IncorrectPassword", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			_, err = fixtures.CreateTestLicense(user.ID, true)
			require.NoError(t, err)

			result, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Username: user.Username,
				Password: "WrongPass999!",
			}, meta)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsIncorrectPassword(err))
		})

		t.Run("UserNotFoundWithSuggestion", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)

			// A partial username must not authenticate; it only yields a hint
			partial := user.Username[:len(user.Username)-2]
			result, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Username: partial,
				Password: "TestPass123!",
			}, meta)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsUserNotFound(err))
			assert.Contains(t, err.Error(), user.Username)
		})

		t.Run("UserNotFound", func(t *testing.T) {
			result, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Username: "zzznobodyzzz",
				Password: "TestPass123!",
			}, meta)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		t.Run("InactiveAccount", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			_, err = fixtures.CreateTestLicense(user.ID, true)
			require.NoError(t, err)

			user.IsActive = utils.ToPtr(false)
			require.NoError(t, testDB.DB.Save(user).Error)

			result, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Username: user.Username,
				Password: "TestPass123!",
			}, meta)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsAccountInactive(err))
		})

		t.Run("MissingLicenseRefusesLogin", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)

			result, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Username: user.Username,
				Password: "TestPass123!",
			}, meta)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsLicenseRequired(err))
		})

		t.Run("UnconfiguredLicenseRefusesLogin", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			_, err = fixtures.CreateTestLicense(user.ID, false)
			require.NoError(t, err)

			result, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Username: user.Username,
				Password: "TestPass123!",
			}, meta)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsLicensePendingAPI(err))
		})

		t.Run("SystemAdminSkipsLicenseGate", func(t *testing.T) {
			admin, err := fixtures.CreateTestUser(models.RoleSystemAdmin)
			require.NoError(t, err)

			result, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Username: admin.Username,
				Password: "TestPass123!",
			}, meta)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, models.RoleSystemAdmin, result.User.Role)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestLogoutAndRefresh(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		loginFlow := newLoginFlow(t, testDB, services.NewMockEmailService())
		sessionRepo := repository.NewUserSessionRepository(testDB.DB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("LogoutDeactivatesSession", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			_, err = fixtures.CreateTestLicense(user.ID, true)
			require.NoError(t, err)

			login, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Username: user.Username,
				Password: "TestPass123!",
			}, meta)
			require.NoError(t, err)

			logout, err := loginFlow.Logout(context.Background(), login.Session.SessionToken, meta)
			require.NoError(t, err)
			assert.NotEmpty(t, logout.Message)

			session, err := sessionRepo.BySessionToken(context.Background(), login.Session.SessionToken)
			require.NoError(t, err)
			require.NotNil(t, session)
			assert.False(t, utils.IsTrue(session.IsActive))
		})

		t.Run("LogoutUnknownToken", func(t *testing.T) {
			_, err := loginFlow.Logout(context.Background(), "no-such-token", meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsSessionNotFound(err))
		})

		t.Run("RefreshRotatesTokens", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			_, err = fixtures.CreateTestLicense(user.ID, true)
			require.NoError(t, err)

			login, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
				Username: user.Username,
				Password: "TestPass123!",
			}, meta)
			require.NoError(t, err)
			require.NotNil(t, login.Session.RefreshToken)

			refreshed, err := loginFlow.RefreshToken(context.Background(), &dto.RefreshTokenRequest{
				RefreshToken: *login.Session.RefreshToken,
			}, meta)
			require.NoError(t, err)
			assert.NotEmpty(t, refreshed.Session.SessionToken)
			assert.NotEqual(t, login.Session.SessionToken, refreshed.Session.SessionToken)

			// The old session is gone once rotation happens
			old, err := sessionRepo.BySessionToken(context.Background(), login.Session.SessionToken)
			require.NoError(t, err)
			require.NotNil(t, old)
			assert.False(t, utils.IsTrue(old.IsActive))
		})

		t.Run("RefreshUnknownToken", func(t *testing.T) {
			_, err := loginFlow.RefreshToken(context.Background(), &dto.RefreshTokenRequest{
				RefreshToken: "no-such-refresh-token",
			}, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsSessionNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestForgotPasswordFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		emailSvc := services.NewMockEmailService()
		loginFlow := newLoginFlow(t, testDB, emailSvc)
		meta := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("NotifiesOperatorForKnownUser", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)

			resp, err := loginFlow.ForgotPassword(context.Background(), &dto.ForgotPasswordRequest{
				Username: user.Username,
			}, meta)
			require.NoError(t, err)
			assert.NotEmpty(t, resp.Message)

			require.Len(t, emailSvc.SentEmails, 1)
			assert.Equal(t, user.Email, emailSvc.SentEmails[0].Recipient)
			assert.Equal(t, user.Username, emailSvc.SentEmails[0].Username)
		})

		t.Run("GenericResponseForUnknownUser", func(t *testing.T) {
			before := len(emailSvc.SentEmails)

			resp, err := loginFlow.ForgotPassword(context.Background(), &dto.ForgotPasswordRequest{
				Username: "zzznobodyzzz",
			}, meta)
			require.NoError(t, err)
			assert.NotEmpty(t, resp.Message)
			assert.Len(t, emailSvc.SentEmails, before)
		})

		t.Run("EmailFailureStillAcknowledges", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)

			emailSvc.FailNext = assert.AnError
			resp, err := loginFlow.ForgotPassword(context.Background(), &dto.ForgotPasswordRequest{
				Username: user.Username,
			}, meta)
			require.NoError(t, err)
			assert.NotEmpty(t, resp.Message)
		})

		return nil
	})
	require.NoError(t, err)
}
