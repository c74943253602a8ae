// Package tests contains integration tests for the admin management flows
package tests

import (
	"context"
	"testing"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	businessflow "github.com/TecnoAcceso/Piker-sub000/business_flow"
	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/repository"
	testingutil "github.com/TecnoAcceso/Piker-sub000/testing"
	"github.com/TecnoAcceso/Piker-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminFlows(testDB *testingutil.TestDB) (businessflow.AdminUserFlow, businessflow.AdminLicenseFlow) {
	profileRepo := repository.NewUserProfileRepository(testDB.DB)
	licenseRepo := repository.NewLicenseRepository(testDB.DB)
	sessionRepo := repository.NewUserSessionRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	userFlow := businessflow.NewAdminUserFlow(profileRepo, licenseRepo, sessionRepo, auditRepo, testDB.DB)
	licenseFlow := businessflow.NewAdminLicenseFlow(licenseRepo, profileRepo, auditRepo)
	return userFlow, licenseFlow
}

func TestAdminUserFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		userFlow, _ := newAdminFlows(testDB)
		sessionRepo := repository.NewUserSessionRepository(testDB.DB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("CreateUserWithInactiveLicense", func(t *testing.T) {
			result, err := userFlow.CreateUser(context.Background(), &dto.CreateUserRequest{
				Username:     "Carlos01",
				Email:        "carlos01@example.com",
				FullName:     "Carlos Perez",
				Password:     "Password123!",
				Role:         models.RoleUser,
				PlanType:     models.PlanTypeBasic,
				MessageLimit: 500,
			}, meta)
			require.NoError(t, err)

			// Usernames are stored lowercase
			assert.Equal(t, "carlos01", result.Username)
			require.NotNil(t, result.License)
			assert.Equal(t, models.PlanTypeBasic, result.License.PlanType)
			assert.False(t, utils.IsTrue(result.License.IsActive))
			assert.False(t, result.License.IsConfigured)
		})

		t.Run("DuplicateUsernameRejected", func(t *testing.T) {
			_, err := userFlow.CreateUser(context.Background(), &dto.CreateUserRequest{
				Username:     "CARLOS01",
				Email:        "carlos02@example.com",
				FullName:     "Otro Carlos",
				Password:     "Password123!",
				Role:         models.RoleUser,
				PlanType:     models.PlanTypeBasic,
				MessageLimit: 500,
			}, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsUsernameExists(err))
		})

		t.Run("DuplicateEmailRejected", func(t *testing.T) {
			_, err := userFlow.CreateUser(context.Background(), &dto.CreateUserRequest{
				Username:     "carlos03",
				Email:        "carlos01@example.com",
				FullName:     "Tercer Carlos",
				Password:     "Password123!",
				Role:         models.RoleUser,
				PlanType:     models.PlanTypeBasic,
				MessageLimit: 500,
			}, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsEmailExists(err))
		})

		t.Run("ListUsersIncludesLicense", func(t *testing.T) {
			result, err := userFlow.ListUsers(context.Background(), 1, 50)
			require.NoError(t, err)
			require.GreaterOrEqual(t, result.Total, int64(1))

			var created *dto.AdminUserDTO
			for i := range result.Users {
				if result.Users[i].Username == "carlos01" {
					created = &result.Users[i]
				}
			}
			require.NotNil(t, created)
			assert.NotNil(t, created.License)
		})

		t.Run("UpdateUserDeactivationKillsSessions", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			session, err := fixtures.CreateTestSession(user.ID)
			require.NoError(t, err)

			_, err = userFlow.UpdateUser(context.Background(), user.ID, &dto.UpdateUserRequest{
				IsActive: utils.ToPtr(false),
			}, meta)
			require.NoError(t, err)

			reloaded, err := sessionRepo.BySessionToken(context.Background(), session.SessionToken)
			require.NoError(t, err)
			require.NotNil(t, reloaded)
			assert.False(t, utils.IsTrue(reloaded.IsActive))
		})

		t.Run("UpdateUnknownUser", func(t *testing.T) {
			_, err := userFlow.UpdateUser(context.Background(), 999999, &dto.UpdateUserRequest{
				FullName: utils.ToPtr("Nobody"),
			}, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		t.Run("SelfDeleteRefused", func(t *testing.T) {
			admin, err := fixtures.CreateTestUser(models.RoleAdmin)
			require.NoError(t, err)

			err = userFlow.DeleteUser(context.Background(), admin.ID, admin.ID, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsSelfDeleteRefused(err))
		})

		t.Run("DeleteUser", func(t *testing.T) {
			admin, err := fixtures.CreateTestUser(models.RoleAdmin)
			require.NoError(t, err)
			target, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)

			err = userFlow.DeleteUser(context.Background(), admin.ID, target.ID, meta)
			require.NoError(t, err)

			profileRepo := repository.NewUserProfileRepository(testDB.DB)
			gone, err := profileRepo.ByID(context.Background(), target.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAdminLicenseFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		_, licenseFlow := newAdminFlows(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("CreateLicenseStartsInactive", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)

			result, err := licenseFlow.CreateLicense(context.Background(), &dto.CreateLicenseRequest{
				UserID:       user.ID,
				PlanType:     models.PlanTypePro,
				MessageLimit: 2000,
			}, meta)
			require.NoError(t, err)
			assert.Equal(t, user.ID, result.UserID)
			assert.False(t, utils.IsTrue(result.IsActive))
		})

		t.Run("SecondLicenseRejected", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			_, err = fixtures.CreateTestLicense(user.ID, false)
			require.NoError(t, err)

			_, err = licenseFlow.CreateLicense(context.Background(), &dto.CreateLicenseRequest{
				UserID:       user.ID,
				PlanType:     models.PlanTypeBasic,
				MessageLimit: 100,
			}, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsLicenseExists(err))
		})

		t.Run("CreateForUnknownUser", func(t *testing.T) {
			_, err := licenseFlow.CreateLicense(context.Background(), &dto.CreateLicenseRequest{
				UserID:       999999,
				PlanType:     models.PlanTypeBasic,
				MessageLimit: 100,
			}, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		t.Run("ActivationRefusedWithoutCredentials", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			license, err := fixtures.CreateTestLicense(user.ID, false)
			require.NoError(t, err)

			_, err = licenseFlow.UpdateLicense(context.Background(), license.ID, &dto.UpdateLicenseRequest{
				IsActive: utils.ToPtr(true),
			}, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsLicenseNotConfigured(err))
		})

		t.Run("ConfigureThenActivate", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			license, err := fixtures.CreateTestLicense(user.ID, false)
			require.NoError(t, err)

			result, err := licenseFlow.UpdateLicense(context.Background(), license.ID, &dto.UpdateLicenseRequest{
				TwilioAccountSID:     utils.ToPtr("AC00000000000000000000000000000001"),
				TwilioAuthToken:      utils.ToPtr("secret-auth-token"),
				TwilioWhatsappNumber: utils.ToPtr("+14155238886"),
				IsActive:             utils.ToPtr(true),
			}, meta)
			require.NoError(t, err)
			assert.True(t, utils.IsTrue(result.IsActive))
			assert.True(t, result.IsConfigured)
		})

		t.Run("RenewExtendsAndResets", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			license, err := fixtures.CreateTestLicense(user.ID, true)
			require.NoError(t, err)

			license.MessagesUsed = 700
			require.NoError(t, testDB.DB.Save(license).Error)

			result, err := licenseFlow.UpdateLicense(context.Background(), license.ID, &dto.UpdateLicenseRequest{
				ValidUntil: utils.ToPtr("2027-12-31"),
				IsActive:   utils.ToPtr(true),
				ResetUsage: utils.ToPtr(true),
			}, meta)
			require.NoError(t, err)
			require.NotNil(t, result.ValidUntil)
			assert.Equal(t, "2027-12-31", *result.ValidUntil)
			assert.Equal(t, 0, result.MessagesUsed)
		})

		t.Run("DeleteLicense", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			license, err := fixtures.CreateTestLicense(user.ID, false)
			require.NoError(t, err)

			err = licenseFlow.DeleteLicense(context.Background(), license.ID, meta)
			require.NoError(t, err)

			err = licenseFlow.DeleteLicense(context.Background(), license.ID, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsLicenseNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
