// Package tests contains integration tests for template management and stats
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

func newTemplateFlow(testDB *testingutil.TestDB) businessflow.TemplateFlow {
	templateRepo := repository.NewMessageTemplateRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	return businessflow.NewTemplateFlow(templateRepo, auditRepo)
}

func TestTemplateFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		templateFlow := newTemplateFlow(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		user, err := fixtures.CreateTestUser(models.RoleUser)
		require.NoError(t, err)

		t.Run("CreateAndList", func(t *testing.T) {
			created, err := templateFlow.CreateTemplate(context.Background(), user.ID, &dto.CreateTemplateRequest{
				Name:        "Aviso de retiro",
				MessageType: models.MessageTypeReturn,
				Content:     "Su equipo esta listo para retirar.",
			}, meta)
			require.NoError(t, err)
			assert.Equal(t, "Aviso de retiro", created.Name)
			assert.True(t, utils.IsTrue(created.IsActive))

			listed, err := templateFlow.ListTemplates(context.Background(), user.ID)
			require.NoError(t, err)
			require.Len(t, listed.Templates, 1)
			assert.Equal(t, created.ID, listed.Templates[0].ID)
		})

		t.Run("ListIsScopedToOwner", func(t *testing.T) {
			other, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)

			listed, err := templateFlow.ListTemplates(context.Background(), other.ID)
			require.NoError(t, err)
			assert.Empty(t, listed.Templates)
		})

		t.Run("PartialUpdate", func(t *testing.T) {
			template, err := fixtures.CreateTestTemplate(user.ID, models.MessageTypeReceived)
			require.NoError(t, err)

			updated, err := templateFlow.UpdateTemplate(context.Background(), user.ID, template.ID, &dto.UpdateTemplateRequest{
				Content:  utils.ToPtr("Contenido actualizado."),
				IsActive: utils.ToPtr(false),
			}, meta)
			require.NoError(t, err)
			assert.Equal(t, template.Name, updated.Name)
			assert.Equal(t, "Contenido actualizado.", updated.Content)
			assert.False(t, utils.IsTrue(updated.IsActive))
		})

		t.Run("UpdateForeignTemplate", func(t *testing.T) {
			other, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			template, err := fixtures.CreateTestTemplate(other.ID, models.MessageTypeReminder)
			require.NoError(t, err)

			_, err = templateFlow.UpdateTemplate(context.Background(), user.ID, template.ID, &dto.UpdateTemplateRequest{
				Name: utils.ToPtr("Robado"),
			}, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsTemplateAccessDenied(err))
		})

		t.Run("DeleteTemplate", func(t *testing.T) {
			template, err := fixtures.CreateTestTemplate(user.ID, models.MessageTypeReminder)
			require.NoError(t, err)

			err = templateFlow.DeleteTemplate(context.Background(), user.ID, template.ID, meta)
			require.NoError(t, err)

			err = templateFlow.DeleteTemplate(context.Background(), user.ID, template.ID, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsTemplateNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestStatsFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		sentRepo := repository.NewSentMessageRepository(testDB.DB)
		batchRepo := repository.NewMessageBatchRepository(testDB.DB)
		licenseRepo := repository.NewLicenseRepository(testDB.DB)
		statsFlow := businessflow.NewStatsFlow(sentRepo, batchRepo, licenseRepo)

		user, err := fixtures.CreateTestUser(models.RoleUser)
		require.NoError(t, err)
		_, err = fixtures.CreateTestLicense(user.ID, true)
		require.NoError(t, err)

		_, err = fixtures.CreateTestSentMessage(user.ID, "+584141110001", models.MessageTypeReceived, models.SendStatusSent)
		require.NoError(t, err)
		_, err = fixtures.CreateTestSentMessage(user.ID, "+584141110002", models.MessageTypeReminder, models.SendStatusSent)
		require.NoError(t, err)
		// Failed attempts never count toward sent totals
		_, err = fixtures.CreateTestSentMessage(user.ID, "+584141110003", models.MessageTypeReturn, models.SendStatusFailed)
		require.NoError(t, err)

		t.Run("CountsAndLicenseSnapshot", func(t *testing.T) {
			stats, err := statsFlow.UserStats(context.Background(), user.ID)
			require.NoError(t, err)

			assert.Equal(t, int64(2), stats.SentToday)
			assert.Equal(t, int64(2), stats.SentThisWeek)
			assert.Equal(t, int64(2), stats.SentTotal)
			assert.Equal(t, int64(0), stats.TotalBatches)

			require.NotNil(t, stats.License)
			assert.Equal(t, 1000, stats.License.MessageLimit)
		})

		t.Run("EmptyUser", func(t *testing.T) {
			other, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)

			stats, err := statsFlow.UserStats(context.Background(), other.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), stats.SentTotal)
			assert.Nil(t, stats.License)
		})

		return nil
	})
	require.NoError(t, err)
}
