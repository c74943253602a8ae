// Package tests contains integration tests for the batch send flow
package tests

import (
	"context"
	"testing"

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

func newBatchFlow(testDB *testingutil.TestDB, whatsappSvc services.WhatsAppService) businessflow.BatchFlow {
	licenseRepo := repository.NewLicenseRepository(testDB.DB)
	templateRepo := repository.NewMessageTemplateRepository(testDB.DB)
	batchRepo := repository.NewMessageBatchRepository(testDB.DB)
	sentRepo := repository.NewSentMessageRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	guard := businessflow.NewDuplicateGuard(sentRepo, nil)

	return businessflow.NewBatchFlow(
		licenseRepo,
		templateRepo,
		batchRepo,
		sentRepo,
		auditRepo,
		whatsappSvc,
		guard,
	)
}

func TestSendBatch(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		licenseRepo := repository.NewLicenseRepository(testDB.DB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		t.Run("AllRecipientsSucceed", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			license, err := fixtures.CreateTestLicense(user.ID, true)
			require.NoError(t, err)

			mock := services.NewMockWhatsAppService()
			batchFlow := newBatchFlow(testDB, mock)

			result, err := batchFlow.SendBatch(context.Background(), user.ID, &dto.SendBatchRequest{
				MessageType:  models.MessageTypeReceived,
				Content:      "Su equipo fue recibido.",
				PhoneNumbers: []string{"04141234567", "04149876543"},
			}, meta)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, 2, result.TotalSent)
			assert.Equal(t, 0, result.TotalFailed)
			assert.Len(t, result.Results, 2)
			assert.Equal(t, result.TotalSent+result.TotalFailed, len(result.Results))
			require.NotNil(t, result.BatchID)

			// Numbers are normalized before hitting the provider
			assert.True(t, mock.SentTo("+584141234567"))
			assert.True(t, mock.SentTo("+584149876543"))

			// Usage is charged for every successful send
			updated, err := licenseRepo.ByID(context.Background(), license.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, updated.MessagesUsed)
		})

		t.Run("PartialFailureSplitsCounts", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			_, err = fixtures.CreateTestLicense(user.ID, true)
			require.NoError(t, err)

			mock := services.NewMockWhatsAppService()
			mock.FailFor["+584140000002"] = services.ErrSandboxRecipient
			batchFlow := newBatchFlow(testDB, mock)

			result, err := batchFlow.SendBatch(context.Background(), user.ID, &dto.SendBatchRequest{
				MessageType:  models.MessageTypeReminder,
				Content:      "Recordatorio de retiro.",
				PhoneNumbers: []string{"04140000001", "04140000002", "04140000003"},
			}, meta)
			require.NoError(t, err)

			assert.Equal(t, 2, result.TotalSent)
			assert.Equal(t, 1, result.TotalFailed)
			assert.Len(t, result.Results, 3)

			var failed *dto.RecipientResultDTO
			for i := range result.Results {
				if result.Results[i].Status == string(models.SendStatusFailed) {
					failed = &result.Results[i]
				}
			}
			require.NotNil(t, failed)
			assert.Equal(t, "+584140000002", failed.PhoneNumber)
			require.NotNil(t, failed.Error)
		})

		t.Run("InvalidNumberFailsThatRecipientOnly", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			_, err = fixtures.CreateTestLicense(user.ID, true)
			require.NoError(t, err)

			batchFlow := newBatchFlow(testDB, services.NewMockWhatsAppService())

			result, err := batchFlow.SendBatch(context.Background(), user.ID, &dto.SendBatchRequest{
				MessageType:  models.MessageTypeReturn,
				Content:      "Listo para retirar.",
				PhoneNumbers: []string{"04141112233", "12345"},
			}, meta)
			require.NoError(t, err)

			assert.Equal(t, 1, result.TotalSent)
			assert.Equal(t, 1, result.TotalFailed)
		})

		t.Run("EmptyListRejected", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			_, err = fixtures.CreateTestLicense(user.ID, true)
			require.NoError(t, err)

			batchFlow := newBatchFlow(testDB, services.NewMockWhatsAppService())

			_, err = batchFlow.SendBatch(context.Background(), user.ID, &dto.SendBatchRequest{
				MessageType:  models.MessageTypeReceived,
				Content:      "Hola",
				PhoneNumbers: []string{},
			}, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsBatchEmpty(err))
		})

		t.Run("OversizedListRejected", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			_, err = fixtures.CreateTestLicense(user.ID, true)
			require.NoError(t, err)

			batchFlow := newBatchFlow(testDB, services.NewMockWhatsAppService())

			numbers := make([]string, utils.MaxBatchRecipients+1)
			for i := range numbers {
				numbers[i] = "04141234567"
			}

			_, err = batchFlow.SendBatch(context.Background(), user.ID, &dto.SendBatchRequest{
				MessageType:  models.MessageTypeReceived,
				Content:      "Hola",
				PhoneNumbers: numbers,
			}, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsBatchTooLarge(err))
		})

		t.Run("MissingLicenseRejected", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)

			batchFlow := newBatchFlow(testDB, services.NewMockWhatsAppService())

			_, err = batchFlow.SendBatch(context.Background(), user.ID, &dto.SendBatchRequest{
				MessageType:  models.MessageTypeReceived,
				Content:      "Hola",
				PhoneNumbers: []string{"04141234567"},
			}, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsLicenseRequired(err))
		})

		t.Run("ExhaustedAllotmentRejected", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			license, err := fixtures.CreateTestLicense(user.ID, true)
			require.NoError(t, err)

			license.MessageLimit = 5
			license.MessagesUsed = 5
			require.NoError(t, testDB.DB.Save(license).Error)

			batchFlow := newBatchFlow(testDB, services.NewMockWhatsAppService())

			_, err = batchFlow.SendBatch(context.Background(), user.ID, &dto.SendBatchRequest{
				MessageType:  models.MessageTypeReceived,
				Content:      "Hola",
				PhoneNumbers: []string{"04141234567"},
			}, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsMessageLimitReached(err))
		})

		t.Run("ForeignTemplateRejected", func(t *testing.T) {
			owner, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			template, err := fixtures.CreateTestTemplate(owner.ID, models.MessageTypeReceived)
			require.NoError(t, err)

			other, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)
			_, err = fixtures.CreateTestLicense(other.ID, true)
			require.NoError(t, err)

			batchFlow := newBatchFlow(testDB, services.NewMockWhatsAppService())

			_, err = batchFlow.SendBatch(context.Background(), other.ID, &dto.SendBatchRequest{
				MessageType:  models.MessageTypeReceived,
				TemplateID:   &template.ID,
				Content:      template.Content,
				PhoneNumbers: []string{"04141234567"},
			}, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsTemplateAccessDenied(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestBatchHistory(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")

		user, err := fixtures.CreateTestUser(models.RoleUser)
		require.NoError(t, err)
		_, err = fixtures.CreateTestLicense(user.ID, true)
		require.NoError(t, err)

		batchFlow := newBatchFlow(testDB, services.NewMockWhatsAppService())

		for i := 0; i < 3; i++ {
			_, err := batchFlow.SendBatch(context.Background(), user.ID, &dto.SendBatchRequest{
				MessageType:  models.MessageTypeReceived,
				Content:      "Su equipo fue recibido.",
				PhoneNumbers: []string{"04141234567", "04149876543"},
			}, meta)
			require.NoError(t, err)
		}

		t.Run("ListBatches", func(t *testing.T) {
			page, err := batchFlow.ListBatches(context.Background(), user.ID, 1, 2)
			require.NoError(t, err)
			assert.Equal(t, int64(3), page.Total)
			assert.Len(t, page.Batches, 2)

			second, err := batchFlow.ListBatches(context.Background(), user.ID, 2, 2)
			require.NoError(t, err)
			assert.Len(t, second.Batches, 1)
		})

		t.Run("MessageLog", func(t *testing.T) {
			page, err := batchFlow.MessageLog(context.Background(), user.ID, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, int64(6), page.Total)
			assert.Len(t, page.Messages, 6)
			for _, msg := range page.Messages {
				assert.Equal(t, string(models.SendStatusSent), msg.Status)
			}
		})

		t.Run("InvalidPagination", func(t *testing.T) {
			_, err := batchFlow.ListBatches(context.Background(), user.ID, 0, 10)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPage(err))

			_, err = batchFlow.MessageLog(context.Background(), user.ID, 1, 500)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPageSize(err))
		})

		t.Run("OtherUserSeesNothing", func(t *testing.T) {
			other, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)

			page, err := batchFlow.ListBatches(context.Background(), other.ID, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, int64(0), page.Total)
			assert.Empty(t, page.Batches)
		})

		return nil
	})
	require.NoError(t, err)
}
