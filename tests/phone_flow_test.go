// Package tests contains integration tests for phone validation and QR scanning
package tests

import (
	"context"
	"testing"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	businessflow "github.com/TecnoAcceso/Piker-sub000/business_flow"
	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/repository"
	testingutil "github.com/TecnoAcceso/Piker-sub000/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPhoneFlow(testDB *testingutil.TestDB) businessflow.PhoneFlow {
	sentRepo := repository.NewSentMessageRepository(testDB.DB)
	guard := businessflow.NewDuplicateGuard(sentRepo, nil)
	return businessflow.NewPhoneFlow(guard)
}

func TestValidatePhone(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		phoneFlow := newPhoneFlow(testDB)

		user, err := fixtures.CreateTestUser(models.RoleUser)
		require.NoError(t, err)

		t.Run("LocalNumberNormalized", func(t *testing.T) {
			result, err := phoneFlow.ValidatePhone(context.Background(), user.ID, &dto.ValidatePhoneRequest{
				PhoneNumber: "0414-123.45.67",
				MessageType: models.MessageTypeReceived,
			})
			require.NoError(t, err)
			assert.Equal(t, "0414-123.45.67", result.Input)
			assert.Equal(t, "+584141234567", result.Normalized)
		})

		t.Run("QualifiedNumberPassesThrough", func(t *testing.T) {
			result, err := phoneFlow.ValidatePhone(context.Background(), user.ID, &dto.ValidatePhoneRequest{
				PhoneNumber: "+584241234567",
				MessageType: models.MessageTypeReminder,
			})
			require.NoError(t, err)
			assert.Equal(t, "+584241234567", result.Normalized)
		})

		t.Run("GarbageRejected", func(t *testing.T) {
			_, err := phoneFlow.ValidatePhone(context.Background(), user.ID, &dto.ValidatePhoneRequest{
				PhoneNumber: "abcdefg",
				MessageType: models.MessageTypeReceived,
			})
			require.Error(t, err)
			assert.True(t, businessflow.IsPhoneInvalid(err))
		})

		t.Run("UnknownMessageTypeRejected", func(t *testing.T) {
			_, err := phoneFlow.ValidatePhone(context.Background(), user.ID, &dto.ValidatePhoneRequest{
				PhoneNumber: "04141234567",
				MessageType: "broadcast",
			})
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidMessageType(err))
		})

		t.Run("SameDayDuplicateFlagged", func(t *testing.T) {
			_, err := fixtures.CreateTestSentMessage(user.ID, "+584145556677", models.MessageTypeReceived, models.SendStatusSent)
			require.NoError(t, err)

			_, err = phoneFlow.ValidatePhone(context.Background(), user.ID, &dto.ValidatePhoneRequest{
				PhoneNumber: "04145556677",
				MessageType: models.MessageTypeReceived,
			})
			require.Error(t, err)
			assert.True(t, businessflow.IsDuplicatePhone(err))
		})

		t.Run("DuplicateIsPerMessageType", func(t *testing.T) {
			// Same number, different type: not a duplicate
			result, err := phoneFlow.ValidatePhone(context.Background(), user.ID, &dto.ValidatePhoneRequest{
				PhoneNumber: "04145556677",
				MessageType: models.MessageTypeReminder,
			})
			require.NoError(t, err)
			assert.Equal(t, "+584145556677", result.Normalized)
		})

		t.Run("DuplicateIsPerUser", func(t *testing.T) {
			other, err := fixtures.CreateTestUser(models.RoleUser)
			require.NoError(t, err)

			result, err := phoneFlow.ValidatePhone(context.Background(), other.ID, &dto.ValidatePhoneRequest{
				PhoneNumber: "04145556677",
				MessageType: models.MessageTypeReceived,
			})
			require.NoError(t, err)
			assert.Equal(t, "+584145556677", result.Normalized)
		})

		t.Run("FailedSendDoesNotCountAsDuplicate", func(t *testing.T) {
			_, err := fixtures.CreateTestSentMessage(user.ID, "+584148889900", models.MessageTypeReceived, models.SendStatusFailed)
			require.NoError(t, err)

			result, err := phoneFlow.ValidatePhone(context.Background(), user.ID, &dto.ValidatePhoneRequest{
				PhoneNumber: "04148889900",
				MessageType: models.MessageTypeReceived,
			})
			require.NoError(t, err)
			assert.Equal(t, "+584148889900", result.Normalized)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestScanQR(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		phoneFlow := newPhoneFlow(testDB)

		user, err := fixtures.CreateTestUser(models.RoleUser)
		require.NoError(t, err)

		// Positional courier payload: sender phone in field 4, recipient
		// phone in field 8.
		payload := "GUIDE123;2026-08-29;CCS;Remitente CA;04145550001;remitente@example.com;;Destinatario;04245550002;;"

		t.Run("ReceivedExtractsRecipient", func(t *testing.T) {
			result, err := phoneFlow.ScanQR(context.Background(), user.ID, &dto.ScanQRRequest{
				Payload:     payload,
				MessageType: models.MessageTypeReceived,
			})
			require.NoError(t, err)
			assert.Equal(t, "+584245550002", result.PhoneNumber)
		})

		t.Run("ReturnExtractsSender", func(t *testing.T) {
			result, err := phoneFlow.ScanQR(context.Background(), user.ID, &dto.ScanQRRequest{
				Payload:     payload,
				MessageType: models.MessageTypeReturn,
			})
			require.NoError(t, err)
			assert.Equal(t, "+584145550001", result.PhoneNumber)
		})

		t.Run("ReturnWithoutSenderIsItsOwnError", func(t *testing.T) {
			noSender := "GUIDE456;2026-08-29;CCS;Remitente CA;;remitente@example.com;;Destinatario;04245550002;;"
			_, err := phoneFlow.ScanQR(context.Background(), user.ID, &dto.ScanQRRequest{
				Payload:     noSender,
				MessageType: models.MessageTypeReturn,
			})
			require.Error(t, err)
			assert.True(t, businessflow.IsQRSenderUnknown(err))
		})

		t.Run("UnusablePayloadRejected", func(t *testing.T) {
			_, err := phoneFlow.ScanQR(context.Background(), user.ID, &dto.ScanQRRequest{
				Payload:     "no numbers here at all",
				MessageType: models.MessageTypeReceived,
			})
			require.Error(t, err)
			assert.True(t, businessflow.IsQRInvalid(err))
		})

		t.Run("ScannedDuplicateFlagged", func(t *testing.T) {
			_, err := fixtures.CreateTestSentMessage(user.ID, "+584245550002", models.MessageTypeReceived, models.SendStatusSent)
			require.NoError(t, err)

			_, err = phoneFlow.ScanQR(context.Background(), user.ID, &dto.ScanQRRequest{
				Payload:     payload,
				MessageType: models.MessageTypeReceived,
			})
			require.Error(t, err)
			assert.True(t, businessflow.IsDuplicatePhone(err))
		})

		return nil
	})
	require.NoError(t, err)
}
