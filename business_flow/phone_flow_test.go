// Package businessflow contains the core business logic and use cases for messaging workflows
package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSentRepo overrides the duplicate predicate; the embedded interface
// panics on any other call, which pins down exactly what the guard touches.
type stubSentRepo struct {
	repository.SentMessageRepository
	exists    bool
	existsErr error
	calls     int
}

func (s *stubSentRepo) ExistsForDay(ctx context.Context, userID uint, phoneNumber, messageType string, at time.Time) (bool, error) {
	s.calls++
	return s.exists, s.existsErr
}

// setupTestRedis creates an in-memory Redis instance for testing
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() {
		mr.Close()
	})

	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestDuplicateGuardFailsOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("database error reads as not duplicate", func(t *testing.T) {
		repo := &stubSentRepo{existsErr: assert.AnError}
		guard := NewDuplicateGuard(repo, nil)

		assert.False(t, guard.IsDuplicate(ctx, 1, "+584141234567", models.MessageTypeReceived))
		assert.Equal(t, 1, repo.calls)
	})

	t.Run("database error with cache miss reads as not duplicate", func(t *testing.T) {
		repo := &stubSentRepo{existsErr: assert.AnError}
		guard := NewDuplicateGuard(repo, setupTestRedis(t))

		assert.False(t, guard.IsDuplicate(ctx, 1, "+584141234567", models.MessageTypeReceived))
		assert.Equal(t, 1, repo.calls)
	})

	t.Run("validate flow still accepts the number", func(t *testing.T) {
		flow := NewPhoneFlow(NewDuplicateGuard(&stubSentRepo{existsErr: assert.AnError}, nil))

		resp, err := flow.ValidatePhone(ctx, 1, &dto.ValidatePhoneRequest{
			PhoneNumber: "04141234567",
			MessageType: models.MessageTypeReceived,
		})
		require.NoError(t, err)
		assert.Equal(t, "+584141234567", resp.Normalized)
	})
}

func TestDuplicateGuardCacheFastPath(t *testing.T) {
	ctx := context.Background()

	t.Run("marked send short-circuits the database", func(t *testing.T) {
		repo := &stubSentRepo{existsErr: assert.AnError}
		guard := NewDuplicateGuard(repo, setupTestRedis(t))

		guard.MarkSent(ctx, 1, "+584141234567", models.MessageTypeReminder)

		assert.True(t, guard.IsDuplicate(ctx, 1, "+584141234567", models.MessageTypeReminder))
		assert.Equal(t, 0, repo.calls)
	})

	t.Run("cache key is scoped to user number and type", func(t *testing.T) {
		repo := &stubSentRepo{}
		guard := NewDuplicateGuard(repo, setupTestRedis(t))

		guard.MarkSent(ctx, 1, "+584141234567", models.MessageTypeReminder)

		assert.False(t, guard.IsDuplicate(ctx, 2, "+584141234567", models.MessageTypeReminder))
		assert.False(t, guard.IsDuplicate(ctx, 1, "+584149999999", models.MessageTypeReminder))
		assert.False(t, guard.IsDuplicate(ctx, 1, "+584141234567", models.MessageTypeReturn))
		assert.Equal(t, 3, repo.calls)
	})

	t.Run("positive database answer is cached", func(t *testing.T) {
		repo := &stubSentRepo{exists: true}
		guard := NewDuplicateGuard(repo, setupTestRedis(t))

		assert.True(t, guard.IsDuplicate(ctx, 1, "+584141234567", models.MessageTypeReceived))
		assert.True(t, guard.IsDuplicate(ctx, 1, "+584141234567", models.MessageTypeReceived))
		assert.Equal(t, 1, repo.calls)
	})

	t.Run("guard works without a cache", func(t *testing.T) {
		repo := &stubSentRepo{exists: true}
		guard := NewDuplicateGuard(repo, nil)

		assert.True(t, guard.IsDuplicate(ctx, 1, "+584141234567", models.MessageTypeReceived))
		guard.MarkSent(ctx, 1, "+584141234567", models.MessageTypeReceived)
		assert.Equal(t, 1, repo.calls)
	})
}
