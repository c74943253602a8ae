package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRecipientPhone(t *testing.T) {
	t.Run("FieldEightHit", func(t *testing.T) {
		got, ok := ExtractRecipientPhone("a;b;c;d;e;f;g;h;04245939950;Juan")
		require.True(t, ok)
		assert.Equal(t, "+584245939950", got)
	})

	t.Run("FieldNineFallback", func(t *testing.T) {
		got, ok := ExtractRecipientPhone("a;b;c;d;e;f;g;h;Juan Perez;04245939950")
		require.True(t, ok)
		assert.Equal(t, "+584245939950", got)
	})

	t.Run("ShortCodeInFieldEightIsSkipped", func(t *testing.T) {
		// 5-digit courier short codes must not be mistaken for phones.
		got, ok := ExtractRecipientPhone("a;b;c;d;e;f;g;h;12345;04245939950")
		require.True(t, ok)
		assert.Equal(t, "+584245939950", got)
	})

	t.Run("ScanPrefersSecondCandidate", func(t *testing.T) {
		// When the positional fields miss, the first scanned number is
		// usually the sender; the second is the recipient.
		got, ok := ExtractRecipientPhone("guide 04125550001 dest 04245939950 end")
		require.True(t, ok)
		assert.Equal(t, "+584245939950", got)
	})

	t.Run("ScanSingleCandidate", func(t *testing.T) {
		got, ok := ExtractRecipientPhone("no structure here 04245939950 trailing")
		require.True(t, ok)
		assert.Equal(t, "+584245939950", got)
	})

	t.Run("NoCandidateAnywhere", func(t *testing.T) {
		_, ok := ExtractRecipientPhone("a;b;c;d;e;f;g;h;Juan;Perez")
		assert.False(t, ok)
	})

	t.Run("TooFewFieldsFallsBackToScan", func(t *testing.T) {
		got, ok := ExtractRecipientPhone("x;04245939950")
		require.True(t, ok)
		assert.Equal(t, "+584245939950", got)
	})

	t.Run("EmptyPayload", func(t *testing.T) {
		_, ok := ExtractRecipientPhone("")
		assert.False(t, ok)
	})
}

func TestExtractSenderPhone(t *testing.T) {
	t.Run("FieldFourHit", func(t *testing.T) {
		got, ok := ExtractSenderPhone("a;b;c;d;04125550001;e;f")
		require.True(t, ok)
		assert.Equal(t, "+584125550001", got)
	})

	t.Run("FieldFiveAfterNameInFour", func(t *testing.T) {
		got, ok := ExtractSenderPhone("a;b;c;d;Maria Lopez;04125550001;f")
		require.True(t, ok)
		assert.Equal(t, "+584125550001", got)
	})

	t.Run("FieldSixLastResort", func(t *testing.T) {
		got, ok := ExtractSenderPhone("a;b;c;d;;;04125550001")
		require.True(t, ok)
		assert.Equal(t, "+584125550001", got)
	})

	t.Run("EmailInSlotIsRejected", func(t *testing.T) {
		// An email at index 5 with no valid phone at 4/6 yields no sender,
		// and must not fall back to the recipient-scan heuristic even when
		// a recipient phone exists later in the payload.
		_, ok := ExtractSenderPhone("a;b;c;d;Maria;maria@example.com;n/a;g;04245939950")
		assert.False(t, ok)
	})

	t.Run("FormattedNumberInSlotIsRejected", func(t *testing.T) {
		_, ok := ExtractSenderPhone("a;b;c;d;0412-555-0001;x;y")
		assert.False(t, ok)
	})

	t.Run("ShortCodeIsRejected", func(t *testing.T) {
		_, ok := ExtractSenderPhone("a;b;c;d;12345;x;y")
		assert.False(t, ok)
	})

	t.Run("NoFallbackScan", func(t *testing.T) {
		_, ok := ExtractSenderPhone("04125550001;b;c;d;x;y;z")
		assert.False(t, ok)
	})
}
