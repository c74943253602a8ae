package phone

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"BareTenDigits", "4245939950", "+584245939950", true},
		{"TrunkPrefixed", "04245939950", "+584245939950", true},
		{"AlreadyQualified", "584245939950", "+584245939950", true},
		{"QualifiedWithPlus", "+584245939950", "+584245939950", true},
		{"Formatted", "(0424) 593-99.50", "+584245939950", true},
		{"QualifiedTooLongTruncates", "5842459399501", "+584245939950", true},
		{"ElevenNoTrunkDropsFirst", "14245939950", "+584245939950", true},
		{"NineDigitsPrepends", "424593995", "+58424593995", true},
		{"TwelveForeignReinterpreted", "124245939950", "+584245939950", true},
		{"Empty", "", "", false},
		{"NoDigits", "abc", "", false},
		{"WayTooShort", "42459", "", false},
		{"ThirteenUnqualified", "1242459399501", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Normalize(tc.in)
			require.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeAllTenDigitStrings(t *testing.T) {
	// For every 10-digit numeric string d, normalize(d) == "+58" + d.
	for _, d := range []string{"0000000000", "4121234567", "9999999999", "4265550123"} {
		got, ok := Normalize(d)
		require.True(t, ok, d)
		assert.Equal(t, "+58"+d, got)
	}
}

func TestNormalizeZeroPrefixedElevenDigits(t *testing.T) {
	// For every 0-prefixed 11-digit numeric string d, normalize(d) == "+58" + d[1:].
	for _, d := range []string{"04121234567", "04265550123", "01234567890"} {
		got, ok := Normalize(d)
		require.True(t, ok, d)
		assert.Equal(t, "+58"+d[1:], got)
	}
}

func TestNormalizeRoundTripsThroughWhatsAppValidator(t *testing.T) {
	// Every successful normalization must satisfy the independent
	// WhatsApp format validator.
	inputs := []string{
		"4245939950", "04245939950", "584245939950", "+58 424 593 9950",
		"14245939950", "124245939950", "5842459399501",
	}
	for _, in := range inputs {
		normalized, ok := Normalize(in)
		require.True(t, ok, in)
		assert.NoError(t, ValidateWhatsAppFormat(normalized), in)
	}
}

func TestNormalizeStrictModeRejectsHeuristics(t *testing.T) {
	strict := Options{AllowHeuristics: false}

	// Unambiguous forms still pass.
	got, ok := NormalizeWithOptions("04245939950", strict)
	require.True(t, ok)
	assert.Equal(t, "+584245939950", got)

	// Recovery branches are off.
	for _, in := range []string{"14245939950", "424593995", "124245939950", "5842459399501"} {
		_, ok := NormalizeWithOptions(in, strict)
		assert.False(t, ok, in)
	}
}

func TestValidateWhatsAppFormat(t *testing.T) {
	assert.NoError(t, ValidateWhatsAppFormat("+584245939950"))
	assert.NoError(t, ValidateWhatsAppFormat("+15551234567"))

	assert.Error(t, ValidateWhatsAppFormat(""))
	assert.Error(t, ValidateWhatsAppFormat("584245939950"))  // missing +
	assert.Error(t, ValidateWhatsAppFormat("+0584245939950")) // country code cannot start with 0
	assert.Error(t, ValidateWhatsAppFormat("+58424593"))      // too few digits
	assert.Error(t, ValidateWhatsAppFormat(fmt.Sprintf("+5%s", "8424593995012345"))) // too many
}

func TestValidatePhoneNumber(t *testing.T) {
	assert.NoError(t, ValidatePhoneNumber("4245939950"))
	assert.NoError(t, ValidatePhoneNumber("04245939950"))
	assert.NoError(t, ValidatePhoneNumber("584245939950"))
	assert.NoError(t, ValidatePhoneNumber("+584245939950"))

	assert.ErrorIs(t, ValidatePhoneNumber(""), ErrEmpty)
	assert.ErrorIs(t, ValidatePhoneNumber("424593"), ErrTooShort)
	assert.ErrorIs(t, ValidatePhoneNumber("424593995"), ErrTooShort)
	assert.ErrorIs(t, ValidatePhoneNumber("1234567890123456"), ErrTooLong)

	// Shape-specific complaints.
	assert.Error(t, ValidatePhoneNumber("58424593995"))  // 58-prefixed but 11 digits
	assert.Error(t, ValidatePhoneNumber("042459399"))    // 0-prefixed but short
	assert.Error(t, ValidatePhoneNumber("42459399501"))  // bare but 11 digits
}
