// Package phone implements the number ingestion pipeline: normalization of
// heterogeneous phone representations into canonical WhatsApp E.164 form,
// validation, and extraction of phone candidates from courier QR payloads.
package phone

import (
	"strings"
)

// venezuelaCode is the country code assumed for unqualified numbers.
const venezuelaCode = "58"

// Options controls the normalization heuristics.
type Options struct {
	// AllowHeuristics enables the legacy recovery branches that reinterpret
	// ambiguous 9/11/12-digit inputs as Venezuelan subscriber numbers.
	// These branches can silently truncate or misread genuinely foreign
	// numbers (a 12-digit number with another country's code loses that
	// code); they are kept for compatibility with the data-entry behavior
	// the console's users expect. Disable for strict parsing.
	AllowHeuristics bool
}

// DefaultOptions matches the historical behavior of the console.
var DefaultOptions = Options{AllowHeuristics: true}

// Normalize converts an arbitrary phone representation into canonical
// +<countrycode><digits> form using DefaultOptions. The second return value
// is false when the input cannot be interpreted as a phone number.
func Normalize(raw string) (string, bool) {
	return NormalizeWithOptions(raw, DefaultOptions)
}

// NormalizeWithOptions is Normalize with explicit heuristic control.
func NormalizeWithOptions(raw string, opts Options) (string, bool) {
	digits := stripNonDigits(raw)
	if digits == "" {
		return "", false
	}

	// Already qualified with the Venezuelan country code.
	if strings.HasPrefix(digits, venezuelaCode) && len(digits) >= 12 {
		if len(digits) > 12 {
			if !opts.AllowHeuristics {
				return "", false
			}
			// Lossy: trailing digits are dropped on the assumption they are
			// entry noise. See Options.AllowHeuristics.
			digits = digits[:12]
		}
		return "+" + digits, true
	}

	// Local format with trunk prefix: 04XXxxxxxxx.
	if strings.HasPrefix(digits, "0") && len(digits) == 11 {
		return "+" + venezuelaCode + digits[1:], true
	}

	// Bare subscriber number without country code.
	if len(digits) == 10 {
		return "+" + venezuelaCode + digits, true
	}

	if !opts.AllowHeuristics {
		return "", false
	}

	// Recovery branches for malformed input below this point.
	switch {
	case len(digits) == 11:
		// Not 0-prefixed (handled above); assume a stray leading digit.
		return "+" + venezuelaCode + digits[1:], true
	case len(digits) == 9:
		// Assume the trunk digit was omitted along with the country code.
		return "+" + venezuelaCode + digits, true
	case len(digits) == 12:
		// Not 58-prefixed (handled above); assume a foreign-looking prefix
		// on what is really a Venezuelan number.
		return "+" + venezuelaCode + digits[2:], true
	}

	return "", false
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
