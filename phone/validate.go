package phone

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// whatsappFormat matches a canonical WhatsApp-addressable number: a leading
// plus, a country code starting 1-9, and 10-15 digits in total.
var whatsappFormat = regexp.MustCompile(`^\+[1-9]\d{9,14}$`)

// Validation errors for raw input, before normalization is attempted.
var (
	ErrEmpty    = errors.New("phone number is empty")
	ErrTooShort = errors.New("phone number is too short: at least 10 digits are required")
	ErrTooLong  = errors.New("phone number is too long: at most 15 digits are allowed")
)

// ValidateWhatsAppFormat checks that phone is in canonical form. It is an
// independent check applied after normalization; both must pass before a
// number is accepted into an outgoing list.
func ValidateWhatsAppFormat(phone string) error {
	if phone == "" {
		return ErrEmpty
	}
	if !strings.HasPrefix(phone, "+") {
		return fmt.Errorf("number %q must start with +", phone)
	}
	if !whatsappFormat.MatchString(phone) {
		return fmt.Errorf("number %q is not a valid international WhatsApp number", phone)
	}
	return nil
}

// ValidatePhoneNumber rejects obviously malformed raw input before
// normalization is attempted, with a user-facing message specific to the
// shape of the input.
func ValidatePhoneNumber(raw string) error {
	digits := stripNonDigits(raw)
	if digits == "" {
		return ErrEmpty
	}
	if len(digits) < 10 {
		// 9-digit inputs have a recovery heuristic in Normalize, but manual
		// entry is held to the stricter rule.
		return ErrTooShort
	}
	if len(digits) > 15 {
		return ErrTooLong
	}

	trimmed := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(trimmed, "+"):
		if !whatsappFormat.MatchString("+" + digits) {
			return fmt.Errorf("international number %q must be + followed by a country code and 10-15 digits", trimmed)
		}
	case strings.HasPrefix(digits, venezuelaCode):
		if len(digits) != 12 && len(digits) != 10 {
			return fmt.Errorf("number starting with %s must have 12 digits (%s + 10-digit subscriber number)", venezuelaCode, venezuelaCode)
		}
	case strings.HasPrefix(digits, "0"):
		if len(digits) != 11 {
			return fmt.Errorf("local number starting with 0 must have 11 digits (0 + operator code + subscriber number)")
		}
	default:
		if len(digits) != 10 {
			return fmt.Errorf("number without country code must have exactly 10 digits")
		}
	}
	return nil
}
