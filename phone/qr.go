package phone

import (
	"regexp"
	"strings"
)

// Courier QR payloads are semicolon-delimited positional records whose
// schema is owned by an external logistics system. Only a handful of field
// positions are consumed here and the schema is undocumented, so every
// positional assumption below is pinned by tests.
const (
	recipientFieldFirst = 8
	recipientFieldAlt   = 9
)

var senderFields = []int{4, 5, 6}

var (
	phoneToken = regexp.MustCompile(`^\d{9,11}$`)
	phoneScan  = regexp.MustCompile(`\b\d{9,11}\b`)
)

// ExtractRecipientPhone parses a QR payload and returns the normalized
// recipient phone number. Used by the received and reminder flows. Returns
// false when no plausible candidate exists anywhere in the payload.
func ExtractRecipientPhone(payload string) (string, bool) {
	fields := strings.Split(payload, ";")

	for _, idx := range []int{recipientFieldFirst, recipientFieldAlt} {
		if idx >= len(fields) {
			continue
		}
		token := strings.TrimSpace(fields[idx])
		if phoneToken.MatchString(token) {
			if normalized, ok := Normalize(token); ok {
				return normalized, true
			}
		}
	}

	// Positional lookup failed; scan the whole payload. When two or more
	// candidates appear the first is usually the sender, so prefer the
	// second.
	candidates := phoneScan.FindAllString(payload, -1)
	if len(candidates) == 0 {
		return "", false
	}
	pick := candidates[0]
	if len(candidates) >= 2 {
		pick = candidates[1]
	}
	return Normalize(pick)
}

// ExtractSenderPhone parses a QR payload and returns the normalized sender
// phone number. Used by the return flow. There is deliberately no fallback
// scan: misattributing an intermediary's or the recipient's number as the
// sender's would address a return to the wrong party, so absence is
// reported to the caller as "sender has no phone on record" rather than a
// generic invalid-QR error.
func ExtractSenderPhone(payload string) (string, bool) {
	fields := strings.Split(payload, ";")

	for _, idx := range senderFields {
		if idx >= len(fields) {
			continue
		}
		token := strings.TrimSpace(fields[idx])
		if token == "" || strings.ContainsAny(token, "@ -()") {
			// Emails, names and formatted numbers show up in these slots.
			continue
		}
		if phoneToken.MatchString(token) {
			if normalized, ok := Normalize(token); ok {
				return normalized, true
			}
		}
	}
	return "", false
}
