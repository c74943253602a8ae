package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Messaging constants
const (
	// VenezuelaCountryCode is the default country code assumed for
	// unqualified phone numbers
	VenezuelaCountryCode = "58"

	// BatchResultDisplaySeconds is how long clients are told to display
	// the batch summary before clearing the working list
	BatchResultDisplaySeconds = 2

	// MaxBatchRecipients caps the number of recipients per send operation
	MaxBatchRecipients = 500
)
