package models

import (
	"testing"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/utils"
	"github.com/stretchr/testify/assert"
)

func TestLicenseIsExpired(t *testing.T) {
	validUntil := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		validUntil *time.Time
		now        time.Time
		expired    bool
	}{
		{
			name:       "no expiry date never expires",
			validUntil: nil,
			now:        time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
			expired:    false,
		},
		{
			name:       "valid through the end of the expiry day",
			validUntil: &validUntil,
			now:        time.Date(2026, 8, 29, 23, 59, 58, 0, time.UTC),
			expired:    false,
		},
		{
			name:       "expired the next day",
			validUntil: &validUntil,
			now:        time.Date(2026, 8, 30, 0, 0, 1, 0, time.UTC),
			expired:    true,
		},
		{
			name:       "well before expiry",
			validUntil: &validUntil,
			now:        time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
			expired:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lic := &License{ValidUntil: tt.validUntil}
			assert.Equal(t, tt.expired, lic.IsExpired(tt.now))
		})
	}
}

func TestLicenseIsConfigured(t *testing.T) {
	sid := "ACxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	token := "auth-token"
	number := "+14155238886"
	empty := ""

	tests := []struct {
		name       string
		lic        License
		configured bool
	}{
		{
			name:       "all credentials present",
			lic:        License{TwilioAccountSID: &sid, TwilioAuthToken: &token, TwilioWhatsappNumber: &number},
			configured: true,
		},
		{
			name:       "nothing set",
			lic:        License{},
			configured: false,
		},
		{
			name:       "missing auth token",
			lic:        License{TwilioAccountSID: &sid, TwilioWhatsappNumber: &number},
			configured: false,
		},
		{
			name:       "empty string counts as missing",
			lic:        License{TwilioAccountSID: &sid, TwilioAuthToken: &empty, TwilioWhatsappNumber: &number},
			configured: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.configured, tt.lic.IsConfigured())
		})
	}
}

func TestLicenseIsUsable(t *testing.T) {
	sid := "ACxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	token := "auth-token"
	number := "+14155238886"
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	configured := License{
		TwilioAccountSID:     &sid,
		TwilioAuthToken:      &token,
		TwilioWhatsappNumber: &number,
		IsActive:             utils.ToPtr(true),
	}

	t.Run("active and configured", func(t *testing.T) {
		lic := configured
		assert.True(t, lic.IsUsable(now))
	})

	t.Run("inactive", func(t *testing.T) {
		lic := configured
		lic.IsActive = utils.ToPtr(false)
		assert.False(t, lic.IsUsable(now))
	})

	t.Run("nil active flag", func(t *testing.T) {
		lic := configured
		lic.IsActive = nil
		assert.False(t, lic.IsUsable(now))
	})

	t.Run("expired", func(t *testing.T) {
		lic := configured
		lic.ValidUntil = &past
		assert.False(t, lic.IsUsable(now))
	})

	t.Run("unconfigured", func(t *testing.T) {
		lic := configured
		lic.TwilioAuthToken = nil
		assert.False(t, lic.IsUsable(now))
	})
}

func TestLicenseRemainingMessages(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		used      int
		remaining int
	}{
		{name: "unmetered plan", limit: 0, used: 500, remaining: -1},
		{name: "normal usage", limit: 1000, used: 300, remaining: 700},
		{name: "exhausted", limit: 100, used: 100, remaining: 0},
		{name: "overrun clamps at zero", limit: 100, used: 150, remaining: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lic := &License{MessageLimit: tt.limit, MessagesUsed: tt.used}
			assert.Equal(t, tt.remaining, lic.RemainingMessages())
		})
	}
}

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		required string
		want     bool
	}{
		{RoleUser, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleAdmin, RoleUser, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleSystemAdmin, false},
		{RoleSystemAdmin, RoleAdmin, true},
		{RoleSystemAdmin, RoleSystemAdmin, true},
		{"intruder", RoleUser, false},
		{RoleAdmin, "unknown", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RoleAtLeast(tt.role, tt.required), "RoleAtLeast(%q, %q)", tt.role, tt.required)
	}
}

func TestSessionValidity(t *testing.T) {
	t.Run("active unexpired session is valid", func(t *testing.T) {
		s := &UserSession{IsActive: utils.ToPtr(true), ExpiresAt: time.Now().Add(time.Hour)}
		assert.True(t, s.IsValid())
	})

	t.Run("expired session is invalid", func(t *testing.T) {
		s := &UserSession{IsActive: utils.ToPtr(true), ExpiresAt: time.Now().Add(-time.Hour)}
		assert.True(t, s.IsExpired())
		assert.False(t, s.IsValid())
	})

	t.Run("deactivated session is invalid", func(t *testing.T) {
		s := &UserSession{IsActive: utils.ToPtr(false), ExpiresAt: time.Now().Add(time.Hour)}
		assert.False(t, s.IsValid())
	})
}

func TestIsValidMessageType(t *testing.T) {
	assert.True(t, IsValidMessageType(MessageTypeReceived))
	assert.True(t, IsValidMessageType(MessageTypeReminder))
	assert.True(t, IsValidMessageType(MessageTypeReturn))
	assert.False(t, IsValidMessageType("broadcast"))
	assert.False(t, IsValidMessageType(""))
	assert.False(t, IsValidMessageType("RECEIVED"))
}
