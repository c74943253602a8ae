// Package models contains domain entities and business models for the messaging console
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role constants form a total order: user < admin < system_admin
const (
	RoleUser        = "user"
	RoleAdmin       = "admin"
	RoleSystemAdmin = "system_admin"
)

// roleRank maps roles onto the ordering used for route gating
var roleRank = map[string]int{
	RoleUser:        1,
	RoleAdmin:       2,
	RoleSystemAdmin: 3,
}

// RoleAtLeast reports whether role meets or exceeds the required role.
// Unknown roles never satisfy any requirement.
func RoleAtLeast(role, required string) bool {
	r, ok := roleRank[role]
	if !ok {
		return false
	}
	req, ok := roleRank[required]
	if !ok {
		return false
	}
	return r >= req
}

type UserProfile struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_profiles_uuid" json:"uuid"`

	// Username is stored lowercase; lookups are case-insensitive exact matches
	Username     string `gorm:"size:60;not null;uniqueIndex:uk_profiles_username" json:"username"`
	Email        string `gorm:"size:255;not null;uniqueIndex:uk_profiles_email" json:"email"`
	FullName     string `gorm:"size:255;not null" json:"full_name"`
	Role         string `gorm:"type:profile_role;size:20;not null;default:'user';index:idx_profiles_role" json:"role"`
	PasswordHash string `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	IsActive *bool `gorm:"default:true;index:idx_profiles_is_active" json:"is_active"`

	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_profiles_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// Relations
	License   *License       `gorm:"foreignKey:UserID" json:"license,omitempty"`
	Sessions  []UserSession  `gorm:"foreignKey:UserID" json:"-"`
	AuditLogs []AuditLog     `gorm:"foreignKey:UserID" json:"-"`
	Batches   []MessageBatch `gorm:"foreignKey:UserID" json:"-"`
}

func (UserProfile) TableName() string {
	return "profiles"
}

func (p *UserProfile) IsAdmin() bool {
	return RoleAtLeast(p.Role, RoleAdmin)
}

func (p *UserProfile) IsSystemAdmin() bool {
	return p.Role == RoleSystemAdmin
}

// UserProfileFilter represents filter criteria for profile queries
type UserProfileFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Username      *string
	Email         *string
	Role          *string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
