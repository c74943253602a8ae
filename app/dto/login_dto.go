// Package dto contains Data Transfer Objects for API request and response structures
package dto

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=60"`
	Password string `json:"password" validate:"required,min=4,max=100"`
}

// AuthUserDTO represents user data returned in authentication responses
type AuthUserDTO struct {
	ID          uint        `json:"id"`
	UUID        string      `json:"uuid"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FullName    string      `json:"full_name"`
	Role        string      `json:"role"`
	IsActive    *bool       `json:"is_active"`
	CreatedAt   string      `json:"created_at"`
	LastLoginAt *string     `json:"last_login_at,omitempty"`
	License     *LicenseDTO `json:"license,omitempty"`
}

// SessionDTO represents session tokens returned to the client
type SessionDTO struct {
	SessionToken string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    int     `json:"expires_in"`
	CreatedAt    string  `json:"created_at"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	User    AuthUserDTO `json:"user"`
	Session SessionDTO  `json:"session"`
}

// LogoutRequest represents the request to end a session
type LogoutRequest struct {
	SessionToken string `json:"session_token" validate:"required"`
}

// LogoutResponse represents the response after logout
type LogoutResponse struct {
	Message string `json:"message"`
}

// RefreshTokenRequest represents the request to refresh tokens
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse represents the response with fresh tokens
type RefreshTokenResponse struct {
	Session SessionDTO `json:"session"`
}

// ForgotPasswordRequest represents the request to start operator-assisted recovery
type ForgotPasswordRequest struct {
	Username string `json:"username" validate:"required,min=3,max=60"`
}

// ForgotPasswordResponse represents the response after requesting recovery
type ForgotPasswordResponse struct {
	Message string `json:"message"`
}
