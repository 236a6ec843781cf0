package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8,max=72"`
	FullName string   `json:"full_name" validate:"required,min=1,max=100"`
	Role     UserRole `json:"role" validate:"omitempty,oneof=student alumni"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse returns the issued access token and the public user record.
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// VerifyResponse reports whether the presented token is valid.
type VerifyResponse struct {
	Valid bool  `json:"valid"`
	User  *User `json:"user,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens. Subject carries the user id.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}
