package auth

import (
	"time"

	"github.com/inventorypro/inventorypro-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest contains the payload required to create an account.
type SignupRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,max=64"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// Session is an issued access token with the user it belongs to. The token
// itself travels in the auth cookie.
type Session struct {
	Token     string         `json:"-"`
	AccessID  string         `json:"-"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      *users.UserDTO `json:"user"`
}
