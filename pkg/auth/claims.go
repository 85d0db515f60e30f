package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload is the identity stamped into a new access token. An
// empty JTI gets a random one.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Email    string
	Username string
	JTI      string
}

// AccessTokenClaims is the JWT body. The jti doubles as the session key.
type AccessTokenClaims struct {
	UserID   uuid.UUID `json:"userId"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks during parsing.
func (c AccessTokenClaims) Validate() error {
	switch {
	case c.UserID == uuid.Nil:
		return errors.New("token missing user id")
	case strings.TrimSpace(c.ID) == "":
		return errors.New("token missing jti")
	case c.Subject != "" && c.Subject != c.UserID.String():
		return errors.New("token subject does not match user id")
	}
	return nil
}
