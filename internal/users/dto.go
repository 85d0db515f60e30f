package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/inventorypro/inventorypro-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	LowStockLimit int        `json:"lowStockLimit"`
	AvatarURL     *string    `json:"avatarUrl"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// SettingsDTO carries the per-user alert settings.
type SettingsDTO struct {
	LowStockLimit int `json:"lowStockLimit"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		LowStockLimit: u.LowStockLimit,
		AvatarURL:     u.AvatarURL,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}
