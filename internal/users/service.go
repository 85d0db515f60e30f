package users

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inventorypro/inventorypro-backend/pkg/config"
	"github.com/inventorypro/inventorypro-backend/pkg/db"
	"github.com/inventorypro/inventorypro-backend/pkg/db/models"
	pkgerrors "github.com/inventorypro/inventorypro-backend/pkg/errors"
	"github.com/inventorypro/inventorypro-backend/pkg/security"
	"github.com/inventorypro/inventorypro-backend/pkg/storage/gcs"
)

// Service exposes the signed-in user's profile and settings.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	Settings(ctx context.Context, userID uuid.UUID) (*SettingsDTO, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, input SettingsDTO) (*SettingsDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error
	UploadAvatar(ctx context.Context, userID uuid.UUID, input AvatarUpload) (*UserDTO, error)
}

// UpdateProfileInput holds optional profile changes.
type UpdateProfileInput struct {
	Username *string
	Email    *string
}

// ChangePasswordInput carries a password rotation request.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// AvatarUpload is an image streamed from a multipart form.
type AvatarUpload struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

type avatarStore interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (*gcs.UploadResult, error)
}

// ServiceParams bundles the dependencies of the users service.
type ServiceParams struct {
	Repo           *Repository
	Avatars        avatarStore
	PasswordConfig config.PasswordConfig
	AvatarConfig   config.AvatarConfig
}

type service struct {
	repo      *Repository
	avatars   avatarStore
	passwords config.PasswordConfig
	avatar    config.AvatarConfig
}

// NewService constructs the users service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{
		repo:      params.Repo,
		avatars:   params.Avatars,
		passwords: params.PasswordConfig,
		avatar:    params.AvatarConfig,
	}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	if input.Username == nil && input.Email == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username or email is required")
	}

	updates := map[string]any{}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "username cannot be empty")
		}
		taken, err := s.repo.UsernameTaken(ctx, username, &userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check username")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username is already taken")
		}
		updates["username"] = username
	}
	if input.Email != nil {
		email, err := NormalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		taken, err := s.repo.EmailTaken(ctx, email, &userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check email")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
		}
		updates["email"] = email
	}

	if _, err := s.load(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "username or email is already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update profile")
	}
	return s.Profile(ctx, userID)
}

func (s *service) Settings(ctx context.Context, userID uuid.UUID) (*SettingsDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &SettingsDTO{LowStockLimit: user.LowStockLimit}, nil
}

func (s *service) UpdateSettings(ctx context.Context, userID uuid.UUID, input SettingsDTO) (*SettingsDTO, error) {
	if input.LowStockLimit < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lowStockLimit cannot be negative")
	}
	if _, err := s.load(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]any{"low_stock_limit": input.LowStockLimit}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update settings")
	}
	return s.Settings(ctx, userID)
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	if err := security.CheckPolicy(input.NewPassword, s.passwords); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	valid, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeValidation, "current password is incorrect")
	}
	hash, err := security.HashPassword(input.NewPassword, s.passwords)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.Update(ctx, userID, map[string]any{"password_hash": hash}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update password")
	}
	return nil
}

func (s *service) UploadAvatar(ctx context.Context, userID uuid.UUID, input AvatarUpload) (*UserDTO, error) {
	if s.avatars == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "avatar storage is not configured")
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "avatar file is required")
	}
	maxBytes := s.avatar.MaxBytes()
	if input.Size > maxBytes {
		return nil, avatarTooLarge(maxBytes)
	}
	contentType, ext, err := avatarExtension(input.ContentType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	// input.Size is client supplied; measure the body before upload.
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(input.Body, maxBytes+1)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read avatar")
	}
	if int64(buf.Len()) > maxBytes {
		return nil, avatarTooLarge(maxBytes)
	}
	data := buf.Bytes()
	if sniffed := http.DetectContentType(data); sniffed != contentType {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "avatar content does not match its declared type")
	}

	if _, err := s.load(ctx, userID); err != nil {
		return nil, err
	}

	result, err := s.avatars.Upload(ctx, avatarObjectName(userID, ext), contentType, bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage: upload avatar")
	}

	if err := s.repo.Update(ctx, userID, map[string]any{"avatar_url": result.PublicURL}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save avatar url")
	}
	return s.Profile(ctx, userID)
}

func avatarTooLarge(maxBytes int64) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("avatar must be %d MB or smaller", maxBytes>>20))
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}
	return user, nil
}

// NormalizeEmail lower-cases and validates an email address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email must be a valid address")
	}
	return email, nil
}
