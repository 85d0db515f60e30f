package controllers

import (
	"context"
	"net/http"

	"github.com/inventorypro/inventorypro-backend/api/middleware"
	"github.com/inventorypro/inventorypro-backend/api/responses"
	"github.com/inventorypro/inventorypro-backend/api/validators"
	"github.com/inventorypro/inventorypro-backend/internal/auth"
	"github.com/inventorypro/inventorypro-backend/internal/users"
	"github.com/inventorypro/inventorypro-backend/pkg/config"
	"github.com/inventorypro/inventorypro-backend/pkg/errors"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
)

const (
	avatarFormField    = "avatar"
	multipartOverhead  = 1 << 20
	multipartMemoryCap = 1 << 20
)

type sessionIssuer interface {
	IssueSession(ctx context.Context, user *users.UserDTO) (*auth.Session, error)
	Logout(ctx context.Context, accessID string) error
}

type updateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=64"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

type updateSettingsRequest struct {
	LowStockLimit *int `json:"lowStockLimit" validate:"required,gte=0"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

func MeProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "user service unavailable"))
			return
		}
		user, err := svc.Profile(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// MeUpdateProfile applies the profile patch and swaps the caller onto a
// freshly minted session so the token claims carry the new identity.
func MeUpdateProfile(svc users.Service, sessions sessionIssuer, cookie config.CookieConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || sessions == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "user service unavailable"))
			return
		}

		var req updateProfileRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		user, err := svc.UpdateProfile(ctx, middleware.UserIDFromContext(ctx), users.UpdateProfileInput{
			Username: req.Username,
			Email:    req.Email,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sess, err := sessions.IssueSession(ctx, user)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if previous := middleware.AccessIDFromContext(ctx); previous != "" {
			if err := sessions.Logout(ctx, previous); err != nil {
				logg.Error(ctx, "revoke previous session failed", err)
			}
		}

		setSessionCookie(w, cookie, sess)
		responses.WriteSuccess(w, user)
	}
}

func MeSettings(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "user service unavailable"))
			return
		}
		settings, err := svc.Settings(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

func MeUpdateSettings(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "user service unavailable"))
			return
		}

		var req updateSettingsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings, err := svc.UpdateSettings(r.Context(), middleware.UserIDFromContext(r.Context()), users.SettingsDTO{
			LowStockLimit: *req.LowStockLimit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

func MeChangePassword(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "user service unavailable"))
			return
		}

		var req changePasswordRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := svc.ChangePassword(r.Context(), middleware.UserIDFromContext(r.Context()), users.ChangePasswordInput{
			CurrentPassword: req.CurrentPassword,
			NewPassword:     req.NewPassword,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "password_updated"})
	}
}

// MeUploadAvatar streams the multipart "avatar" part to storage.
func MeUploadAvatar(svc users.Service, avatar config.AvatarConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "user service unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, avatar.MaxBytes()+multipartOverhead)
		if err := r.ParseMultipartForm(multipartMemoryCap); err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeValidation, err, "invalid multipart upload"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile(avatarFormField)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeValidation, err, "avatar file is required"))
			return
		}
		defer file.Close()

		user, err := svc.UploadAvatar(r.Context(), middleware.UserIDFromContext(r.Context()), users.AvatarUpload{
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}
