package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/inventorypro/inventorypro-backend/api/middleware"
	"github.com/inventorypro/inventorypro-backend/api/responses"
	"github.com/inventorypro/inventorypro-backend/api/validators"
	"github.com/inventorypro/inventorypro-backend/internal/auth"
	pkgAuth "github.com/inventorypro/inventorypro-backend/pkg/auth"
	"github.com/inventorypro/inventorypro-backend/pkg/config"
	"github.com/inventorypro/inventorypro-backend/pkg/errors"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
)

type sessionRevoker interface {
	Logout(ctx context.Context, accessID string) error
}

// AuthSignup creates the account and signs the new user in.
func AuthSignup(register auth.RegisterService, svc auth.Service, cookie config.CookieConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if register == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "auth service unavailable"))
			return
		}

		var req auth.SignupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := register.Register(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := svc.IssueSession(r.Context(), user)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		setSessionCookie(w, cookie, sess)
		responses.WriteSuccessStatus(w, http.StatusCreated, sess)
	}
}

func AuthLogin(svc auth.Service, cookie config.CookieConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "auth service unavailable"))
			return
		}

		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := svc.Login(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		setSessionCookie(w, cookie, sess)
		responses.WriteSuccess(w, sess)
	}
}

// AuthLogout revokes whatever session the presented cookie names and always
// expires the cookie, so a stale or forged token still logs the browser out.
func AuthLogout(svc sessionRevoker, cfg config.JWTConfig, cookie config.CookieConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "auth service unavailable"))
			return
		}

		if token := middleware.TokenFromRequest(r, cookie.Name); token != "" {
			if claims, err := pkgAuth.ParseAccessToken(cfg, token); err == nil && claims.ID != "" {
				if err := svc.Logout(r.Context(), claims.ID); err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}
		}

		clearSessionCookie(w, cookie)
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

func setSessionCookie(w http.ResponseWriter, cfg config.CookieConfig, sess *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(cfg),
		Value:    sess.Token,
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, cfg config.CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(cfg),
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func cookieName(cfg config.CookieConfig) string {
	if cfg.Name == "" {
		return "auth-token"
	}
	return cfg.Name
}
