package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventorypro/inventorypro-backend/internal/auth"
	"github.com/inventorypro/inventorypro-backend/internal/users"
	pkgAuth "github.com/inventorypro/inventorypro-backend/pkg/auth"
	"github.com/inventorypro/inventorypro-backend/pkg/config"
	pkgerrors "github.com/inventorypro/inventorypro-backend/pkg/errors"
)

var (
	testJWT    = config.JWTConfig{Secret: "secret", Issuer: "inventorypro", ExpirationMinutes: 60}
	testCookie = config.CookieConfig{Name: "auth-token", Secure: true}
)

type stubRegisterService struct {
	user *users.UserDTO
	err  error
	got  auth.SignupRequest
}

func (s *stubRegisterService) Register(ctx context.Context, req auth.SignupRequest) (*users.UserDTO, error) {
	s.got = req
	return s.user, s.err
}

type stubAuthService struct {
	session   *auth.Session
	loginErr  error
	issueErr  error
	logoutErr error
	issued    []*users.UserDTO
	loggedOut []string
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.Session, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.session, nil
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.loggedOut = append(s.loggedOut, accessID)
	return s.logoutErr
}

func (s *stubAuthService) IssueSession(ctx context.Context, user *users.UserDTO) (*auth.Session, error) {
	s.issued = append(s.issued, user)
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	sess := *s.session
	sess.User = user
	return &sess, nil
}

func testSession(user *users.UserDTO) *auth.Session {
	return &auth.Session{
		Token:     "signed-token",
		AccessID:  "access-1",
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		User:      user,
	}
}

func TestAuthSignupCreatesUserAndSetsCookie(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Email: "owner@example.com", Username: "owner", LowStockLimit: 5}
	register := &stubRegisterService{user: user}
	svc := &stubAuthService{session: testSession(nil)}

	req := jsonRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":           "owner@example.com",
		"username":        "owner",
		"password":        "secret1",
		"confirmPassword": "secret1",
	})
	rec := httptest.NewRecorder()
	AuthSignup(register, svc, testCookie, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "owner@example.com", register.got.Email)
	require.Len(t, svc.issued, 1)
	assert.Equal(t, user.ID, svc.issued[0].ID)

	cookie := findCookie(rec, "auth-token")
	require.NotNil(t, cookie)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	env := decodeEnvelope(t, rec)
	var body struct {
		User users.UserDTO `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "owner", body.User.Username)
	assert.NotContains(t, rec.Body.String(), "signed-token")
}

func TestAuthSignupRejectsInvalidEmail(t *testing.T) {
	register := &stubRegisterService{}
	svc := &stubAuthService{session: testSession(nil)}

	req := jsonRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":           "not-an-email",
		"username":        "owner",
		"password":        "secret1",
		"confirmPassword": "secret1",
	})
	rec := httptest.NewRecorder()
	AuthSignup(register, svc, testCookie, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)
	assert.Contains(t, env.Error.Details, "email")
	assert.Empty(t, svc.issued)
}

func TestAuthSignupConflict(t *testing.T) {
	register := &stubRegisterService{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")}
	svc := &stubAuthService{session: testSession(nil)}

	req := jsonRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":           "owner@example.com",
		"username":        "owner",
		"password":        "secret1",
		"confirmPassword": "secret1",
	})
	rec := httptest.NewRecorder()
	AuthSignup(register, svc, testCookie, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Nil(t, findCookie(rec, "auth-token"))
}

func TestAuthLoginSetsCookie(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Username: "owner"}
	sess := testSession(user)
	svc := &stubAuthService{session: sess}

	req := jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "owner", "password": "secret1"})
	rec := httptest.NewRecorder()
	AuthLogin(svc, testCookie, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := findCookie(rec, "auth-token")
	require.NotNil(t, cookie)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.True(t, cookie.Expires.Equal(sess.ExpiresAt))
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}

	req := jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "owner", "password": "nope"})
	rec := httptest.NewRecorder()
	AuthLogin(svc, testCookie, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid credentials", env.Error.Message)
}

func TestAuthLoginRequiresFields(t *testing.T) {
	svc := &stubAuthService{}

	req := jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "owner"})
	rec := httptest.NewRecorder()
	AuthLogin(svc, testCookie, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthLogoutRevokesSessionAndExpiresCookie(t *testing.T) {
	svc := &stubAuthService{}
	token, err := pkgAuth.MintAccessToken(testJWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "owner",
		JTI:      "access-42",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "auth-token", Value: token})
	rec := httptest.NewRecorder()
	AuthLogout(svc, testJWT, testCookie, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"access-42"}, svc.loggedOut)
	cookie := findCookie(rec, "auth-token")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestAuthLogoutWithoutCookieStillClears(t *testing.T) {
	svc := &stubAuthService{}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "auth-token", Value: "garbage"})
	rec := httptest.NewRecorder()
	AuthLogout(svc, testJWT, testCookie, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.loggedOut)
	assert.NotNil(t, findCookie(rec, "auth-token"))
}
