package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventorypro/inventorypro-backend/internal/adjustments"
	"github.com/inventorypro/inventorypro-backend/internal/auth"
	"github.com/inventorypro/inventorypro-backend/internal/dashboard"
	product "github.com/inventorypro/inventorypro-backend/internal/products"
	"github.com/inventorypro/inventorypro-backend/internal/users"
	pkgAuth "github.com/inventorypro/inventorypro-backend/pkg/auth"
	"github.com/inventorypro/inventorypro-backend/pkg/config"
	"github.com/inventorypro/inventorypro-backend/pkg/csvexport"
	pkgerrors "github.com/inventorypro/inventorypro-backend/pkg/errors"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
	"github.com/inventorypro/inventorypro-backend/pkg/metrics"
	"github.com/inventorypro/inventorypro-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memoryCache struct {
	mu       sync.Mutex
	counters map[string]int64
	values   map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{counters: map[string]int64{}, values: map[string]string{}}
}

func (m *memoryCache) Ping(context.Context) error { return nil }

func (m *memoryCache) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryCache) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryCache) IdempotencyKey(scope, id string) string {
	return "inv:idempotency:" + scope + ":" + id
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string, uuid.UUID) (bool, error) { return true, nil }

type stubAuthService struct{}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.Session, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func (stubAuthService) Logout(context.Context, string) error { return nil }

func (stubAuthService) IssueSession(context.Context, *users.UserDTO) (*auth.Session, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

type stubProducts struct {
	product.Service
	listed   int
	exported int
	detailID string
}

func (s *stubProducts) List(context.Context, uuid.UUID, product.ListInput) ([]product.ProductDTO, error) {
	s.listed++
	return []product.ProductDTO{}, nil
}

func (s *stubProducts) Get(_ context.Context, _ uuid.UUID, id uuid.UUID) (*product.ProductDTO, error) {
	s.detailID = id.String()
	return &product.ProductDTO{ID: id}, nil
}

func (s *stubProducts) Export(context.Context, uuid.UUID, time.Time) (*csvexport.File, error) {
	s.exported++
	return &csvexport.File{Filename: "products.csv", Data: []byte("ID\n")}, nil
}

type stubAdjustments struct {
	submitted int
}

func (s *stubAdjustments) Submit(_ context.Context, _ uuid.UUID, input adjustments.SubmitInput) (*adjustments.AdjustmentDTO, error) {
	s.submitted++
	return &adjustments.AdjustmentDTO{ID: uuid.New(), ProductID: input.ProductID, Type: input.Type, Units: input.Units}, nil
}

func (s *stubAdjustments) List(context.Context, uuid.UUID, adjustments.ListInput) (*pagination.Page[adjustments.ActivityDTO], error) {
	page := pagination.NewPage[adjustments.ActivityDTO](nil, 0, pagination.Params{})
	return &page, nil
}

func (s *stubAdjustments) Export(context.Context, uuid.UUID, string, time.Time) (*csvexport.File, error) {
	return &csvexport.File{Filename: "stock-adjustments.csv", Data: []byte("ID\n")}, nil
}

type stubDashboard struct{}

func (stubDashboard) Summary(context.Context, uuid.UUID) (*dashboard.Summary, error) {
	return &dashboard.Summary{}, nil
}

func (stubDashboard) Chart(context.Context, uuid.UUID, time.Time) ([]dashboard.MonthTotals, error) {
	return []dashboard.MonthTotals{}, nil
}

type harness struct {
	handler     http.Handler
	cfg         *config.Config
	products    *stubProducts
	adjustments *stubAdjustments
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		App:    config.AppConfig{Env: "test"},
		JWT:    config.JWTConfig{Secret: "secret", Issuer: "inventorypro", ExpirationMinutes: 60},
		Cookie: config.CookieConfig{Name: "auth-token"},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:        time.Minute,
			LoginIdentityLimit: 2,
			LoginIPLimit:       100,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	reg := prometheus.NewRegistry()

	h := &harness{cfg: cfg, products: &stubProducts{}, adjustments: &stubAdjustments{}}
	h.handler = NewRouter(cfg, logg, stubPinger{}, newMemoryCache(), stubSessions{}, metrics.NewHTTPMetrics(reg), reg, Services{
		Auth:        stubAuthService{},
		Products:    h.products,
		Adjustments: h.adjustments,
		Dashboard:   stubDashboard{},
	})
	return h
}

func (h *harness) token(t *testing.T) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(h.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "owner",
		JTI:      "access-1",
	})
	require.NoError(t, err)
	return token
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = h.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/api/me", "/api/products", "/api/stock-adjustments", "/api/dashboard", "/api/dashboard/chart"} {
		rec := h.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	assert.Zero(t, h.products.listed)
}

func TestCookieSessionReachesProducts(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: "auth-token", Value: h.token(t)})
	rec := h.do(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, h.products.listed)
}

func TestExportRouteTakesPrecedenceOverProductID(t *testing.T) {
	h := newHarness(t)
	token := h.token(t)

	req := httptest.NewRequest(http.MethodGet, "/api/products/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := h.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, h.products.exported)
	assert.Empty(t, h.products.detailID)

	id := uuid.New()
	req = httptest.NewRequest(http.MethodGet, "/api/products/"+id.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = h.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id.String(), h.products.detailID)
}

func TestLoginIsRateLimitedByUsername(t *testing.T) {
	h := newHarness(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"Owner","password":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		last = h.do(req)
		if i < 2 {
			assert.Equal(t, http.StatusUnauthorized, last.Code)
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestStockAdjustmentIdempotentReplay(t *testing.T) {
	h := newHarness(t)
	token := h.token(t)
	body := fmt.Sprintf(`{"productId":%q,"type":"incoming","units":4}`, uuid.NewString())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/stock-adjustments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "adj-1")
		return h.do(req)
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := send()
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, h.adjustments.submitted)
}

func TestMetricsEndpointExposesHTTPCounters(t *testing.T) {
	h := newHarness(t)
	h.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))

	rec := h.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/health/live")
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
