package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fleetgate/internal/gate/edge"
	"fleetgate/internal/gate/orggate"
	"fleetgate/internal/identity"
	"fleetgate/internal/metrics"
	"fleetgate/internal/onboarding"
	"fleetgate/internal/onboarding/store"
	"fleetgate/pkg/domain"
	"fleetgate/pkg/secrets"
)

// stubResolver admits one known credential.
type stubResolver struct {
	credential string
	identity   *identity.Identity
}

func (s *stubResolver) Resolve(_ context.Context, credential string) (*identity.Identity, error) {
	if credential == s.credential {
		return s.identity, nil
	}
	return nil, identity.ErrUnauthenticated
}

type HandlersSuite struct {
	suite.Suite

	router   http.Handler
	memory   *store.MemoryStore
	orgID    domain.OrgID
	userID   domain.UserID
	opsToken string
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func (s *HandlersSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWith(prometheus.NewRegistry())

	s.userID = domain.UserID(uuid.New())
	s.orgID = domain.OrgID(uuid.New())
	s.opsToken = "ops-secret"

	resolver := &stubResolver{
		credential: "good-session",
		identity: &identity.Identity{
			ID:    s.userID,
			OrgID: s.orgID,
			Role:  domain.RoleDispatcher,
		},
	}

	routes := edge.NewRouteTable(
		[]string{"/health", "/metrics", "/ops/"},
		[]string{"/login"},
		[]string{"/admin"},
	)
	gate := edge.New(resolver, routes, "/login", "/dispatch", logger, edge.WithMetrics(m))

	s.memory = store.NewMemory()
	s.memory.Set(s.orgID, onboarding.StatusOperational)
	checker := orggate.NewChecker(s.memory, logger, orggate.WithMetrics(m))

	opsHash, err := secrets.Hash(s.opsToken)
	s.Require().NoError(err)

	h := NewHandler(checker, 30*time.Minute, logger, m)
	s.router = NewRouter(h, gate, RouterConfig{
		OnboardingPath: "/onboarding",
		OpsTokenHash:   opsHash,
	}, logger)
}

func (s *HandlersSuite) authedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: edge.SessionCookie, Value: "good-session"})
	return req
}

func (s *HandlersSuite) TestTokenRefreshMintsToken() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, s.authedRequest(http.MethodPost, "/api/csrf", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"token"`)
	s.Contains(rec.Body.String(), `"expiresIn":1800`)
}

func (s *HandlersSuite) TestTokenRefreshRequiresSession() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/csrf", nil))

	s.Equal(http.StatusFound, rec.Code)
	s.Contains(rec.Header().Get("Location"), "/login?callbackUrl=")
}

func (s *HandlersSuite) TestTokenRefreshThrottlesBursts() {
	var last int
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, s.authedRequest(http.MethodPost, "/api/csrf", nil))
		last = rec.Code
	}
	s.Equal(http.StatusTooManyRequests, last)
}

func (s *HandlersSuite) TestLogoutAlwaysAcknowledges() {
	rec := httptest.NewRecorder()
	req := s.authedRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/127.0")
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func (s *HandlersSuite) TestDriverStateDerivation() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, s.authedRequest(http.MethodGet,
		"/api/drivers/state?hasLoad=true&hasDeparted=true&docRejected=true", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"state":"DOC_REJECTED"}`, rec.Body.String())
}

func (s *HandlersSuite) TestDriverStateReadsDepartureSignal() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, s.authedRequest(http.MethodGet,
		"/api/drivers/state?hasLoad=true&hasDeparted=true", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"state":"EN_ROUTE"}`, rec.Body.String())
}

func (s *HandlersSuite) TestDriverStateDefaultsToAvailable() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, s.authedRequest(http.MethodGet, "/api/drivers/state", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"state":"AVAILABLE"}`, rec.Body.String())
}

func (s *HandlersSuite) TestCreateLoadForOperationalOrg() {
	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"reference":"LD-1042"}`)
	s.router.ServeHTTP(rec, s.authedRequest(http.MethodPost, "/api/loads", body))

	s.Equal(http.StatusCreated, rec.Code)
	s.Contains(rec.Body.String(), `"reference":"LD-1042"`)
	s.Contains(rec.Body.String(), `"status":"DRAFT"`)
}

func (s *HandlersSuite) TestCreateLoadRejectedWhenNotOperational() {
	s.memory.Set(s.orgID, onboarding.StatusNotActivated)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"reference":"LD-1043"}`)
	s.router.ServeHTTP(rec, s.authedRequest(http.MethodPost, "/api/loads", body))

	s.Equal(http.StatusForbidden, rec.Code)
	s.JSONEq(`{"code":"ORG_NOT_OPERATIONAL","message":"Your organization has not completed setup. Finish onboarding to unlock this action.","ctaHref":"/onboarding"}`, rec.Body.String())
}

func (s *HandlersSuite) TestOpsInvalidateRequiresToken() {
	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"orgId":"` + s.orgID.String() + `"}`)
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ops/onboarding/invalidate", body))

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlersSuite) TestOpsInvalidateDropsCachedAnswer() {
	// Warm the cache with the operational answer, flip the store, then
	// invalidate through the ops surface. The next mutation must see the
	// new status immediately instead of waiting out the TTL.
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, s.authedRequest(http.MethodPost, "/api/loads", strings.NewReader(`{}`)))
	s.Require().Equal(http.StatusCreated, rec.Code)

	s.memory.Set(s.orgID, onboarding.StatusNotActivated)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ops/onboarding/invalidate",
		strings.NewReader(`{"orgId":"`+s.orgID.String()+`"}`))
	req.Header.Set("X-Ops-Token", s.opsToken)
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, s.authedRequest(http.MethodPost, "/api/loads", strings.NewReader(`{}`)))
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlersSuite) TestOpsInvalidateValidatesOrgID() {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ops/onboarding/invalidate",
		strings.NewReader(`{"orgId":"not-a-uuid"}`))
	req.Header.Set("X-Ops-Token", s.opsToken)
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "validation_failed")
}

func (s *HandlersSuite) TestHealthBypassesAdmission() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func TestBoolParam(t *testing.T) {
	assert.True(t, boolParam("true"))
	assert.True(t, boolParam("1"))
	assert.False(t, boolParam("false"))
	assert.False(t, boolParam(""))
	assert.False(t, boolParam("yes"))
}

func TestLimiterIsPerUser(t *testing.T) {
	h := NewHandler(nil, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	a := domain.UserID(uuid.New())
	b := domain.UserID(uuid.New())

	require.Same(t, h.limiterFor(a), h.limiterFor(a))
	assert.NotSame(t, h.limiterFor(a), h.limiterFor(b))
}
