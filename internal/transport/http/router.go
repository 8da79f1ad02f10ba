// Package httptransport is the thin HTTP layer: routing, middleware order,
// and request/response shaping. Admission decisions live in the gate
// packages, not here.
package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"fleetgate/internal/gate/edge"
	"fleetgate/internal/gate/orggate"
	"fleetgate/internal/metrics"
	"fleetgate/pkg/domain"
	"fleetgate/pkg/platform/middleware/opstoken"
	"fleetgate/pkg/platform/middleware/request"
)

// Handler carries the dependencies the endpoint handlers need.
type Handler struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	checker  *orggate.Checker
	tokenTTL time.Duration

	limiterMu sync.Mutex
	limiters  map[domain.UserID]*rate.Limiter
}

// NewHandler builds the endpoint handler set.
func NewHandler(checker *orggate.Checker, tokenTTL time.Duration, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		metrics:  m,
		checker:  checker,
		tokenTTL: tokenTTL,
		limiters: make(map[domain.UserID]*rate.Limiter),
	}
}

// RouterConfig holds the knobs the router needs beyond its collaborators.
type RouterConfig struct {
	OnboardingPath string
	OpsTokenHash   string
	TrustedProxies []netip.Prefix
}

// NewRouter assembles the middleware chain and route table. Order matters:
// recovery first, then correlation and metadata, then the admission gate.
// The gate's exempt prefixes keep /health, /metrics, and /ops out of
// admission; /ops carries its own token check instead.
func NewRouter(h *Handler, gate *edge.Gate, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.Metadata(cfg.TrustedProxies))
	r.Use(request.RequestTime)
	r.Use(request.Logger(logger))
	r.Use(request.Timeout(30 * time.Second))
	r.Use(gate.Middleware)

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/api/csrf", h.handleTokenRefresh)
	r.Post("/api/auth/logout", h.handleLogout)
	r.Get("/api/drivers/state", h.handleDriverState)

	r.Group(func(r chi.Router) {
		r.Use(orggate.Require(h.checker, cfg.OnboardingPath, logger))
		r.Post("/api/loads", h.handleCreateLoad)
	})

	r.Route("/ops", func(r chi.Router) {
		r.Use(opstoken.Require(cfg.OpsTokenHash, logger))
		r.Post("/onboarding/invalidate", h.handleInvalidateOnboarding)
	})

	return r
}
