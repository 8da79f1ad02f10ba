// Package edge implements the edge admission gate: the first checkpoint every
// inbound request passes before reaching application code.
package edge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"fleetgate/internal/identity"
	"fleetgate/internal/metrics"
	"fleetgate/internal/platform/tracer"
	"fleetgate/pkg/requestcontext"
)

// SessionCookie is the cookie carrying the session credential.
const SessionCookie = "fg_session"

// Gate intercepts every request, classifies its path, and admits, redirects,
// or fences it. It holds no per-request state and is safe under arbitrary
// request concurrency.
type Gate struct {
	resolver      identity.Resolver
	routes        *RouteTable
	loginPath     string
	landingPath   string
	oracleTimeout time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        tracer.Tracer
}

// Option configures a Gate.
type Option func(*Gate)

// WithOracleTimeout bounds the single identity-oracle call per request.
func WithOracleTimeout(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.oracleTimeout = d
		}
	}
}

// WithMetrics attaches admission metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

// WithTracer attaches a tracer for admission spans.
func WithTracer(t tracer.Tracer) Option {
	return func(g *Gate) {
		if t != nil {
			g.tracer = t
		}
	}
}

// New constructs the gate. loginPath receives unauthenticated traffic,
// landingPath receives authenticated non-admins fenced off admin routes.
func New(resolver identity.Resolver, routes *RouteTable, loginPath, landingPath string, logger *slog.Logger, opts ...Option) *Gate {
	g := &Gate{
		resolver:      resolver,
		routes:        routes,
		loginPath:     loginPath,
		landingPath:   landingPath,
		oracleTimeout: 3 * time.Second,
		logger:        logger,
		tracer:        tracer.Noop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Middleware returns the admission handler wrapper.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Static and internal surfaces skip admission entirely.
		if g.routes.IsExempt(path) {
			g.count("exempt")
			next.ServeHTTP(w, r)
			return
		}

		ctx, span := g.tracer.Start(r.Context(), "edge.admission")
		defer span.End()
		span.SetAttribute("http.path", path)

		class := g.routes.Classify(path)
		span.SetAttribute("admission.classification", class.String())

		// Public paths never consult the identity oracle.
		if class == ClassPublic {
			g.count("public")
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		ident, ok := g.resolve(ctx, r, span)
		if !ok {
			g.count("redirect_login")
			span.SetAttribute("admission.outcome", "redirect_login")
			g.redirectToLogin(w, r)
			return
		}

		if class == ClassAdminOnly && !ident.Role.IsAdmin() {
			// A wrong decision here is a privilege leak, so the fence is a
			// plain redirect to safe ground rather than an error page.
			g.count("redirect_landing")
			span.SetAttribute("admission.outcome", "redirect_landing")
			g.logger.WarnContext(ctx, "non-admin fenced off admin route",
				"path", path,
				"user_id", ident.ID.String(),
				"role", ident.Role.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
			http.Redirect(w, r, g.landingPath, http.StatusFound)
			return
		}

		g.count("allowed")
		span.SetAttribute("admission.outcome", "allowed")

		ctx = requestcontext.WithUserID(ctx, ident.ID)
		ctx = requestcontext.WithOrgID(ctx, ident.OrgID)
		ctx = requestcontext.WithRole(ctx, ident.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolve performs the single bounded oracle call for this request. Any
// failure mode (missing credential, invalid session, oracle error, timeout)
// collapses to not-admitted: the gate fails closed.
func (g *Gate) resolve(ctx context.Context, r *http.Request, span tracer.Span) (*identity.Identity, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	oracleCtx, cancel := context.WithTimeout(ctx, g.oracleTimeout)
	defer cancel()

	start := time.Now()
	ident, err := g.resolver.Resolve(oracleCtx, cookie.Value)
	if g.metrics != nil {
		g.metrics.OracleLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if !errors.Is(err, identity.ErrUnauthenticated) {
			// Oracle unreachable or timed out. Treated identically to an
			// invalid credential, but worth a distinct signal.
			if g.metrics != nil {
				g.metrics.OracleFailures.Inc()
			}
			span.RecordError(err)
			g.logger.WarnContext(ctx, "identity oracle failed, treating as unauthenticated",
				"error", err,
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return nil, false
	}
	return ident, true
}

// redirectToLogin preserves the original path and query so the user returns
// where they were headed after signing in.
func (g *Gate) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := g.loginPath + "?callbackUrl=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusFound)
}

func (g *Gate) count(outcome string) {
	if g.metrics != nil {
		g.metrics.AdmissionDecisions.WithLabelValues(outcome).Inc()
	}
}
