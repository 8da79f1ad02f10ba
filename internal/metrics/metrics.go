package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for admission and session lifecycle.
type Metrics struct {
	AdmissionDecisions *prometheus.CounterVec
	OracleLatency      prometheus.Histogram
	OracleFailures     prometheus.Counter

	OrgGateRejections    prometheus.Counter
	OnboardingCacheHits  prometheus.Counter
	OnboardingCacheMiss  prometheus.Counter
	OnboardingStoreReads prometheus.Counter

	TokensIssued     prometheus.Counter
	RefreshThrottled prometheus.Counter

	KeepaliveRefreshes *prometheus.CounterVec
	IdleLogouts        prometheus.Counter
}

// New registers collectors on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers collectors on the given registerer. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AdmissionDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetgate_admission_decisions_total",
			Help: "Edge admission gate decisions by outcome",
		}, []string{"outcome"}),
		OracleLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetgate_oracle_latency_seconds",
			Help:    "Latency of session identity oracle calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 3},
		}),
		OracleFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "fleetgate_oracle_failures_total",
			Help: "Oracle calls that errored or timed out (treated as unauthenticated)",
		}),
		OrgGateRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "fleetgate_org_gate_rejections_total",
			Help: "Mutating operations rejected because the organization is not operational",
		}),
		OnboardingCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "fleetgate_onboarding_cache_hits_total",
			Help: "Org gate onboarding lookups served from cache",
		}),
		OnboardingCacheMiss: factory.NewCounter(prometheus.CounterOpts{
			Name: "fleetgate_onboarding_cache_misses_total",
			Help: "Org gate onboarding lookups that missed the cache",
		}),
		OnboardingStoreReads: factory.NewCounter(prometheus.CounterOpts{
			Name: "fleetgate_onboarding_store_reads_total",
			Help: "Reads issued to the onboarding state store",
		}),
		TokensIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "fleetgate_antiforgery_tokens_issued_total",
			Help: "Anti-forgery tokens minted by the refresh endpoint",
		}),
		RefreshThrottled: factory.NewCounter(prometheus.CounterOpts{
			Name: "fleetgate_token_refresh_throttled_total",
			Help: "Token refresh requests rejected by the per-user rate limiter",
		}),
		KeepaliveRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetgate_keepalive_refreshes_total",
			Help: "Keepalive refresh attempts by result",
		}, []string{"result"}),
		IdleLogouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "fleetgate_idle_logouts_total",
			Help: "Sessions terminated by the idle timeout",
		}),
	}
}
