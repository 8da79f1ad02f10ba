package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures the full runtime configuration. Values come from the
// environment with code defaults; a local .env file is loaded first when
// present so development setups stay out of shell profiles.
type Server struct {
	Addr string
	Env  string

	// Session identity oracle
	SessionJWTKey string
	SessionIssuer string
	OracleTimeout time.Duration

	// Edge admission gate paths
	LoginPath      string
	LandingPath    string
	OnboardingPath string
	PublicPrefixes []string
	AdminPrefixes  []string
	ExemptPrefixes []string

	// Anti-forgery token lifecycle
	TokenTTL          time.Duration
	KeepaliveInterval time.Duration
	IdleTimeout       time.Duration

	// Operational-org gate
	OnboardingCacheTTL time.Duration

	// Optional backing stores
	DatabaseURL string
	RedisAddr   string
	RedisTTL    time.Duration

	// Ops surface (bcrypt hash of the ops token; empty disables /ops)
	OpsTokenHash string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	// Best effort: absence of .env is the normal production case.
	_ = godotenv.Load()

	return Server{
		Addr:          envStr("FLEETGATE_ADDR", ":8080"),
		Env:           envStr("FLEETGATE_ENV", "dev"),
		SessionJWTKey: envStr("SESSION_JWT_KEY", "dev-secret-key-change-in-production"),
		SessionIssuer: envStr("SESSION_ISSUER", "fleetgate"),
		OracleTimeout: envDuration("ORACLE_TIMEOUT", 3*time.Second),

		LoginPath:      envStr("LOGIN_PATH", "/login"),
		LandingPath:    envStr("LANDING_PATH", "/dispatch"),
		OnboardingPath: envStr("ONBOARDING_PATH", "/onboarding"),
		PublicPrefixes: envList("PUBLIC_PREFIXES", []string{"/login", "/invite", "/password-reset", "/setup"}),
		AdminPrefixes:  envList("ADMIN_PREFIXES", []string{"/admin"}),
		ExemptPrefixes: envList("EXEMPT_PREFIXES", []string{"/_assets/", "/static/", "/favicon.ico", "/health", "/metrics", "/ops/"}),

		TokenTTL:          envDuration("TOKEN_TTL", 30*time.Minute),
		KeepaliveInterval: envDuration("KEEPALIVE_INTERVAL", 5*time.Minute),
		IdleTimeout:       envDuration("IDLE_TIMEOUT", 30*time.Minute),

		OnboardingCacheTTL: envDuration("ONBOARDING_CACHE_TTL", 30*time.Second),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RedisTTL:    envDuration("REDIS_ONBOARDING_TTL", time.Minute),

		OpsTokenHash: os.Getenv("OPS_TOKEN_HASH"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
