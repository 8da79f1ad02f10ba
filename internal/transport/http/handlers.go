package httptransport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"fleetgate/internal/driver"
	"fleetgate/internal/session/device"
	jsonx "fleetgate/internal/transport/http/json"
	"fleetgate/pkg/domain"
	dErrors "fleetgate/pkg/domain-errors"
	"fleetgate/pkg/requestcontext"
	"fleetgate/pkg/secrets"
)

// handleTokenRefresh mints a fresh anti-forgery token for the authenticated
// user. Each mint is rate limited per user so a stuck client cannot hammer
// the endpoint, and recorded under a ULID for audit correlation.
func (h *Handler) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		jsonx.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	if !h.limiterFor(userID).Allow() {
		if h.metrics != nil {
			h.metrics.RefreshThrottled.Inc()
		}
		jsonx.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "token refresh rate exceeded"))
		return
	}

	token, err := secrets.Generate()
	if err != nil {
		jsonx.WriteError(w, err)
		return
	}

	issuedAt := requestcontext.Now(ctx)
	mintID := ulid.Make()
	if h.metrics != nil {
		h.metrics.TokensIssued.Inc()
	}
	h.logger.InfoContext(ctx, "anti-forgery token minted",
		"mint_id", mintID.String(),
		"user_id", userID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)

	jsonx.WriteJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		IssuedAt:  issuedAt.UTC().Format(time.RFC3339),
		ExpiresIn: int(h.tokenTTL.Seconds()),
	})
}

type tokenResponse struct {
	Token     string `json:"token"`
	IssuedAt  string `json:"issuedAt"`
	ExpiresIn int    `json:"expiresIn"`
}

// handleLogout acknowledges a session termination. Best effort by contract:
// the client has already discarded its local state, so this always succeeds
// from the caller's point of view.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "session logout",
		"user_id", requestcontext.UserID(ctx).String(),
		"device_fingerprint", device.Fingerprint(r.UserAgent()),
		"request_id", requestcontext.RequestID(ctx),
	)
	jsonx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDriverState derives the single operational state for the raw
// assignment signals supplied in the query string.
func (h *Handler) handleDriverState(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pending, err := strconv.Atoi(q.Get("pendingSettlements"))
	if err != nil {
		pending = 0
	}

	state := driver.Derive(driver.Signals{
		HasLoad:            boolParam(q.Get("hasLoad")),
		HasDeparted:        boolParam(q.Get("hasDeparted")),
		AtStop:             boolParam(q.Get("atStop")),
		Delivered:          boolParam(q.Get("delivered")),
		PODMissing:         boolParam(q.Get("podMissing")),
		DocRejected:        boolParam(q.Get("docRejected")),
		PendingSettlements: pending,
	})

	jsonx.WriteJSON(w, http.StatusOK, map[string]string{"state": state.String()})
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

// handleCreateLoad is the representative guarded mutation: it only runs for
// operational organizations because the org gate sits in front of it.
func (h *Handler) handleCreateLoad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		Reference string `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonx.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	loadID := ulid.Make()
	h.logger.InfoContext(ctx, "load created",
		"load_id", loadID.String(),
		"org_id", requestcontext.OrgID(ctx).String(),
		"user_id", requestcontext.UserID(ctx).String(),
		"request_id", requestcontext.RequestID(ctx),
	)

	jsonx.WriteJSON(w, http.StatusCreated, map[string]string{
		"loadId":    loadID.String(),
		"reference": body.Reference,
		"status":    "DRAFT",
	})
}

// handleInvalidateOnboarding drops the cached onboarding answer for one
// organization. Called by onboarding workflows after a status flip.
func (h *Handler) handleInvalidateOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		OrgID string `json:"orgId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonx.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	orgID, err := domain.ParseOrgID(body.OrgID)
	if err != nil {
		jsonx.WriteError(w, dErrors.New(dErrors.CodeValidation, "orgId must be a UUID"))
		return
	}

	h.checker.Invalidate(orgID)
	h.logger.InfoContext(ctx, "onboarding cache invalidated",
		"org_id", orgID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// limiterFor returns the per-user token mint limiter, creating it on first
// use. Limiters are never evicted; the per-entry footprint is small and the
// user population is bounded by the tenant roster.
func (h *Handler) limiterFor(userID domain.UserID) *rate.Limiter {
	h.limiterMu.Lock()
	defer h.limiterMu.Unlock()
	if l, ok := h.limiters[userID]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(time.Second), 5)
	h.limiters[userID] = l
	return l
}
