// Package handlers provides the HTTP handlers of the interaction API:
// the full and quick interaction checks plus the directory and health
// endpoints, with dependency injection for testability.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mokokaf/interactions-api/canonical"
	"github.com/mokokaf/interactions-api/entities"
	"github.com/mokokaf/interactions-api/interfaces"
	"github.com/mokokaf/interactions-api/logging"
	"github.com/mokokaf/interactions-api/metrics"
	"github.com/mokokaf/interactions-api/modelclient"
	"github.com/mokokaf/interactions-api/pipeline"
	"github.com/mokokaf/interactions-api/rules"
	"github.com/mokokaf/interactions-api/validation"
)

const timeoutMessage = "délai dépassé lors de l'analyse, veuillez réessayer"

// InteractionHandler serves the check-interaction endpoints.
type InteractionHandler struct {
	resolver *pipeline.Resolver
	store    interfaces.Store
	limiter  interfaces.RateLimiter
}

// NewInteractionHandler wires the handler from its dependencies.
func NewInteractionHandler(resolver *pipeline.Resolver, store interfaces.Store, limiter interfaces.RateLimiter) *InteractionHandler {
	return &InteractionHandler{resolver: resolver, store: store, limiter: limiter}
}

// ClientIP resolves the client identity for rate limiting: first hop of
// X-Forwarded-For, then X-Real-IP, then the connection address. Clients that
// cannot be attributed share the "unknown" bucket.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	if r.RemoteAddr != "" {
		host := r.RemoteAddr
		if idx := strings.LastIndex(host, ":"); idx > 0 {
			host = host[:idx]
		}
		if host != "" {
			return host
		}
	}
	return "unknown"
}

// gate runs the shared request preamble: lazy sweeps, rate limiting and body
// decoding. It returns nil when it already wrote a response.
func (h *InteractionHandler) gate(w http.ResponseWriter, r *http.Request) *entities.InteractionRequest {
	ctx := r.Context()

	// Lazy expiry piggybacks on traffic, both stores throttle themselves.
	if err := h.store.Sweep(ctx); err != nil {
		logging.Warn("Cache sweep failed", "error", err)
	}
	if err := h.limiter.Sweep(ctx); err != nil {
		logging.Warn("Limiter sweep failed", "error", err)
	}

	clientID := ClientIP(r)
	allowed, err := h.limiter.Allow(ctx, clientID)
	if err != nil {
		logging.Warn("Rate limiter unavailable, letting request through", "error", err)
		allowed = true
	}
	if !allowed {
		metrics.RateLimitRejections.Inc()
		RespondWithError(w, http.StatusTooManyRequests, "trop de requêtes, réessayez dans une minute")
		return nil
	}

	var req entities.InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "corps de requête invalide: "+err.Error())
		return nil
	}

	if fieldErrs := validation.ValidateRequest(&req); fieldErrs != nil {
		RespondWithValidationError(w, fieldErrs)
		return nil
	}

	return &req
}

// canonicalizePair converts both raw drugs, reporting per-field 400s.
func canonicalizePair(w http.ResponseWriter, req *entities.InteractionRequest) (entities.CanonicalDrug, entities.CanonicalDrug, bool) {
	d1, err := canonical.Canonicalize(req.Drug1)
	if err != nil {
		RespondWithValidationError(w, map[string]string{"drug1": err.Error()})
		return entities.CanonicalDrug{}, entities.CanonicalDrug{}, false
	}
	d2, err := canonical.Canonicalize(req.Drug2)
	if err != nil {
		RespondWithValidationError(w, map[string]string{"drug2": err.Error()})
		return entities.CanonicalDrug{}, entities.CanonicalDrug{}, false
	}
	return d1, d2, true
}

// CheckInteraction handles POST /api/check-interaction.
func (h *InteractionHandler) CheckInteraction(w http.ResponseWriter, r *http.Request) {
	req := h.gate(w, r)
	if req == nil {
		return
	}

	d1, d2, ok := canonicalizePair(w, req)
	if !ok {
		return
	}

	outcome, err := h.resolver.Resolve(r.Context(), d1, d2, req.Patient, req.Locale)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	final := rules.Apply(outcome.Base, req.Patient, d1, d2)
	final.Citations = outcome.Citations

	logging.Info("Interaction check served",
		"pair", canonical.PairKey(d1, d2),
		"cached", outcome.Cached,
		"retried", outcome.Retried,
		"fallback", outcome.Fallback,
		"action", final.Action,
		"triage", final.Triage)

	RespondWithJSON(w, http.StatusOK, final)
}

// QuickCheck handles POST /api/check-interaction/quick. The patient context
// is accepted but deliberately ignored; results stay patient-independent.
func (h *InteractionHandler) QuickCheck(w http.ResponseWriter, r *http.Request) {
	req := h.gate(w, r)
	if req == nil {
		return
	}

	d1, d2, ok := canonicalizePair(w, req)
	if !ok {
		return
	}

	outcome, err := h.resolver.ResolveQuick(r.Context(), d1, d2, req.Locale)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	final := rules.Apply(outcome.Base, nil, d1, d2)
	final.Citations = outcome.Citations

	RespondWithJSON(w, http.StatusOK, final)
}

// writeUpstreamError maps pipeline errors onto the HTTP contract: timeouts
// are a 500 with a user-facing message, upstream rejections a 502 carrying
// the truncated body, anything else a generic 502.
func writeUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, modelclient.ErrTimeout) {
		metrics.UpstreamErrors.WithLabelValues("timeout").Inc()
		RespondWithError(w, http.StatusInternalServerError, timeoutMessage)
		return
	}

	var upstreamErr *modelclient.UpstreamError
	if errors.As(err, &upstreamErr) {
		metrics.UpstreamErrors.WithLabelValues("status").Inc()
		logging.Error("Model API rejected the request",
			"status", upstreamErr.StatusCode,
			"body", upstreamErr.Body)
		RespondWithJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":           "le service d'analyse a répondu avec une erreur",
			"upstream_status": upstreamErr.StatusCode,
			"upstream_body":   upstreamErr.Body,
		})
		return
	}

	metrics.UpstreamErrors.WithLabelValues("transport").Inc()
	logging.Error("Model API call failed", "error", err)
	RespondWithError(w, http.StatusBadGateway, "le service d'analyse est indisponible")
}
