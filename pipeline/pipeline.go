// Package pipeline orchestrates an interaction check end to end: cache
// lookup, upstream completion, parse, a single strict-prompt retry, and the
// raw-text fallback. The flow is a linear state machine; it can only move
// forward, and every path ends in Done with a usable result.
package pipeline

import (
	"context"

	"github.com/mokokaf/interactions-api/canonical"
	"github.com/mokokaf/interactions-api/entities"
	"github.com/mokokaf/interactions-api/interfaces"
	"github.com/mokokaf/interactions-api/logging"
	"github.com/mokokaf/interactions-api/metrics"
	"github.com/mokokaf/interactions-api/parser"
)

// State tracks how far a resolution progressed.
type State int

const (
	StateNotStarted State = iota
	StateFirstAttempt
	StateRetryAttempt
	StateFallback
	StateDone
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateFirstAttempt:
		return "first_attempt"
	case StateRetryAttempt:
		return "retry_attempt"
	case StateFallback:
		return "fallback"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Outcome is the resolved base result plus provenance flags used by the
// handler for logging and by tests to assert the flow taken.
type Outcome struct {
	Base      entities.ModelResult
	Citations []string
	Cached    bool
	Retried   bool
	Fallback  bool
}

// Resolver runs the check-interaction flow against its collaborators.
type Resolver struct {
	client     interfaces.ModelClient
	store      interfaces.Store
	classifier interfaces.Classifier
}

// NewResolver wires a resolver from its collaborators.
func NewResolver(client interfaces.ModelClient, store interfaces.Store, classifier interfaces.Classifier) *Resolver {
	return &Resolver{client: client, store: store, classifier: classifier}
}

// Resolve returns the base result for a canonical drug pair. Cache hits skip
// the upstream entirely. On a miss the model is called once, then retried
// once with the strict prompt if the response did not parse; a second parse
// failure yields the raw-text fallback. Only parsed results are cached, so a
// degraded upstream cannot pin garbage for a full TTL. The patient context
// shapes the prompt but never the cache key.
func (r *Resolver) Resolve(ctx context.Context, d1, d2 entities.CanonicalDrug,
	patient *entities.PatientContext, locale string) (Outcome, error) {
	key := canonical.PairKey(d1, d2)

	entry, err := r.store.Get(ctx, key)
	if err != nil {
		logging.Warn("Cache lookup failed, continuing without cache", "key", key, "error", err)
	}
	if entry != nil {
		metrics.InteractionCacheHits.Inc()
		return Outcome{Base: entry.Base, Citations: entry.Citations, Cached: true}, nil
	}
	metrics.InteractionCacheMisses.Inc()

	state := StateFirstAttempt
	content, citations, err := r.client.CheckInteraction(ctx, d1, d2, patient, locale, false)
	if err != nil {
		return Outcome{}, err
	}

	result := parser.Parse(content, r.classifier)
	if result == nil {
		state = StateRetryAttempt
		metrics.InteractionRetries.Inc()
		logging.Info("Unparseable model response, retrying with strict prompt", "pair", key)

		retryContent, retryCitations, err := r.client.CheckInteraction(ctx, d1, d2, patient, locale, true)
		if err != nil {
			return Outcome{}, err
		}
		content, citations = retryContent, retryCitations
		result = parser.Parse(content, r.classifier)
	}

	if result == nil {
		metrics.InteractionFallbacks.Inc()
		logging.Warn("Both parse attempts failed, serving raw-text fallback", "pair", key)
		base := parser.Fallback(content, r.classifier)
		return Outcome{Base: base, Citations: citations, Retried: true, Fallback: true}, nil
	}

	if err := r.store.Set(ctx, key, interfaces.CacheEntry{Base: *result, Citations: citations}); err != nil {
		logging.Warn("Cache write failed", "key", key, "error", err)
	}

	return Outcome{
		Base:      *result,
		Citations: citations,
		Retried:   state == StateRetryAttempt,
	}, nil
}

// ResolveQuick is the lightweight variant: shorter timeout, no patient
// context, no retry. A parse failure goes straight to the fallback. It shares
// the pair cache with the full flow.
func (r *Resolver) ResolveQuick(ctx context.Context, d1, d2 entities.CanonicalDrug, locale string) (Outcome, error) {
	key := canonical.PairKey(d1, d2)

	entry, err := r.store.Get(ctx, key)
	if err != nil {
		logging.Warn("Cache lookup failed, continuing without cache", "key", key, "error", err)
	}
	if entry != nil {
		metrics.InteractionCacheHits.Inc()
		return Outcome{Base: entry.Base, Citations: entry.Citations, Cached: true}, nil
	}
	metrics.InteractionCacheMisses.Inc()

	content, citations, err := r.client.QuickCheck(ctx, d1, d2, locale)
	if err != nil {
		return Outcome{}, err
	}

	result := parser.Parse(content, r.classifier)
	if result == nil {
		metrics.InteractionFallbacks.Inc()
		base := parser.Fallback(content, r.classifier)
		return Outcome{Base: base, Citations: citations, Fallback: true}, nil
	}

	if err := r.store.Set(ctx, key, interfaces.CacheEntry{Base: *result, Citations: citations}); err != nil {
		logging.Warn("Cache write failed", "key", key, "error", err)
	}

	return Outcome{Base: *result, Citations: citations}, nil
}
