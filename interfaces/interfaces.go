// Package interfaces defines core abstractions of the interaction service
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"time"

	"github.com/mokokaf/interactions-api/entities"
)

// CacheEntry is the patient-independent value stored per drug pair. Patient
// specific notes are never cached; they are recomputed on every request.
type CacheEntry struct {
	Base      entities.ModelResult `json:"base"`
	Citations []string             `json:"citations,omitempty"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// Store is the keyed cache for base interaction results. Implementations
// must treat expired entries as misses. Sweep performs lazy eviction and may
// throttle itself; it is called at the start of request handling, not from a
// background timer.
type Store interface {
	// Get returns the live entry for key, or nil on miss or expiry.
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores the entry under key; the implementation assigns the expiry.
	Set(ctx context.Context, key string, entry CacheEntry) error

	// Delete removes the entry for key if present.
	Delete(ctx context.Context, key string) error

	// Sweep evicts expired entries.
	Sweep(ctx context.Context) error
}

// RateLimiter gates requests per client identifier over a fixed window.
type RateLimiter interface {
	// Allow records one request for the client and reports whether it is
	// within the window's budget.
	Allow(ctx context.Context, clientID string) (bool, error)

	// Sweep drops stale window entries.
	Sweep(ctx context.Context) error
}

// ModelClient calls the upstream text-generation API and returns the
// assistant content plus any citations it carried.
type ModelClient interface {
	// CheckInteraction runs the full-flow completion for a drug pair. The
	// strict flag appends the pure-JSON reminder used on the single retry.
	CheckInteraction(ctx context.Context, d1, d2 entities.CanonicalDrug,
		patient *entities.PatientContext, locale string, strict bool) (content string, citations []string, err error)

	// QuickCheck runs the lightweight single-shot variant with a shorter
	// timeout and no patient context.
	QuickCheck(ctx context.Context, d1, d2 entities.CanonicalDrug, locale string) (content string, citations []string, err error)
}

// Classifier derives action and severity categories from free text. The
// keyword matcher is the default strategy; the interface keeps it swappable
// without touching the parser or the rule engine.
type Classifier interface {
	// ClassifyAction scans the text for action stems, most restrictive
	// first, and returns OK when nothing matches.
	ClassifyAction(text string) entities.Action

	// ClassifySeverity scans the text for severity stems. The boolean is
	// false when no stem matched, in which case the caller derives severity
	// from the resolved action.
	ClassifySeverity(text string) (entities.Severity, bool)
}
