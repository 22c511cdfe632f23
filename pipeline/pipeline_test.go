package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mokokaf/interactions-api/entities"
	"github.com/mokokaf/interactions-api/parser"
	"github.com/mokokaf/interactions-api/store"
)

const goodResponse = `{"summary": "Aucune interaction connue.", "bullets": ["Association courante"], "action": "OK", "severity": "aucune"}`

// fakeClient replays scripted responses and records the calls it saw.
type fakeClient struct {
	responses []string
	err       error
	calls     int
	strict    []bool
}

func (f *fakeClient) CheckInteraction(_ context.Context, _, _ entities.CanonicalDrug,
	_ *entities.PatientContext, _ string, strict bool) (string, []string, error) {
	f.calls++
	f.strict = append(f.strict, strict)
	if f.err != nil {
		return "", nil, f.err
	}
	response := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return response, []string{"https://ansm.sante.fr/x"}, nil
}

func (f *fakeClient) QuickCheck(ctx context.Context, d1, d2 entities.CanonicalDrug, locale string) (string, []string, error) {
	return f.CheckInteraction(ctx, d1, d2, nil, locale, false)
}

func testPair() (entities.CanonicalDrug, entities.CanonicalDrug) {
	return entities.CanonicalDrug{Name: "paracetamol", Route: entities.RoutePO},
		entities.CanonicalDrug{Name: "ibuprofene", Route: entities.RoutePO}
}

func newResolver(client *fakeClient) (*Resolver, *store.MemoryStore) {
	s := store.NewMemoryStore(24 * time.Hour)
	return NewResolver(client, s, parser.KeywordClassifier{}), s
}

func TestResolveSuccessSingleCall(t *testing.T) {
	client := &fakeClient{responses: []string{goodResponse}}
	resolver, s := newResolver(client)
	d1, d2 := testPair()

	outcome, err := resolver.Resolve(context.Background(), d1, d2, nil, "fr")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client.calls != 1 {
		t.Errorf("Expected exactly one upstream call, got %d", client.calls)
	}
	if outcome.Retried || outcome.Fallback || outcome.Cached {
		t.Errorf("Unexpected outcome flags: %+v", outcome)
	}
	if outcome.Base.Action != entities.ActionOK {
		t.Errorf("Expected action OK, got %s", outcome.Base.Action)
	}
	if s.Len() != 1 {
		t.Errorf("Expected the result to be cached, store has %d entries", s.Len())
	}
}

func TestResolveRetriesOnceWithStrictPrompt(t *testing.T) {
	client := &fakeClient{responses: []string{"pas du JSON", goodResponse}}
	resolver, _ := newResolver(client)
	d1, d2 := testPair()

	outcome, err := resolver.Resolve(context.Background(), d1, d2, nil, "fr")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("Expected two upstream calls, got %d", client.calls)
	}
	if client.strict[0] || !client.strict[1] {
		t.Errorf("Expected strict only on retry, got %v", client.strict)
	}
	if !outcome.Retried || outcome.Fallback {
		t.Errorf("Unexpected outcome flags: %+v", outcome)
	}
}

func TestResolveFallbackAfterTwoFailuresNotCached(t *testing.T) {
	client := &fakeClient{responses: []string{"pas du JSON", "toujours pas du JSON"}}
	resolver, s := newResolver(client)
	d1, d2 := testPair()

	outcome, err := resolver.Resolve(context.Background(), d1, d2, nil, "fr")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client.calls != 2 {
		t.Errorf("Expected exactly two upstream calls, got %d", client.calls)
	}
	if !outcome.Fallback {
		t.Error("Expected a fallback outcome")
	}
	if outcome.Base.RawText == "" {
		t.Error("Expected raw text preserved in fallback")
	}
	if s.Len() != 0 {
		t.Errorf("Expected fallback not to be cached, store has %d entries", s.Len())
	}
}

func TestResolveCacheHitSkipsUpstream(t *testing.T) {
	client := &fakeClient{responses: []string{goodResponse}}
	resolver, _ := newResolver(client)
	d1, d2 := testPair()

	if _, err := resolver.Resolve(context.Background(), d1, d2, nil, "fr"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	outcome, err := resolver.Resolve(context.Background(), d1, d2, nil, "fr")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !outcome.Cached {
		t.Error("Expected a cached outcome")
	}
	if client.calls != 1 {
		t.Errorf("Expected no second upstream call, got %d total", client.calls)
	}
	if len(outcome.Citations) != 1 {
		t.Errorf("Expected cached citations, got %v", outcome.Citations)
	}
}

func TestResolveCacheIsOrderIndependent(t *testing.T) {
	client := &fakeClient{responses: []string{goodResponse}}
	resolver, _ := newResolver(client)
	d1, d2 := testPair()

	if _, err := resolver.Resolve(context.Background(), d1, d2, nil, "fr"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	outcome, err := resolver.Resolve(context.Background(), d2, d1, nil, "fr")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !outcome.Cached {
		t.Error("Expected the reversed pair to hit the cache")
	}
}

func TestResolvePropagatesUpstreamError(t *testing.T) {
	wantErr := errors.New("boom")
	client := &fakeClient{err: wantErr}
	resolver, _ := newResolver(client)
	d1, d2 := testPair()

	_, err := resolver.Resolve(context.Background(), d1, d2, nil, "fr")
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected the upstream error, got %v", err)
	}
}

func TestResolveQuickNoRetry(t *testing.T) {
	client := &fakeClient{responses: []string{"pas du JSON"}}
	resolver, s := newResolver(client)
	d1, d2 := testPair()

	outcome, err := resolver.ResolveQuick(context.Background(), d1, d2, "fr")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client.calls != 1 {
		t.Errorf("Expected a single upstream call, got %d", client.calls)
	}
	if !outcome.Fallback {
		t.Error("Expected a fallback outcome")
	}
	if s.Len() != 0 {
		t.Errorf("Expected nothing cached, store has %d entries", s.Len())
	}
}

func TestResolveQuickSharesCacheWithFullFlow(t *testing.T) {
	client := &fakeClient{responses: []string{goodResponse}}
	resolver, _ := newResolver(client)
	d1, d2 := testPair()

	if _, err := resolver.Resolve(context.Background(), d1, d2, nil, "fr"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	outcome, err := resolver.ResolveQuick(context.Background(), d1, d2, "fr")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !outcome.Cached {
		t.Error("Expected the quick flow to reuse the full-flow cache entry")
	}
	if client.calls != 1 {
		t.Errorf("Expected one upstream call in total, got %d", client.calls)
	}
}

func TestStateString(t *testing.T) {
	testCases := []struct {
		state    State
		expected string
	}{
		{StateNotStarted, "not_started"},
		{StateFirstAttempt, "first_attempt"},
		{StateRetryAttempt, "retry_attempt"},
		{StateFallback, "fallback"},
		{StateDone, "done"},
		{State(99), "unknown"},
	}

	for _, tc := range testCases {
		if got := tc.state.String(); got != tc.expected {
			t.Errorf("State(%d).String() = %q, expected %q", tc.state, got, tc.expected)
		}
	}
}
