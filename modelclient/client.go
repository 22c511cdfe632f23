// Package modelclient implements the upstream chat-completion client used to
// obtain interaction assessments. Requests are bounded by per-flow timeouts
// and restricted to a fixed set of reference domains; responses may carry
// citations in several shapes, all of which are extracted defensively.
package modelclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/mokokaf/interactions-api/entities"
	"github.com/mokokaf/interactions-api/interfaces"
	"github.com/mokokaf/interactions-api/logging"
)

// ErrTimeout marks an upstream call that exceeded its flow budget. Handlers
// map it to a 500 with a user-facing timeout message.
var ErrTimeout = errors.New("délai dépassé lors de l'appel au modèle")

// upstreamBodyLimit caps how much of an error body is kept for diagnostics.
const upstreamBodyLimit = 200

// UpstreamError reports a non-2xx response from the model API. Body holds at
// most upstreamBodyLimit characters of the response.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream model API returned %d: %s", e.StatusCode, e.Body)
}

// Compile-time check.
var _ interfaces.ModelClient = (*Client)(nil)

// Client talks to a Perplexity-compatible chat-completion endpoint.
type Client struct {
	httpClient    *http.Client
	apiURL        string
	apiKey        string
	model         string
	maxTokens     int
	searchDomains []string
	fullTimeout   time.Duration
	quickTimeout  time.Duration
}

// Options configures a Client. Zero timeouts fall back to the defaults of the
// full (18s) and quick (12s) flows.
type Options struct {
	APIURL        string
	APIKey        string
	Model         string
	MaxTokens     int
	SearchDomains []string
	FullTimeout   time.Duration
	QuickTimeout  time.Duration
	HTTPClient    *http.Client
}

// New creates a Client from options.
func New(opts Options) *Client {
	if opts.FullTimeout <= 0 {
		opts.FullTimeout = 18 * time.Second
	}
	if opts.QuickTimeout <= 0 {
		opts.QuickTimeout = 12 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Client{
		httpClient:    opts.HTTPClient,
		apiURL:        opts.APIURL,
		apiKey:        opts.APIKey,
		model:         opts.Model,
		maxTokens:     opts.MaxTokens,
		searchDomains: opts.SearchDomains,
		fullTimeout:   opts.FullTimeout,
		quickTimeout:  opts.QuickTimeout,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type webSearchOptions struct {
	SearchContextSize string `json:"search_context_size"`
}

type chatRequest struct {
	Model              string            `json:"model"`
	Messages           []chatMessage     `json:"messages"`
	Temperature        float64           `json:"temperature"`
	MaxTokens          int               `json:"max_tokens,omitempty"`
	SearchDomainFilter []string          `json:"search_domain_filter,omitempty"`
	WebSearchOptions   *webSearchOptions `json:"web_search_options,omitempty"`
}

// CheckInteraction runs the full-flow completion within the 18s budget.
func (c *Client) CheckInteraction(ctx context.Context, d1, d2 entities.CanonicalDrug,
	patient *entities.PatientContext, locale string, strict bool) (string, []string, error) {
	prompt := BuildPrompt(d1, d2, patient, locale, strict)
	return c.complete(ctx, prompt, c.fullTimeout)
}

// QuickCheck runs the lightweight variant within the 12s budget, without
// patient context and without the strict reminder.
func (c *Client) QuickCheck(ctx context.Context, d1, d2 entities.CanonicalDrug, locale string) (string, []string, error) {
	prompt := BuildPrompt(d1, d2, nil, locale, false)
	return c.complete(ctx, prompt, c.quickTimeout)
}

func (c *Client) complete(ctx context.Context, prompt Prompt, timeout time.Duration) (string, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature:        0,
		MaxTokens:          c.maxTokens,
		SearchDomainFilter: c.searchDomains,
	}
	if len(c.searchDomains) > 0 {
		reqBody.WebSearchOptions = &webSearchOptions{SearchContextSize: "medium"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			logging.Warn("Model API call timed out after " + timeout.String())
			return "", nil, ErrTimeout
		}
		return "", nil, fmt.Errorf("call model API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if isTimeout(err) {
			return "", nil, ErrTimeout
		}
		return "", nil, fmt.Errorf("read model response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       truncateBody(string(body)),
		}
	}

	content, citations, err := decodeCompletion(body)
	if err != nil {
		return "", nil, err
	}
	return content, citations, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncateBody(s string) string {
	runes := []rune(s)
	if len(runes) <= upstreamBodyLimit {
		return s
	}
	return string(runes[:upstreamBodyLimit])
}

// completionEnvelope mirrors the chat-completion response. Citations is kept
// as raw JSON because providers disagree on its shape.
type completionEnvelope struct {
	Choices []struct {
		Message struct {
			Content   string          `json:"content"`
			Citations json.RawMessage `json:"citations"`
		} `json:"message"`
	} `json:"choices"`
	Citations json.RawMessage `json:"citations"`
	Sources   json.RawMessage `json:"sources"`
}

func decodeCompletion(body []byte) (string, []string, error) {
	var env completionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", nil, fmt.Errorf("decode model response: %w", err)
	}
	if len(env.Choices) == 0 {
		return "", nil, errors.New("model response has no choices")
	}

	content := env.Choices[0].Message.Content

	// Prefer top-level citations, then sources, then per-message citations.
	for _, raw := range []json.RawMessage{env.Citations, env.Sources, env.Choices[0].Message.Citations} {
		if urls := extractCitations(raw); len(urls) > 0 {
			return content, urls, nil
		}
	}
	return content, nil, nil
}

// extractCitations accepts either a list of URL strings or a list of objects
// carrying a "url" field. Anything else yields no citations.
func extractCitations(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var asStrings []string
	if err := json.Unmarshal(raw, &asStrings); err == nil {
		return nonEmpty(asStrings)
	}

	var asObjects []map[string]any
	if err := json.Unmarshal(raw, &asObjects); err == nil {
		var urls []string
		for _, obj := range asObjects {
			if url, ok := obj["url"].(string); ok && url != "" {
				urls = append(urls, url)
			}
		}
		return urls
	}
	return nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
