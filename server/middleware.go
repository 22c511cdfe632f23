package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/juju/ratelimit"

	"github.com/mokokaf/interactions-api/config"
	"github.com/mokokaf/interactions-api/handlers"
	"github.com/mokokaf/interactions-api/logging"
)

// RealIPMiddleware rewrites RemoteAddr from the first X-Forwarded-For hop so
// downstream limiters and logs see the caller, not the proxy.
func RealIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			r.RemoteAddr = strings.TrimSpace(first)
		}
		next.ServeHTTP(w, r)
	})
}

// headerBytes estimates the total size of the request headers.
func headerBytes(r *http.Request) int64 {
	var size int64
	for key, values := range r.Header {
		size += int64(len(key))
		for _, value := range values {
			size += int64(len(value))
		}
	}
	return size
}

// RequestSizeMiddleware rejects oversized headers and bodies up front. Bodies
// without a Content-Length header are still bounded at read time.
func RequestSizeMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > cfg.MaxRequestBody {
				logging.Warn("Request body too large",
					"content_length", r.ContentLength,
					"max_allowed", cfg.MaxRequestBody,
					"remote_addr", r.RemoteAddr)
				handlers.RespondWithError(w, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("corps de requête trop volumineux (maximum %d octets)", cfg.MaxRequestBody))
				return
			}

			if size := headerBytes(r); size > cfg.MaxHeaderSize {
				logging.Warn("Request headers too large",
					"header_size", size,
					"max_allowed", cfg.MaxHeaderSize,
					"remote_addr", r.RemoteAddr)
				handlers.RespondWithError(w, http.StatusRequestHeaderFieldsTooLarge,
					fmt.Sprintf("en-têtes de requête trop volumineux (maximum %d octets)", cfg.MaxHeaderSize))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxRequestBody)
			next.ServeHTTP(w, r)
		})
	}
}

// Token bucket parameters for the outer traffic guard. The per-endpoint
// fixed-window quota for interaction checks lives behind it in the handlers.
const (
	bucketFillRate = 5    // tokens per second
	bucketCapacity = 1000 // burst ceiling
	sweepInterval  = 30 * time.Minute
)

// Per-path token costs. Routes that reach the model API cost the most.
var exactTokenCosts = map[string]int64{
	"/":                            0,
	"/favicon.ico":                 0,
	"/health":                      5,
	"/metrics":                     5,
	"/api/check-interaction":       100,
	"/api/check-interaction/quick": 50,
}

const defaultTokenCost = 20

func tokenCost(path string) int64 {
	if cost, ok := exactTokenCosts[path]; ok {
		return cost
	}
	return defaultTokenCost
}

// TokenBucketLimiter keeps one refilling bucket per client IP.
type TokenBucketLimiter struct {
	mu      sync.Mutex
	buckets map[string]*ratelimit.Bucket
}

// NewTokenBucketLimiter creates an empty limiter and starts its idle sweep.
func NewTokenBucketLimiter() *TokenBucketLimiter {
	l := &TokenBucketLimiter{buckets: make(map[string]*ratelimit.Bucket)}
	go l.sweepIdle()
	return l
}

func (l *TokenBucketLimiter) bucket(clientIP string) *ratelimit.Bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[clientIP]
	if !ok {
		b = ratelimit.NewBucketWithRate(bucketFillRate, bucketCapacity)
		l.buckets[clientIP] = b
	}
	return b
}

// sweepIdle drops clients whose buckets have refilled completely; they have
// been quiet long enough to forget.
func (l *TokenBucketLimiter) sweepIdle() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		for ip, b := range l.buckets {
			if b.Available() == b.Capacity() {
				delete(l.buckets, ip)
			}
		}
		l.mu.Unlock()
	}
}

var globalTokenBucket = NewTokenBucketLimiter()

// RateLimitHandler charges each request its path cost against the caller's
// token bucket and rejects once the bucket runs dry.
func RateLimitHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := globalTokenBucket.bucket(r.RemoteAddr)
		cost := tokenCost(r.URL.Path)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(bucketCapacity))
		w.Header().Set("X-RateLimit-Rate", strconv.Itoa(bucketFillRate))

		if b.TakeAvailable(cost) < cost {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			handlers.RespondWithError(w, http.StatusTooManyRequests,
				"trop de requêtes, veuillez réessayer plus tard")
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(b.Available(), 10))
		next.ServeHTTP(w, r)
	})
}
