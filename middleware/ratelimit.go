package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// Rate is the number of requests per second.
	Rate int

	// Burst is the maximum burst size.
	Burst int

	// KeyFunc extracts the limiter key from the request. Defaults to the
	// client IP.
	KeyFunc func(r *http.Request) string

	// Skipper defines a function to skip rate limiting.
	Skipper Skipper

	// Store is the rate limiter state. Defaults to an in-memory store.
	Store *MemoryStore
}

// DefaultRateLimitConfig returns a default rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Rate:    10,
		Burst:   20,
		KeyFunc: clientIP,
		Skipper: DefaultSkipper,
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// limiterEntry holds a rate limiter and its last access time.
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryStore is an in-memory, per-key rate limiter store. Entries idle
// longer than the TTL are dropped by a background prune loop.
type MemoryStore struct {
	rate  int
	burst int
	ttl   time.Duration

	mu       sync.Mutex
	limiters map[string]*limiterEntry

	prune    *time.Ticker
	stopped  chan struct{}
	stopOnce sync.Once
}

// MemoryStoreConfig configures a MemoryStore.
type MemoryStoreConfig struct {
	Rate          int
	Burst         int
	TTL           time.Duration
	PruneInterval time.Duration
}

// NewMemoryStore creates a store allowing r requests per second with the
// given burst per key. The prune loop runs until Stop is called.
func NewMemoryStore(r, burst int) *MemoryStore {
	return NewMemoryStoreWithConfig(MemoryStoreConfig{Rate: r, Burst: burst})
}

// NewMemoryStoreWithConfig creates a store with explicit TTL and prune
// interval. Zero values fall back to 10 minutes and 1 minute.
func NewMemoryStoreWithConfig(config MemoryStoreConfig) *MemoryStore {
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	if config.PruneInterval <= 0 {
		config.PruneInterval = time.Minute
	}

	store := &MemoryStore{
		rate:     config.Rate,
		burst:    config.Burst,
		ttl:      config.TTL,
		limiters: make(map[string]*limiterEntry),
		prune:    time.NewTicker(config.PruneInterval),
		stopped:  make(chan struct{}),
	}

	go store.pruneRoutine()

	return store
}

// pruneRoutine periodically drops idle limiters.
func (s *MemoryStore) pruneRoutine() {
	for {
		select {
		case <-s.prune.C:
			s.Prune()
		case <-s.stopped:
			return
		}
	}
}

// Stop stops the prune loop. The store stays usable afterward.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() {
		s.prune.Stop()
		close(s.stopped)
	})
}

// Allow checks if a request is allowed for the key.
func (s *MemoryStore) Allow(key string) bool {
	s.mu.Lock()
	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(s.rate), s.burst)}
		s.limiters[key] = entry
	}
	entry.lastAccess = time.Now()
	s.mu.Unlock()

	return entry.limiter.Allow()
}

// Size returns the number of tracked keys.
func (s *MemoryStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// Prune drops entries that have been idle longer than the TTL.
func (s *MemoryStore) Prune() {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	for key, entry := range s.limiters {
		if entry.lastAccess.Before(cutoff) {
			delete(s.limiters, key)
		}
	}
	s.mu.Unlock()
}

// RateLimit returns a middleware enforcing a per-client request rate. Over
// the limit, requests are rejected with 429.
func RateLimit(config RateLimitConfig) Middleware {
	defaults := DefaultRateLimitConfig()
	if config.Rate <= 0 {
		config.Rate = defaults.Rate
	}
	if config.Burst <= 0 {
		config.Burst = defaults.Burst
	}
	if config.KeyFunc == nil {
		config.KeyFunc = defaults.KeyFunc
	}
	if config.Skipper == nil {
		config.Skipper = defaults.Skipper
	}
	if config.Store == nil {
		config.Store = NewMemoryStore(config.Rate, config.Burst)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			if config.Skipper(r) {
				return next(w, r)
			}
			if !config.Store.Allow(config.KeyFunc(r)) {
				http.Error(w, "429 too many requests", http.StatusTooManyRequests)
				return nil
			}
			return next(w, r)
		}
	}
}
