package server

import (
	"container/list"
	"net"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/grantshandy/starify/internal/shared"
)

const defaultMaxLimiters = 10000

type limiterEntry struct {
	key     string
	limiter *rate.Limiter
}

// RateLimiter hands out a token bucket per client address.
//
// At most maxEntries buckets are kept; the least recently used one is evicted first.
type RateLimiter struct {
	mu         sync.Mutex
	limit      rate.Limit
	burst      int
	maxEntries int
	entries    map[string]*list.Element
	lru        *list.List
}

// NewRateLimiter allows perSecond requests per client with the given burst. A non-positive rate disables limiting.
func NewRateLimiter(perSecond float64, burst, maxEntries int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxLimiters
	}
	return &RateLimiter{
		limit:      rate.Limit(perSecond),
		burst:      burst,
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
	}
}

// Allow reports whether key may make a request now.
func (rl *RateLimiter) Allow(key string) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	return rl.limiter(key).Allow()
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if el, ok := rl.entries[key]; ok {
		rl.lru.MoveToFront(el)
		return el.Value.(*limiterEntry).limiter
	}

	if rl.lru.Len() >= rl.maxEntries {
		if oldest := rl.lru.Back(); oldest != nil {
			rl.lru.Remove(oldest)
			delete(rl.entries, oldest.Value.(*limiterEntry).key)
		}
	}

	entry := &limiterEntry{key: key, limiter: rate.NewLimiter(rl.limit, rl.burst)}
	rl.entries[key] = rl.lru.PushFront(entry)
	return entry.limiter
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.lru.Len()
}

// Limit wraps next so that over-limit clients get a 429.
func (rl *RateLimiter) Limit(logger *log.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(ip) {
			logger.Warn("login rate limited", "remote", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, shared.ErrRateLimited)
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
