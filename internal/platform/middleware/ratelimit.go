package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// limiterStore holds one token-bucket limiter per client key. Idle entries
// are dropped by a cleanup goroutine so the map does not grow unbounded.
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rps      rate.Limit
	burst    int
	done     chan struct{}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	s := &limiterStore{
		limiters: make(map[string]*clientLimiter),
		rps:      rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.BurstSize,
		done:     make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	cl, ok := s.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.limiters[key] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

func (s *limiterStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *limiterStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, cl := range s.limiters {
		if time.Since(cl.lastSeen) > 3*time.Minute {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterStore) stop() {
	select {
	case <-s.done:
		// already stopped
	default:
		close(s.done)
	}
}

// RateLimiter throttles requests per client IP. Close stops the cleanup
// goroutine.
type RateLimiter struct {
	store      *limiterStore
	message    string
	retryAfter string
}

// NewRateLimiter builds a limiter for general API traffic.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		store:      newLimiterStore(cfg),
		message:    "rate limit exceeded",
		retryAfter: "1",
	}
}

// NewLoginRateLimiter builds a stricter per-IP limiter for credential
// endpoints, expressed in attempts per minute. It slows down password
// guessing without locking accounts.
func NewLoginRateLimiter(perMinute float64, burst int) *RateLimiter {
	return &RateLimiter{
		store: newLimiterStore(RateLimitConfig{
			RequestsPerSecond: perMinute / 60,
			BurstSize:         burst,
		}),
		message:    "too many login attempts",
		retryAfter: "60",
	}
}

// Middleware returns the echo middleware enforcing the limit.
func (r *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !r.store.get(c.RealIP()).Allow() {
				c.Response().Header().Set("Retry-After", r.retryAfter)
				return echo.NewHTTPError(http.StatusTooManyRequests, r.message)
			}
			return next(c)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple
// times but only the first call has effect.
func (r *RateLimiter) Close() {
	r.store.stop()
}
