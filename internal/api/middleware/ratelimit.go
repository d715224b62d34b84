package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"villagework/internal/logging"
	"villagework/pkg/utils"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	requests int64
	rejected int64
}

// LimiterStats summarises a ClientLimiter
type LimiterStats struct {
	Clients  int     `json:"clients"`
	Rate     float64 `json:"rate_per_second"`
	Burst    int     `json:"burst"`
	Requests int64   `json:"requests"`
	Rejected int64   `json:"rejected"`
}

// ClientLimiter is a token bucket per client key. Entries idle for longer
// than idleTTL are removed by Sweep.
type ClientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
	logger  logging.Logger

	// totals survive sweeps
	requests int64
	rejected int64

	stopOnce sync.Once
	stop     chan struct{}
}

func NewClientLimiter(requestsPerMinute, burst int, idleTTL time.Duration, logger logging.Logger) *ClientLimiter {
	if burst <= 0 {
		burst = 1
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}

	return &ClientLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
		logger:  logger.WithField("component", "rate_limiter"),
		stop:    make(chan struct{}),
	}
}

// Allow reports whether key may make a request now
func (l *ClientLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	if !c.limiter.AllowN(now, 1) {
		c.rejected++
		l.rejected++
		return false
	}
	c.requests++
	l.requests++
	return true
}

// RetryAfter is how long a rejected client should wait for the next token
func (l *ClientLimiter) RetryAfter() time.Duration {
	if l.limit <= 0 {
		return time.Minute
	}
	return time.Duration(float64(time.Second) / float64(l.limit))
}

// Sweep drops clients idle for longer than the idle TTL and returns how many
func (l *ClientLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleTTL)
	removed := 0
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}

	if removed > 0 {
		l.logger.Debug("Cleaned up idle rate limiters", map[string]interface{}{"removed_count": removed})
	}
	return removed
}

// Start sweeps every interval until Stop
func (l *ClientLimiter) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-l.stop:
				return
			}
		}
	}()
}

func (l *ClientLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *ClientLimiter) Stats() LimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return LimiterStats{
		Clients:  len(l.clients),
		Rate:     float64(l.limit),
		Burst:    l.burst,
		Requests: l.requests,
		Rejected: l.rejected,
	}
}

// RateLimit rejects requests over the per-client rate with 429. Clients are
// keyed by the caller's IP.
func RateLimit(l *ClientLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if l.Allow(key) {
				return next(c)
			}

			wait := int(math.Ceil(l.RetryAfter().Seconds()))
			if wait < 1 {
				wait = 1
			}
			c.Response().Header().Set("Retry-After", strconv.Itoa(wait))
			Logger(c).Warn("Request rejected by rate limiter", map[string]interface{}{
				"client": key,
				"path":   c.Path(),
			})
			return utils.NewTooManyRequestsError("Too many requests, please slow down")
		}
	}
}
