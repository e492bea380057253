package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"pharmacyos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window limiter ─────────────────────────────────────────────────────

type window struct {
	count int
	end   time.Time
}

// windowLimiter counts requests per key (client IP) in fixed windows.
type windowLimiter struct {
	mu      sync.Mutex
	entries map[string]*window
	limit   int
	span    time.Duration
	now     func() time.Time
}

func newWindowLimiter(limit int, span time.Duration) *windowLimiter {
	l := &windowLimiter{
		entries: make(map[string]*window),
		limit:   limit,
		span:    span,
		now:     time.Now,
	}
	registerLimiter(l)
	return l
}

// allow records one hit for key and reports whether it is within the limit,
// plus when the current window ends.
func (l *windowLimiter) allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[key]
	if !ok || now.After(w.end) {
		w = &window{end: now.Add(l.span)}
		l.entries[key] = w
	}
	w.count++
	return w.count <= l.limit, w.end
}

// purge drops windows that already ended and returns how many were removed.
func (l *windowLimiter) purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for k, w := range l.entries {
		if now.After(w.end) {
			delete(l.entries, k)
			n++
		}
	}
	return n
}

func (l *windowLimiter) handler(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, end := l.allow(c.ClientIP())
		if !ok {
			retry := int(time.Until(end).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(message))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newWindowLimiter(20, time.Minute).handler("too many login attempts, try again in a minute")
}

// RateLimiter limits every client IP to limit requests per window.
func RateLimiter(limit int, span time.Duration) gin.HandlerFunc {
	return newWindowLimiter(limit, span).handler("too many requests, slow down")
}

// ── Purge ────────────────────────────────────────────────────────────────────

const purgeInterval = 5 * time.Minute

var (
	limitersMu sync.Mutex
	limiters   []*windowLimiter
)

func registerLimiter(l *windowLimiter) {
	limitersMu.Lock()
	defer limitersMu.Unlock()
	limiters = append(limiters, l)
}

// StartRateLimitPurge removes ended windows every few minutes until ctx is
// cancelled, so IPs that never return do not accumulate.
func StartRateLimitPurge(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limitersMu.Lock()
				purged := 0
				for _, l := range limiters {
					purged += l.purge()
				}
				limitersMu.Unlock()
				if purged > 0 {
					log.Debug().Int("entries_purged", purged).Msg("rate limiter windows purged")
				}
			}
		}
	}()
}
