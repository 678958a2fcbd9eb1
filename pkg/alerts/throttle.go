package alerts

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// throttle keeps one token bucket per key limiting how often threshold
// alerts raised outside rule evaluation are stored
type throttle struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// newThrottle refills one token every refill up to burst. A non-positive
// refill never refills.
func newThrottle(burst int, refill time.Duration) *throttle {
	limit := rate.Limit(0)
	if refill > 0 {
		limit = rate.Every(refill)
	}
	return &throttle{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// allow takes a token for key at now. A throttle with burst <= 0 allows
// everything.
func (t *throttle) allow(key string, now time.Time) bool {
	if t == nil || t.burst <= 0 {
		return true
	}
	t.mu.Lock()
	limiter, ok := t.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(t.limit, t.burst)
		t.limiters[key] = limiter
	}
	t.mu.Unlock()
	return limiter.AllowN(now, 1)
}
