package mockbackend

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// attempt tracks a rate limiter per username.
type attempt struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// loginLimiter throttles login attempts per username with a token bucket.
// Idle entries are swept on access.
type loginLimiter struct {
	mu        sync.Mutex
	attempts  map[string]*attempt
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	nowFunc   func() time.Time
}

func newLoginLimiter(perMinute int) *loginLimiter {
	return &loginLimiter{
		attempts: make(map[string]*attempt),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		ttl:      10 * time.Minute,
		nowFunc:  time.Now,
	}
}

// Allow reports whether another login attempt for username may proceed.
func (l *loginLimiter) Allow(username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	if now.Sub(l.lastSweep) > l.ttl {
		for name, a := range l.attempts {
			if now.Sub(a.lastSeen) > l.ttl {
				delete(l.attempts, name)
			}
		}
		l.lastSweep = now
	}

	a, ok := l.attempts[username]
	if !ok {
		a = &attempt{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.attempts[username] = a
	}
	a.lastSeen = now
	return a.limiter.AllowN(now, 1)
}

func (l *loginLimiter) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.attempts)
}
