// Package ratelimit throttles account form submissions.
//
// Attempts are counted per client IP and per form, so a burst of failed
// logins does not lock the same visitor out of signing up. Each key keeps
// the times of its recent attempts; an attempt is allowed while fewer than
// max of them fall inside the trailing window.
//
// The package depends on nothing inside the module so both handlers and
// middleware can import it.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Key identifies one throttled stream of attempts.
type Key struct {
	IP   string
	Form string
}

// AuthLimiter limits submissions of the login and sign-up forms.
//
//	limiter := ratelimit.NewAuthLimiter(10, 2*time.Minute)
//	defer limiter.Close()
//	if ok, wait := limiter.Attempt(key); !ok { /* 429, Retry-After: wait */ }
type AuthLimiter struct {
	mu       sync.Mutex
	attempts map[Key][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// NewAuthLimiter allows max attempts per key in any trailing window and
// starts the janitor that forgets idle keys.
func NewAuthLimiter(max int, window time.Duration) *AuthLimiter {
	l := &AuthLimiter{
		attempts: make(map[Key][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.janitor()
	return l
}

// Attempt records an attempt for key. When the key is over its limit the
// attempt is not recorded and wait is how long until the oldest counted
// attempt leaves the window, rounded up to whole seconds.
func (l *AuthLimiter) Attempt(key Key) (ok bool, wait int) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(key, now)
	if len(recent) >= l.max {
		left := recent[0].Add(l.window).Sub(now)
		return false, int((left + time.Second - 1) / time.Second)
	}
	l.attempts[key] = append(recent, now)
	return true, 0
}

// Forget clears key, typically after a successful submission.
func (l *AuthLimiter) Forget(key Key) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}

// Close stops the janitor. Safe to call twice.
func (l *AuthLimiter) Close() {
	l.closeOnce.Do(func() { close(l.stop) })
	<-l.done
}

// prune drops attempts older than the window and returns what is left.
// Caller holds l.mu.
func (l *AuthLimiter) prune(key Key, now time.Time) []time.Time {
	times := l.attempts[key]
	cut := 0
	for cut < len(times) && now.Sub(times[cut]) >= l.window {
		cut++
	}
	if cut == len(times) {
		delete(l.attempts, key)
		return nil
	}
	times = times[cut:]
	l.attempts[key] = times
	return times
}

func (l *AuthLimiter) janitor() {
	defer close(l.done)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *AuthLimiter) sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.attempts {
		l.prune(key, now)
	}
}

// ClientIP returns the client IP of r.
//
// X-Forwarded-For (first hop) wins over X-Real-IP, which wins over
// RemoteAddr; behind a reverse proxy RemoteAddr is always the proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormatWait renders a wait in seconds as "2 minute(s)" or "45 second(s)".
func FormatWait(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", (seconds+59)/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
