package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestLimiter(t *testing.T, max int, now *time.Time) *AuthLimiter {
	t.Helper()
	l := NewAuthLimiter(max, time.Minute)
	t.Cleanup(l.Close)
	l.now = func() time.Time { return *now }
	return l
}

func TestAttempt_SlidingWindow(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(t, 3, &now)
	key := Key{IP: "1.2.3.4", Form: "login"}

	for i := range 3 {
		ok, _ := l.Attempt(key)
		assert.True(t, ok, "attempt %d", i+1)
		now = now.Add(10 * time.Second)
	}

	ok, wait := l.Attempt(key)
	assert.False(t, ok)
	assert.Equal(t, 30, wait, "the first attempt leaves the window 60s after it was made")

	// Once the first attempt slides out, one more is allowed, not three.
	now = now.Add(30 * time.Second)
	ok, _ = l.Attempt(key)
	assert.True(t, ok)
	ok, wait = l.Attempt(key)
	assert.False(t, ok)
	assert.Equal(t, 10, wait)
}

func TestAttempt_KeysAreIndependent(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(t, 1, &now)

	ok, _ := l.Attempt(Key{IP: "1.2.3.4", Form: "login"})
	assert.True(t, ok)
	ok, _ = l.Attempt(Key{IP: "1.2.3.4", Form: "login"})
	assert.False(t, ok)

	ok, _ = l.Attempt(Key{IP: "1.2.3.4", Form: "signup"})
	assert.True(t, ok, "a locked-out login does not block sign-up")
	ok, _ = l.Attempt(Key{IP: "5.6.7.8", Form: "login"})
	assert.True(t, ok, "limits are per IP")
}

func TestForgetAndSweep(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(t, 1, &now)
	key := Key{IP: "ip", Form: "signup"}

	ok, _ := l.Attempt(key)
	assert.True(t, ok)
	l.Forget(key)
	ok, _ = l.Attempt(key)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	l.sweep()
	l.mu.Lock()
	assert.Empty(t, l.attempts)
	l.mu.Unlock()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:5555", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.2 "}, "10.0.0.1:5555", "198.51.100.2"},
		{"no port", nil, "10.0.0.9", "10.0.0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/auth/login", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestFormatWait(t *testing.T) {
	assert.Equal(t, "45 second(s)", FormatWait(45))
	assert.Equal(t, "2 minute(s)", FormatWait(120))
	assert.Equal(t, "2 minute(s)", FormatWait(61))
}
