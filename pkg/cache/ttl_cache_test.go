package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestGetSetExpire(t *testing.T) {
	clock := newClock()
	c := New[string, int](time.Minute, time.Hour, WithClock[string, int](clock.Now))
	defer c.Close()

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	clock.Advance(61 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "expired entries stay until the janitor runs")
}

func TestTouchSlidesExpiry(t *testing.T) {
	clock := newClock()
	c := New[string, int](time.Minute, time.Hour, WithClock[string, int](clock.Now))
	defer c.Close()

	c.Set("a", 1)
	for range 5 {
		clock.Advance(40 * time.Second)
		_, ok := c.Touch("a")
		require.True(t, ok)
	}

	clock.Advance(2 * time.Minute)
	_, ok := c.Touch("a")
	assert.False(t, ok, "expired entries are not revived")
}

func TestDeleteFuncAndClear(t *testing.T) {
	c := New[string, int](time.Minute, time.Hour)
	defer c.Close()

	c.Set("keep", 1)
	c.Set("drop-1", 2)
	c.Set("drop-2", 3)

	c.DeleteFunc(func(k string) bool { return k != "keep" })
	assert.Equal(t, 1, c.Len())

	c.Delete("keep")
	assert.Equal(t, 0, c.Len())

	c.Set("x", 1)
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestJanitorEvicts(t *testing.T) {
	clock := newClock()

	var mu sync.Mutex
	var evicted []string

	c := New[string, int](time.Minute, 5*time.Millisecond,
		WithClock[string, int](clock.Now),
		WithEvictCallback(func(k string, _ int) {
			mu.Lock()
			defer mu.Unlock()
			evicted = append(evicted, k)
		}),
	)
	defer c.Close()

	c.Set("old", 1)
	clock.Advance(2 * time.Minute)
	c.Set("fresh", 2)

	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"old"}, evicted)
}

func TestCloseTwice(t *testing.T) {
	c := New[string, int](time.Minute, time.Millisecond)
	c.Close()
	c.Close()
}
