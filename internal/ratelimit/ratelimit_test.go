package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(limit int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := New(limit, window)
	l.now = clock.Now
	return l, clock
}

func TestAllowBudgetPerKey(t *testing.T) {
	l, _ := newTestLimiter(5, 15*time.Minute)
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("login:1.2.3.4"), "attempt %d", i+1)
	}
	assert.False(t, l.Allow("login:1.2.3.4"))
	assert.True(t, l.Allow("login:5.6.7.8"))
}

func TestAllowRefills(t *testing.T) {
	l, clock := newTestLimiter(5, 15*time.Minute)
	for i := 0; i < 5; i++ {
		l.Allow("k")
	}
	assert.False(t, l.Allow("k"))

	clock.Advance(3 * time.Minute)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}

func TestIdleKeysEvicted(t *testing.T) {
	l, clock := newTestLimiter(2, time.Hour)
	for i := 0; i < 10; i++ {
		l.Allow(fmt.Sprintf("upload:%d", i))
	}
	assert.Equal(t, 10, l.Len())

	clock.Advance(time.Hour)
	l.Allow("upload:fresh")
	assert.Equal(t, 1, l.Len())
}

func TestResetAndDisabled(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
	l.Reset("k")
	assert.True(t, l.Allow("k"))

	off := New(0, time.Minute)
	for i := 0; i < 100; i++ {
		assert.True(t, off.Allow("k"))
	}
}
