package ratelimit

import (
	"testing"
	"time"

	"github.com/axiomrelay/gateway/internal/state"
)

func newTestLimiter() (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Now()}
	l := New(state.New())
	l.now = clock.Now
	return l, clock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLimiter_AllowsWithinLimit(t *testing.T) {
	l, _ := newTestLimiter()

	for i := 0; i < 5; i++ {
		if !l.Allow("openai", 5) {
			t.Errorf("request %d should be allowed", i+1)
		}
	}
}

func TestLimiter_RejectsOverLimit(t *testing.T) {
	l, _ := newTestLimiter()

	for i := 0; i < 5; i++ {
		l.Allow("openai", 5)
	}
	if l.Allow("openai", 5) {
		t.Error("6th request should be rejected")
	}
}

func TestLimiter_WindowResetsAfter60Seconds(t *testing.T) {
	l, clock := newTestLimiter()

	for i := 0; i < 5; i++ {
		l.Allow("openai", 5)
	}
	if l.Allow("openai", 5) {
		t.Fatal("should be rate limited before the window resets")
	}

	clock.Advance(61 * time.Second)

	if !l.Allow("openai", 5) {
		t.Error("request should be allowed once the window has rolled over")
	}
}

func TestLimiter_WindowDoesNotResetEarly(t *testing.T) {
	l, clock := newTestLimiter()

	for i := 0; i < 5; i++ {
		l.Allow("openai", 5)
	}
	clock.Advance(30 * time.Second)

	if l.Allow("openai", 5) {
		t.Error("window should not have reset at 30s")
	}
}

func TestLimiter_IndependentPerProvider(t *testing.T) {
	l, _ := newTestLimiter()

	for i := 0; i < 5; i++ {
		l.Allow("openai", 5)
	}

	if !l.Allow("google", 5) {
		t.Error("google should have its own independent window")
	}
}
