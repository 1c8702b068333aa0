// Package ratelimit implements the per-provider rate window: each provider
// may accept at most rate_limit_rpm requests per 60-second window. The
// window opens at the first request and resets once 60 seconds have passed
// since it opened. It is not a rolling window: up to twice rate_limit_rpm
// requests can be admitted within a 60-second span that straddles a reset.
package ratelimit

import (
	"time"

	"github.com/axiomrelay/gateway/internal/state"
)

// Limiter checks and updates the sliding window held in a state.Store.
type Limiter struct {
	store *state.Store
	now   func() time.Time
}

// New returns a Limiter backed by store.
func New(store *state.Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// Allow reports whether one more request may be admitted for name given
// its rpmLimit. The window resets once 60 seconds have elapsed since it
// was opened, rather than tracking every individual timestamp; the counter
// is incremented and persisted on every call, including rejected ones, so
// that a provider pinned at its limit stays rejected for the rest of the
// window instead of flapping.
func (l *Limiter) Allow(name string, rpmLimit int) bool {
	allowed := false
	l.store.WithProvider(name, func(p *state.ProviderState) {
		now := l.now()

		windowStart := p.RateWindowStart()
		count := p.RateWindowCount()

		if windowStart.IsZero() || now.Sub(windowStart) >= state.RateWindowDuration {
			windowStart = now
			count = 0
		}

		count++
		p.SetRateWindowStart(windowStart)
		p.SetRateWindowCount(count)

		allowed = count <= rpmLimit
	})
	return allowed
}

// Peek reports whether name has headroom under rpmLimit without consuming a
// slot from its window. Selection uses this as a pre-filter to exclude
// already-exhausted providers from the ranking; the actual slot is still
// claimed via Allow immediately before invocation, since a provider that
// passes the pre-filter can be exhausted by a concurrent request before
// this request gets to call it.
func (l *Limiter) Peek(name string, rpmLimit int) bool {
	return l.store.CurrentRate(name, l.now()) < rpmLimit
}
