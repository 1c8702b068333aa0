// Package breaker implements the per-provider circuit breaker: after
// FailureThreshold consecutive failures a provider is blocked for
// ResetDuration, after which exactly one probe request is let through to
// test recovery.
package breaker

import (
	"time"

	"github.com/axiomrelay/gateway/internal/state"
)

const (
	StatusClosed   = "CLOSED"
	StatusOpen     = "OPEN"
	StatusHalfOpen = "HALF_OPEN"
)

// Breaker evaluates and updates circuit state held in a state.Store. It
// holds no state of its own beyond its tuning knobs, so one Breaker can be
// shared by every request goroutine.
type Breaker struct {
	store            *state.Store
	failureThreshold int
	resetDuration    time.Duration
	now              func() time.Time
}

// New returns a Breaker backed by store, opening after failureThreshold
// consecutive failures and staying open for resetDuration.
func New(store *state.Store, failureThreshold int, resetDuration time.Duration) *Breaker {
	return &Breaker{
		store:            store,
		failureThreshold: failureThreshold,
		resetDuration:    resetDuration,
		now:              time.Now,
	}
}

// IsAvailable reports whether a request may currently be sent to name.
//
//   - CLOSED (failures below threshold): always available.
//   - OPEN (threshold reached, reset window not yet elapsed): never available.
//   - HALF_OPEN (reset window elapsed): exactly one probe is let through;
//     while it is in flight every other caller is blocked.
func (b *Breaker) IsAvailable(name string) bool {
	available := false
	b.store.WithProvider(name, func(p *state.ProviderState) {
		available = b.isAvailableLocked(p)
	})
	return available
}

// RecordOutcome updates breaker bookkeeping for a completed attempt.
// Success resets the failure count, closes the circuit, and clears the
// probe flag. Failure increments the failure count, opens the circuit once
// the threshold is reached, and always clears the probe flag.
func (b *Breaker) RecordOutcome(name string, success bool) {
	b.store.WithProvider(name, func(p *state.ProviderState) {
		if success {
			p.SetConsecutiveFailures(0)
			p.SetOpenUntil(time.Time{})
			p.SetHalfOpenInFlight(false)
			return
		}

		failures := p.ConsecutiveFailures() + 1
		p.SetConsecutiveFailures(failures)
		if failures >= b.failureThreshold {
			p.SetOpenUntil(b.now().Add(b.resetDuration))
		}
		p.SetHalfOpenInFlight(false)
	})
}

// RecordProbeRateLimited handles a rate-limited outcome for a candidate
// that may have been the single winning HALF_OPEN probe (claimed by
// IsAvailable during selection, or by a concurrent request). If the probe
// slot was in fact claimed on this provider, it is released and the reset
// window restarts, matching the "probe fails or is rate-limited" OPEN
// transition. A rate limit against a provider that was simply CLOSED is a
// no-op: a rate-limited outcome never trips the breaker on its own.
func (b *Breaker) RecordProbeRateLimited(name string) {
	b.store.WithProvider(name, func(p *state.ProviderState) {
		if !p.HalfOpenInFlight() {
			return
		}
		p.SetOpenUntil(b.now().Add(b.resetDuration))
		p.SetHalfOpenInFlight(false)
	})
}

// Status returns the breaker's current state for display purposes. It does
// not mutate any state (unlike IsAvailable, which may claim the single
// half-open probe slot).
func (b *Breaker) Status(name string) string {
	status := StatusClosed
	b.store.WithProvider(name, func(p *state.ProviderState) {
		status = b.statusLocked(p)
	})
	return status
}

func (b *Breaker) isAvailableLocked(p *state.ProviderState) bool {
	if p.ConsecutiveFailures() < b.failureThreshold {
		return true
	}

	openUntil := p.OpenUntil()
	now := b.now()

	if !openUntil.IsZero() && now.Before(openUntil) {
		return false
	}

	// Reset window elapsed (or never set): exactly one probe gets through.
	if p.HalfOpenInFlight() {
		return false
	}
	p.SetHalfOpenInFlight(true)
	return true
}

func (b *Breaker) statusLocked(p *state.ProviderState) string {
	if p.ConsecutiveFailures() < b.failureThreshold {
		return StatusClosed
	}

	openUntil := p.OpenUntil()
	now := b.now()

	if !openUntil.IsZero() && now.Before(openUntil) {
		return StatusOpen
	}
	if !openUntil.IsZero() && !now.Before(openUntil) {
		return StatusHalfOpen
	}
	return StatusClosed
}
