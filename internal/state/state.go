// Package state is the gateway's single shared mutable resource: an
// in-process store for provider health, sliding rate windows, metrics, and
// user spend. Nothing here touches disk or another process; a restart
// loses all of it, by design.
//
// Provider state is locked per provider name instead of behind one global
// mutex, so a request touching "openai" never contends with one touching
// "google". User spend sits behind a single mutex shared by all users,
// separate from the provider locks, so requests for different users do
// contend on it. No lock is ever held while an external provider call is in
// flight.
package state

import (
	"sync"
	"time"
)

// ProviderState is one provider's dynamic, mutable health and metrics data.
type ProviderState struct {
	mu sync.Mutex

	// Circuit breaker bookkeeping.
	consecutiveFailures int
	openUntil           time.Time
	halfOpenInFlight    bool
	manualDown          bool

	// Sliding rate-limit window.
	rateWindowStart time.Time
	rateWindowCount int

	// Metrics.
	requests     int64
	success      int64
	failures     int64
	rateLimited  int64
	latencySumMS float64
	cost         float64
}

// Snapshot is a point-in-time copy of a ProviderState safe to read without
// holding any lock.
type Snapshot struct {
	ConsecutiveFailures int
	OpenUntil           time.Time
	HalfOpenInFlight    bool
	ManualDown          bool
	Requests            int64
	Success             int64
	Failures            int64
	RateLimited         int64
	LatencySumMS        float64
	Cost                float64
}

// GlobalMetrics is the cross-provider rollup.
type GlobalMetrics struct {
	mu           sync.Mutex
	requests     int64
	success      int64
	failures     int64
	rateLimited  int64
	latencySumMS float64
	cost         float64
}

// GlobalSnapshot is a point-in-time copy of GlobalMetrics.
type GlobalSnapshot struct {
	Requests     int64
	Success      int64
	Failures     int64
	RateLimited  int64
	LatencySumMS float64
	Cost         float64
}

// Store is the top-level state container. Zero value is not usable; use
// New.
type Store struct {
	mu        sync.RWMutex
	providers map[string]*ProviderState
	users     map[string]*float64

	usersMu sync.Mutex

	global GlobalMetrics
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		providers: make(map[string]*ProviderState),
		users:     make(map[string]*float64),
	}
}

func (s *Store) providerState(name string) *ProviderState {
	s.mu.RLock()
	p, ok := s.providers[name]
	s.mu.RUnlock()
	if ok {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok = s.providers[name]; ok {
		return p
	}
	p = &ProviderState{}
	s.providers[name] = p
	return p
}

// The accessors below assume the caller is already holding p's lock, which
// is true for every ProviderState reached through Store.WithProvider. They
// exist so breaker and ratelimit can read and update circuit/window state
// without reaching into this package's private fields.

func (p *ProviderState) ConsecutiveFailures() int       { return p.consecutiveFailures }
func (p *ProviderState) SetConsecutiveFailures(n int)   { p.consecutiveFailures = n }
func (p *ProviderState) OpenUntil() time.Time           { return p.openUntil }
func (p *ProviderState) SetOpenUntil(t time.Time)       { p.openUntil = t }
func (p *ProviderState) HalfOpenInFlight() bool         { return p.halfOpenInFlight }
func (p *ProviderState) SetHalfOpenInFlight(v bool)     { p.halfOpenInFlight = v }
func (p *ProviderState) ManualDown() bool               { return p.manualDown }
func (p *ProviderState) RateWindowStart() time.Time     { return p.rateWindowStart }
func (p *ProviderState) SetRateWindowStart(t time.Time) { p.rateWindowStart = t }
func (p *ProviderState) RateWindowCount() int           { return p.rateWindowCount }
func (p *ProviderState) SetRateWindowCount(n int)       { p.rateWindowCount = n }

// Snapshot returns a consistent copy of a provider's current state.
func (s *Store) Snapshot(name string) Snapshot {
	p := s.providerState(name)
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		ConsecutiveFailures: p.consecutiveFailures,
		OpenUntil:           p.openUntil,
		HalfOpenInFlight:    p.halfOpenInFlight,
		ManualDown:          p.manualDown,
		Requests:            p.requests,
		Success:             p.success,
		Failures:            p.failures,
		RateLimited:         p.rateLimited,
		LatencySumMS:        p.latencySumMS,
		Cost:                p.cost,
	}
}

// SetManualDown marks a provider up or down, as driven by POST /simulate/failure.
func (s *Store) SetManualDown(name string, down bool) {
	p := s.providerState(name)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.manualDown = down
}

// WithProvider runs fn against the named provider's state while holding its
// per-provider lock; fn must not perform any blocking external call.
func (s *Store) WithProvider(name string, fn func(*ProviderState)) {
	p := s.providerState(name)
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

// ProviderNames returns the names of every provider the store has seen.
func (s *Store) ProviderNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.providers))
	for n := range s.providers {
		names = append(names, n)
	}
	return names
}

// RecordRequestMetrics records the outcome of one completed attempt against
// a provider, updating both its per-provider counters and the global
// rollup. Latency is only folded into the sum on success, matching the
// reference store's "don't skew average latency with failed requests" rule.
func (s *Store) RecordRequestMetrics(name string, latencyMS int, requestCost float64, outcome Outcome) {
	s.WithProvider(name, func(p *ProviderState) {
		p.requests++
		switch outcome {
		case OutcomeSuccess:
			p.success++
			p.latencySumMS += float64(latencyMS)
			p.cost += requestCost
		case OutcomeFailure:
			p.failures++
		case OutcomeRateLimited:
			p.rateLimited++
		}
	})

	s.global.mu.Lock()
	defer s.global.mu.Unlock()
	s.global.requests++
	switch outcome {
	case OutcomeSuccess:
		s.global.success++
		s.global.latencySumMS += float64(latencyMS)
		s.global.cost += requestCost
	case OutcomeFailure:
		s.global.failures++
	case OutcomeRateLimited:
		s.global.rateLimited++
	}
}

// GlobalSnapshot returns a consistent copy of the cross-provider rollup.
func (s *Store) GlobalSnapshot() GlobalSnapshot {
	s.global.mu.Lock()
	defer s.global.mu.Unlock()
	return GlobalSnapshot{
		Requests:     s.global.requests,
		Success:      s.global.success,
		Failures:     s.global.failures,
		RateLimited:  s.global.rateLimited,
		LatencySumMS: s.global.latencySumMS,
		Cost:         s.global.cost,
	}
}

// RateWindowDuration is the width of the sliding rate-limit window shared
// by the rate limiter's admission check and this store's read-only peek.
const RateWindowDuration = 60 * time.Second

// CurrentRate returns how many requests a provider has been charged against
// its rate window as of now, without admitting or recording a new one. A
// window that has fully elapsed reads as empty, since admitting the next
// request would open a fresh one.
func (s *Store) CurrentRate(name string, now time.Time) int {
	count := 0
	s.WithProvider(name, func(p *ProviderState) {
		windowStart := p.RateWindowStart()
		if windowStart.IsZero() || now.Sub(windowStart) >= RateWindowDuration {
			return
		}
		count = p.RateWindowCount()
	})
	return count
}

// Outcome classifies a completed provider attempt for metrics purposes.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeRateLimited
)

// UserSpend returns a user's cumulative spend, 0 if unseen.
func (s *Store) UserSpend(userID string) float64 {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	if v, ok := s.users[userID]; ok {
		return *v
	}
	return 0
}

// AddUserSpend adds cost to a user's cumulative spend.
func (s *Store) AddUserSpend(userID string, requestCost float64) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	if v, ok := s.users[userID]; ok {
		*v += requestCost
		return
	}
	v := requestCost
	s.users[userID] = &v
}

// Reset clears all state. Intended for tests.
func (s *Store) Reset() {
	s.mu.Lock()
	s.providers = make(map[string]*ProviderState)
	s.mu.Unlock()

	s.usersMu.Lock()
	s.users = make(map[string]*float64)
	s.usersMu.Unlock()

	s.global.mu.Lock()
	s.global.requests = 0
	s.global.success = 0
	s.global.failures = 0
	s.global.rateLimited = 0
	s.global.latencySumMS = 0
	s.global.cost = 0
	s.global.mu.Unlock()
}
