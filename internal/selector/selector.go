// Package selector ranks the configured providers for one request: it
// filters out anything unavailable or over budget, scores the rest by the
// caller's stated priority, and returns them best-first.
package selector

import (
	"sort"
	"sync"

	"github.com/axiomrelay/gateway/internal/breaker"
	"github.com/axiomrelay/gateway/internal/cost"
	"github.com/axiomrelay/gateway/internal/ratelimit"
	"github.com/axiomrelay/gateway/internal/state"
	"github.com/axiomrelay/gateway/pkg/types"
)

// Boosts holds the specialty-match multipliers applied to a provider's
// score when its specialties include the request's classified category.
type Boosts struct {
	Quality     float64 // e.g. 1.1, makes an already-negative quality score more negative
	CostOrSpeed float64 // e.g. 0.9, shrinks an ascending cost/latency score
}

type candidate struct {
	spec types.ProviderSpec
	cost float64
}

// Select returns the providers that are currently eligible for prompt,
// ordered best-first under prefs.Priority, with specialist providers for
// category boosted. Eligibility checks run concurrently across providers
// since they touch independent per-provider state.
//
// The rate-limit check here is a pre-filter only: it peeks at the current
// window without consuming a slot. The Router still has to claim the slot
// with Limiter.Allow immediately before invocation, since a provider that
// passes this filter can be exhausted by a concurrent request before this
// one gets to call it.
func Select(
	providers []types.ProviderSpec,
	prompt string,
	category string,
	prefs types.RequestPreferences,
	store *state.Store,
	br *breaker.Breaker,
	limiter *ratelimit.Limiter,
	boosts Boosts,
) []types.ProviderSpec {
	eligible := make([]candidate, 0, len(providers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, spec := range providers {
		wg.Add(1)
		go func(spec types.ProviderSpec) {
			defer wg.Done()

			if store.Snapshot(spec.Name).ManualDown {
				return
			}
			if !br.IsAvailable(spec.Name) {
				return
			}
			if !limiter.Peek(spec.Name, spec.RateLimitRPM) {
				return
			}

			estimatedCost := cost.EstimateCost(spec.Model, spec.CostPerToken, prompt)
			if prefs.MaxCostPerRequest != nil && estimatedCost > *prefs.MaxCostPerRequest {
				return
			}

			mu.Lock()
			eligible = append(eligible, candidate{spec: spec, cost: estimatedCost})
			mu.Unlock()
		}(spec)
	}
	wg.Wait()

	// Stable-sort restores the configured provider order among ties, since
	// the fan-out above does not preserve arrival order.
	order := make(map[string]int, len(providers))
	for i, p := range providers {
		order[p.Name] = i
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return order[eligible[i].spec.Name] < order[eligible[j].spec.Name]
	})

	sort.SliceStable(eligible, func(i, j int) bool {
		return score(eligible[i], prefs, category, boosts) < score(eligible[j], prefs, category, boosts)
	})

	result := make([]types.ProviderSpec, len(eligible))
	for i, c := range eligible {
		result[i] = c.spec
	}
	return result
}

func score(c candidate, prefs types.RequestPreferences, category string, boosts Boosts) float64 {
	var base float64
	switch prefs.Priority {
	case types.PrioritySpeed:
		base = float64(c.spec.LatencyMS)
	case types.PriorityQuality:
		base = -c.spec.QualityScore
	default: // cost, or unrecognized priority
		base = c.cost
	}

	if !hasSpecialty(c.spec.Specialties, category) {
		return base
	}

	switch prefs.Priority {
	case types.PriorityQuality:
		return base * boosts.Quality
	case types.PrioritySpeed, types.PriorityCost:
		return base * boosts.CostOrSpeed
	default:
		return base
	}
}

func hasSpecialty(specialties []string, category string) bool {
	for _, s := range specialties {
		if s == category {
			return true
		}
	}
	return false
}
