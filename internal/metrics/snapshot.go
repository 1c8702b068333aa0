package metrics

import (
	"github.com/axiomrelay/gateway/internal/breaker"
	"github.com/axiomrelay/gateway/internal/state"
	"github.com/axiomrelay/gateway/pkg/types"
)

// BuildAnalytics assembles the JSON body for GET /routing/analytics from
// the current state store.
func BuildAnalytics(store *state.Store, br *breaker.Breaker) types.AnalyticsResponse {
	g := store.GlobalSnapshot()
	resp := types.AnalyticsResponse{
		Global:    globalMetrics(g),
		Providers: make(map[string]types.ProviderMetrics),
	}

	for _, name := range store.ProviderNames() {
		snap := store.Snapshot(name)
		resp.Providers[name] = types.ProviderMetrics{
			Requests:      snap.Requests,
			Success:       snap.Success,
			Failures:      snap.Failures,
			RateLimited:   snap.RateLimited,
			SuccessRate:   successRate(snap.Success, snap.Requests),
			AvgLatencyMS:  avgLatency(snap.LatencySumMS, snap.Success),
			IsDown:        snap.ManualDown,
			CircuitStatus: br.Status(name),
		}
	}
	return resp
}

// BuildProviderStatuses assembles the JSON body for GET /providers: each
// configured spec enriched with its live health.
func BuildProviderStatuses(providers []types.ProviderSpec, store *state.Store, br *breaker.Breaker) []types.ProviderStatus {
	statuses := make([]types.ProviderStatus, 0, len(providers))
	for _, spec := range providers {
		snap := store.Snapshot(spec.Name)
		statuses = append(statuses, types.ProviderStatus{
			ProviderSpec:  spec,
			IsDown:        snap.ManualDown,
			CircuitStatus: br.Status(spec.Name),
			SuccessRate:   successRate(snap.Success, snap.Requests),
		})
	}
	return statuses
}

func globalMetrics(g state.GlobalSnapshot) types.GlobalMetrics {
	return types.GlobalMetrics{
		TotalRequests:    g.Requests,
		TotalSuccess:     g.Success,
		TotalFailures:    g.Failures,
		TotalRateLimited: g.RateLimited,
		AvgLatencyMS:     avgLatency(g.LatencySumMS, g.Success),
		TotalCost:        g.Cost,
		SuccessRate:      successRate(g.Success, g.Requests),
	}
}

func successRate(success, requests int64) float64 {
	if requests == 0 {
		return 0
	}
	return float64(success) / float64(requests)
}

func avgLatency(sumMS float64, success int64) float64 {
	if success == 0 {
		return 0
	}
	return sumMS / float64(success)
}
