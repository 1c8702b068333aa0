package selector

import (
	"testing"
	"time"

	"github.com/axiomrelay/gateway/internal/breaker"
	"github.com/axiomrelay/gateway/internal/ratelimit"
	"github.com/axiomrelay/gateway/internal/state"
	"github.com/axiomrelay/gateway/pkg/types"
)

func testBoosts() Boosts {
	return Boosts{Quality: 1.1, CostOrSpeed: 0.9}
}

func testProviders() []types.ProviderSpec {
	return []types.ProviderSpec{
		{Name: "cheap", Model: "cheap-model", CostPerToken: 0.0000001, LatencyMS: 900, RateLimitRPM: 100, QualityScore: 0.5},
		{Name: "fast", Model: "fast-model", CostPerToken: 0.000001, LatencyMS: 100, RateLimitRPM: 100, QualityScore: 0.6},
		{Name: "best", Model: "best-model", CostPerToken: 0.00001, LatencyMS: 500, RateLimitRPM: 100, QualityScore: 0.95, Specialties: []string{"code"}},
	}
}

func TestSelect_CostPriorityOrdersAscending(t *testing.T) {
	s := state.New()
	b := breaker.New(s, 3, 60*time.Second)
	l := ratelimit.New(s)

	result := Select(testProviders(), "hello", "general", types.RequestPreferences{Priority: types.PriorityCost}, s, b, l, testBoosts())

	if len(result) != 3 {
		t.Fatalf("got %d providers, want 3", len(result))
	}
	if result[0].Name != "cheap" {
		t.Errorf("cheapest provider should rank first, got %s", result[0].Name)
	}
}

func TestSelect_SpeedPriorityOrdersByLatency(t *testing.T) {
	s := state.New()
	b := breaker.New(s, 3, 60*time.Second)
	l := ratelimit.New(s)

	result := Select(testProviders(), "hello", "general", types.RequestPreferences{Priority: types.PrioritySpeed}, s, b, l, testBoosts())

	if result[0].Name != "fast" {
		t.Errorf("lowest-latency provider should rank first, got %s", result[0].Name)
	}
}

func TestSelect_QualityPriorityOrdersByHighestScore(t *testing.T) {
	s := state.New()
	b := breaker.New(s, 3, 60*time.Second)
	l := ratelimit.New(s)

	result := Select(testProviders(), "hello", "general", types.RequestPreferences{Priority: types.PriorityQuality}, s, b, l, testBoosts())

	if result[0].Name != "best" {
		t.Errorf("highest quality_score provider should rank first, got %s", result[0].Name)
	}
}

func TestSelect_SpecialtyBoostCanReorderQuality(t *testing.T) {
	s := state.New()
	b := breaker.New(s, 3, 60*time.Second)
	l := ratelimit.New(s)

	providers := []types.ProviderSpec{
		{Name: "generalist", RateLimitRPM: 100, QualityScore: 0.91},
		{Name: "specialist", RateLimitRPM: 100, QualityScore: 0.90, Specialties: []string{"code"}},
	}

	result := Select(providers, "write a function", "code", types.RequestPreferences{Priority: types.PriorityQuality}, s, b, l, testBoosts())

	if result[0].Name != "specialist" {
		t.Errorf("specialty boost should let the specialist outrank a slightly higher quality generalist, got %s", result[0].Name)
	}
}

func TestSelect_ExcludesManuallyDownProvider(t *testing.T) {
	s := state.New()
	b := breaker.New(s, 3, 60*time.Second)
	l := ratelimit.New(s)
	s.SetManualDown("cheap", true)

	result := Select(testProviders(), "hello", "general", types.RequestPreferences{Priority: types.PriorityCost}, s, b, l, testBoosts())

	for _, p := range result {
		if p.Name == "cheap" {
			t.Error("manually downed provider should be excluded")
		}
	}
}

func TestSelect_ExcludesBreakerUnavailableProvider(t *testing.T) {
	s := state.New()
	b := breaker.New(s, 3, 60*time.Second)
	l := ratelimit.New(s)
	b.RecordOutcome("cheap", false)
	b.RecordOutcome("cheap", false)
	b.RecordOutcome("cheap", false)

	result := Select(testProviders(), "hello", "general", types.RequestPreferences{Priority: types.PriorityCost}, s, b, l, testBoosts())

	for _, p := range result {
		if p.Name == "cheap" {
			t.Error("breaker-open provider should be excluded")
		}
	}
}

func TestSelect_ExcludesOverBudgetProvider(t *testing.T) {
	s := state.New()
	b := breaker.New(s, 3, 60*time.Second)
	l := ratelimit.New(s)
	maxCost := 0.0000005

	result := Select(testProviders(), "hello", "general", types.RequestPreferences{Priority: types.PriorityCost, MaxCostPerRequest: &maxCost}, s, b, l, testBoosts())

	for _, p := range result {
		if p.Name == "fast" || p.Name == "best" {
			t.Errorf("provider %s should have been excluded by max_cost_per_request", p.Name)
		}
	}
	if len(result) != 1 || result[0].Name != "cheap" {
		t.Errorf("only the cheap provider should survive the budget filter, got %v", result)
	}
}

func TestSelect_TieBreaksByConfiguredOrder(t *testing.T) {
	s := state.New()
	b := breaker.New(s, 3, 60*time.Second)
	l := ratelimit.New(s)

	providers := []types.ProviderSpec{
		{Name: "a", CostPerToken: 0.00001, RateLimitRPM: 100},
		{Name: "b", CostPerToken: 0.00001, RateLimitRPM: 100},
		{Name: "c", CostPerToken: 0.00001, RateLimitRPM: 100},
	}

	result := Select(providers, "hello", "general", types.RequestPreferences{Priority: types.PriorityCost}, s, b, l, testBoosts())

	if result[0].Name != "a" || result[1].Name != "b" || result[2].Name != "c" {
		t.Errorf("equal-score providers should keep their configured order, got %v", result)
	}
}

func TestSelect_NoEligibleProvidersReturnsEmpty(t *testing.T) {
	s := state.New()
	b := breaker.New(s, 3, 60*time.Second)
	l := ratelimit.New(s)
	s.SetManualDown("cheap", true)
	s.SetManualDown("fast", true)
	s.SetManualDown("best", true)

	result := Select(testProviders(), "hello", "general", types.RequestPreferences{Priority: types.PriorityCost}, s, b, l, testBoosts())

	if len(result) != 0 {
		t.Errorf("expected no eligible providers, got %v", result)
	}
}

func TestSelect_ExcludesRateLimitedProvider(t *testing.T) {
	s := state.New()
	b := breaker.New(s, 3, 60*time.Second)
	l := ratelimit.New(s)
	for i := 0; i < 100; i++ {
		l.Allow("cheap", 100)
	}

	providers := testProviders()
	for i := range providers {
		providers[i].RateLimitRPM = 100
	}

	result := Select(providers, "hello", "general", types.RequestPreferences{Priority: types.PriorityCost}, s, b, l, testBoosts())

	for _, p := range result {
		if p.Name == "cheap" {
			t.Error("a provider whose rate window is exhausted should be excluded during selection, not just at invocation time")
		}
	}
	if len(result) != 2 {
		t.Errorf("got %d providers, want 2 (fast and best)", len(result))
	}
}
