package provider

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/axiomrelay/gateway/internal/cost"
	"github.com/axiomrelay/gateway/pkg/types"
)

// SimulatedClient stands in for a real backend call: it sleeps for the
// configured provider's latency, fails at a configured rate, and otherwise
// returns a canned response priced by the cost estimator. It exists so the
// routing pipeline is exercisable without real provider credentials.
type SimulatedClient struct {
	spec        types.ProviderSpec
	failureRate float64
	now         func() time.Time
}

// NewSimulatedClient returns a SimulatedClient for spec, failing roughly
// failureRate of the time (0.0-1.0).
func NewSimulatedClient(spec types.ProviderSpec, failureRate float64) *SimulatedClient {
	return &SimulatedClient{spec: spec, failureRate: failureRate, now: time.Now}
}

// Chat blocks for the provider's configured latency (or until ctx is
// cancelled), then either fails or returns a mock completion priced against
// the prompt.
func (c *SimulatedClient) Chat(ctx context.Context, prompt string, timeoutMS int) (types.ChatResult, error) {
	if timeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutMS)*time.Millisecond)
		defer cancel()
	}

	start := c.now()

	select {
	case <-time.After(time.Duration(c.spec.LatencyMS) * time.Millisecond):
	case <-ctx.Done():
		return types.ChatResult{}, ctx.Err()
	}

	// A real backend can fail with either a vendor-side rate limit or any
	// other error, and those two are classified differently by the router.
	// The simulation has no backend to be rate-limited by, so every induced
	// failure here is a plain error, which the router treats as KindOther.
	if rand.Float64() < c.failureRate {
		return types.ChatResult{}, fmt.Errorf("simulated failure from %s", c.spec.Name)
	}

	latencyMS := int(c.now().Sub(start).Milliseconds())
	requestCost := cost.EstimateCost(c.spec.Model, c.spec.CostPerToken, prompt)

	return types.ChatResult{
		Content:   fmt.Sprintf("mock response from %s: %s", c.spec.Name, truncate(prompt, 50)),
		LatencyMS: latencyMS,
		Cost:      requestCost,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
