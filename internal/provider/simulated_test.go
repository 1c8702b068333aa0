package provider

import (
	"context"
	"testing"
	"time"

	"github.com/axiomrelay/gateway/pkg/types"
)

func TestSimulatedClient_SuccessReturnsContentAndCost(t *testing.T) {
	spec := types.ProviderSpec{Name: "openai", Model: "gpt-4o-mini", CostPerToken: 0.0000015, LatencyMS: 1}
	c := NewSimulatedClient(spec, 0)

	result, err := c.Chat(context.Background(), "hello there", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Cost <= 0 {
		t.Error("expected a positive cost for a non-empty prompt")
	}
	if result.Content == "" {
		t.Error("expected non-empty content")
	}
}

func TestSimulatedClient_AlwaysFailsAtFailureRateOne(t *testing.T) {
	spec := types.ProviderSpec{Name: "flaky", LatencyMS: 1}
	c := NewSimulatedClient(spec, 1.0)

	_, err := c.Chat(context.Background(), "hello", 0)
	if err == nil {
		t.Error("expected a simulated failure when failure rate is 1.0")
	}
}

func TestSimulatedClient_RespectsContextCancellation(t *testing.T) {
	spec := types.ProviderSpec{Name: "slow", LatencyMS: 5000}
	c := NewSimulatedClient(spec, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Chat(ctx, "hello", 0)
	if err == nil {
		t.Error("expected the call to be cancelled before the simulated latency elapses")
	}
}

func TestSimulatedClient_TimeoutMSOverridesContext(t *testing.T) {
	spec := types.ProviderSpec{Name: "slow", LatencyMS: 5000}
	c := NewSimulatedClient(spec, 0)

	_, err := c.Chat(context.Background(), "hello", 10)
	if err == nil {
		t.Error("expected timeoutMS to cut the call short")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 50); got != "short" {
		t.Errorf("truncate should not modify a string shorter than n, got %q", got)
	}
	if got := truncate("this is a very long prompt that exceeds the limit", 10); got != "this is a ..." {
		t.Errorf("truncate(...) = %q", got)
	}
}
