// Package router orchestrates one chat request end to end: budget gate,
// classification, provider ranking, and the cross-provider fallback loop.
package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/axiomrelay/gateway/internal/breaker"
	"github.com/axiomrelay/gateway/internal/classify"
	"github.com/axiomrelay/gateway/internal/metrics"
	"github.com/axiomrelay/gateway/internal/provider"
	"github.com/axiomrelay/gateway/internal/ratelimit"
	"github.com/axiomrelay/gateway/internal/selector"
	"github.com/axiomrelay/gateway/internal/state"
	routererr "github.com/axiomrelay/gateway/pkg/errors"
	"github.com/axiomrelay/gateway/pkg/types"
)

// ProviderSource returns the currently configured provider specs, in
// configuration order. It is a function rather than a static slice so the
// router always sees a hot-reloaded provider list without needing to be
// rebuilt itself.
type ProviderSource func() []types.ProviderSpec

// Router ties the routing pipeline together. All of its collaborators are
// safe for concurrent use, so one Router is shared across every request.
type Router struct {
	Providers  ProviderSource
	Store      *state.Store
	Classifier *classify.Classifier
	Breaker    *breaker.Breaker
	Limiter    *ratelimit.Limiter
	Registry   *provider.Registry
	Metrics    *metrics.Recorder
	Boosts     selector.Boosts
	BudgetCap  float64
	Logger     *slog.Logger
}

// Route runs the full pipeline for one request: budget check, classify,
// rank, then walk the ranked providers in order until one succeeds or the
// list is exhausted.
func (r *Router) Route(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	log := r.Logger
	if req.UserID != "" {
		log = log.With("user_id", req.UserID)
		if spend := r.Store.UserSpend(req.UserID); spend > r.BudgetCap {
			log.Warn("budget exceeded", "spend", spend, "cap", r.BudgetCap)
			return types.ChatResponse{}, routererr.NewBudgetExceededError(
				fmt.Sprintf("user %s has spent %.4f, over the %.2f cap", req.UserID, spend, r.BudgetCap))
		}
	}

	category := r.Classifier.Classify(req.Prompt)
	log.Info("handling request", "prompt_length", len(req.Prompt), "category", category)

	providers := r.Providers()
	ranked := selector.Select(providers, req.Prompt, category, req.Preferences, r.Store, r.Breaker, r.Limiter, r.Boosts)
	if len(ranked) == 0 {
		log.Error("no providers available", "reason", "empty_ranking")
		return types.ChatResponse{}, routererr.NewNoProvidersAvailableError("all providers unavailable")
	}

	for _, spec := range ranked {
		plog := log.With("provider", spec.Name)

		if !r.Limiter.Allow(spec.Name, spec.RateLimitRPM) {
			plog.Warn("provider rate limited")
			r.Breaker.RecordProbeRateLimited(spec.Name)
			r.Store.RecordRequestMetrics(spec.Name, 0, 0, state.OutcomeRateLimited)
			r.Metrics.RecordOutcome(spec.Name, 0, 0, state.OutcomeRateLimited)
			continue
		}

		client, ok := r.Registry.Get(spec.Name)
		if !ok {
			plog.Error("no client registered for provider")
			continue
		}

		plog.Info("calling provider")
		result, err := client.Chat(ctx, req.Prompt, req.Preferences.TimeoutMS)
		if err != nil {
			if provider.IsRateLimited(err) {
				plog.Warn("provider reported rate limit", "error", err)
				r.Breaker.RecordProbeRateLimited(spec.Name)
				r.Store.RecordRequestMetrics(spec.Name, 0, 0, state.OutcomeRateLimited)
				r.Metrics.RecordOutcome(spec.Name, 0, 0, state.OutcomeRateLimited)
				continue
			}

			plog.Error("provider failed", "error", err)
			r.Breaker.RecordOutcome(spec.Name, false)
			r.Store.RecordRequestMetrics(spec.Name, 0, 0, state.OutcomeFailure)
			r.Metrics.RecordOutcome(spec.Name, 0, 0, state.OutcomeFailure)
			continue
		}

		r.Breaker.RecordOutcome(spec.Name, true)
		if req.UserID != "" {
			r.Store.AddUserSpend(req.UserID, result.Cost)
		}
		r.Store.RecordRequestMetrics(spec.Name, result.LatencyMS, result.Cost, state.OutcomeSuccess)
		r.Metrics.RecordOutcome(spec.Name, result.LatencyMS, result.Cost, state.OutcomeSuccess)
		plog.Info("provider success", "latency_ms", result.LatencyMS, "cost", result.Cost)

		return types.ChatResponse{
			ProviderUsed: spec.Name,
			Content:      result.Content,
			LatencyMS:    result.LatencyMS,
			Cost:         result.Cost,
		}, nil
	}

	log.Error("all providers failed")
	return types.ChatResponse{}, routererr.NewNoProvidersAvailableError("all providers unavailable")
}
