// Package types holds the wire and configuration shapes shared across the
// gateway: provider specs, request/response bodies, and metrics snapshots.
package types

import "time"

// ProviderSpec describes one configured backend, static for the lifetime of
// a config generation.
type ProviderSpec struct {
	Name         string   `yaml:"name" json:"name"`
	Model        string   `yaml:"model" json:"model"`
	CostPerToken float64  `yaml:"cost_per_token" json:"cost_per_token"`
	LatencyMS    int      `yaml:"latency_ms" json:"latency_ms"`
	RateLimitRPM int      `yaml:"rate_limit_rpm" json:"rate_limit_rpm"`
	Specialties  []string `yaml:"specialties" json:"specialties"`
	QualityScore float64  `yaml:"quality_score" json:"quality_score"`
}

// Priority is the caller's stated optimization target.
type Priority string

const (
	PriorityCost    Priority = "cost"
	PrioritySpeed   Priority = "speed"
	PriorityQuality Priority = "quality"
)

// RequestPreferences carries the caller's routing knobs for one request.
type RequestPreferences struct {
	Priority          Priority `json:"priority"`
	MaxCostPerRequest *float64 `json:"max_cost_per_request,omitempty"`
	TimeoutMS         int      `json:"timeout_ms"`
}

// ChatRequest is the body of POST /chat/completions.
type ChatRequest struct {
	Prompt      string             `json:"prompt"`
	Preferences RequestPreferences `json:"preferences"`
	UserID      string             `json:"user_id,omitempty"`
}

// ChatResponse is the body returned on a successful route.
type ChatResponse struct {
	ProviderUsed string  `json:"provider_used"`
	Content      string  `json:"content"`
	LatencyMS    int     `json:"latency_ms"`
	Cost         float64 `json:"cost"`
}

// ProviderStatus is ProviderSpec enriched with live health, returned by
// GET /providers.
type ProviderStatus struct {
	ProviderSpec
	IsDown        bool    `json:"is_down"`
	CircuitStatus string  `json:"circuit_status"`
	SuccessRate   float64 `json:"success_rate"`
}

// GlobalMetrics is the cross-provider rollup returned by GET /routing/analytics.
type GlobalMetrics struct {
	TotalRequests    int64   `json:"total_requests"`
	TotalSuccess     int64   `json:"total_success"`
	TotalFailures    int64   `json:"total_failures"`
	TotalRateLimited int64   `json:"total_rate_limited"`
	AvgLatencyMS     float64 `json:"avg_latency_ms"`
	TotalCost        float64 `json:"total_cost"`
	SuccessRate      float64 `json:"success_rate"`
}

// ProviderMetrics is the per-provider rollup returned by GET /routing/analytics.
type ProviderMetrics struct {
	Requests      int64   `json:"requests"`
	Success       int64   `json:"success"`
	Failures      int64   `json:"failures"`
	RateLimited   int64   `json:"rate_limited"`
	SuccessRate   float64 `json:"success_rate"`
	AvgLatencyMS  float64 `json:"avg_latency_ms"`
	IsDown        bool    `json:"is_down"`
	CircuitStatus string  `json:"circuit_status"`
}

// AnalyticsResponse is the body returned by GET /routing/analytics.
type AnalyticsResponse struct {
	Global    GlobalMetrics              `json:"global"`
	Providers map[string]ProviderMetrics `json:"providers"`
}

// FailureSimulationRequest is the body of POST /simulate/failure.
type FailureSimulationRequest struct {
	Provider string `json:"provider"`
	Down     bool   `json:"down"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status             string `json:"status"`
	ProvidersAvailable int    `json:"providers_available"`
	ProvidersTotal     int    `json:"providers_total"`
	Version            string `json:"version"`
}

// RootResponse is the body of GET /.
type RootResponse struct {
	Message string            `json:"message"`
	Version string            `json:"version"`
	Docs    map[string]string `json:"docs"`
}

// ChatResult is what a ProviderClient returns on a successful call.
type ChatResult struct {
	Content   string
	LatencyMS int
	Cost      float64
}

// Clock lets tests substitute a fake time source; production wiring uses
// time.Now.
type Clock func() time.Time
