// Package httpapi exposes the routing pipeline over HTTP: chat completions,
// provider status, analytics, and the failure-simulation control endpoint.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/axiomrelay/gateway/internal/breaker"
	"github.com/axiomrelay/gateway/internal/metrics"
	"github.com/axiomrelay/gateway/internal/router"
	"github.com/axiomrelay/gateway/internal/state"
	routererr "github.com/axiomrelay/gateway/pkg/errors"
	"github.com/axiomrelay/gateway/pkg/types"
)

const version = "0.1.0"

// ProviderSource mirrors router.ProviderSource so the handler can list the
// currently configured providers without importing router's internals.
type ProviderSource func() []types.ProviderSpec

// Handler serves the gateway's HTTP surface.
type Handler struct {
	Router    *router.Router
	Store     *state.Store
	Breaker   *breaker.Breaker
	Providers ProviderSource
	Logger    *slog.Logger
}

// NewHandler returns a Handler wired to the given collaborators.
func NewHandler(r *router.Router, store *state.Store, br *breaker.Breaker, providers ProviderSource, logger *slog.Logger) *Handler {
	return &Handler{Router: r, Store: store, Breaker: br, Providers: providers, Logger: logger}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", h.Root)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /chat/completions", h.ChatCompletions)
	mux.HandleFunc("GET /providers", h.ListProviders)
	mux.HandleFunc("GET /routing/analytics", h.Analytics)
	mux.HandleFunc("POST /simulate/failure", h.SimulateFailure)
}

// requestID returns the incoming X-Request-Id header, or generates one.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// errorBody is the shape returned for any failed request, carrying the
// RouteError's kind so clients can branch on it without string-matching.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	routeErr, ok := err.(*routererr.RouteError)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Kind: "internal_error", Message: err.Error()})
		return
	}
	writeJSON(w, routeErr.HTTPStatusCode(), errorBody{Kind: string(routeErr.Kind), Message: routeErr.Message})
}

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.RootResponse{
		Message: "LLM gateway router",
		Version: version,
		Docs: map[string]string{
			"chat_completions": "POST /chat/completions",
			"providers":        "GET /providers",
			"analytics":        "GET /routing/analytics",
			"simulate_failure": "POST /simulate/failure",
			"health":           "GET /health",
		},
	})
}

// Health handles GET /health. Status degrades to "degraded" when fewer than
// half the configured providers currently have their circuit available.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	providers := h.Providers()
	available := 0
	for _, p := range providers {
		if h.Breaker.IsAvailable(p.Name) {
			available++
		}
	}

	status := "healthy"
	if len(providers) > 0 && available*2 < len(providers) {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:             status,
		ProvidersAvailable: available,
		ProvidersTotal:     len(providers),
		Version:            version,
	})
}

// ChatCompletions handles POST /chat/completions.
func (h *Handler) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)
	log := h.Logger.With("request_id", reqID)

	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, routererr.NewValidationError("invalid JSON body: "+err.Error()))
		return
	}
	defer r.Body.Close()

	if req.Prompt == "" {
		writeError(w, routererr.NewValidationError("prompt is required"))
		return
	}
	if req.Preferences.Priority == "" {
		req.Preferences.Priority = types.PriorityCost
	}

	resp, err := h.Router.Route(r.Context(), req)
	if err != nil {
		log.Warn("route failed", "error", err)
		writeError(w, err)
		return
	}

	w.Header().Set("X-Request-Id", reqID)
	writeJSON(w, http.StatusOK, resp)
}

// ListProviders handles GET /providers.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	statuses := metrics.BuildProviderStatuses(h.Providers(), h.Store, h.Breaker)
	writeJSON(w, http.StatusOK, statuses)
}

// Analytics handles GET /routing/analytics.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.BuildAnalytics(h.Store, h.Breaker))
}

// SimulateFailure handles POST /simulate/failure.
func (h *Handler) SimulateFailure(w http.ResponseWriter, r *http.Request) {
	var req types.FailureSimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, routererr.NewValidationError("invalid JSON body: "+err.Error()))
		return
	}
	defer r.Body.Close()

	if req.Provider == "" {
		writeError(w, routererr.NewValidationError("provider is required"))
		return
	}

	h.Store.SetManualDown(req.Provider, req.Down)
	h.Logger.Info("manual provider override", "provider", req.Provider, "down", req.Down)
	writeJSON(w, http.StatusOK, map[string]any{"provider": req.Provider, "down": req.Down})
}
