// Package main is the entry point for the routing gateway server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/axiomrelay/gateway/internal/breaker"
	"github.com/axiomrelay/gateway/internal/classify"
	"github.com/axiomrelay/gateway/internal/config"
	"github.com/axiomrelay/gateway/internal/httpapi"
	"github.com/axiomrelay/gateway/internal/metrics"
	"github.com/axiomrelay/gateway/internal/provider"
	"github.com/axiomrelay/gateway/internal/ratelimit"
	"github.com/axiomrelay/gateway/internal/router"
	"github.com/axiomrelay/gateway/internal/selector"
	"github.com/axiomrelay/gateway/internal/state"
	"github.com/axiomrelay/gateway/pkg/types"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	mockFailureRate := flag.Float64("mock-failure-rate", 0.05, "simulated per-call failure probability for the built-in provider clients")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting gateway router", "version", "0.1.0")

	cfgManager, err := config.NewManager(*configPath, logger)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	status := cfgManager.Status()
	logger.Info("configuration loaded", "path", status.Path, "checksum", status.Checksum)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cfgManager.Watch(ctx); err != nil {
		logger.Warn("config hot-reload disabled", "error", err)
	}

	cfg := cfgManager.Get()

	classifier, err := classify.LoadFromFile(cfg.Routing.KeywordsPath)
	if err != nil {
		logger.Error("failed to load classifier keywords", "error", err)
		os.Exit(1)
	}
	cfgManager.OnChange(func(c *config.Config) {
		if err := classifier.Reload(c.Routing.KeywordsPath); err != nil {
			logger.Error("failed to reload classifier keywords", "error", err)
		}
	})

	store := state.New()
	br := breaker.New(store, cfg.Routing.FailureThreshold, cfg.Routing.ResetDuration)
	limiter := ratelimit.New(store)
	registry := provider.NewRegistry()

	registerProviders := func(c *config.Config) {
		for _, spec := range c.Providers {
			registry.Register(spec.Name, provider.NewSimulatedClient(spec, *mockFailureRate))
		}
	}
	registerProviders(cfg)
	cfgManager.OnChange(registerProviders)

	providersFn := func() []types.ProviderSpec { return cfgManager.Get().Providers }

	rt := &router.Router{
		Providers:  providersFn,
		Store:      store,
		Classifier: classifier,
		Breaker:    br,
		Limiter:    limiter,
		Registry:   registry,
		Metrics:    metrics.NewRecorder(),
		Boosts:     selector.Boosts{Quality: cfg.Routing.QualityBoost, CostOrSpeed: cfg.Routing.CostSpeedBoost},
		BudgetCap:  cfg.Routing.UserBudgetCap,
		Logger:     logger,
	}

	handler := httpapi.NewHandler(rt, store, br, providersFn, logger)

	mux := http.NewServeMux()
	handler.Routes(mux)
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	cfgManager.Close()
	logger.Info("server stopped")
}
