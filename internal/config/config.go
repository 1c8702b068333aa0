// Package config provides configuration management with hot-reload support.
// It uses fsnotify to watch for file changes and atomic pointer swaps for
// zero-downtime updates.
package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/axiomrelay/gateway/pkg/types"
)

// Config is the complete gateway configuration: the provider roster plus
// the routing tuning knobs.
type Config struct {
	Server    ServerConfig         `yaml:"server"`
	Routing   RoutingConfig        `yaml:"routing"`
	Metrics   MetricsConfig        `yaml:"metrics"`
	Providers []types.ProviderSpec `yaml:"providers"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// RoutingConfig contains the routing pipeline's tuning knobs.
type RoutingConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	ResetDuration    time.Duration `yaml:"reset_duration"`
	UserBudgetCap    float64       `yaml:"user_budget_cap"`
	QualityBoost     float64       `yaml:"quality_boost"`
	CostSpeedBoost   float64       `yaml:"cost_speed_boost"`
	KeywordsPath     string        `yaml:"keywords_path"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns a configuration with sensible defaults, matching
// the values named in the routing specification.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Routing: RoutingConfig{
			FailureThreshold: 3,
			ResetDuration:    60 * time.Second,
			UserBudgetCap:    1.00,
			QualityBoost:     1.1,
			CostSpeedBoost:   0.9,
			KeywordsPath:     "classifier_keywords.yaml",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// LoadFromFile reads and parses a YAML configuration file. Environment
// variables in the form ${VAR_NAME} are expanded before parsing, so API
// keys and addresses can be injected without editing the file.
func LoadFromFile(path string) (*Config, error) {
	cfg, _, err := loadAndChecksum(path)
	return cfg, err
}

// loadAndChecksum loads and validates the config at path the same way
// LoadFromFile does, additionally returning a hex-encoded sha256 of the raw
// file bytes so a caller can tell two loads of the same path apart without
// re-parsing or deep-comparing the result.
func loadAndChecksum(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read config file: %w", err)
	}
	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, "", fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("validate config: %w", err)
	}

	return cfg, checksum, nil
}

// validSpecialties are the only classifier categories a provider may claim
// as a specialty; they mirror the classifier's own output categories.
var validSpecialties = map[string]bool{
	"code":     true,
	"writing":  true,
	"analysis": true,
}

// Validate checks the configuration for obvious mistakes before it is put
// into service.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider must be configured")
	}

	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("providers[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("providers[%d]: duplicate provider name %q", i, p.Name)
		}
		seen[p.Name] = true
		if p.CostPerToken <= 0 {
			return fmt.Errorf("providers[%d] %q: cost_per_token must be positive", i, p.Name)
		}
		if p.RateLimitRPM <= 0 {
			return fmt.Errorf("providers[%d] %q: rate_limit_rpm must be positive", i, p.Name)
		}
		if p.LatencyMS <= 0 {
			return fmt.Errorf("providers[%d] %q: latency_ms must be positive", i, p.Name)
		}
		if p.QualityScore < 0 || p.QualityScore > 1 {
			return fmt.Errorf("providers[%d] %q: quality_score must be between 0 and 1", i, p.Name)
		}
		for _, specialty := range p.Specialties {
			if !validSpecialties[specialty] {
				return fmt.Errorf("providers[%d] %q: unknown specialty %q", i, p.Name, specialty)
			}
		}
	}

	if c.Routing.FailureThreshold <= 0 {
		return fmt.Errorf("routing.failure_threshold must be positive")
	}
	if c.Routing.ResetDuration <= 0 {
		return fmt.Errorf("routing.reset_duration must be positive")
	}
	if c.Routing.UserBudgetCap < 0 {
		return fmt.Errorf("routing.user_budget_cap cannot be negative")
	}

	return nil
}

// Status reports a Manager's diagnostic state: what it last loaded, and how
// many times it has reloaded since startup.
type Status struct {
	Path        string
	Checksum    string
	LoadedAt    time.Time
	ReloadCount int
}

// Manager handles configuration loading and hot-reload. It uses atomic
// pointer swaps to ensure thread-safe config updates: readers always see
// either the old or the new generation, never a partially-written one.
type Manager struct {
	config   atomic.Pointer[Config]
	path     string
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	logger   *slog.Logger

	statusMu sync.Mutex
	status   Status
}

// NewManager creates a new configuration manager, loading the file once
// synchronously so startup fails fast on a bad config.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	cfg, checksum, err := loadAndChecksum(path)
	if err != nil {
		return nil, err
	}

	m := &Manager{path: path, logger: logger}
	m.config.Store(cfg)
	m.status = Status{Path: path, Checksum: checksum, LoadedAt: time.Now()}
	return m, nil
}

// Get returns the current configuration generation. Safe to call
// concurrently from any number of goroutines.
func (m *Manager) Get() *Config {
	return m.config.Load()
}

// Status returns the manager's current diagnostic snapshot.
func (m *Manager) Status() Status {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	return m.status
}

// OnChange registers a callback invoked after every successful reload.
func (m *Manager) OnChange(fn func(*Config)) {
	m.onChange = append(m.onChange, fn)
}

// Watch starts watching the configuration file for changes and reloading
// on write, debouncing rapid successive writes from editors that save in
// multiple steps.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	m.watcher = watcher

	if err := watcher.Add(m.path); err != nil {
		_ = watcher.Close()
		return err
	}

	go m.watchLoop(ctx)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context) {
	const debounceDelay = 500 * time.Millisecond
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			_ = m.watcher.Close()
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, m.reload)
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("config watcher error", "error", err)
		}
	}
}

func (m *Manager) reload() {
	newCfg, checksum, err := loadAndChecksum(m.path)
	if err != nil {
		m.logger.Error("failed to reload config, keeping current generation", "error", err)
		return
	}

	m.statusMu.Lock()
	unchanged := checksum == m.status.Checksum
	m.statusMu.Unlock()
	if unchanged {
		m.logger.Debug("config file rewritten but contents unchanged, skipping reload")
		return
	}

	logProviderDiff(m.logger, m.config.Load().Providers, newCfg.Providers)

	m.config.Store(newCfg)
	m.statusMu.Lock()
	m.status.Checksum = checksum
	m.status.LoadedAt = time.Now()
	m.status.ReloadCount++
	m.statusMu.Unlock()
	m.logger.Info("configuration reloaded", "reload_count", m.status.ReloadCount)

	for _, fn := range m.onChange {
		fn(newCfg)
	}
}

// logProviderDiff logs each provider name added or removed between two
// config generations, so an operator watching logs can see what a reload
// actually changed without diffing YAML by hand.
func logProviderDiff(logger *slog.Logger, old, new []types.ProviderSpec) {
	oldNames := make(map[string]bool, len(old))
	for _, p := range old {
		oldNames[p.Name] = true
	}
	newNames := make(map[string]bool, len(new))
	for _, p := range new {
		newNames[p.Name] = true
		if !oldNames[p.Name] {
			logger.Info("provider added on reload", "provider", p.Name)
		}
	}
	for _, p := range old {
		if !newNames[p.Name] {
			logger.Info("provider removed on reload", "provider", p.Name)
		}
	}
}

// Close stops the configuration watcher.
func (m *Manager) Close() error {
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}
