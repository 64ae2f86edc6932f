// hot-reload.go: dynamic default-timing reload with Argus integration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

// ProviderHotConfig watches a configuration file and applies updated
// default blocking/refresh timings and semaphore limit to a live Provider
// without reconstructing its adapters. Only these scalar defaults are
// hot-reloadable; the adapter set, namespace, and collaborators
// (clock/logger/metrics/dispatcher/id generator) are fixed for a
// Provider's lifetime.
type ProviderHotConfig struct {
	provider *Provider
	watcher  *argus.Watcher
	mu       sync.RWMutex
	last     hotDefaults

	// OnReload is called after the new defaults are applied. Optional,
	// must be fast and non-blocking.
	OnReload func(old, new hotDefaults)
}

// hotDefaults is the subset of Config that ProviderHotConfig can apply to
// a running Provider.
type hotDefaults struct {
	BlockingTime     time.Duration
	BlockingInterval time.Duration
	RefreshTime      time.Duration
	SemaphoreLimit   int
}

// ProviderHotConfigOptions configures hot reload behavior.
type ProviderHotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch. Supports
	// JSON, YAML, TOML, HCL, INI, Properties formats via Argus.
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// OnReload is called after configuration is successfully reloaded.
	OnReload func(old, new hotDefaults)

	// Logger for hot reload operations. If nil, uses NoOpLogger.
	Logger Logger
}

// NewProviderHotConfig creates a hot-reloadable timing watcher for
// provider and starts watching opts.ConfigPath immediately.
//
// Supported configuration keys, under a top-level "warden" section:
//
//	warden:
//	  blocking_time: "10s"
//	  blocking_interval: "50ms"
//	  refresh_time: "30s"
//	  semaphore_limit: 4
func NewProviderHotConfig(provider *Provider, opts ProviderHotConfigOptions) (*ProviderHotConfig, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}

	hc := &ProviderHotConfig{
		provider: provider,
		OnReload: opts.OnReload,
		last: hotDefaults{
			BlockingTime:     provider.cfg.DefaultBlockingTime,
			BlockingInterval: provider.cfg.DefaultBlockingInterval,
			RefreshTime:      provider.cfg.DefaultRefreshTime,
			SemaphoreLimit:   provider.cfg.DefaultSemaphoreLimit,
		},
	}

	argusConfig := argus.Config{PollInterval: opts.PollInterval}
	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher

	return hc, nil
}

// Start begins watching the configuration file for changes.
func (hc *ProviderHotConfig) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *ProviderHotConfig) Stop() error {
	return hc.watcher.Stop()
}

// Current returns the last-applied defaults (thread-safe).
func (hc *ProviderHotConfig) Current() hotDefaults {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.last
}

func (hc *ProviderHotConfig) handleConfigChange(configData map[string]interface{}) {
	hc.mu.Lock()
	old := hc.last
	next := hc.parseDefaults(configData, old)
	hc.last = next
	hc.mu.Unlock()

	hc.provider.ResetDefaults(next.BlockingTime, next.BlockingInterval, next.RefreshTime, next.SemaphoreLimit)

	if hc.OnReload != nil {
		hc.OnReload(old, next)
	}
}

func (hc *ProviderHotConfig) parseDefaults(data map[string]interface{}, fallback hotDefaults) hotDefaults {
	result := fallback

	section, ok := data["warden"].(map[string]interface{})
	if !ok {
		if _, hasBlockingTime := data["blocking_time"]; hasBlockingTime {
			section = data
		} else {
			return result
		}
	}

	if d, ok := parseDuration(section["blocking_time"]); ok {
		result.BlockingTime = d
	}
	if d, ok := parseDuration(section["blocking_interval"]); ok {
		result.BlockingInterval = d
	}
	if d, ok := parseDuration(section["refresh_time"]); ok {
		result.RefreshTime = d
	}
	if n, ok := parsePositiveInt(section["semaphore_limit"]); ok {
		result.SemaphoreLimit = n
	}

	return result
}

// parsePositiveInt extracts a positive integer from interface{} value.
// Supports both int and float64 types (YAML/JSON may vary).
func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case float64:
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}

// parseDuration extracts a time.Duration from a string value.
func parseDuration(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}
