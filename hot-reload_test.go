package warden

import "testing"

func TestParseDefaultsAppliesWardenSection(t *testing.T) {
	hc := &ProviderHotConfig{}
	fallback := hotDefaults{SemaphoreLimit: 1}

	data := map[string]interface{}{
		"warden": map[string]interface{}{
			"blocking_time":     "5s",
			"blocking_interval": "20ms",
			"refresh_time":      "1m",
			"semaphore_limit":   float64(4),
		},
	}

	got := hc.parseDefaults(data, fallback)
	if got.BlockingTime.String() != "5s" {
		t.Errorf("BlockingTime = %v, want 5s", got.BlockingTime)
	}
	if got.SemaphoreLimit != 4 {
		t.Errorf("SemaphoreLimit = %d, want 4", got.SemaphoreLimit)
	}
}

func TestParseDefaultsFallsBackOnMissingSection(t *testing.T) {
	hc := &ProviderHotConfig{}
	fallback := hotDefaults{SemaphoreLimit: 7}
	got := hc.parseDefaults(map[string]interface{}{"unrelated": true}, fallback)
	if got != fallback {
		t.Errorf("parseDefaults = %+v, want unchanged fallback %+v", got, fallback)
	}
}

func TestProviderHotConfigRequiresConfigPath(t *testing.T) {
	p, err := NewInMemoryProvider(Config{})
	if err != nil {
		t.Fatalf("NewInMemoryProvider: %v", err)
	}
	if _, err := NewProviderHotConfig(p, ProviderHotConfigOptions{}); err == nil {
		t.Fatal("NewProviderHotConfig accepted an empty ConfigPath")
	}
}

func TestProviderHotConfigAppliesToLiveProvider(t *testing.T) {
	p, err := NewInMemoryProvider(Config{})
	if err != nil {
		t.Fatalf("NewInMemoryProvider: %v", err)
	}
	hc := &ProviderHotConfig{
		provider: p,
		last: hotDefaults{
			BlockingTime:     p.cfg.DefaultBlockingTime,
			BlockingInterval: p.cfg.DefaultBlockingInterval,
			RefreshTime:      p.cfg.DefaultRefreshTime,
			SemaphoreLimit:   p.cfg.DefaultSemaphoreLimit,
		},
	}

	hc.handleConfigChange(map[string]interface{}{
		"warden": map[string]interface{}{"semaphore_limit": float64(12)},
	})

	if p.cfg.DefaultSemaphoreLimit != 12 {
		t.Errorf("Provider default semaphore limit = %d, want 12 after hot reload", p.cfg.DefaultSemaphoreLimit)
	}
}
