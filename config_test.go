package warden

import "testing"

func TestConfigValidateDefaults(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if c.Namespace != DefaultNamespace {
		t.Errorf("Namespace = %q, want %q", c.Namespace, DefaultNamespace)
	}
	if c.DefaultBlockingTime != DefaultBlockingTime {
		t.Errorf("DefaultBlockingTime = %v, want %v", c.DefaultBlockingTime, DefaultBlockingTime)
	}
	if c.DefaultBlockingInterval != DefaultBlockingInterval {
		t.Errorf("DefaultBlockingInterval = %v, want %v", c.DefaultBlockingInterval, DefaultBlockingInterval)
	}
	if c.DefaultRefreshTime != DefaultRefreshTime {
		t.Errorf("DefaultRefreshTime = %v, want %v", c.DefaultRefreshTime, DefaultRefreshTime)
	}
	if c.DefaultSemaphoreLimit != DefaultSemaphoreLimit {
		t.Errorf("DefaultSemaphoreLimit = %d, want %d", c.DefaultSemaphoreLimit, DefaultSemaphoreLimit)
	}
	if c.Clock == nil || c.Logger == nil || c.MetricsCollector == nil || c.EventDispatcher == nil || c.IDGenerator == nil {
		t.Error("Validate did not fill in every collaborator default")
	}
}

func TestConfigValidatePreservesExplicitValues(t *testing.T) {
	c := Config{Namespace: "custom", DefaultSemaphoreLimit: 7}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if c.Namespace != "custom" {
		t.Errorf("Namespace = %q, want custom", c.Namespace)
	}
	if c.DefaultSemaphoreLimit != 7 {
		t.Errorf("DefaultSemaphoreLimit = %d, want 7", c.DefaultSemaphoreLimit)
	}
}

func TestDefaultConfigIsAlreadyValid(t *testing.T) {
	c := DefaultConfig()
	if c.Namespace == "" {
		t.Error("DefaultConfig left Namespace empty")
	}
	if c.IDGenerator == nil {
		t.Error("DefaultConfig left IDGenerator nil")
	}
	id1 := c.IDGenerator.NewID()
	id2 := c.IDGenerator.NewID()
	if id1 == "" || id1 == id2 {
		t.Errorf("IDGenerator produced non-unique or empty ids: %q, %q", id1, id2)
	}
}
