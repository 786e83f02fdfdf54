package redlock

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if cfg.driftFactor != 0.01 {
		t.Fatalf("unexpected drift factor: %v", cfg.driftFactor)
	}
	if cfg.retryCount != 10 {
		t.Fatalf("unexpected retry count: %v", cfg.retryCount)
	}
	if cfg.retryDelay != 200*time.Millisecond {
		t.Fatalf("unexpected retry delay: %v", cfg.retryDelay)
	}
	if cfg.retryJitter != 100*time.Millisecond {
		t.Fatalf("unexpected retry jitter: %v", cfg.retryJitter)
	}
	if cfg.autoExtend != 500*time.Millisecond {
		t.Fatalf("unexpected auto-extend threshold: %v", cfg.autoExtend)
	}
	if cfg.db != 0 {
		t.Fatalf("unexpected db: %v", cfg.db)
	}
}

func TestOptionsOverrideDefaults(t *testing.T) {
	cfg := defaultConfig()
	opts := []Option{
		WithDriftFactor(0.1),
		WithRetryCount(3),
		WithRetryDelay(time.Second),
		WithRetryJitter(0),
		WithAutomaticExtensionThreshold(time.Minute),
		WithDB(2),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.driftFactor != 0.1 || cfg.retryCount != 3 || cfg.retryDelay != time.Second ||
		cfg.retryJitter != 0 || cfg.autoExtend != time.Minute || cfg.db != 2 {
		t.Fatalf("options did not apply: %+v", cfg)
	}
}
