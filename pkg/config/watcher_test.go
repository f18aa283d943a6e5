package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatcher_ReloadsRouter(t *testing.T) {
	path := writeConfig(t, "router:\n  low_complexity: 1000\n")

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	got := make(chan RouterConfig, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(rc RouterConfig) { got <- rc })
	}()

	// Give fsnotify a moment to register the directory.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("router:\n  low_complexity: 1500\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case rc := <-got:
		if rc.LowComplexity != 1500 {
			t.Errorf("Expected 1500, got %d", rc.LowComplexity)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned error: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop returned error: %v", err)
	}
}

func TestWatcher_InvalidRouterIgnored(t *testing.T) {
	path := writeConfig(t, "router:\n  low_complexity: 1000\n")

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()

	if _, err := w.readRouter(); err != nil {
		t.Fatalf("valid file rejected: %v", err)
	}

	if err := os.WriteFile(path, []byte("router:\n  low_complexity: 9000\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}
	if _, err := w.readRouter(); err == nil {
		t.Error("Expected inverted thresholds to be rejected")
	}
}
