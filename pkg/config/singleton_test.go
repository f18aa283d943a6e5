package config

import (
	"sync"
	"testing"
)

func resetGlobal() {
	current.Store(nil)
	initOnce = sync.Once{}
}

func TestInitialize(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	path := writeConfig(t, "router:\n  low_complexity: 1234\n")
	if err := Initialize(path); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}
	if GetConfig().Router.LowComplexity != 1234 {
		t.Errorf("Expected 1234, got %d", GetConfig().Router.LowComplexity)
	}

	// Second call is a no-op.
	other := writeConfig(t, "router:\n  low_complexity: 99\n")
	if err := Initialize(other); err != nil {
		t.Fatalf("second Initialize returned error: %v", err)
	}
	if GetConfig().Router.LowComplexity != 1234 {
		t.Error("second Initialize should not reload")
	}
}

func TestReloadConfig_KeepsOldOnFailure(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	SetConfig(Default())
	bad := writeConfig(t, "router:\n  low_complexity: 9000\n")
	if err := ReloadConfig(bad); err == nil {
		t.Fatal("Expected reload error")
	}
	if GetConfig().Router.LowComplexity != DefaultLowComplexity {
		t.Error("failed reload replaced the configuration")
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	defer func() {
		if recover() == nil {
			t.Error("Expected panic before Initialize")
		}
	}()
	MustGetConfig()
}
