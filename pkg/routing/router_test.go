package routing

import (
	"sync"
	"testing"
	"time"

	"cocorels-hq/kernel/pkg/criterion"
)

func TestDecide(t *testing.T) {
	th := DefaultThresholds()
	kind := criterion.Kindness.Code()
	honr := criterion.HonourDuty.Code()

	tests := []struct {
		name   string
		params Params
		seed   byte
		want   Decision
	}{
		{
			name:   "force overrides everything",
			params: Params{CriterionCode: kind, Complexity: 10, ForceSlow: true, TimeBudget: time.Millisecond},
			want:   Decision{Slow, ReasonForced},
		},
		{
			name:   "budget below minimum",
			params: Params{CriterionCode: honr, Complexity: 9000, TimeBudget: 49 * time.Millisecond},
			want:   Decision{Fast, ReasonBudget},
		},
		{
			name:   "budget at minimum is allowed",
			params: Params{CriterionCode: honr, Complexity: 9000, TimeBudget: 50 * time.Millisecond},
			want:   Decision{Slow, ReasonHighComplexity},
		},
		{
			name:   "complexity 1999 is fast",
			params: Params{CriterionCode: honr, Complexity: 1999, TimeBudget: time.Second},
			want:   Decision{Fast, ReasonLowComplexity},
		},
		{
			name:   "complexity 7001 is slow",
			params: Params{CriterionCode: kind, Complexity: 7001, TimeBudget: time.Second},
			want:   Decision{Slow, ReasonHighComplexity},
		},
		{
			name:   "borderline slow affinity",
			params: Params{CriterionCode: honr, Complexity: 5000, TimeBudget: time.Second},
			want:   Decision{Slow, ReasonAffinity},
		},
		{
			name:   "borderline fast affinity jitter escalates",
			params: Params{CriterionCode: kind, Complexity: 5000, DilemmaHash: 0xFF, TimeBudget: time.Second},
			seed:   0x00,
			want:   Decision{Slow, ReasonJitterEscalate},
		},
		{
			name:   "borderline fast affinity jitter at cutoff stays",
			params: Params{CriterionCode: kind, Complexity: 5000, DilemmaHash: 0x80, TimeBudget: time.Second},
			seed:   0x00,
			want:   Decision{Fast, ReasonJitterStay},
		},
		{
			name:   "unknown code has fast affinity",
			params: Params{CriterionCode: 0x99, Complexity: 2000, DilemmaHash: 0x01, TimeBudget: time.Second},
			seed:   0x01,
			want:   Decision{Fast, ReasonJitterStay},
		},
		{
			name:   "band edges are inclusive",
			params: Params{CriterionCode: honr, Complexity: 7000, TimeBudget: time.Second},
			want:   Decision{Slow, ReasonAffinity},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.params, tt.seed, th)
			if got != tt.want {
				t.Errorf("Decide() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecide_OutsideBandIgnoresJitter(t *testing.T) {
	th := DefaultThresholds()
	for seed := 0; seed < 256; seed++ {
		for _, code := range []int{criterion.Kindness.Code(), criterion.HonourDuty.Code()} {
			low := Params{CriterionCode: code, Complexity: 1999, DilemmaHash: uint64(seed * 7), TimeBudget: time.Second}
			if d := Decide(low, byte(seed), th); d.Path != Fast {
				t.Fatalf("complexity 1999 routed %v with seed %d", d.Path, seed)
			}
			high := Params{CriterionCode: code, Complexity: 7001, DilemmaHash: uint64(seed * 7), TimeBudget: time.Second}
			if d := Decide(high, byte(seed), th); d.Path != Slow {
				t.Fatalf("complexity 7001 routed %v with seed %d", d.Path, seed)
			}
		}
	}
}

func TestDecide_JitterReproducible(t *testing.T) {
	th := DefaultThresholds()
	sawFast, sawSlow := false, false

	for seed := 0; seed < 256; seed++ {
		p := Params{
			CriterionCode: criterion.Kindness.Code(),
			DilemmaHash:   0xDEADBEEF12345678,
			Complexity:    4500,
			TimeBudget:    time.Second,
		}
		first := Decide(p, byte(seed), th)
		for i := 0; i < 5; i++ {
			if again := Decide(p, byte(seed), th); again != first {
				t.Fatalf("seed %d: decision changed from %+v to %+v", seed, first, again)
			}
		}
		wantSlow := (byte(0x78) ^ byte(seed)) > 0x80
		if (first.Path == Slow) != wantSlow {
			t.Errorf("seed %d: got %v, want slow=%v", seed, first.Path, wantSlow)
		}
		if first.Path == Slow {
			sawSlow = true
		} else {
			sawFast = true
		}
	}

	if !sawFast || !sawSlow {
		t.Error("Expected the seed space to produce both paths")
	}
}

func TestRouter_SetThresholds(t *testing.T) {
	r := NewRouter(DefaultThresholds())
	p := Params{CriterionCode: criterion.HonourDuty.Code(), Complexity: 2500, TimeBudget: time.Second}

	if d := r.Decide(p, 0); d.Path != Slow {
		t.Fatalf("Expected slow with default thresholds, got %v", d.Path)
	}

	th := DefaultThresholds()
	th.LowComplexity = 3000
	th.HighComplexity = 8000
	r.SetThresholds(th)

	if d := r.Decide(p, 0); d.Path != Fast {
		t.Errorf("Expected fast after raising low threshold, got %v", d.Path)
	}
	if got := r.Thresholds(); got != th {
		t.Errorf("Thresholds() = %+v, want %+v", got, th)
	}

	stats := r.GetStats()
	if stats.TotalDecisions != 2 {
		t.Errorf("Expected 2 decisions, got %d", stats.TotalDecisions)
	}
	if stats.PerPath["fast"] != 1 || stats.PerPath["slow"] != 1 {
		t.Errorf("Unexpected per-path counts: %v", stats.PerPath)
	}
	if stats.ThresholdUpdates != 1 {
		t.Errorf("Expected 1 threshold update, got %d", stats.ThresholdUpdates)
	}
}

func TestRouter_ConcurrentDecideAndUpdate(t *testing.T) {
	r := NewRouter(DefaultThresholds())
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r.Decide(Params{CriterionCode: 0x30, Complexity: j * 50, DilemmaHash: uint64(j), TimeBudget: time.Second}, byte(i))
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			th := DefaultThresholds()
			th.LowComplexity = 1000 + j
			r.SetThresholds(th)
		}
	}()
	wg.Wait()

	if got := r.GetStats().TotalDecisions; got != 1600 {
		t.Errorf("Expected 1600 decisions, got %d", got)
	}
}

func TestAtomicRoutingStats_Reset(t *testing.T) {
	s := NewAtomicRoutingStats()
	s.IncrementTotal()
	s.IncrementPath("fast")
	s.IncrementReason("forced")
	s.Reset()

	snap := s.Snapshot()
	if snap.TotalDecisions != 0 || len(snap.PerPath) != 0 || len(snap.PerReason) != 0 {
		t.Errorf("Expected empty snapshot after reset, got %+v", snap)
	}
}
