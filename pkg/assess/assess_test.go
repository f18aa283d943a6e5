package assess

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cocorels-hq/kernel/pkg/action"
	"cocorels-hq/kernel/pkg/config"
)

func TestHash_DeterministicAndBounded(t *testing.T) {
	h := NewHash()
	a := action.New("divert water", map[string]any{"region": "north", "volume": 12})

	first, err := h.Assess(context.Background(), "TC", a)
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := h.Assess(context.Background(), "TC", a)
		if again != first {
			t.Fatalf("Assess() not deterministic: %v then %v", first, again)
		}
	}

	codes := []string{"TC", "NC", "TR", "DI", "FA", "CR", "WJ", "HA"}
	distinct := map[float64]bool{}
	for _, code := range codes {
		s, err := h.Assess(context.Background(), code, a)
		if err != nil {
			t.Fatalf("Assess(%s) error = %v", code, err)
		}
		if s < 0 || s > 1 {
			t.Errorf("Assess(%s) = %v, outside [0,1]", code, s)
		}
		distinct[s] = true
	}
	if len(distinct) < 2 {
		t.Error("Expected different sub-traits to score differently")
	}
}

func TestHash_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewHash().Assess(ctx, "TC", action.New("x", nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFunc(t *testing.T) {
	var got string
	var f Assessor = Func(func(_ context.Context, code string, _ action.Action) (float64, error) {
		got = code
		return 0.25, nil
	})

	s, err := f.Assess(context.Background(), "NC", action.New("x", nil))
	if err != nil || s != 0.25 || got != "NC" {
		t.Errorf("Func.Assess() = (%v, %v), code %q", s, err, got)
	}
}

func TestAssessorError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &AssessorError{Assessor: "http", Code: "NC", Message: "request failed", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the cause")
	}
	if !strings.Contains(err.Error(), "NC") {
		t.Errorf("Error() = %q, want sub-trait code", err.Error())
	}

	status := &AssessorError{Assessor: "http", Code: "TC", StatusCode: 503, Message: "busy"}
	if !strings.Contains(status.Error(), "503") {
		t.Errorf("Error() = %q, want status code", status.Error())
	}
}

func TestExprValidator(t *testing.T) {
	v, err := NewExprValidator(map[string]string{
		"na rinju": "!(violates_autonomy ?? false)",
		"na xlali": `legal_status != "illegal"`,
		"ka kancu": "volume < 10",
	})
	if err != nil {
		t.Fatalf("NewExprValidator() error = %v", err)
	}
	if v.Rules() != 3 {
		t.Errorf("Rules() = %d, want 3", v.Rules())
	}

	tests := []struct {
		name      string
		predicate string
		ctx       map[string]any
		want      bool
	}{
		{"flag absent", "na rinju", map[string]any{}, true},
		{"flag set", "na rinju", map[string]any{"violates_autonomy": true}, false},
		{"legal", "na xlali", map[string]any{"legal_status": "legal"}, true},
		{"illegal", "na xlali", map[string]any{"legal_status": "illegal"}, false},
		{"numeric", "ka kancu", map[string]any{"volume": 3}, true},
		{"type error rejects", "ka kancu", map[string]any{"volume": "lots"}, false},
		{"no rule accepts", "co'e gunka co'u", map[string]any{}, true},
		{"nil context", "na rinju", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.Validate(tt.predicate, tt.ctx); got != tt.want {
				t.Errorf("Validate(%q) = %v, want %v", tt.predicate, got, tt.want)
			}
		})
	}
}

func TestNewExprValidator_CompileError(t *testing.T) {
	_, err := NewExprValidator(map[string]string{"bad": "a ==="})
	if err == nil {
		t.Fatal("Expected compile error")
	}
	if !strings.Contains(err.Error(), `"bad"`) {
		t.Errorf("Error should name the predicate: %v", err)
	}
}

func TestHTTP_Assess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		if !strings.Contains(req.Messages[1].Content, "na rinju") {
			t.Errorf("prompt missing predicate: %q", req.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"0.35"}}]}`))
	}))
	defer server.Close()

	h := NewHTTP(HTTPConfig{
		BaseURL:    server.URL + "/",
		APIKey:     "secret",
		Model:      "test-model",
		Timeout:    time.Second,
		Predicates: map[string]string{"NC": "na rinju"},
	})

	s, err := h.Assess(context.Background(), "NC", action.New("x", map[string]any{"k": "v"}))
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if s != 0.35 {
		t.Errorf("Assess() = %v, want 0.35", s)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 call, got %d", calls.Load())
	}
}

func TestHTTP_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"0.9."}}]}`))
	}))
	defer server.Close()

	h := NewHTTP(HTTPConfig{BaseURL: server.URL, Timeout: time.Second, MaxRetries: 2})

	s, err := h.Assess(context.Background(), "TC", action.New("x", nil))
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if s != 0.9 {
		t.Errorf("Assess() = %v, want 0.9", s)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got %d", calls.Load())
	}
}

func TestHTTP_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	h := NewHTTP(HTTPConfig{BaseURL: server.URL, Timeout: time.Second, MaxRetries: 3})

	_, err := h.Assess(context.Background(), "TC", action.New("x", nil))
	var aerr *AssessorError
	if !errors.As(err, &aerr) || aerr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 AssessorError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected no retry, got %d calls", calls.Load())
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		content string
		want    float64
		wantErr bool
	}{
		{"0.4", 0.4, false},
		{" 1 \n", 1, false},
		{"0.75, because", 0.75, false},
		{"high", 0, true},
		{"", 0, true},
		{"NaN", 0, true},
	}

	for _, tt := range tests {
		got, err := parseScore("TC", tt.content)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseScore(%q) error = %v, wantErr %v", tt.content, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseScore(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()

	a, v, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if _, ok := a.(Hash); !ok {
		t.Errorf("Expected Hash assessor, got %T", a)
	}
	if v != nil {
		t.Errorf("Expected no validator without predicate rules, got %T", v)
	}

	cfg.Assessor.Type = "http"
	cfg.Assessor.HTTP.BaseURL = "http://localhost:1"
	cfg.Assessor.Predicates = map[string]string{"na rinju": "true"}
	a, v, err = FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if _, ok := a.(*HTTP); !ok {
		t.Errorf("Expected *HTTP assessor, got %T", a)
	}
	if v == nil {
		t.Error("Expected validator with predicate rules")
	}

	cfg.Assessor.Type = "oracle"
	if _, _, err := FromConfig(cfg); !errors.Is(err, ErrUnknownAssessor) {
		t.Errorf("Expected ErrUnknownAssessor, got %v", err)
	}
}
