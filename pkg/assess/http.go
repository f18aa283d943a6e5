package assess

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cocorels-hq/kernel/pkg/action"
	"cocorels-hq/kernel/pkg/telemetry/tracing"
)

const systemPrompt = "You score one ethical sub-trait of a proposed action. " +
	"Reply with a single number between 0 and 1, where 1 means the action fully honours the trait."

// HTTPConfig configures the model-backed assessor.
type HTTPConfig struct {
	// BaseURL is the OpenAI-compatible API base, e.g. "https://api.openai.com/v1".
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Model is sent with each request.
	Model string

	// Timeout bounds a single HTTP call.
	Timeout time.Duration

	// MaxRetries is the number of retries on network errors and 5xx.
	MaxRetries int

	// Predicates anchors each sub-trait code to its validation predicate
	// in the prompt.
	Predicates map[string]string
}

// HTTP asks an OpenAI-compatible chat completion endpoint for a score.
type HTTP struct {
	config HTTPConfig
	client *http.Client
	logger *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewHTTP creates a model-backed assessor with a pooled HTTP client.
func NewHTTP(cfg HTTPConfig) *HTTP {
	transport := &http.Transport{
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTP{
		config: cfg,
		client: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		logger: slog.Default().With("component", "assess.http"),
	}
}

// Assess implements Assessor.
func (h *HTTP) Assess(ctx context.Context, code string, a action.Action) (float64, error) {
	ctxJSON, err := json.Marshal(a.Context())
	if err != nil {
		return 0, &AssessorError{Assessor: "http", Code: code, Message: "context not serialisable", Cause: err}
	}

	prompt := fmt.Sprintf("Sub-trait: %s\nPredicate: %s\nAction: %s\nContext: %s",
		code, h.config.Predicates[code], a.Description(), ctxJSON)

	body, err := json.Marshal(chatRequest{
		Model: h.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: 8,
	})
	if err != nil {
		return 0, &AssessorError{Assessor: "http", Code: code, Message: "failed to marshal request", Cause: err}
	}

	raw, err := h.do(ctx, code, body)
	if err != nil {
		return 0, err
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, &AssessorError{Assessor: "http", Code: code, Message: "failed to unmarshal response", Cause: err}
	}
	if len(resp.Choices) == 0 {
		return 0, &AssessorError{Assessor: "http", Code: code, Message: "response has no choices"}
	}

	return parseScore(code, resp.Choices[0].Message.Content)
}

// do posts body to the chat completions endpoint, retrying network errors
// and server errors with exponential backoff.
func (h *HTTP) do(ctx context.Context, code string, body []byte) ([]byte, error) {
	url := strings.TrimSuffix(h.config.BaseURL, "/") + "/chat/completions"
	var lastErr error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
			h.logger.Debug("retrying assessment", "code", code, "attempt", attempt, "backoff", backoff)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, &AssessorError{Assessor: "http", Code: code, Message: "failed to create request", Cause: err}
		}
		req.Header.Set("Content-Type", "application/json")
		tracing.Inject(ctx, req.Header)
		if h.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+h.config.APIKey)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = &AssessorError{Assessor: "http", Code: code, Message: "request failed", Cause: err}
			h.logger.Warn("assessment request failed, will retry", "code", code, "attempt", attempt+1, "error", err)
			continue
		}

		payload, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if readErr != nil {
				return nil, &AssessorError{Assessor: "http", Code: code, Message: "failed to read response", Cause: readErr}
			}
			return payload, nil
		}

		lastErr = &AssessorError{Assessor: "http", Code: code, StatusCode: resp.StatusCode, Message: string(payload)}
		if resp.StatusCode < 500 {
			return nil, lastErr
		}
		h.logger.Warn("assessment returned error status, will retry", "code", code, "status", resp.StatusCode, "attempt", attempt+1)
	}

	return nil, lastErr
}

func parseScore(code, content string) (float64, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return 0, &AssessorError{Assessor: "http", Code: code, Message: "empty completion"}
	}
	v, err := strconv.ParseFloat(strings.TrimRight(fields[0], ".,;"), 64)
	if err != nil || math.IsNaN(v) {
		return 0, &AssessorError{Assessor: "http", Code: code, Message: fmt.Sprintf("completion %q is not a score", content), Cause: err}
	}
	return v, nil
}
