package logging

import (
	"context"
	"fmt"
	"log/slog"
)

// Context keys for evaluation log fields.
type contextKey string

const (
	// EvaluationIDKey is the context key for report identifiers.
	EvaluationIDKey contextKey = "evaluation_id"

	// DilemmaHashKey is the context key for dilemma hashes.
	DilemmaHashKey contextKey = "dilemma_hash"

	// CriterionKey is the context key for the requested criterion name.
	CriterionKey contextKey = "criterion"

	// RequestIDKey is the context key for HTTP request ids.
	RequestIDKey contextKey = "request_id"
)

// WithEvaluationID adds an evaluation id to the context.
func WithEvaluationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, EvaluationIDKey, id)
}

// GetEvaluationID retrieves the evaluation id from the context.
func GetEvaluationID(ctx context.Context) string {
	if id, ok := ctx.Value(EvaluationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithDilemmaHash adds a dilemma hash to the context.
func WithDilemmaHash(ctx context.Context, hash uint64) context.Context {
	return context.WithValue(ctx, DilemmaHashKey, hash)
}

// GetDilemmaHash retrieves the dilemma hash from the context.
func GetDilemmaHash(ctx context.Context) (uint64, bool) {
	h, ok := ctx.Value(DilemmaHashKey).(uint64)
	return h, ok
}

// WithCriterion adds the requested criterion name to the context.
func WithCriterion(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, CriterionKey, name)
}

// GetCriterion retrieves the criterion name from the context.
func GetCriterion(ctx context.Context) string {
	if c, ok := ctx.Value(CriterionKey).(string); ok {
		return c
	}
	return ""
}

// WithRequestID adds a request id to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID retrieves the request id from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	if id := GetRequestID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(RequestIDKey), id))
	}
	if id := GetEvaluationID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(EvaluationIDKey), id))
	}
	if h, ok := GetDilemmaHash(ctx); ok {
		attrs = append(attrs, slog.String(string(DilemmaHashKey), fmt.Sprintf("%016x", h)))
	}
	if c := GetCriterion(ctx); c != "" {
		attrs = append(attrs, slog.String(string(CriterionKey), c))
	}
	return attrs
}
