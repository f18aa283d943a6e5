package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"cocorels-hq/kernel/pkg/action"
	"cocorels-hq/kernel/pkg/containment"
	"cocorels-hq/kernel/pkg/criterion"
	"cocorels-hq/kernel/pkg/evaluation"
	"cocorels-hq/kernel/pkg/telemetry/tracing"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	Action action.Action `json:"action"`

	// CriterionCode is the requested criterion opcode. Criterion, a name
	// such as "HONR", takes precedence when set.
	CriterionCode int    `json:"criterion_code"`
	Criterion     string `json:"criterion,omitempty"`

	// DilemmaHash is hexadecimal. Empty derives it from the action.
	DilemmaHash string `json:"dilemma_hash,omitempty"`

	Complexity   int   `json:"complexity"`
	ForceSlow    bool  `json:"force_slow,omitempty"`
	TimeBudgetMS int64 `json:"time_budget_ms,omitempty"`
}

// ContainmentRequest is the body of POST /v1/containment/check.
type ContainmentRequest struct {
	Action      action.Action `json:"action"`
	Source      string        `json:"source"`
	DilemmaHash string        `json:"dilemma_hash,omitempty"`
}

// MomentumResponse is the body of GET /v1/momentum.
type MomentumResponse struct {
	Momentum float64 `json:"momentum"`
	Lockdown bool    `json:"lockdown"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var body EvaluateRequest
	if !decode(w, r, &body) {
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx, span := s.startSpan(r.Context(), "evaluation.evaluate")
	defer span.End()

	rep := s.deps.Engine.Evaluate(ctx, req)
	tracing.SetReportAttributes(span, rep)
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleMomentum(w http.ResponseWriter, _ *http.Request) {
	resp := MomentumResponse{Momentum: s.deps.Engine.GetMomentum()}
	if s.deps.Shield != nil {
		resp.Lockdown = s.deps.Shield.Locked()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRoutingStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Engine.RoutingStats())
}

func (s *Server) handleContainmentCheck(w http.ResponseWriter, r *http.Request) {
	var body ContainmentRequest
	if !decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Action.Description()) == "" {
		writeError(w, http.StatusBadRequest, errors.New("action.description is required"))
		return
	}
	hash, err := parseHash(body.DilemmaHash)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx, span := s.startSpan(r.Context(), "containment.check")
	defer span.End()

	d := s.deps.Shield.Check(ctx, containment.Request{
		Action:      body.Action,
		Source:      body.Source,
		DilemmaHash: hash,
	})
	tracing.SetReportAttributes(span, d.Report)
	tracing.SetContainmentAttributes(span, body.Source, d.Result.String())
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleLockdown(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Lockdown bool   `json:"lockdown"`
		Enforcer string `json:"enforcer_error,omitempty"`
	}{}

	if id, ok := GovernanceTokenID(r.Context()); ok {
		s.logger.WarnContext(r.Context(), "lockdown requested", "token_id", id)
	}
	if err := s.deps.Shield.EmergencyLockdown(r.Context()); err != nil {
		resp.Enforcer = err.Error()
	}
	resp.Lockdown = s.deps.Shield.Locked()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	s.deps.Shield.Release(r.Context())
	writeJSON(w, http.StatusOK, MomentumResponse{
		Momentum: s.deps.Engine.GetMomentum(),
		Lockdown: s.deps.Shield.Locked(),
	})
}

func (s *Server) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s.deps.Tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.deps.Tracer.Start(ctx, name)
}

// ToRequest validates the body and converts it to an engine request. An
// empty dilemma hash is derived from the action.
func (b EvaluateRequest) ToRequest() (evaluation.Request, error) {
	if strings.TrimSpace(b.Action.Description()) == "" {
		return evaluation.Request{}, errors.New("action.description is required")
	}
	if b.Complexity < 0 {
		return evaluation.Request{}, fmt.Errorf("complexity must be >= 0, got %d", b.Complexity)
	}
	if b.TimeBudgetMS < 0 {
		return evaluation.Request{}, fmt.Errorf("time_budget_ms must be >= 0, got %d", b.TimeBudgetMS)
	}

	code := b.CriterionCode
	if b.Criterion != "" {
		c, err := criterion.Parse(b.Criterion)
		if err != nil {
			return evaluation.Request{}, err
		}
		code = c.Code()
	}

	hash, err := parseHash(b.DilemmaHash)
	if err != nil {
		return evaluation.Request{}, err
	}
	if hash == 0 {
		hash = b.Action.DilemmaHash()
	}

	return evaluation.Request{
		Action:        b.Action,
		CriterionCode: code,
		DilemmaHash:   hash,
		Complexity:    b.Complexity,
		ForceSlow:     b.ForceSlow,
		TimeBudget:    time.Duration(b.TimeBudgetMS) * time.Millisecond,
	}, nil
}

func parseHash(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	h, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid dilemma_hash %q: %w", s, err)
	}
	return h, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}
