package config

import (
	"cmp"
	"fmt"
	"math"
	"net"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/robfig/cron/v3"

	"cocorels-hq/kernel/pkg/criterion"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "router.low_complexity").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateSubTraits(cfg.SubTraits)...)
	errs = append(errs, validateInteractions(cfg.Interactions, cfg.SubTraits)...)
	errs = append(errs, validateResolution(&cfg.Resolution)...)
	errs = append(errs, ValidateRouter(&cfg.Router)...)
	errs = append(errs, validateBoosts(&cfg.Boosts, cfg.SubTraits)...)
	errs = append(errs, validateEvaluation(&cfg.Evaluation)...)
	errs = append(errs, validateAssessor(&cfg.Assessor)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateContainment(&cfg.Containment)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateServer(&cfg.Server)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateSubTraits enforces the predicate integrity guard: every sub-trait
// needs a predicate, a positive weight and a parent that maps to a criterion.
func validateSubTraits(traits map[string]SubTraitConfig) []FieldError {
	var errs []FieldError

	if len(traits) == 0 {
		return append(errs, FieldError{
			Field:   "sub_traits",
			Message: "at least one sub-trait is required",
		})
	}

	codes := make([]string, 0, len(traits))
	for code := range traits {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	for _, code := range codes {
		st := traits[code]
		field := fmt.Sprintf("sub_traits.%s", code)

		if strings.TrimSpace(code) == "" {
			errs = append(errs, FieldError{Field: "sub_traits", Message: "sub-trait code must not be empty"})
		}
		if strings.TrimSpace(st.Predicate) == "" {
			errs = append(errs, FieldError{
				Field:   field + ".predicate",
				Message: "validation predicate is required",
			})
		}
		if !(st.Weight > 0) || math.IsInf(st.Weight, 0) {
			errs = append(errs, FieldError{
				Field:   field + ".weight",
				Message: fmt.Sprintf("weight must be a positive finite number (got %v)", st.Weight),
			})
		}
		if _, err := criterion.FromParent(st.Parent); err != nil {
			errs = append(errs, FieldError{
				Field:   field + ".parent",
				Message: err.Error(),
			})
		}
	}

	return errs
}

func validateInteractions(pairs []InteractionConfig, traits map[string]SubTraitConfig) []FieldError {
	var errs []FieldError

	seen := make(map[[2]string]int, len(pairs))
	for i, p := range pairs {
		field := fmt.Sprintf("interactions[%d]", i)
		key := [2]string{p.A, p.B}
		if p.B < p.A {
			key = [2]string{p.B, p.A}
		}
		if first, dup := seen[key]; dup {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("duplicate of interactions[%d] (%s/%s)", first, key[0], key[1]),
			})
		} else {
			seen[key] = i
		}
		if _, ok := traits[p.A]; !ok {
			errs = append(errs, FieldError{Field: field + ".a", Message: fmt.Sprintf("unknown sub-trait %q", p.A)})
		}
		if _, ok := traits[p.B]; !ok {
			errs = append(errs, FieldError{Field: field + ".b", Message: fmt.Sprintf("unknown sub-trait %q", p.B)})
		}
		if p.A == p.B {
			errs = append(errs, FieldError{Field: field, Message: "a sub-trait cannot interact with itself"})
		}
		if p.Weight < -1 || p.Weight > 1 {
			errs = append(errs, FieldError{Field: field + ".weight", Message: "weight must be within [-1, 1]"})
		}
	}

	return errs
}

func validateResolution(cfg *ResolutionConfig) []FieldError {
	var errs []FieldError

	limit := ScoreScale
	switch cfg.ScoreDiffScale {
	case ScaleRaw, "":
	case ScaleUnit:
		limit = 1
	default:
		errs = append(errs, FieldError{
			Field:   "resolution_config.score_diff_scale",
			Message: fmt.Sprintf("unknown scale %q (valid: raw, unit)", cfg.ScoreDiffScale),
		})
	}
	if t := cfg.ScoreDiffThreshold; t != nil && (*t < 0 || *t > limit) {
		errs = append(errs, FieldError{
			Field:   "resolution_config.score_diff_threshold",
			Message: fmt.Sprintf("must be within [0, %g] on the %s scale", limit, cmp.Or(cfg.ScoreDiffScale, ScaleRaw)),
		})
	}
	if cfg.DampeningFactor <= 0 || cfg.DampeningFactor > 1 {
		errs = append(errs, FieldError{
			Field:   "resolution_config.dampening_factor",
			Message: "must be within (0, 1]",
		})
	}
	if cfg.MomentumDecrement < 0 || cfg.MomentumDecrement > 1 {
		errs = append(errs, FieldError{
			Field:   "resolution_config.momentum_decrement",
			Message: "must be within [0, 1]",
		})
	}

	return errs
}

// ValidateRouter validates router thresholds. The config watcher calls it
// before applying a reloaded router section.
func ValidateRouter(cfg *RouterConfig) []FieldError {
	var errs []FieldError

	if cfg.LowComplexity < 0 {
		errs = append(errs, FieldError{Field: "router.low_complexity", Message: "must not be negative"})
	}
	if cfg.HighComplexity < cfg.LowComplexity {
		errs = append(errs, FieldError{
			Field:   "router.high_complexity",
			Message: fmt.Sprintf("must be >= low_complexity (%d)", cfg.LowComplexity),
		})
	}
	if cfg.MinSlowPathBudget < 0 {
		errs = append(errs, FieldError{Field: "router.min_slow_path_budget", Message: "must not be negative"})
	}
	if c := cfg.Cutoff(); c < 0 || c > 0xFF {
		errs = append(errs, FieldError{Field: "router.jitter_cutoff", Message: "must be within [0, 255]"})
	}

	return errs
}

func validateBoosts(cfg *BoostConfig, traits map[string]SubTraitConfig) []FieldError {
	var errs []FieldError

	if cfg.DutyBoostFactor <= 0 {
		errs = append(errs, FieldError{Field: "boosts.duty_boost_factor", Message: "must be positive"})
	}
	if cfg.CoreBoostFactor <= 0 {
		errs = append(errs, FieldError{Field: "boosts.core_boost_factor", Message: "must be positive"})
	}
	for i, code := range cfg.CoreBoostedSubTraits {
		if _, ok := traits[code]; !ok {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("boosts.core_boosted_sub_traits[%d]", i),
				Message: fmt.Sprintf("unknown sub-trait %q", code),
			})
		}
	}

	return errs
}

func validateEvaluation(cfg *EvaluationConfig) []FieldError {
	var errs []FieldError

	if cfg.Workers < 1 {
		errs = append(errs, FieldError{Field: "evaluation.workers", Message: "must be at least 1"})
	}
	if cfg.QueueSize < 1 {
		errs = append(errs, FieldError{Field: "evaluation.queue_size", Message: "must be at least 1"})
	}
	if cfg.HardCap <= 0 {
		errs = append(errs, FieldError{Field: "evaluation.hard_cap", Message: "must be positive"})
	}
	if cfg.AssessTimeout <= 0 {
		errs = append(errs, FieldError{Field: "evaluation.assess_timeout", Message: "must be positive"})
	}
	if cfg.AssessConcurrency < 1 {
		errs = append(errs, FieldError{Field: "evaluation.assess_concurrency", Message: "must be at least 1"})
	}
	if cfg.NeutralScore < 0 || cfg.NeutralScore > 1 {
		errs = append(errs, FieldError{Field: "evaluation.neutral_score", Message: "must be within [0, 1]"})
	}
	if p := cfg.Provisional(); p < 0 || p > 1 {
		errs = append(errs, FieldError{Field: "evaluation.provisional_score", Message: "must be within [0, 1]"})
	}

	return errs
}

func validateAssessor(cfg *AssessorConfig) []FieldError {
	var errs []FieldError

	switch cfg.Type {
	case "hash":
	case "http":
		if cfg.HTTP.BaseURL == "" {
			errs = append(errs, FieldError{Field: "assessor.http.base_url", Message: "base URL is required for the http assessor"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "assessor.type",
			Message: fmt.Sprintf("unknown assessor type %q (want hash or http)", cfg.Type),
		})
	}

	for predicate, code := range cfg.Predicates {
		if _, err := expr.Compile(code, expr.AsBool(), expr.AllowUndefinedVariables()); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("assessor.predicates[%q]", predicate),
				Message: fmt.Sprintf("invalid expression: %v", err),
			})
		}
	}

	return errs
}

func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if cfg.Backend != "memory" && cfg.Backend != "sqlite" {
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("unknown backend %q (want memory or sqlite)", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Driver != "sqlite3" && cfg.SQLite.Driver != "sqlite" {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite.driver",
			Message: fmt.Sprintf("unknown driver %q (want sqlite3 or sqlite)", cfg.SQLite.Driver),
		})
	}
	switch cfg.Signing.Algorithm {
	case "ed25519", "dilithium3", "none":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.signing.algorithm",
			Message: fmt.Sprintf("unsupported algorithm %q", cfg.Signing.Algorithm),
		})
	}
	switch cfg.Signing.HashAlg {
	case "sha256", "sha512", "sha3-256":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.signing.hash_alg",
			Message: fmt.Sprintf("unsupported hash algorithm %q", cfg.Signing.HashAlg),
		})
	}
	if cfg.Recorder.AsyncBuffer < 1 {
		errs = append(errs, FieldError{Field: "audit.recorder.async_buffer", Message: "must be at least 1"})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{Field: "audit.retention.days", Message: "must not be negative"})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{Field: "audit.retention.max_records", Message: "must not be negative"})
	}
	if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "audit.retention.schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}

	return errs
}

func validateContainment(cfg *ContainmentConfig) []FieldError {
	var errs []FieldError

	check := func(field string, v float64) {
		if v < 0 || v > 1 {
			errs = append(errs, FieldError{Field: field, Message: "must be within [0, 1]"})
		}
	}
	check("containment.base_threshold", cfg.BaseThreshold)
	check("containment.autonomy_limit", cfg.AutonomyLimit)
	check("containment.breaker_decay", cfg.BreakerDecay)
	check("containment.lockdown_momentum", cfg.LockdownMomentum)

	for name, v := range cfg.Thresholds {
		field := fmt.Sprintf("containment.thresholds.%s", name)
		if _, err := criterion.Parse(name); err != nil {
			errs = append(errs, FieldError{Field: field, Message: err.Error()})
			continue
		}
		check(field, v)
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q", cfg.Logging.Level),
		})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q", cfg.Logging.Format),
		})
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("unknown sampler %q (valid: always, never, ratio)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: fmt.Sprintf("must be within [0, 1], got %v", cfg.Tracing.SampleRatio),
			})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "required when tracing is enabled"})
		}
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address: %v", err),
		})
	}

	for i, tok := range cfg.GovernanceTokens {
		if len(tok) < MinGovernanceTokenLength {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("server.governance_tokens[%d]", i),
				Message: fmt.Sprintf("must be at least %d characters", MinGovernanceTokenLength),
			})
		}
	}

	return errs
}
