package config

import "time"

// Config is the root configuration structure for the CoCorels kernel.
// It carries the sub-trait taxonomy consumed by the slow path, the routing
// and resolution tunables, and the settings of the collaborators (assessor,
// audit sink, containment shield, telemetry and HTTP surface) wired around it.
type Config struct {
	// SubTraits maps a sub-trait code (e.g. "TC", "NC") to its parent
	// criterion, default weight and validation predicate. Loaded once at
	// engine construction and read-only afterwards.
	// Default: the twelve-trait reference taxonomy (see DefaultSubTraits).
	SubTraits map[string]SubTraitConfig `yaml:"sub_traits"`

	// Interactions is the sparse, symmetric sub-trait interaction table.
	// Pairs not listed are neutral.
	// Default: RE/ES -0.5, TR/NC -0.4, KS/CPv -0.35 (only when SubTraits is
	// also defaulted).
	Interactions []InteractionConfig `yaml:"interactions"`

	// Resolution controls conflict detection and dampening.
	Resolution ResolutionConfig `yaml:"resolution_config"`

	// Router contains the fast/slow routing thresholds.
	Router RouterConfig `yaml:"router"`

	// Boosts contains the post-dampening weight boosts.
	Boosts BoostConfig `yaml:"boosts"`

	// Evaluation contains the coordinator's pool and deadline settings.
	Evaluation EvaluationConfig `yaml:"evaluation"`

	// Assessor selects and configures the trait assessor backend.
	Assessor AssessorConfig `yaml:"assessor"`

	// Audit contains settings for the signing audit sink that receives
	// slow-path results.
	Audit AuditConfig `yaml:"audit"`

	// Containment contains safety corridor thresholds and circuit breaker
	// settings.
	Containment ContainmentConfig `yaml:"containment"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Server contains the HTTP surface configuration.
	Server ServerConfig `yaml:"server"`
}

// SubTraitConfig describes one configured micro-factor.
type SubTraitConfig struct {
	// Parent is the mid-level aggregate or criterion name this sub-trait
	// rolls up into (e.g. "Duty", "Respect", "HONR").
	Parent string `yaml:"parent"`

	// Weight is the default weight inside the parent's group. Must be > 0.
	Weight float64 `yaml:"weight"`

	// Predicate is the validation predicate forwarded to the external
	// validator. It is never interpreted by the kernel. Must be non-empty.
	Predicate string `yaml:"predicate"`
}

// InteractionConfig is one entry of the interaction table.
type InteractionConfig struct {
	// A and B are the sub-trait codes of the pair. Order does not matter.
	A string `yaml:"a"`
	B string `yaml:"b"`

	// Weight is the interaction weight in [-1, 1]. Only negative weights
	// can produce conflicts.
	Weight float64 `yaml:"weight"`
}

// ResolutionConfig controls conflict detection and resolution.
type ResolutionConfig struct {
	// ConflictThreshold is the interaction weight a pair must fall below to
	// be considered for conflict detection.
	// Default: 0.5
	ConflictThreshold float64 `yaml:"conflict_threshold"`

	// ScoreDiffThreshold is the minimum absolute score difference that flags
	// a pair, on the scale named by ScoreDiffScale. Zero flags any
	// difference.
	// Default: 7000 (0.2333 normalized)
	ScoreDiffThreshold *float64 `yaml:"score_diff_threshold"`

	// ScoreDiffScale is "raw" (0..30000) or "unit" (0..1).
	// Default: "raw"
	ScoreDiffScale string `yaml:"score_diff_scale"`

	// DampeningFactor multiplies both members of a flagged pair.
	// Default: 0.95
	DampeningFactor float64 `yaml:"dampening_factor"`

	// MomentumDecrement is subtracted from momentum per flagged pair.
	// Default: 0.05
	MomentumDecrement float64 `yaml:"momentum_decrement"`
}

// NormalizedScoreDiff returns ScoreDiffThreshold in [0, 1] space.
func (r ResolutionConfig) NormalizedScoreDiff() float64 {
	if r.ScoreDiffThreshold == nil {
		return DefaultScoreDiffThreshold / ScoreScale
	}
	if r.ScoreDiffScale == ScaleUnit {
		return *r.ScoreDiffThreshold
	}
	return *r.ScoreDiffThreshold / ScoreScale
}

// RouterConfig contains the routing thresholds. These are the only settings
// the config watcher applies to a running engine.
type RouterConfig struct {
	// LowComplexity: complexity below this always routes FAST.
	// Default: 2000
	LowComplexity int `yaml:"low_complexity"`

	// HighComplexity: complexity above this always routes SLOW.
	// Default: 7000
	HighComplexity int `yaml:"high_complexity"`

	// MinSlowPathBudget: budgets below this always route FAST.
	// Default: 50ms
	MinSlowPathBudget time.Duration `yaml:"min_slow_path_budget"`

	// JitterCutoff: in the borderline band a FAST-affinity criterion
	// escalates when the jitter byte exceeds this value (0..255). Zero
	// escalates every non-zero byte.
	// Default: 0x80
	JitterCutoff *int `yaml:"jitter_cutoff"`

	// Watch enables hot reload of the router section when the config file
	// changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// Cutoff returns JitterCutoff, or the default when unset.
func (r RouterConfig) Cutoff() int {
	if r.JitterCutoff == nil {
		return DefaultJitterCutoff
	}
	return *r.JitterCutoff
}

// BoostConfig contains the post-dampening boosts.
type BoostConfig struct {
	// DutyBoostFactor multiplies sub-traits whose parent is DutyParent.
	// Default: 1.15
	DutyBoostFactor float64 `yaml:"duty_boost_factor"`

	// DutyParent names the duty category.
	// Default: "Duty"
	DutyParent string `yaml:"duty_parent"`

	// CoreBoostFactor multiplies the sub-traits in CoreBoostedSubTraits.
	// Default: 1.08
	CoreBoostFactor float64 `yaml:"core_boost_factor"`

	// CoreBoostedSubTraits lists the high-priority sub-trait codes.
	// Default: ["NC", "DI"]
	CoreBoostedSubTraits []string `yaml:"core_boosted_sub_traits"`
}

// EvaluationConfig contains coordinator settings.
type EvaluationConfig struct {
	// Workers is the size of the slow-path worker pool.
	// Default: 2
	Workers int `yaml:"workers"`

	// QueueSize bounds pending slow-path tasks. A full queue degrades the
	// call to the fast path.
	// Default: 64
	QueueSize int `yaml:"queue_size"`

	// HardCap caps the wait for a slow-path result regardless of the
	// requested budget.
	// Default: 250ms
	HardCap time.Duration `yaml:"hard_cap"`

	// AssessTimeout bounds a single sub-trait assessment.
	// Default: 5s
	AssessTimeout time.Duration `yaml:"assess_timeout"`

	// AssessConcurrency bounds concurrent assessor calls within one task.
	// Default: 4
	AssessConcurrency int `yaml:"assess_concurrency"`

	// NeutralScore is assigned to criteria with no evidence.
	// Default: 0.5
	NeutralScore float64 `yaml:"neutral_score"`

	// ProvisionalScore is the conservative score returned on timeout.
	// Default: 0.2
	ProvisionalScore *float64 `yaml:"provisional_score"`

	// PublishFastPath also sends fast-path reports to the audit sink.
	// Default: false
	PublishFastPath bool `yaml:"publish_fast_path"`

	// JitterSeed fixes the router jitter source. Zero seeds from time.
	// Default: 0
	JitterSeed uint64 `yaml:"jitter_seed"`
}

// Provisional returns ProvisionalScore, or the default when unset.
func (e EvaluationConfig) Provisional() float64 {
	if e.ProvisionalScore == nil {
		return DefaultProvisionalScore
	}
	return *e.ProvisionalScore
}

// AssessorConfig selects the trait assessor.
type AssessorConfig struct {
	// Type is "hash" (deterministic) or "http" (OpenAI-compatible model).
	// Default: "hash"
	Type string `yaml:"type"`

	// HTTP configures the model-backed assessor.
	HTTP HTTPAssessorConfig `yaml:"http"`

	// Predicates maps a sub-trait predicate to a boolean expression over
	// the action context, e.g. "na rinju": "!(violates_autonomy ?? false)".
	// Predicates without an entry are accepted. Empty disables predicate
	// validation and leaves VALIDATE at the neutral score.
	Predicates map[string]string `yaml:"predicates"`
}

// HTTPAssessorConfig configures the model-backed assessor.
type HTTPAssessorConfig struct {
	// BaseURL is the API base, e.g. "https://api.openai.com/v1".
	BaseURL string `yaml:"base_url"`

	// APIKey is sent as a bearer token. Usually set via
	// COCORELS_ASSESSOR_HTTP_API_KEY.
	APIKey string `yaml:"api_key"`

	// Model is the model name sent with each request.
	// Default: "gpt-4o-mini"
	Model string `yaml:"model"`

	// Timeout bounds a single HTTP call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// AuditConfig configures the audit sink.
type AuditConfig struct {
	// Enabled turns on the audit recorder.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend is "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Signing configures record signatures.
	Signing SigningConfig `yaml:"signing"`

	// Recorder configures the asynchronous writer.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention configures pruning of old records.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig configures the SQLite audit backend.
type SQLiteConfig struct {
	// Path is the database file.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// Driver is "sqlite3" (cgo, mattn/go-sqlite3) or "sqlite" (pure Go,
	// modernc.org/sqlite).
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// MaxOpenConns bounds open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns bounds idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// JournalMode is the SQLite journal mode ("WAL", "DELETE", ...).
	// Default: "WAL"
	JournalMode string `yaml:"journal_mode"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// SigningConfig configures audit record signatures.
type SigningConfig struct {
	// Algorithm is "ed25519", "dilithium3" or "none".
	// Default: "ed25519"
	Algorithm string `yaml:"algorithm"`

	// HashAlg is the digest signed: "sha256", "sha512" or "sha3-256".
	// Default: "sha256"
	HashAlg string `yaml:"hash_alg"`

	// KeyPath is a PEM private key. Empty generates an ephemeral key.
	KeyPath string `yaml:"key_path"`
}

// RecorderConfig configures the asynchronous audit writer.
type RecorderConfig struct {
	// AsyncBuffer is the channel capacity.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig configures audit pruning.
type RetentionConfig struct {
	// Days is how long records are kept. Zero keeps forever.
	// Default: 90
	Days int `yaml:"days"`

	// Schedule is a standard cron expression for the pruning job.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`

	// MaxRecords caps the number of stored records; the oldest are pruned
	// first. Zero is unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// ContainmentConfig configures the containment shield.
type ContainmentConfig struct {
	// BaseThreshold is the corridor threshold for criteria without an
	// explicit entry.
	// Default: 0.65
	BaseThreshold float64 `yaml:"base_threshold"`

	// Thresholds overrides the corridor threshold per criterion name.
	// Default: HONR 0.8, RESP 0.85, VALIDATE 0.9
	Thresholds map[string]float64 `yaml:"thresholds"`

	// AutonomyLimit is the maximum tolerated autonomy exposure
	// (1 - AUTONOMY.LIM score).
	// Default: 0.7
	AutonomyLimit float64 `yaml:"autonomy_limit"`

	// BreakerDecay is the momentum decay applied by the circuit breaker.
	// Default: 0.2
	BreakerDecay float64 `yaml:"breaker_decay"`

	// LockdownMomentum: momentum below this after a breaker trip locks
	// the shield down.
	// Default: 0.3
	LockdownMomentum float64 `yaml:"lockdown_momentum"`

	// Budget is the time budget for containment evaluations.
	// Default: 500ms
	Budget time.Duration `yaml:"budget"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Path is the HTTP path for the metrics handler.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "cocorels"
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry tracing of evaluate and
// containment requests.
type TracingConfig struct {
	// Enabled turns tracing on. Disabled tracing uses a no-op tracer.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Sampler is "always", "never" or "ratio".
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces kept by the "ratio" sampler.
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the OpenTelemetry service.name.
	// Default: "cocorels-kernel"
	ServiceName string `yaml:"service_name"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	// ListenAddress is "host:port".
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// GovernanceTokens are the bearer tokens accepted on the lockdown and
	// release routes. Empty leaves those routes open, which only suits a
	// loopback listener.
	// Default: none
	GovernanceTokens []string `yaml:"governance_tokens"`
}
