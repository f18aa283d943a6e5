package config

import "time"

// ScoreScale is the integer scale some deployments express score
// thresholds on. Thresholds above 1 are divided by it.
const ScoreScale = 30000.0

// Score difference scales.
const (
	ScaleRaw  = "raw"
	ScaleUnit = "unit"
)

// Int returns a pointer to v, for the optional settings where zero is a
// meaningful value.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Default values for configuration fields.
const (
	// Resolution defaults
	DefaultConflictThreshold  = 0.5
	DefaultScoreDiffThreshold = 7000.0
	DefaultDampeningFactor    = 0.95
	DefaultMomentumDecrement  = 0.05

	// Router defaults
	DefaultLowComplexity     = 2000
	DefaultHighComplexity    = 7000
	DefaultMinSlowPathBudget = 50 * time.Millisecond
	DefaultJitterCutoff      = 0x80

	// Boost defaults
	DefaultDutyBoostFactor = 1.15
	DefaultDutyParent      = "Duty"
	DefaultCoreBoostFactor = 1.08

	// Evaluation defaults
	DefaultWorkers           = 2
	DefaultQueueSize         = 64
	DefaultHardCap           = 250 * time.Millisecond
	DefaultAssessTimeout     = 5 * time.Second
	DefaultAssessConcurrency = 4
	DefaultNeutralScore      = 0.5
	DefaultProvisionalScore  = 0.2

	// Assessor defaults
	DefaultAssessorType    = "hash"
	DefaultAssessorModel   = "gpt-4o-mini"
	DefaultAssessorTimeout = 10 * time.Second

	// Audit defaults
	DefaultAuditBackend           = "sqlite"
	DefaultAuditSQLitePath        = "data/audit.db"
	DefaultAuditSQLiteDriver      = "sqlite3"
	DefaultAuditSQLiteMaxOpen     = 10
	DefaultAuditSQLiteMaxIdle     = 5
	DefaultAuditSQLiteJournalMode = "WAL"
	DefaultAuditSQLiteBusyTimeout = 5 * time.Second
	DefaultAuditSigningAlgorithm  = "ed25519"
	DefaultAuditHashAlg           = "sha256"
	DefaultAuditAsyncBuffer       = 1000
	DefaultAuditWriteTimeout      = 5 * time.Second
	DefaultAuditRetentionDays     = 90
	DefaultAuditRetentionSchedule = "0 3 * * *"

	// Containment defaults
	DefaultCorridorThreshold = 0.65
	DefaultAutonomyLimit     = 0.7
	DefaultBreakerDecay      = 0.2
	DefaultLockdownMomentum  = 0.3
	DefaultContainmentBudget = 500 * time.Millisecond

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "cocorels"
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultTracingSampler   = "ratio"
	DefaultTracingRatio     = 0.1
	DefaultTracingService   = "cocorels-kernel"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8090"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// MinGovernanceTokenLength is the shortest accepted governance token.
	MinGovernanceTokenLength = 16
)

// DefaultCoreBoostedSubTraits returns the default high-priority sub-traits.
func DefaultCoreBoostedSubTraits() []string {
	return []string{"NC", "DI"}
}

// DefaultCorridorThresholds returns the default per-criterion corridor
// thresholds, keyed by criterion name.
func DefaultCorridorThresholds() map[string]float64 {
	return map[string]float64{
		"HONR":     0.8,
		"RESP":     0.85,
		"VALIDATE": 0.9,
	}
}

// DefaultSubTraits returns the reference taxonomy: twelve sub-traits spread
// across the Duty, Respect, Community, Wisdom, Honesty and Safety groups.
func DefaultSubTraits() map[string]SubTraitConfig {
	return map[string]SubTraitConfig{
		"TC":  {Parent: "Duty", Weight: 0.8, Predicate: "co'e gunka co'u"},
		"CA":  {Parent: "Duty", Weight: 0.8, Predicate: "nupre punji"},
		"IL":  {Parent: "Duty", Weight: 0.9, Predicate: "jetnu cnemu"},
		"DP":  {Parent: "Respect", Weight: 0.9, Predicate: "nobli kurji"},
		"NC":  {Parent: "Respect", Weight: 0.9, Predicate: "na rinju"},
		"CS":  {Parent: "Community", Weight: 0.8, Predicate: "girzu cnemu"},
		"RE":  {Parent: "Wisdom", Weight: 0.7, Predicate: "krilu ckaji"},
		"ES":  {Parent: "Wisdom", Weight: 0.7, Predicate: "jdice zasti"},
		"TR":  {Parent: "Honesty", Weight: 0.8, Predicate: "fapro jitro"},
		"CPv": {Parent: "Safety", Weight: 0.9, Predicate: "prami ranji"},
		"KS":  {Parent: "Safety", Weight: 0.8, Predicate: "sepli terpa"},
		"DI":  {Parent: "Wisdom", Weight: 0.9, Predicate: "jdice cnemu"},
	}
}

// DefaultInteractions returns the interaction table matching DefaultSubTraits.
func DefaultInteractions() []InteractionConfig {
	return []InteractionConfig{
		{A: "RE", B: "ES", Weight: -0.5},
		{A: "TR", B: "NC", Weight: -0.4},
		{A: "KS", B: "CPv", Weight: -0.35},
	}
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// The reference interaction table only makes sense with the reference
	// taxonomy, so it is defaulted together with it.
	if len(cfg.SubTraits) == 0 {
		cfg.SubTraits = DefaultSubTraits()
		if len(cfg.Interactions) == 0 {
			cfg.Interactions = DefaultInteractions()
		}
	}

	// Resolution defaults
	if cfg.Resolution.ConflictThreshold == 0 {
		cfg.Resolution.ConflictThreshold = DefaultConflictThreshold
	}
	if cfg.Resolution.ScoreDiffThreshold == nil {
		cfg.Resolution.ScoreDiffThreshold = Float(DefaultScoreDiffThreshold)
	}
	if cfg.Resolution.ScoreDiffScale == "" {
		cfg.Resolution.ScoreDiffScale = ScaleRaw
	}
	if cfg.Resolution.DampeningFactor == 0 {
		cfg.Resolution.DampeningFactor = DefaultDampeningFactor
	}
	if cfg.Resolution.MomentumDecrement == 0 {
		cfg.Resolution.MomentumDecrement = DefaultMomentumDecrement
	}

	// Router defaults
	if cfg.Router.LowComplexity == 0 {
		cfg.Router.LowComplexity = DefaultLowComplexity
	}
	if cfg.Router.HighComplexity == 0 {
		cfg.Router.HighComplexity = DefaultHighComplexity
	}
	if cfg.Router.MinSlowPathBudget == 0 {
		cfg.Router.MinSlowPathBudget = DefaultMinSlowPathBudget
	}
	if cfg.Router.JitterCutoff == nil {
		cfg.Router.JitterCutoff = Int(DefaultJitterCutoff)
	}

	// Boost defaults
	if cfg.Boosts.DutyBoostFactor == 0 {
		cfg.Boosts.DutyBoostFactor = DefaultDutyBoostFactor
	}
	if cfg.Boosts.DutyParent == "" {
		cfg.Boosts.DutyParent = DefaultDutyParent
	}
	if cfg.Boosts.CoreBoostFactor == 0 {
		cfg.Boosts.CoreBoostFactor = DefaultCoreBoostFactor
	}
	if cfg.Boosts.CoreBoostedSubTraits == nil {
		cfg.Boosts.CoreBoostedSubTraits = DefaultCoreBoostedSubTraits()
	}

	// Evaluation defaults
	if cfg.Evaluation.Workers == 0 {
		cfg.Evaluation.Workers = DefaultWorkers
	}
	if cfg.Evaluation.QueueSize == 0 {
		cfg.Evaluation.QueueSize = DefaultQueueSize
	}
	if cfg.Evaluation.HardCap == 0 {
		cfg.Evaluation.HardCap = DefaultHardCap
	}
	if cfg.Evaluation.AssessTimeout == 0 {
		cfg.Evaluation.AssessTimeout = DefaultAssessTimeout
	}
	if cfg.Evaluation.AssessConcurrency == 0 {
		cfg.Evaluation.AssessConcurrency = DefaultAssessConcurrency
	}
	if cfg.Evaluation.NeutralScore == 0 {
		cfg.Evaluation.NeutralScore = DefaultNeutralScore
	}
	if cfg.Evaluation.ProvisionalScore == nil {
		cfg.Evaluation.ProvisionalScore = Float(DefaultProvisionalScore)
	}

	// Assessor defaults
	if cfg.Assessor.Type == "" {
		cfg.Assessor.Type = DefaultAssessorType
	}
	if cfg.Assessor.HTTP.Model == "" {
		cfg.Assessor.HTTP.Model = DefaultAssessorModel
	}
	if cfg.Assessor.HTTP.Timeout == 0 {
		cfg.Assessor.HTTP.Timeout = DefaultAssessorTimeout
	}

	applyAuditDefaults(cfg)

	// Containment defaults
	if cfg.Containment.BaseThreshold == 0 {
		cfg.Containment.BaseThreshold = DefaultCorridorThreshold
	}
	if cfg.Containment.Thresholds == nil {
		cfg.Containment.Thresholds = DefaultCorridorThresholds()
	}
	if cfg.Containment.AutonomyLimit == 0 {
		cfg.Containment.AutonomyLimit = DefaultAutonomyLimit
	}
	if cfg.Containment.BreakerDecay == 0 {
		cfg.Containment.BreakerDecay = DefaultBreakerDecay
	}
	if cfg.Containment.LockdownMomentum == 0 {
		cfg.Containment.LockdownMomentum = DefaultLockdownMomentum
	}
	if cfg.Containment.Budget == 0 {
		cfg.Containment.Budget = DefaultContainmentBudget
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
}

func applyAuditDefaults(cfg *Config) {
	a := &cfg.Audit
	if a.Backend == "" {
		a.Backend = DefaultAuditBackend
	}
	if a.SQLite.Path == "" {
		a.SQLite.Path = DefaultAuditSQLitePath
	}
	if a.SQLite.Driver == "" {
		a.SQLite.Driver = DefaultAuditSQLiteDriver
	}
	if a.SQLite.MaxOpenConns == 0 {
		a.SQLite.MaxOpenConns = DefaultAuditSQLiteMaxOpen
	}
	if a.SQLite.MaxIdleConns == 0 {
		a.SQLite.MaxIdleConns = DefaultAuditSQLiteMaxIdle
	}
	if a.SQLite.JournalMode == "" {
		a.SQLite.JournalMode = DefaultAuditSQLiteJournalMode
	}
	if a.SQLite.BusyTimeout == 0 {
		a.SQLite.BusyTimeout = DefaultAuditSQLiteBusyTimeout
	}
	if a.Signing.Algorithm == "" {
		a.Signing.Algorithm = DefaultAuditSigningAlgorithm
	}
	if a.Signing.HashAlg == "" {
		a.Signing.HashAlg = DefaultAuditHashAlg
	}
	if a.Recorder.AsyncBuffer == 0 {
		a.Recorder.AsyncBuffer = DefaultAuditAsyncBuffer
	}
	if a.Recorder.WriteTimeout == 0 {
		a.Recorder.WriteTimeout = DefaultAuditWriteTimeout
	}
	if a.Retention.Days == 0 {
		a.Retention.Days = DefaultAuditRetentionDays
	}
	if a.Retention.Schedule == "" {
		a.Retention.Schedule = DefaultAuditRetentionSchedule
	}
}
