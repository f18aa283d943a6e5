package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COCORELS_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and applies defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention COCORELS_SECTION_FIELD (e.g., COCORELS_ROUTER_LOW_COMPLEXITY).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
//
// An empty path skips step 1 and starts from defaults.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Unparseable values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Router overrides
	envInt("ROUTER_LOW_COMPLEXITY", &cfg.Router.LowComplexity)
	envInt("ROUTER_HIGH_COMPLEXITY", &cfg.Router.HighComplexity)
	envDuration("ROUTER_MIN_SLOW_PATH_BUDGET", &cfg.Router.MinSlowPathBudget)
	envOptionalInt("ROUTER_JITTER_CUTOFF", &cfg.Router.JitterCutoff)
	envBool("ROUTER_WATCH", &cfg.Router.Watch)

	// Resolution overrides
	envFloat("RESOLUTION_CONFLICT_THRESHOLD", &cfg.Resolution.ConflictThreshold)
	envOptionalFloat("RESOLUTION_SCORE_DIFF_THRESHOLD", &cfg.Resolution.ScoreDiffThreshold)
	envString("RESOLUTION_SCORE_DIFF_SCALE", &cfg.Resolution.ScoreDiffScale)

	// Evaluation overrides
	envInt("EVALUATION_WORKERS", &cfg.Evaluation.Workers)
	envInt("EVALUATION_QUEUE_SIZE", &cfg.Evaluation.QueueSize)
	envDuration("EVALUATION_HARD_CAP", &cfg.Evaluation.HardCap)
	envDuration("EVALUATION_ASSESS_TIMEOUT", &cfg.Evaluation.AssessTimeout)
	envBool("EVALUATION_PUBLISH_FAST_PATH", &cfg.Evaluation.PublishFastPath)

	// Assessor overrides
	envString("ASSESSOR_TYPE", &cfg.Assessor.Type)
	envString("ASSESSOR_HTTP_BASE_URL", &cfg.Assessor.HTTP.BaseURL)
	envString("ASSESSOR_HTTP_API_KEY", &cfg.Assessor.HTTP.APIKey)
	envString("ASSESSOR_HTTP_MODEL", &cfg.Assessor.HTTP.Model)

	// Audit overrides
	envBool("AUDIT_ENABLED", &cfg.Audit.Enabled)
	envString("AUDIT_BACKEND", &cfg.Audit.Backend)
	envString("AUDIT_SQLITE_PATH", &cfg.Audit.SQLite.Path)
	envString("AUDIT_SQLITE_DRIVER", &cfg.Audit.SQLite.Driver)
	envString("AUDIT_SIGNING_ALGORITHM", &cfg.Audit.Signing.Algorithm)
	envString("AUDIT_SIGNING_KEY_PATH", &cfg.Audit.Signing.KeyPath)
	envInt("AUDIT_RETENTION_DAYS", &cfg.Audit.Retention.Days)

	// Containment overrides
	envFloat("CONTAINMENT_AUTONOMY_LIMIT", &cfg.Containment.AutonomyLimit)
	envFloat("CONTAINMENT_BASE_THRESHOLD", &cfg.Containment.BaseThreshold)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)

	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)

	var token string
	envString("SERVER_GOVERNANCE_TOKEN", &token)
	if token != "" {
		cfg.Server.GovernanceTokens = append(cfg.Server.GovernanceTokens, token)
	}
}

func lookup(name string) (string, bool) {
	val := os.Getenv(EnvPrefix + name)
	if val == "" {
		return "", false
	}
	return strings.TrimSpace(val), true
}

func envString(name string, dst *string) {
	if val, ok := lookup(name); ok {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val, ok := lookup(name); ok {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(name string, dst *float64) {
	if val, ok := lookup(name); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envOptionalInt(name string, dst **int) {
	if val, ok := lookup(name); ok {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = &i
		}
	}
}

func envOptionalFloat(name string, dst **float64) {
	if val, ok := lookup(name); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = &f
		}
	}
}

func envBool(name string, dst *bool) {
	if val, ok := lookup(name); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val, ok := lookup(name); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
