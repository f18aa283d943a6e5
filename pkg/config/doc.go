// Package config provides configuration management for the CoCorels kernel.
//
// Configuration is read from YAML, filled in with defaults, overridden from
// the environment and validated before any engine is constructed. An invalid
// configuration is fatal at construction time; once an engine is running it
// never fails a call because of configuration.
//
// # Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides("cocorels.yaml")
//
// Precedence, later wins:
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. COCORELS_SECTION_FIELD environment variables
//  4. Validation (fails fast)
//
// # Sub-traits
//
// The sub-trait taxonomy is loaded once and is read-only for the engine's
// lifetime. Every sub-trait must carry a non-empty validation predicate, a
// positive weight and a parent that maps onto a criterion:
//
//	sub_traits:
//	  TC:  {parent: Duty,    weight: 0.8, predicate: "co'e gunka co'u"}
//	  NC:  {parent: Respect, weight: 0.9, predicate: "na rinju"}
//	interactions:
//	  - {a: TR, b: NC, weight: -0.4}
//	resolution_config:
//	  conflict_threshold: 0.5
//	  score_diff_threshold: 7000
//	  score_diff_scale: raw
//
// # Hot reload
//
// Only the router section can change at runtime. With router.watch set, a
// Watcher re-reads the file on change and hands the new thresholds to a
// callback; everything else requires a restart.
package config
