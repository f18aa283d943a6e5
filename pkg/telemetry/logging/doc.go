// Package logging configures log/slog for the kernel.
//
// New builds a *slog.Logger from the telemetry section of the configuration.
// The handler it installs copies evaluation fields carried on the context
// (evaluation id, dilemma hash, criterion, request id) onto every record
// logged with a *Context method, and masks secret-looking attributes such as
// api_key.
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	slog.SetDefault(logger)
//
//	ctx = logging.WithEvaluationID(ctx, report.ID)
//	slog.InfoContext(ctx, "Slow path completed") // includes evaluation_id
//
// Components derive their logger the usual way:
//
//	logger := slog.Default().With("component", "evaluation.coordinator")
package logging
