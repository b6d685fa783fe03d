package logging

import (
	"context"
	"log/slog"

	"influencer/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItem is the standardized key for work item keys (series-sequence).
	FieldItem = "item"
	// FieldStage is the standardized key for lifecycle stages and pipeline steps.
	FieldStage = "stage"
	// FieldChannel is the standardized key for channel names.
	FieldChannel = "channel"
	// FieldTitle is the standardized key for work item or topic titles.
	FieldTitle = "title"
	// FieldCorrelationID is the standardized key for run correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields turns the work scope carried by ctx into log attributes.
func ContextFields(ctx context.Context) []slog.Attr {
	scope := services.ScopeFrom(ctx)
	fields := make([]slog.Attr, 0, 4)
	for _, f := range []struct{ key, value string }{
		{FieldChannel, scope.Channel},
		{FieldItem, scope.Item},
		{FieldStage, scope.Step},
		{FieldCorrelationID, scope.RunID},
	} {
		if f.value != "" {
			fields = append(fields, slog.String(f.key, f.value))
		}
	}
	return fields
}

// WithContext returns logger tagged with the scope carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return logger.With(args...)
}
