package logging

import (
	"context"
	"log/slog"

	"cmsimport/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for import run identifiers.
	FieldRunID = "run_id"
	// FieldVariant is the standardized structured logging key for destination variants.
	FieldVariant = "variant"
	// FieldRow is the standardized structured logging key for zero-based input row indexes.
	FieldRow = "row"
	// FieldTitle is the standardized structured logging key for row and item titles.
	FieldTitle = "title"
	// FieldContentID is the standardized structured logging key for remote content identifiers.
	FieldContentID = "content_id"
	// FieldFolderPath is the standardized structured logging key for destination container paths.
	FieldFolderPath = "folder_path"
	// FieldEventType classifies a log line for filtering (e.g. "row_create_failed").
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAttempts records how many remote attempts an operation consumed.
	FieldAttempts = "attempts"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if variant, ok := services.VariantFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldVariant, variant))
	}
	if row, ok := services.RowIndexFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldRow, row))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
