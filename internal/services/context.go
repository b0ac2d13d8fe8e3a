package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	variantKey  contextKey = "variant"
	rowIndexKey contextKey = "row"
)

// WithRunID annotates context with the import run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the import run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithVariant annotates context with the destination variant name.
func WithVariant(ctx context.Context, variant string) context.Context {
	if variant == "" {
		return ctx
	}
	return context.WithValue(ctx, variantKey, variant)
}

// VariantFromContext returns the destination variant if present.
func VariantFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(variantKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRowIndex annotates context with the zero-based input row index.
func WithRowIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, rowIndexKey, index)
}

// RowIndexFromContext extracts the input row index if present.
func RowIndexFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(rowIndexKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}
