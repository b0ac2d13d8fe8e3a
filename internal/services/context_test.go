package services_test

import (
	"context"
	"testing"

	"cmsimport/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithVariant(ctx, "content")
	ctx = services.WithRowIndex(ctx, 7)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if variant, ok := services.VariantFromContext(ctx); !ok || variant != "content" {
		t.Fatalf("unexpected variant: %v %v", variant, ok)
	}
	if row, ok := services.RowIndexFromContext(ctx); !ok || row != 7 {
		t.Fatalf("unexpected row index: %v %v", row, ok)
	}
}

func TestVariantBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithVariant(ctx, "")
	if _, ok := services.VariantFromContext(ctx); ok {
		t.Fatal("expected no variant value")
	}
	if _, ok := services.RowIndexFromContext(ctx); ok {
		t.Fatal("expected no row index value")
	}
}
