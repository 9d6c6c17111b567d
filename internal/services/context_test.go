package services_test

import (
	"context"
	"testing"

	"salesmind/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithCompany(ctx, "Acme Corp")
	ctx = services.WithCategory(ctx, "news")
	ctx = services.WithSeq(ctx, 7)
	ctx = services.WithRequestID(ctx, "req-123")

	if company, ok := services.CompanyFromContext(ctx); !ok || company != "Acme Corp" {
		t.Fatalf("unexpected company: %v %v", company, ok)
	}
	if category, ok := services.CategoryFromContext(ctx); !ok || category != "news" {
		t.Fatalf("unexpected category: %v %v", category, ok)
	}
	if seq, ok := services.SeqFromContext(ctx); !ok || seq != 7 {
		t.Fatalf("unexpected seq: %v %v", seq, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestCategoryBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithCategory(ctx, "")
	if _, ok := services.CategoryFromContext(ctx); ok {
		t.Fatal("expected no category value")
	}
}
