package services_test

import (
	"context"
	"testing"

	"influencer/internal/services"
)

func TestWithScopeLayers(t *testing.T) {
	ctx := services.WithScope(context.Background(), services.Scope{Channel: "brooke", RunID: "run-1"})
	ctx = services.WithScope(ctx, services.Scope{Item: "BRK-42", Step: "narrate"})

	got := services.ScopeFrom(ctx)
	want := services.Scope{Channel: "brooke", Item: "BRK-42", Step: "narrate", RunID: "run-1"}
	if got != want {
		t.Fatalf("scope = %+v, want %+v", got, want)
	}

	ctx = services.WithScope(ctx, services.Scope{Step: "mix"})
	if s := services.ScopeFrom(ctx); s.Step != "mix" || s.Item != "BRK-42" {
		t.Fatalf("override lost fields: %+v", s)
	}
}

func TestEmptyScopeLeavesContext(t *testing.T) {
	base := context.Background()
	if ctx := services.WithScope(base, services.Scope{}); ctx != base {
		t.Fatal("expected the same context for an empty scope")
	}
	if s := services.ScopeFrom(base); s != (services.Scope{}) {
		t.Fatalf("scope on bare context = %+v", s)
	}
}
