package daemonrun

import (
	"context"
	"testing"

	"salesmind/internal/logging"
	"salesmind/internal/testsupport"
)

func TestBuildWiresWorkspaceAndJournal(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithBackendURL(fake.URL()),
		testsupport.WithAudioStubs(),
	)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	ctx := context.Background()

	d, err := Build(ctx, cfg, logging.NewNop(), logging.NewStreamHub(16))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ws := d.Workspace()
	if err := ws.Search(ctx, "Acme Corp"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if err := ws.Click(ctx, "news"); err != nil {
		t.Fatalf("Click: %v", err)
	}

	entries, stats, err := d.Journal(ctx, "acme corp", 10)
	if err != nil {
		t.Fatalf("Journal: %v", err)
	}
	if stats.Total != 1 || len(entries) != 1 {
		t.Fatalf("expected one recorded outcome, got %d entries / %+v", len(entries), stats)
	}
	if entries[0].Category != "news" || entries[0].Narration != "Acme is ready for a cloud consolidation play." {
		t.Fatalf("unexpected journal entry: %+v", entries[0])
	}
}

func TestBuildWithoutJournal(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(fake.URL()))
	cfg.Journal.Enabled = false

	d, err := Build(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if _, _, err := d.Journal(context.Background(), "", 5); err == nil {
		t.Fatal("expected journal to be disabled")
	}
}
