package journal_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"salesmind/internal/insight"
	"salesmind/internal/journal"
	"salesmind/internal/testsupport"
)

func TestRecordAndRecent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	outcomes := []insight.Outcome{
		{Seq: 1, Company: "Acme Corp", Category: "news", State: insight.StateReady, Insight: "Grow cloud spend", Narration: "Acme is moving to cloud.", Duration: 1500 * time.Millisecond, CompletedAt: base},
		{Seq: 2, Company: "Acme Corp", Category: "hiring", State: insight.StateFailed, FailureKind: "network", Error: "connection refused", CompletedAt: base.Add(time.Second)},
		{Seq: 3, Company: "Globex", Category: "overview", State: insight.StateReady, Insight: "Modernise ERP", Narration: "Globex benefits from LTIMindtree solutions.", Fallback: true, CompletedAt: base.Add(2 * time.Second)},
	}
	for _, o := range outcomes {
		if err := store.Record(ctx, o); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	all, err := store.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(all) != 3 || all[0].Company != "Globex" || all[2].Category != "news" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if !all[0].Fallback || all[0].Seq != 3 {
		t.Fatalf("unexpected newest entry: %+v", all[0])
	}
	if all[2].Duration != 1500*time.Millisecond || !all[2].CreatedAt.Equal(base) {
		t.Fatalf("unexpected oldest entry: %+v", all[2])
	}

	acme, err := store.Recent(ctx, "acme corp", 10)
	if err != nil {
		t.Fatalf("Recent with filter failed: %v", err)
	}
	if len(acme) != 2 {
		t.Fatalf("expected 2 Acme entries, got %d", len(acme))
	}
	if acme[0].State != insight.StateFailed || acme[0].FailureKind != "network" || acme[0].Insight != "" {
		t.Fatalf("unexpected failed entry: %+v", acme[0])
	}

	limited, err := store.Recent(ctx, "", 1)
	if err != nil {
		t.Fatalf("Recent with limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := journal.Stats{Total: 3, Ready: 2, Failed: 1, Fallbacks: 1, Companies: 2}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func TestPruneRemovesOldEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	if err := store.Record(ctx, insight.Outcome{Company: "Old", Category: "news", State: insight.StateReady, CompletedAt: old}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, insight.Outcome{Company: "New", Category: "news", State: insight.StateReady}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	removed, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	left, err := store.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(left) != 1 || left[0].Company != "New" {
		t.Fatalf("unexpected remaining entries: %+v", left)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	store, err := journal.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if err := store.Record(context.Background(), insight.Outcome{Company: "Acme", Category: "news", State: insight.StateReady}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := journal.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.Recent(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected entry to survive reopen, got %d", len(entries))
	}
}

func TestOpenDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Journal.Enabled = false
	if _, err := journal.Open(cfg); !errors.Is(err, journal.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

var _ insight.Recorder = (*journal.Store)(nil)
