package testsupport

import (
	"context"
	"sync"
	"testing"
	"time"

	"salesmind/internal/audio"
	"salesmind/internal/logging"
	"salesmind/internal/notifications"
	"salesmind/internal/progress"
	"salesmind/internal/services/backend"
	"salesmind/internal/workspace"
)

// StubPlayer records narration starts without producing sound.
type StubPlayer struct {
	mu      sync.Mutex
	started []string
	stops   int
}

// Start records text unless ctx is already done.
func (p *StubPlayer) Start(ctx context.Context, text string) error {
	if ctx.Err() != nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, text)
	return nil
}

// Stop counts stop requests.
func (p *StubPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

// Close is a no-op.
func (p *StubPlayer) Close() {}

// Snapshot reports playing once anything was started.
func (p *StubPlayer) Snapshot() audio.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.started) == 0 {
		return audio.Snapshot{Phase: audio.PhaseIdle}
	}
	return audio.Snapshot{Phase: audio.PhasePlaying, Speaking: true, Transcript: audio.TranscriptPlaying}
}

// Started returns every narration passed to Start.
func (p *StubPlayer) Started() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.started...)
}

// NewWorkspace builds a workspace against fake with a stub player, instant
// progress and a one-minute notice feed.
func NewWorkspace(t testing.TB, fake *FakeBackend) (*workspace.Workspace, *StubPlayer) {
	t.Helper()
	player := &StubPlayer{}
	ws, err := workspace.New(workspace.Options{
		Backend:  backend.NewClient(backend.Config{BaseURL: fake.URL(), TimeoutSeconds: 5}),
		Player:   player,
		Notifier: notifications.NewHubWith(notifications.NewFeed(time.Minute), nil, logging.NewNop()),
		Tracker:  progress.New(nil),
		Width:    1200,
		Height:   800,
		Logger:   logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("workspace.New: %v", err)
	}
	t.Cleanup(ws.Close)
	return ws, player
}
