package progress

import (
	"context"
	"sync"
	"time"
)

// Stage is one step of the loading sequence.
type Stage struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Percent int    `json:"percent"`
}

// Snapshot is the observable tracker state.
type Snapshot struct {
	Stages  []Stage `json:"stages"`
	Running bool    `json:"running"`
	Done    bool    `json:"done"`
}

var stageDefs = []Stage{
	{Key: "analyzing", Label: "Analyzing Company Data"},
	{Key: "researching", Label: "Research Intelligence"},
	{Key: "strategizing", Label: "Solution Strategy"},
	{Key: "graphing", Label: "Knowledge Graph"},
	{Key: "finalizing", Label: "Finalizing Results"},
}

// DefaultDelays are the per-stage waits before each stage completes.
var DefaultDelays = []time.Duration{
	800 * time.Millisecond,
	1000 * time.Millisecond,
	1200 * time.Millisecond,
	800 * time.Millisecond,
	1500 * time.Millisecond,
}

// StageCount is the fixed number of stages.
const StageCount = 5

// Tracker drives the decorative five-stage progress sequence. It carries no
// information about the real request; callers run it alongside one.
type Tracker struct {
	delays []time.Duration

	mu      sync.Mutex
	stages  []Stage
	running bool
	done    bool
}

// New builds a tracker. Missing or negative delays are treated as zero.
func New(delays []time.Duration) *Tracker {
	normalized := make([]time.Duration, StageCount)
	for i := range normalized {
		if i < len(delays) && delays[i] > 0 {
			normalized[i] = delays[i]
		}
	}
	t := &Tracker{delays: normalized}
	t.Reset()
	return t
}

// Reset puts every stage back to zero.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stages = make([]Stage, len(stageDefs))
	copy(t.stages, stageDefs)
	t.running = false
	t.done = false
}

// Run completes each stage in order after its delay. It stops where it is
// when ctx ends; completed stages are left as they are.
func (t *Tracker) Run(ctx context.Context) error {
	t.Reset()
	t.mu.Lock()
	t.running = true
	t.mu.Unlock()

	for i, delay := range t.delays {
		if err := wait(ctx, delay); err != nil {
			t.mu.Lock()
			t.running = false
			t.mu.Unlock()
			return err
		}
		t.mu.Lock()
		t.stages[i].Percent = 100
		t.mu.Unlock()
	}

	t.mu.Lock()
	t.running = false
	t.done = true
	t.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current stage state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	stages := make([]Stage, len(t.stages))
	copy(stages, t.stages)
	return Snapshot{Stages: stages, Running: t.running, Done: t.done}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
