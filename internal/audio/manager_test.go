package audio_test

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"salesmind/internal/audio"
	"salesmind/internal/notifications"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubSynth struct {
	mu      sync.Mutex
	payload string
	err     error
	calls   []string
}

func (s *stubSynth) Synthesize(_ context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, text)
	return s.payload, s.err
}

func (s *stubSynth) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fakeHandle struct {
	mu       sync.Mutex
	events   audio.Events
	data     []byte
	playErr  error
	played   int
	paused   int
	rewound  int
	released int
}

func (h *fakeHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.played++
	return h.playErr
}

func (h *fakeHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused++
}

func (h *fakeHandle) Rewind() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rewound++
}

func (h *fakeHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released++
}

func (h *fakeHandle) releaseCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

type fakeFactory struct {
	mu      sync.Mutex
	handles []*fakeHandle
	openErr error
	playErr error
}

func (f *fakeFactory) Open(_ context.Context, data []byte, events audio.Events) (audio.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	h := &fakeHandle{events: events, data: data, playErr: f.playErr}
	f.handles = append(f.handles, h)
	return h, nil
}

func (f *fakeFactory) handle(i int) *fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.handles) {
		return nil
	}
	return f.handles[i]
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handles)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Notify(_ context.Context, _ notifications.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingNotifier) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func encoded(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func newManager(synth *stubSynth, factory *fakeFactory, notifier *recordingNotifier, opts ...audio.Option) *audio.Manager {
	base := []audio.Option{audio.WithNotifier(notifier), audio.WithTranscriptClearDelay(10 * time.Millisecond)}
	return audio.NewManager(synth, factory, append(base, opts...)...)
}

var ignoreGeneration = cmpopts.IgnoreFields(audio.Snapshot{}, "Generation")

func TestStartPlaysThroughCompletion(t *testing.T) {
	synth := &stubSynth{payload: encoded("mp3-bytes")}
	factory := &fakeFactory{}
	notifier := &recordingNotifier{}
	m := newManager(synth, factory, notifier)
	defer m.Close()

	if err := m.Start(context.Background(), "Acme benefits from automation."); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	h := factory.handle(0)
	if h == nil || h.played != 1 || string(h.data) != "mp3-bytes" {
		t.Fatalf("expected one played handle with decoded bytes, got %+v", h)
	}
	want := audio.Snapshot{Phase: audio.PhasePreparing, Transcript: audio.TranscriptPreparing, HasHandle: true}
	if diff := cmp.Diff(want, m.Snapshot(), ignoreGeneration); diff != "" {
		t.Fatalf("snapshot after start mismatch (-want +got):\n%s", diff)
	}

	h.events.OnReady()
	want = audio.Snapshot{Phase: audio.PhasePlaying, Speaking: true, Transcript: audio.TranscriptPlaying, HasHandle: true}
	if diff := cmp.Diff(want, m.Snapshot(), ignoreGeneration); diff != "" {
		t.Fatalf("snapshot after ready mismatch (-want +got):\n%s", diff)
	}

	h.events.OnTimeUpdate(time.Second, 4*time.Second)
	if got := m.Snapshot().Fraction; got != 0.25 {
		t.Fatalf("expected fraction 0.25, got %v", got)
	}
	h.events.OnTimeUpdate(time.Second, 0)
	if got := m.Snapshot().Fraction; got != 0.25 {
		t.Fatalf("expected unknown duration to be ignored, got %v", got)
	}
	h.events.OnTimeUpdate(9*time.Second, 4*time.Second)
	if got := m.Snapshot().Fraction; got != 1 {
		t.Fatalf("expected fraction clamped to 1, got %v", got)
	}

	h.events.OnEnded()
	want = audio.Snapshot{Phase: audio.PhaseCompleted, Transcript: audio.TranscriptComplete}
	if diff := cmp.Diff(want, m.Snapshot(), ignoreGeneration); diff != "" {
		t.Fatalf("snapshot after end mismatch (-want +got):\n%s", diff)
	}
	if h.releaseCount() != 1 {
		t.Fatalf("expected handle released once, got %d", h.releaseCount())
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.Snapshot().Transcript != "" {
		if time.Now().After(deadline) {
			t.Fatal("transcript was not cleared after completion")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(notifier.all()) != 0 {
		t.Fatalf("expected no notices, got %v", notifier.all())
	}
}

func TestStartTwiceKeepsOneHandle(t *testing.T) {
	synth := &stubSynth{payload: encoded("clip")}
	factory := &fakeFactory{}
	m := newManager(synth, factory, &recordingNotifier{})
	defer m.Close()

	ctx := context.Background()
	if err := m.Start(ctx, "first"); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := m.Start(ctx, "second"); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	first, second := factory.handle(0), factory.handle(1)
	if first.releaseCount() != 1 || first.paused != 1 || first.rewound != 1 {
		t.Fatalf("expected first handle paused, rewound and released, got %+v", first)
	}
	if second.releaseCount() != 0 {
		t.Fatal("expected second handle to stay alive")
	}
	if !m.Snapshot().HasHandle {
		t.Fatal("expected an active handle")
	}

	first.events.OnReady()
	first.events.OnEnded()
	if got := m.Snapshot(); got.Phase != audio.PhasePreparing || got.Speaking {
		t.Fatalf("stale callbacks changed state: %+v", got)
	}
	if second.releaseCount() != 0 {
		t.Fatal("stale completion released the live handle")
	}
}

func TestStopWithoutHandleIsNoop(t *testing.T) {
	factory := &fakeFactory{}
	m := newManager(&stubSynth{}, factory, &recordingNotifier{})
	m.Stop()
	m.Stop()
	got := m.Snapshot()
	if got.Phase != audio.PhaseIdle || got.HasHandle || got.Fraction != 0 || got.Speaking {
		t.Fatalf("unexpected snapshot after Stop: %+v", got)
	}
	if factory.count() != 0 {
		t.Fatal("Stop must not open handles")
	}
}

func TestStopReleasesActiveHandle(t *testing.T) {
	factory := &fakeFactory{}
	m := newManager(&stubSynth{payload: encoded("clip")}, factory, &recordingNotifier{})
	if err := m.Start(context.Background(), "text"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h := factory.handle(0)
	h.events.OnReady()
	h.events.OnTimeUpdate(time.Second, 2*time.Second)

	m.Stop()
	got := m.Snapshot()
	if got.Phase != audio.PhaseIdle || got.Fraction != 0 || got.Speaking || got.HasHandle {
		t.Fatalf("unexpected snapshot after Stop: %+v", got)
	}
	if h.releaseCount() != 1 {
		t.Fatalf("expected release, got %d", h.releaseCount())
	}
}

func TestStartFailures(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		synth          *stubSynth
		factory        *fakeFactory
		wantTranscript string
		wantNotice     string
		wantSynthCalls int
		wantHandles    int
	}{
		{
			name:           "empty text",
			text:           "  ",
			synth:          &stubSynth{payload: encoded("clip")},
			factory:        &fakeFactory{},
			wantNotice:     audio.NoticeNoText,
			wantSynthCalls: 0,
		},
		{
			name:           "synthesis failure",
			text:           "narration",
			synth:          &stubSynth{err: errors.New("credits exhausted")},
			factory:        &fakeFactory{},
			wantTranscript: audio.TranscriptLoadFailed,
			wantNotice:     audio.NoticeLoadFailed,
			wantSynthCalls: 1,
		},
		{
			name:           "malformed base64",
			text:           "narration",
			synth:          &stubSynth{payload: "%%% not audio %%%"},
			factory:        &fakeFactory{},
			wantTranscript: audio.TranscriptLoadFailed,
			wantNotice:     audio.NoticeLoadFailed,
			wantSynthCalls: 1,
		},
		{
			name:           "empty payload",
			text:           "narration",
			synth:          &stubSynth{payload: ""},
			factory:        &fakeFactory{},
			wantTranscript: audio.TranscriptLoadFailed,
			wantNotice:     audio.NoticeLoadFailed,
			wantSynthCalls: 1,
		},
		{
			name:           "open failure",
			text:           "narration",
			synth:          &stubSynth{payload: encoded("clip")},
			factory:        &fakeFactory{openErr: errors.New("no audio stream")},
			wantTranscript: audio.TranscriptLoadFailed,
			wantNotice:     audio.NoticeLoadFailed,
			wantSynthCalls: 1,
		},
		{
			name:           "play rejected",
			text:           "narration",
			synth:          &stubSynth{payload: encoded("clip")},
			factory:        &fakeFactory{playErr: errors.New("exec: not found")},
			wantTranscript: audio.TranscriptPlaybackFailed,
			wantNotice:     audio.NoticeStartFailed,
			wantSynthCalls: 1,
			wantHandles:    1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			m := newManager(tc.synth, tc.factory, notifier)
			defer m.Close()

			if err := m.Start(context.Background(), tc.text); err == nil {
				t.Fatal("expected Start to report an error")
			}
			got := m.Snapshot()
			if got.Phase != audio.PhaseErrored || got.HasHandle || got.Speaking {
				t.Fatalf("unexpected snapshot: %+v", got)
			}
			if got.Transcript != tc.wantTranscript {
				t.Fatalf("transcript = %q, want %q", got.Transcript, tc.wantTranscript)
			}
			if diff := cmp.Diff([]string{tc.wantNotice}, notifier.all()); diff != "" {
				t.Fatalf("notices mismatch (-want +got):\n%s", diff)
			}
			if tc.synth.callCount() != tc.wantSynthCalls {
				t.Fatalf("synth calls = %d, want %d", tc.synth.callCount(), tc.wantSynthCalls)
			}
			if tc.factory.count() != tc.wantHandles {
				t.Fatalf("handles = %d, want %d", tc.factory.count(), tc.wantHandles)
			}
			if tc.wantHandles > 0 && tc.factory.handle(0).releaseCount() != 1 {
				t.Fatal("expected rejected handle to be released")
			}
		})
	}
}

func TestPlaybackErrorReleasesHandle(t *testing.T) {
	factory := &fakeFactory{}
	notifier := &recordingNotifier{}
	m := newManager(&stubSynth{payload: encoded("clip")}, factory, notifier)
	defer m.Close()

	if err := m.Start(context.Background(), "text"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h := factory.handle(0)
	h.events.OnReady()
	h.events.OnError(errors.New("decoder crashed"))

	want := audio.Snapshot{Phase: audio.PhaseErrored, Transcript: audio.TranscriptAudioError}
	if diff := cmp.Diff(want, m.Snapshot(), ignoreGeneration); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if h.releaseCount() != 1 {
		t.Fatal("expected handle release on error")
	}
	if diff := cmp.Diff([]string{audio.NoticePlaybackFailed}, notifier.all()); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}

	h.events.OnError(errors.New("again"))
	if len(notifier.all()) != 1 {
		t.Fatal("duplicate error callback raised another notice")
	}
}

func TestTranscriptClearSkippedForNewerPlayback(t *testing.T) {
	factory := &fakeFactory{}
	m := newManager(&stubSynth{payload: encoded("clip")}, factory, &recordingNotifier{},
		audio.WithTranscriptClearDelay(30*time.Millisecond))
	defer m.Close()

	ctx := context.Background()
	if err := m.Start(ctx, "one"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	factory.handle(0).events.OnEnded()
	if err := m.Start(ctx, "two"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	factory.handle(1).events.OnReady()

	time.Sleep(80 * time.Millisecond)
	if got := m.Snapshot().Transcript; got != audio.TranscriptPlaying {
		t.Fatalf("expected newer transcript to survive, got %q", got)
	}
}

func TestCancelledContextDropsAudio(t *testing.T) {
	factory := &fakeFactory{}
	m := newManager(&stubSynth{payload: encoded("clip")}, factory, &recordingNotifier{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Start(ctx, "text"); err != nil {
		t.Fatalf("expected silent drop, got %v", err)
	}
	if factory.count() != 0 {
		t.Fatal("cancelled start must not open a handle")
	}
}

func TestObserverSeesTransitions(t *testing.T) {
	var mu sync.Mutex
	var phases []audio.Phase
	factory := &fakeFactory{}
	m := newManager(&stubSynth{payload: encoded("clip")}, factory, &recordingNotifier{},
		audio.WithObserver(func(s audio.Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			if len(phases) == 0 || phases[len(phases)-1] != s.Phase {
				phases = append(phases, s.Phase)
			}
		}))
	defer m.Close()

	if err := m.Start(context.Background(), "text"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h := factory.handle(0)
	h.events.OnReady()
	h.events.OnEnded()

	mu.Lock()
	defer mu.Unlock()
	want := []audio.Phase{audio.PhasePreparing, audio.PhasePlaying, audio.PhaseCompleted}
	if diff := cmp.Diff(want, phases); diff != "" {
		t.Fatalf("phases mismatch (-want +got):\n%s", diff)
	}
}
