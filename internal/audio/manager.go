package audio

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"salesmind/internal/logging"
	"salesmind/internal/notifications"
	"salesmind/internal/services"
)

// Phase is the playback lifecycle state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePreparing Phase = "preparing"
	PhasePlaying   Phase = "playing"
	PhaseCompleted Phase = "completed"
	PhaseErrored   Phase = "errored"
)

// Transcript lines shown beside the avatar.
const (
	TranscriptPreparing      = "Preparing audio..."
	TranscriptPlaying        = "Playing audio..."
	TranscriptComplete       = "Audio complete"
	TranscriptAudioError     = "Audio error"
	TranscriptLoadFailed     = "Failed to load audio"
	TranscriptPlaybackFailed = "Playback failed"
)

// User notices raised by the manager.
const (
	NoticeNoText         = "No insight text available"
	NoticeLoadFailed     = "Failed to load audio"
	NoticeStartFailed    = "Failed to start audio"
	NoticePlaybackFailed = "Audio playback failed"
)

// DefaultTranscriptClearDelay is how long "Audio complete" stays visible.
const DefaultTranscriptClearDelay = 2 * time.Second

// ErrPlayback marks decode, open and play failures.
var ErrPlayback = services.ErrPlayback

// Synthesizer turns narration text into base64 encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// Events are the callbacks a Handle reports through. Implementations must
// not fire any of them before Play is called.
type Events struct {
	OnReady      func()
	OnTimeUpdate func(elapsed, duration time.Duration)
	OnEnded      func()
	OnError      func(err error)
}

// Handle is a single playable audio buffer.
type Handle interface {
	Play() error
	Pause()
	Rewind()
	Release()
}

// Factory opens handles over decoded audio bytes.
type Factory interface {
	Open(ctx context.Context, data []byte, events Events) (Handle, error)
}

// Snapshot is the observable playback state.
type Snapshot struct {
	Phase      Phase   `json:"phase"`
	Fraction   float64 `json:"fraction"`
	Speaking   bool    `json:"speaking"`
	Transcript string  `json:"transcript"`
	HasHandle  bool    `json:"has_handle"`
	Generation uint64  `json:"generation"`
}

// Option customises a Manager.
type Option func(*Manager)

// WithNotifier routes user notices to n.
func WithNotifier(n notifications.Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithLogger sets the component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.NewComponentLogger(logger, "audio")
	}
}

// WithTranscriptClearDelay overrides how long the completion transcript stays.
func WithTranscriptClearDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.clearDelay = d
		}
	}
}

// WithObserver registers fn to receive every state change.
func WithObserver(fn func(Snapshot)) Option {
	return func(m *Manager) {
		m.observer = fn
	}
}

// Manager owns the single active narration handle. Only one handle exists at
// a time; callbacks from released handles are ignored by generation.
type Manager struct {
	synth      Synthesizer
	factory    Factory
	notifier   notifications.Notifier
	logger     *slog.Logger
	clearDelay time.Duration
	observer   func(Snapshot)

	mu         sync.Mutex
	gen        uint64
	handle     Handle
	phase      Phase
	fraction   float64
	speaking   bool
	transcript string
	clearTimer *time.Timer
}

// NewManager builds a manager around a synthesizer and handle factory.
func NewManager(synth Synthesizer, factory Factory, opts ...Option) *Manager {
	m := &Manager{
		synth:      synth,
		factory:    factory,
		notifier:   nopNotifier{},
		logger:     logging.NewComponentLogger(nil, "audio"),
		clearDelay: DefaultTranscriptClearDelay,
		phase:      PhaseIdle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Start stops any current playback, synthesizes text and plays it. A Start
// whose context is already done leaves the current playback alone. The
// returned error is informational: every failure has already been surfaced
// as a notice and reflected in the snapshot.
func (m *Manager) Start(ctx context.Context, text string) error {
	m.mu.Lock()
	if ctx.Err() != nil {
		m.mu.Unlock()
		return nil
	}
	prev := m.detachLocked()
	gen := m.gen
	m.phase = PhasePreparing
	m.transcript = TranscriptPreparing
	snap := m.snapshotLocked()
	m.mu.Unlock()
	halt(prev)
	m.emit(snap)

	text = strings.TrimSpace(text)
	if text == "" {
		m.notify(ctx, NoticeNoText)
		m.fail(gen, "")
		return services.Wrap(services.ErrValidation, "audio", "start", "empty narration text", nil)
	}

	encoded, err := m.synth.Synthesize(ctx, text)
	if err != nil {
		if m.stale(gen) {
			m.logger.Debug("discarding stale synthesis failure", logging.Error(err))
			return nil
		}
		m.loadFailed(ctx, gen, err)
		return err
	}

	data, err := decodeAudio(encoded)
	if err != nil {
		if m.stale(gen) {
			return nil
		}
		m.loadFailed(ctx, gen, err)
		return err
	}

	if m.stale(gen) || ctx.Err() != nil {
		m.logger.Debug("discarding stale audio", logging.Uint64("generation", gen))
		return nil
	}
	handle, err := m.factory.Open(ctx, data, m.eventsFor(gen))
	if err != nil {
		if m.stale(gen) {
			return nil
		}
		openErr := services.Wrap(ErrPlayback, "audio", "open", "open handle", err)
		m.loadFailed(ctx, gen, openErr)
		return openErr
	}

	m.mu.Lock()
	if gen != m.gen || ctx.Err() != nil {
		m.mu.Unlock()
		handle.Release()
		m.logger.Debug("discarding stale audio", logging.Uint64("generation", gen))
		return nil
	}
	m.handle = handle
	snap = m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)

	if err := handle.Play(); err != nil {
		playErr := services.Wrap(ErrPlayback, "audio", "play", "start playback", err)
		m.mu.Lock()
		if gen != m.gen {
			m.mu.Unlock()
			return nil
		}
		m.handle = nil
		m.speaking = false
		m.phase = PhaseErrored
		m.transcript = TranscriptPlaybackFailed
		snap = m.snapshotLocked()
		m.mu.Unlock()
		handle.Release()
		m.emit(snap)
		m.notify(ctx, NoticeStartFailed)
		logging.WarnWithContext(m.logger, "audio playback rejected", "audio_play_failed",
			logging.Error(playErr),
			logging.String(logging.FieldErrorHint, "check audio.player_binary"),
			logging.String(logging.FieldImpact, "narration not played"),
		)
		return playErr
	}
	return nil
}

// Stop pauses, rewinds and releases the active handle and resets progress.
// It is a no-op on state other than the reset when nothing is playing.
func (m *Manager) Stop() {
	m.mu.Lock()
	prev := m.detachLocked()
	m.phase = PhaseIdle
	m.transcript = ""
	snap := m.snapshotLocked()
	m.mu.Unlock()
	halt(prev)
	m.emit(snap)
}

// Close stops playback and cancels the pending transcript clear.
func (m *Manager) Close() {
	m.Stop()
}

// Snapshot returns the current playback state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// detachLocked invalidates outstanding callbacks and hands back the handle
// for the caller to halt outside the lock.
func (m *Manager) detachLocked() Handle {
	m.gen++
	prev := m.handle
	m.handle = nil
	m.fraction = 0
	m.speaking = false
	if m.clearTimer != nil {
		m.clearTimer.Stop()
		m.clearTimer = nil
	}
	return prev
}

func halt(h Handle) {
	if h == nil {
		return
	}
	h.Pause()
	h.Rewind()
	h.Release()
}

func (m *Manager) eventsFor(gen uint64) Events {
	return Events{
		OnReady: func() {
			m.update(gen, func() {
				m.phase = PhasePlaying
				m.speaking = true
				m.transcript = TranscriptPlaying
			})
		},
		OnTimeUpdate: func(elapsed, duration time.Duration) {
			if duration <= 0 {
				return
			}
			fraction := float64(elapsed) / float64(duration)
			switch {
			case fraction < 0:
				fraction = 0
			case fraction > 1:
				fraction = 1
			}
			m.update(gen, func() { m.fraction = fraction })
		},
		OnEnded: func() {
			released := m.finish(gen, PhaseCompleted, TranscriptComplete)
			if released {
				m.scheduleClear(gen)
			}
		},
		OnError: func(err error) {
			if m.finish(gen, PhaseErrored, TranscriptAudioError) {
				m.notify(context.Background(), NoticePlaybackFailed)
				logging.WarnWithContext(m.logger, "audio playback error", "audio_playback_error",
					logging.Error(err),
					logging.String(logging.FieldImpact, "narration stopped early"),
				)
			}
		},
	}
}

func (m *Manager) update(gen uint64, fn func()) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	fn()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)
}

// finish ends the current playback and reports whether gen was still live.
func (m *Manager) finish(gen uint64, phase Phase, transcript string) bool {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return false
	}
	h := m.handle
	m.handle = nil
	m.phase = phase
	m.fraction = 0
	m.speaking = false
	m.transcript = transcript
	snap := m.snapshotLocked()
	m.mu.Unlock()
	if h != nil {
		h.Release()
	}
	m.emit(snap)
	return true
}

func (m *Manager) scheduleClear(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	if m.clearTimer != nil {
		m.clearTimer.Stop()
	}
	m.clearTimer = time.AfterFunc(m.clearDelay, func() {
		m.update(gen, func() {
			m.transcript = ""
			m.clearTimer = nil
		})
	})
}

func (m *Manager) loadFailed(ctx context.Context, gen uint64, err error) {
	if !m.fail(gen, TranscriptLoadFailed) {
		return
	}
	m.notify(ctx, NoticeLoadFailed)
	logging.WarnWithContext(m.logger, "audio load failed", "audio_load_failed",
		logging.Error(err),
		logging.String("failure_kind", services.FailureKind(err)),
		logging.String(logging.FieldErrorHint, "check the speech service status"),
		logging.String(logging.FieldImpact, "narration not played"),
	)
}

func (m *Manager) fail(gen uint64, transcript string) bool {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return false
	}
	m.phase = PhaseErrored
	m.speaking = false
	m.fraction = 0
	m.transcript = transcript
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(snap)
	return true
}

func (m *Manager) stale(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen != m.gen
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:      m.phase,
		Fraction:   m.fraction,
		Speaking:   m.speaking,
		Transcript: m.transcript,
		HasHandle:  m.handle != nil,
		Generation: m.gen,
	}
}

func (m *Manager) emit(s Snapshot) {
	if m.observer != nil {
		m.observer(s)
	}
}

func (m *Manager) notify(ctx context.Context, message string) {
	m.notifier.Notify(ctx, notifications.LevelError, message)
}

func decodeAudio(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, services.Wrap(ErrPlayback, "audio", "decode", "empty audio payload", nil)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(encoded)
		if rawErr != nil {
			return nil, services.Wrap(ErrPlayback, "audio", "decode", "malformed audio payload", errors.Join(err, rawErr))
		}
	}
	if len(data) == 0 {
		return nil, services.Wrap(ErrPlayback, "audio", "decode", "empty audio payload", nil)
	}
	return data, nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, notifications.Level, string) {}
