package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"salesmind/internal/config"
	"salesmind/internal/logging"
	"salesmind/internal/media/ffprobe"
	"salesmind/internal/services"
)

// ErrReleased is returned by Play on a handle whose buffer is gone.
var ErrReleased = errors.New("audio handle released")

const defaultTickInterval = 250 * time.Millisecond

// ExecFactory plays narration through an external player binary. Each handle
// owns a temp file holding the decoded audio.
type ExecFactory struct {
	PlayerBinary string
	ProbeBinary  string
	TempDir      string
	Interval     time.Duration
	Logger       *slog.Logger
}

// NewExecFactory builds a factory from the audio configuration section.
func NewExecFactory(cfg *config.Config, logger *slog.Logger) *ExecFactory {
	return &ExecFactory{
		PlayerBinary: cfg.Audio.PlayerBinary,
		ProbeBinary:  cfg.Audio.ProbeBinary,
		Interval:     time.Duration(cfg.Audio.ProgressIntervalMS) * time.Millisecond,
		Logger:       logging.NewComponentLogger(logger, "audio-player"),
	}
}

// Open writes data to a temp file and probes its duration.
func (f *ExecFactory) Open(ctx context.Context, data []byte, events Events) (Handle, error) {
	if len(data) == 0 {
		return nil, services.Wrap(ErrPlayback, "audio", "open", "empty buffer", nil)
	}
	file, err := os.CreateTemp(f.TempDir, "salesmind-narration-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("create audio buffer: %w", err)
	}
	path := file.Name()
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("write audio buffer: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close audio buffer: %w", err)
	}

	probe, err := ffprobe.Inspect(ctx, f.ProbeBinary, path)
	if err != nil {
		_ = os.Remove(path)
		return nil, services.Wrap(ErrPlayback, "audio", "probe", "unreadable audio", err)
	}
	if probe.AudioStreamCount() == 0 {
		_ = os.Remove(path)
		return nil, services.Wrap(ErrPlayback, "audio", "probe", "no audio stream", nil)
	}

	interval := f.Interval
	if interval <= 0 {
		interval = defaultTickInterval
	}
	player := strings.TrimSpace(f.PlayerBinary)
	if player == "" {
		player = "ffplay"
	}
	logger := f.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	duration := time.Duration(probe.DurationSeconds() * float64(time.Second))
	logger.Debug("audio buffer ready",
		logging.String("path", path),
		logging.Duration("duration", duration),
		logging.Int("bytes", len(data)),
	)
	return &execHandle{
		player:   player,
		path:     path,
		duration: duration,
		interval: interval,
		events:   events,
		logger:   logger,
	}, nil
}

type playback struct {
	cmd    *exec.Cmd
	stop   chan struct{}
	done   chan error
	halted bool
}

type execHandle struct {
	player   string
	path     string
	duration time.Duration
	interval time.Duration
	events   Events
	logger   *slog.Logger

	mu       sync.Mutex
	current  *playback
	paused   bool
	released bool
}

func (h *execHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrReleased
	}
	if h.current != nil {
		if h.paused {
			h.paused = false
			if err := unix.Kill(h.current.cmd.Process.Pid, unix.SIGCONT); err != nil {
				return fmt.Errorf("resume player: %w", err)
			}
		}
		return nil
	}

	cmd := exec.Command(h.player, "-nodisp", "-autoexit", "-loglevel", "error", h.path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	p := &playback{
		cmd:  cmd,
		stop: make(chan struct{}),
		done: make(chan error, 1),
	}
	h.current = p
	h.paused = false
	go func() { p.done <- cmd.Wait() }()
	go h.run(p)
	return nil
}

func (h *execHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil || h.paused {
		return
	}
	if err := unix.Kill(h.current.cmd.Process.Pid, unix.SIGSTOP); err != nil {
		h.logger.Debug("pause player failed", logging.Error(err))
		return
	}
	h.paused = true
}

// Rewind ends the current playback so the next Play starts from the top.
func (h *execHandle) Rewind() {
	h.mu.Lock()
	p := h.detachLocked()
	h.mu.Unlock()
	h.halt(p)
}

// Release stops playback and deletes the buffer. It does not wait for the
// player to exit, so it is safe to call from an event callback.
func (h *execHandle) Release() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	p := h.detachLocked()
	h.mu.Unlock()
	h.halt(p)
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.logger.Debug("remove audio buffer failed", logging.Error(err))
	}
}

func (h *execHandle) detachLocked() *playback {
	p := h.current
	h.current = nil
	wasPaused := h.paused
	h.paused = false
	if p != nil {
		p.halted = true
		if wasPaused {
			_ = unix.Kill(p.cmd.Process.Pid, unix.SIGCONT)
		}
	}
	return p
}

func (h *execHandle) halt(p *playback) {
	if p == nil {
		return
	}
	close(p.stop)
	_ = p.cmd.Process.Kill()
}

func (h *execHandle) isPaused(p *playback) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current == p && h.paused
}

func (h *execHandle) run(p *playback) {
	if h.events.OnReady != nil {
		h.events.OnReady()
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var elapsed time.Duration
	for {
		select {
		case <-p.stop:
			<-p.done
			return
		case err := <-p.done:
			h.mu.Lock()
			halted := p.halted
			if h.current == p {
				h.current = nil
				h.paused = false
			}
			h.mu.Unlock()
			if halted {
				return
			}
			if err != nil {
				if h.events.OnError != nil {
					h.events.OnError(fmt.Errorf("player exited: %w", err))
				}
				return
			}
			if h.events.OnTimeUpdate != nil && h.duration > 0 {
				h.events.OnTimeUpdate(h.duration, h.duration)
			}
			if h.events.OnEnded != nil {
				h.events.OnEnded()
			}
			return
		case <-ticker.C:
			if h.isPaused(p) {
				continue
			}
			elapsed += h.interval
			if h.duration > 0 && elapsed > h.duration {
				elapsed = h.duration
			}
			if h.events.OnTimeUpdate != nil {
				h.events.OnTimeUpdate(elapsed, h.duration)
			}
		}
	}
}
