package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"salesmind/internal/audio"
	"salesmind/internal/config"
	"salesmind/internal/daemon"
	"salesmind/internal/deps"
	"salesmind/internal/insight"
	"salesmind/internal/ipc"
	"salesmind/internal/journal"
	"salesmind/internal/logging"
	"salesmind/internal/notifications"
	"salesmind/internal/progress"
	"salesmind/internal/services/backend"
	"salesmind/internal/workspace"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the salesmind daemon and blocks until it receives SIGINT or
// SIGTERM or cmdCtx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	rotation, rotateErr := logging.PrepareLogDir(cfg.Paths.LogDir, cfg.Logging.RetentionDays, time.Now())
	if rotateErr != nil {
		fmt.Fprintf(os.Stderr, "warn: log rotation incomplete: %v\n", rotateErr)
	}

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logPath := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
	logHub := logging.NewStreamHub(4096)
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
		Stream:           logHub,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String("run_id", uuid.NewString()))

	if rotation.Archived != "" || len(rotation.Pruned) > 0 {
		logger.Info("log directory rotated",
			logging.String(logging.FieldEventType, "log_rotation"),
			logging.String("archived", rotation.Archived),
			logging.Int("pruned", len(rotation.Pruned)),
		)
	}
	logDependencySnapshot(logger, cfg)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	d, err := Build(signalCtx, cfg, logger, logHub)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	logger.Info("salesmind daemon ready",
		logging.String(logging.FieldEventType, "daemon_ready"),
		logging.String("socket", cfg.SocketPath()),
		logging.String("api", d.APIAddress()),
		logging.String("backend", cfg.Backend.BaseURL),
	)

	<-signalCtx.Done()
	logger.Info("salesmind daemon shutting down")
	return nil
}

// Build wires the backend client, audio playback, notices, journal and
// workspace into a daemon that has not been started yet.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, logHub *logging.StreamHub) (*daemon.Daemon, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	client := backend.NewClient(backend.Config{
		BaseURL:        cfg.Backend.BaseURL,
		APIToken:       cfg.Backend.APIToken,
		UserAgent:      cfg.Backend.UserAgent,
		TimeoutSeconds: cfg.Backend.TimeoutSeconds,
	})
	notifier := notifications.NewHub(cfg, logger)
	player := audio.NewManager(client, audio.NewExecFactory(cfg, logger),
		audio.WithNotifier(notifier),
		audio.WithLogger(logger),
		audio.WithTranscriptClearDelay(time.Duration(cfg.Audio.TranscriptClearMS)*time.Millisecond),
	)

	store := openJournal(ctx, cfg, logger)
	var recorder insight.Recorder
	if store != nil {
		recorder = store
	}

	ws, err := workspace.New(workspace.Options{
		Backend:  client,
		Player:   player,
		Notifier: notifier,
		Recorder: recorder,
		Tracker:  progress.New(cfg.StageDelays()),
		Vendor:   cfg.Insight.Vendor,
		Width:    cfg.Canvas.Width,
		Height:   cfg.Canvas.Height,
		Logger:   logger,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	return daemon.New(cfg, ws, logger, daemon.Options{
		Journal:  store,
		Notifier: notifier,
		Logs:     logHub,
	})
}

// openJournal opens the insight journal and prunes entries past the log
// retention window. A journal failure only disables journaling.
func openJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) *journal.Store {
	if !cfg.Journal.Enabled {
		return nil
	}
	store, err := journal.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "insight journal unavailable", "journal_open_failed",
			logging.Error(err),
			logging.String("path", cfg.Journal.Path),
			logging.String(logging.FieldErrorHint, "check journal.path permissions or set journal.enabled = false"),
			logging.String(logging.FieldImpact, "insight outcomes will not be recorded"),
		)
		return nil
	}
	if cfg.Logging.RetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -cfg.Logging.RetentionDays)
		if removed, err := store.Prune(ctx, cutoff); err != nil {
			logger.Debug("journal prune failed", logging.Error(err))
		} else if removed > 0 {
			logger.Info("journal pruned", logging.Int64("removed", removed))
		}
	}
	return store
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	statuses := deps.CheckAudio(cfg)
	player, probe := statuses[0], statuses[1]
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("backend_token_present", cfg.Backend.APIToken != ""),
		logging.Bool("ntfy_configured", cfg.Notifications.NtfyTopic != ""),
		logging.Bool("journal_enabled", cfg.Journal.Enabled),
		logging.Bool("player_available", player.Available),
		logging.String("player_binary", player.Command),
		logging.Bool("probe_available", probe.Available),
		logging.String("probe_binary", probe.Command),
	)
	for _, status := range statuses {
		if status.Available {
			continue
		}
		logging.WarnWithContext(logger, "audio dependency missing", "dependency_missing",
			logging.String("dependency", status.Name),
			logging.String("detail", status.Detail),
			logging.String(logging.FieldErrorHint, "install ffmpeg or set audio.player_binary and audio.probe_binary"),
			logging.String(logging.FieldImpact, "narration audio disabled; research still works"),
		)
	}
}
