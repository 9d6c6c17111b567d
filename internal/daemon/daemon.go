package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"salesmind/internal/config"
	"salesmind/internal/deps"
	"salesmind/internal/journal"
	"salesmind/internal/logging"
	"salesmind/internal/notifications"
	"salesmind/internal/workspace"
)

const statusProbeTimeout = 3 * time.Second

// Options carries the daemon's optional collaborators.
type Options struct {
	Journal  *journal.Store
	Notifier *notifications.Hub
	Logs     *logging.StreamHub
}

// Daemon coordinates the shared workspace and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	ws       *workspace.Workspace
	journal  *journal.Store
	notifier *notifications.Hub
	logs     *logging.StreamHub

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	api       *apiServer
	cancel    context.CancelFunc
	startedAt time.Time
	running   atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool                       `json:"running"`
	PID          int                        `json:"pid"`
	StartedAt    time.Time                  `json:"started_at,omitzero"`
	LockPath     string                     `json:"lock_path"`
	SocketPath   string                     `json:"socket_path"`
	APIAddress   string                     `json:"api_address,omitempty"`
	JournalPath  string                     `json:"journal_path,omitempty"`
	Mode         workspace.Mode             `json:"mode"`
	Company      string                     `json:"company,omitempty"`
	Backend      *workspace.StatusIndicator `json:"backend,omitempty"`
	BackendError string                     `json:"backend_error,omitempty"`
	Dependencies []deps.Status              `json:"dependencies,omitempty"`
}

// New constructs a daemon around an existing workspace.
func New(cfg *config.Config, ws *workspace.Workspace, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil || ws == nil {
		return nil, errors.New("daemon requires config and workspace")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		ws:       ws,
		journal:  opts.Journal,
		notifier: opts.Notifier,
		logs:     opts.Logs,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and brings up the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another salesmind daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	api := newAPIServer(d.cfg, d, d.logger)
	if err := api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.api = api
	d.cancel = cancel
	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("salesmind daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("api", api.address()),
	)
	return nil
}

// Stop shuts the HTTP API down and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running.Load() {
		d.mu.Unlock()
		return
	}
	cancel, api := d.cancel, d.api
	d.cancel, d.api = nil, nil
	d.running.Store(false)
	d.mu.Unlock()

	// In-flight API handlers may call back into the daemon; stop outside d.mu.
	cancel()
	api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if the next start reports a running instance"),
			logging.String(logging.FieldImpact, "next daemon start may be refused"),
		)
	}
	d.logger.Info("salesmind daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close stops the daemon and releases every collaborator it owns.
func (d *Daemon) Close() error {
	d.Stop()
	d.ws.Close()
	d.notifier.Close()
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}

// Workspace returns the shared session.
func (d *Daemon) Workspace() *workspace.Workspace {
	return d.ws
}

// LogStream returns the in-memory log hub, if any.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.logs
}

// APIAddress returns the bound HTTP address while running.
func (d *Daemon) APIAddress() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.api.address()
}

// Status returns daemon state and refreshes the backend health indicator.
func (d *Daemon) Status(ctx context.Context) Status {
	view := d.ws.View()
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockPath:     d.lockPath,
		SocketPath:   d.cfg.SocketPath(),
		APIAddress:   d.APIAddress(),
		Mode:         view.Mode,
		Company:      view.Company,
		Dependencies: deps.CheckAudio(d.cfg),
	}
	d.mu.Lock()
	status.StartedAt = d.startedAt
	d.mu.Unlock()
	if d.journal != nil {
		status.JournalPath = d.journal.Path()
	}

	probeCtx, cancel := context.WithTimeout(ctx, statusProbeTimeout)
	defer cancel()
	indicator, err := d.ws.RefreshStatus(probeCtx)
	if err != nil {
		status.BackendError = err.Error()
	} else {
		status.Backend = &indicator
	}
	return status
}

// Journal returns recent insight outcomes, optionally for one company, and
// the aggregate counts.
func (d *Daemon) Journal(ctx context.Context, company string, limit int) ([]journal.Entry, journal.Stats, error) {
	if d.journal == nil {
		return nil, journal.Stats{}, journal.ErrDisabled
	}
	entries, err := d.journal.Recent(ctx, company, limit)
	if err != nil {
		return nil, journal.Stats{}, err
	}
	stats, err := d.journal.Stats(ctx)
	if err != nil {
		return nil, journal.Stats{}, err
	}
	return entries, stats, nil
}

// TestNotification sends a test push using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if d.notifier == nil {
		return false, "notifications unavailable", errors.New("notification hub not configured")
	}
	if err := d.notifier.Test(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
