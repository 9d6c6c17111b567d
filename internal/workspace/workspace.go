package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"salesmind/internal/audio"
	"salesmind/internal/insight"
	"salesmind/internal/layout"
	"salesmind/internal/logging"
	"salesmind/internal/notifications"
	"salesmind/internal/progress"
	"salesmind/internal/render"
	"salesmind/internal/research"
	"salesmind/internal/services"
	"salesmind/internal/services/backend"
)

// Mode is the top-level screen the workspace is showing.
type Mode string

const (
	ModeSearch   Mode = "search"
	ModeLoading  Mode = "loading"
	ModeResearch Mode = "research"
)

// Notice copy raised by the workspace.
const (
	NoticeEmptyCompany   = "Please enter a company name"
	NoticeSearchFailed   = "Search failed. Please try again."
	NoticeHistoryDeleted = "History item deleted"
	NoticeKeysSaved      = "API keys updated successfully"
	NoticeNoKeys         = "No keys to update"
	NoticeKeysFailed     = "Failed to save API keys"
)

var (
	// ErrNoResearch is returned by graph operations before a search succeeded.
	ErrNoResearch = errors.New("no research loaded")
	// ErrUnknownNode is returned when a click names no clickable node.
	ErrUnknownNode = errors.New("unknown graph node")
	// ErrEmptyCompany is returned by Search for blank input.
	ErrEmptyCompany = errors.New("company name required")
	// ErrSuperseded is returned by a search that a newer search or Back replaced.
	ErrSuperseded = errors.New("search superseded")
)

// Backend is everything the workspace asks of the research backend.
type Backend interface {
	insight.Backend
	Search(ctx context.Context, companyName string) (*research.Result, error)
	History(ctx context.Context) ([]backend.HistoryEntry, error)
	DeleteHistory(ctx context.Context, companyName string) error
	Keys(ctx context.Context) (map[string]string, error)
	SaveKeys(ctx context.Context, keys map[string]string) (string, error)
	Status(ctx context.Context) (backend.Status, error)
}

// Player is the audio surface the workspace drives and displays.
type Player interface {
	insight.Player
	Snapshot() audio.Snapshot
	Close()
}

// Notifier raises notices and exposes the visible ones.
type Notifier interface {
	notifications.Notifier
	Active() []notifications.Notice
}

// Options wires a Workspace.
type Options struct {
	Backend  Backend
	Player   Player
	Notifier Notifier
	Recorder insight.Recorder
	Tracker  *progress.Tracker
	Vendor   string
	Width    float64
	Height   float64
	Logger   *slog.Logger
}

// Workspace is the single-user session: the current research result, its
// layout and rendered scene, the insight controller, audio and notices.
type Workspace struct {
	backend    Backend
	player     Player
	notifier   Notifier
	tracker    *progress.Tracker
	controller *insight.Controller
	logger     *slog.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu           sync.RWMutex
	mode         Mode
	company      string
	result       *research.Result
	graph        layout.Layout
	scene        *render.Scene
	width        float64
	height       float64
	searchSeq    uint64
	searchCancel context.CancelFunc
	status       *backend.Status
}

// New builds a workspace in search mode.
func New(opts Options) (*Workspace, error) {
	if opts.Backend == nil {
		return nil, errors.New("workspace: backend is required")
	}
	if opts.Player == nil {
		return nil, errors.New("workspace: player is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewHubWith(notifications.NewFeed(0), nil, opts.Logger)
	}
	if opts.Tracker == nil {
		opts.Tracker = progress.New(progress.DefaultDelays)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("workspace: invalid canvas %vx%v", opts.Width, opts.Height)
	}

	controllerOpts := []insight.Option{
		insight.WithVendor(opts.Vendor),
		insight.WithLogger(opts.Logger),
	}
	if opts.Recorder != nil {
		controllerOpts = append(controllerOpts, insight.WithRecorder(opts.Recorder))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Workspace{
		backend:    opts.Backend,
		player:     opts.Player,
		notifier:   opts.Notifier,
		tracker:    opts.Tracker,
		controller: insight.NewController(opts.Backend, opts.Player, controllerOpts...),
		logger:     logging.NewComponentLogger(opts.Logger, "workspace"),
		baseCtx:    ctx,
		baseCancel: cancel,
		mode:       ModeSearch,
		scene:      render.NewScene(),
		width:      opts.Width,
		height:     opts.Height,
	}, nil
}

// Search runs the backend search alongside the progress sequence and, once
// both finish, lays out and renders the result.
func (w *Workspace) Search(ctx context.Context, company string) error {
	company = strings.TrimSpace(company)
	if company == "" {
		w.notifier.Notify(ctx, notifications.LevelWarning, NoticeEmptyCompany)
		return ErrEmptyCompany
	}

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.mu.Lock()
	if w.searchCancel != nil {
		w.searchCancel()
	}
	w.searchSeq++
	seq := w.searchSeq
	w.searchCancel = cancel
	w.mode = ModeLoading
	w.company = company
	w.result = nil
	w.graph = layout.Layout{}
	w.scene.Clear(w.width, w.height)
	w.mu.Unlock()
	w.controller.Reset()

	searchCtx = services.WithCompany(searchCtx, company)
	logger := logging.WithContext(searchCtx, w.logger)
	logger.Info("search started")

	var result *research.Result
	g, gctx := errgroup.WithContext(searchCtx)
	g.Go(func() error {
		res, err := w.backend.Search(gctx, company)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	g.Go(func() error {
		return w.tracker.Run(gctx)
	})
	err := g.Wait()

	w.mu.Lock()
	if seq != w.searchSeq {
		w.mu.Unlock()
		logger.Debug("dropping superseded search")
		return ErrSuperseded
	}
	w.searchCancel = nil
	if err != nil {
		w.mode = ModeSearch
		w.company = ""
		w.mu.Unlock()
		message := backend.UserMessage(err)
		if message == "" {
			message = NoticeSearchFailed
		}
		w.notifier.Notify(searchCtx, notifications.LevelError, message)
		logging.WarnWithContext(logger, "search failed", "search_failed",
			logging.Error(err),
			logging.String("failure_kind", services.FailureKind(err)),
			logging.String(logging.FieldErrorHint, "check backend.base_url and that the research service is running"),
			logging.String(logging.FieldImpact, "workspace returned to search"),
		)
		return err
	}

	if result.CompanyName == "" {
		result.CompanyName = company
	}
	w.result = result
	w.company = result.CompanyName
	w.mode = ModeResearch
	w.renderLocked()
	categories := len(result.Categories)
	w.mu.Unlock()

	w.notifier.Notify(searchCtx, notifications.LevelSuccess, "Research complete for "+company)
	logger.Info("search complete",
		logging.Int("categories", categories),
		logging.Int("insights", result.InsightCount()),
	)
	return nil
}

// renderLocked recomputes the layout and redraws the scene. Callers hold w.mu.
func (w *Workspace) renderLocked() {
	w.graph = layout.Compute(w.result, w.width, w.height)
	render.Render(w.scene, w.graph, w.dispatchClick)
}

// dispatchClick is the scene's click target. It runs the insight pipeline for
// node on the workspace context and returns when the panel has settled.
func (w *Workspace) dispatchClick(node layout.Node) {
	w.mu.RLock()
	company := w.company
	w.mu.RUnlock()
	if err := w.controller.Click(w.baseCtx, company, node); err != nil {
		w.logger.Debug("click ignored", logging.Category(node.ID), logging.Error(err))
	}
}

// Click activates the graph node with the given id.
func (w *Workspace) Click(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.RLock()
	loaded := w.result != nil
	scene := w.scene
	w.mu.RUnlock()
	if !loaded {
		return ErrNoResearch
	}
	if !scene.Click(strings.TrimSpace(id)) {
		return fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	return nil
}

// SwitchTab selects a panel tab.
func (w *Workspace) SwitchTab(tab insight.Tab) error {
	return w.controller.SwitchTab(tab)
}

// ClosePanel hides the insight panel and stops narration.
func (w *Workspace) ClosePanel() {
	w.controller.Close()
}

// Back discards the research and returns to search mode.
func (w *Workspace) Back() {
	w.mu.Lock()
	if w.searchCancel != nil {
		w.searchCancel()
		w.searchCancel = nil
	}
	w.searchSeq++
	w.mode = ModeSearch
	w.company = ""
	w.result = nil
	w.graph = layout.Layout{}
	w.scene.Clear(w.width, w.height)
	w.mu.Unlock()
	w.controller.Reset()
	w.tracker.Reset()
}

// Resize recomputes the layout for a new canvas size.
func (w *Workspace) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid canvas %vx%v", width, height)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width = width
	w.height = height
	if w.result != nil {
		w.renderLocked()
	} else {
		w.scene.Clear(width, height)
	}
	return nil
}

// Graph returns the rendered scene.
func (w *Workspace) Graph() (render.Snapshot, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.result == nil {
		return render.Snapshot{}, ErrNoResearch
	}
	return w.scene.Snapshot(), nil
}

// WriteSVG writes the rendered scene as an SVG document.
func (w *Workspace) WriteSVG(out io.Writer) error {
	snap, err := w.Graph()
	if err != nil {
		return err
	}
	return render.WriteSVG(out, snap)
}

// Layout returns the current layout.
func (w *Workspace) Layout() (layout.Layout, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.result == nil {
		return layout.Layout{}, ErrNoResearch
	}
	return w.graph, nil
}

// Close cancels in-flight work and stops audio.
func (w *Workspace) Close() {
	w.baseCancel()
	w.mu.Lock()
	if w.searchCancel != nil {
		w.searchCancel()
		w.searchCancel = nil
	}
	w.mu.Unlock()
	w.controller.Reset()
	w.player.Close()
}
