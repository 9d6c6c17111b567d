package insight

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"salesmind/internal/layout"
	"salesmind/internal/logging"
	"salesmind/internal/research"
	"salesmind/internal/services"
	"salesmind/internal/services/backend"
)

// ErrNotCategory is returned when a click targets the center node.
var ErrNotCategory = errors.New("node is not a research category")

// Backend is the subset of the backend client the pipeline calls.
type Backend interface {
	PanelInsight(ctx context.Context, req backend.PanelRequest) (string, error)
	Narration(ctx context.Context, req backend.NarrationRequest) (string, error)
}

// Player plays narration text.
type Player interface {
	Start(ctx context.Context, text string) error
	Stop()
}

// Recorder receives every finished pipeline.
type Recorder interface {
	Record(ctx context.Context, outcome Outcome) error
}

// Option customises a Controller.
type Option func(*Controller)

// WithVendor sets the vendor named in the fallback narration.
func WithVendor(vendor string) Option {
	return func(c *Controller) {
		if v := strings.TrimSpace(vendor); v != "" {
			c.vendor = v
		}
	}
}

// WithRecorder registers a recorder for finished pipelines.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logging.NewComponentLogger(logger, "insight")
	}
}

// WithClock overrides the time source used for outcomes.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller runs the click pipeline: panel insight, then narration, then
// playback. Clicks are last-wins: every continuation re-checks its sequence
// number under the lock and drops itself once a newer click, close or reset
// has happened.
type Controller struct {
	backend  Backend
	player   Player
	recorder Recorder
	vendor   string
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	session *Session
	panel   Panel
}

// NewController builds a controller.
func NewController(b Backend, player Player, opts ...Option) *Controller {
	c := &Controller{
		backend: b,
		player:  player,
		vendor:  DefaultVendor,
		logger:  logging.NewComponentLogger(nil, "insight"),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Click runs the pipeline for a category node and returns once the panel has
// settled and playback has been handed off. Remote failures are reflected in
// the panel rather than returned.
func (c *Controller) Click(ctx context.Context, company string, node layout.Node) error {
	if node.IsCenter || strings.TrimSpace(node.ID) == "" {
		return ErrNotCategory
	}
	var insights []research.Insight
	if node.Data != nil {
		insights = node.Data.Insights
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	c.cancel = cancel
	if c.session == nil {
		c.session = &Session{}
	}
	*c.session = Session{Seq: seq, ActiveCategory: node.ID, CompanyName: company, State: StateLoading}
	c.panel = Panel{
		Visible:  true,
		Loading:  true,
		Category: node.ID,
		Title:    node.Name,
		Color:    node.Color,
		Badge:    BadgeAnalyzing,
		Status:   StatusPreparing,
	}
	c.mu.Unlock()
	c.player.Stop()

	runCtx = services.WithSeq(services.WithCategory(services.WithCompany(runCtx, company), node.ID), seq)
	logger := logging.WithContext(runCtx, c.logger)
	started := c.now()
	logger.Info("insight requested", logging.Int("insight_count", len(insights)))

	text, err := c.backend.PanelInsight(runCtx, backend.PanelRequest{
		Category:    node.ID,
		CompanyName: company,
		Insights:    insights,
	})
	if err != nil {
		status := StatusInsightFailed
		if errors.Is(err, backend.ErrMissingField) {
			status = StatusInsightMissing
		}
		applied := c.apply(seq, func() {
			c.session.State = StateFailed
			c.panel = rawPanel(c.panel, insights, status)
		})
		if !applied {
			logger.Debug("dropping stale insight failure", logging.Error(err))
			return nil
		}
		logging.WarnWithContext(logger, "panel insight failed", "insight_failed",
			logging.Error(err),
			logging.String("failure_kind", services.FailureKind(err)),
			logging.String(logging.FieldErrorHint, "check backend connectivity and the insight model credentials"),
			logging.String(logging.FieldImpact, "raw research shown without narration"),
		)
		c.record(runCtx, Outcome{
			Seq:         seq,
			Company:     company,
			Category:    node.ID,
			State:       StateFailed,
			FailureKind: services.FailureKind(err),
			Error:       err.Error(),
			Duration:    c.now().Sub(started),
			CompletedAt: c.now(),
		})
		return nil
	}

	applied := c.apply(seq, func() {
		c.session.RawInsightText = text
		c.session.State = StateReady
		c.panel = readyPanel(c.panel, insights, text)
	})
	if !applied {
		logger.Debug("dropping stale insight")
		return nil
	}

	narration, err := c.backend.Narration(runCtx, backend.NarrationRequest{
		Insight:     text,
		CompanyName: company,
		Category:    node.ID,
	})
	fallback := false
	if err != nil {
		fallback = true
		narration = FallbackNarration(company, c.vendor)
		logger.Debug("narration unavailable, using fallback", logging.Error(err))
	}
	applied = c.apply(seq, func() {
		c.session.CondensedNarrationText = narration
		c.session.NarrationFallback = fallback
	})
	if !applied {
		logger.Debug("dropping stale narration")
		return nil
	}

	playErr := c.player.Start(runCtx, narration)
	outcome := Outcome{
		Seq:         seq,
		Company:     company,
		Category:    node.ID,
		State:       StateReady,
		Insight:     text,
		Narration:   narration,
		Fallback:    fallback,
		FailureKind: services.FailureKind(playErr),
		Duration:    c.now().Sub(started),
		CompletedAt: c.now(),
	}
	if playErr != nil {
		outcome.Error = playErr.Error()
	}
	c.record(runCtx, outcome)
	logger.Info("insight ready",
		logging.Bool("narration_fallback", fallback),
		logging.Duration("elapsed", outcome.Duration),
	)
	return nil
}

// Close hides the panel and stops audio. Session texts are kept.
func (c *Controller) Close() {
	c.mu.Lock()
	c.invalidateLocked()
	c.panel.Visible = false
	c.mu.Unlock()
	c.player.Stop()
}

// Reset stops audio and discards the session and panel.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.invalidateLocked()
	c.session = nil
	c.panel = Panel{}
	c.mu.Unlock()
	c.player.Stop()
}

// SwitchTab selects a panel tab. Only panels with a condensed insight have tabs.
func (c *Controller) SwitchTab(tab Tab) error {
	if tab != TabOpportunity && tab != TabResearch {
		return ErrUnknownTab
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.panel.Visible || len(c.panel.Tabs) == 0 {
		return ErrNoCondensedTab
	}
	c.panel.ActiveTab = tab
	return nil
}

// Session returns a copy of the current session, if any click happened.
func (c *Controller) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{State: StateIdle}, false
	}
	return *c.session, true
}

// Panel returns a copy of the panel view model.
func (c *Controller) Panel() Panel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clonePanel(c.panel)
}

// Seq returns the latest sequence number.
func (c *Controller) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

func (c *Controller) invalidateLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.seq++
}

// apply runs fn under the lock when seq is still current.
func (c *Controller) apply(seq uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq || c.session == nil {
		return false
	}
	fn()
	return true
}

func (c *Controller) record(ctx context.Context, outcome Outcome) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(context.WithoutCancel(ctx), outcome); err != nil {
		logging.WarnWithContext(c.logger, "recording insight outcome failed", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check journal.path permissions"),
			logging.String(logging.FieldImpact, "outcome missing from journal"),
		)
	}
}

func rawPanel(base Panel, insights []research.Insight, status string) Panel {
	p := Panel{
		Visible:  true,
		Category: base.Category,
		Title:    base.Title,
		Color:    base.Color,
		Badge:    rawBadge(len(insights)),
		Research: cloneInsights(insights),
		Status:   status,
	}
	if len(insights) == 0 {
		p.Empty = NoInsightsMessage
	}
	return p
}

func readyPanel(base Panel, insights []research.Insight, text string) Panel {
	return Panel{
		Visible:     true,
		Category:    base.Category,
		Title:       base.Title,
		Color:       base.Color,
		Badge:       readyBadge(len(insights)),
		Tabs:        []Tab{TabOpportunity, TabResearch},
		ActiveTab:   TabOpportunity,
		Opportunity: text,
		Research:    cloneInsights(insights),
	}
}
