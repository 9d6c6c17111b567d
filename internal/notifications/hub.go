package notifications

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"salesmind/internal/config"
	"salesmind/internal/logging"
)

// Hub is the Notifier wired into the workspace. Every notice lands in the
// toast feed; errors and research completions are optionally pushed to ntfy.
type Hub struct {
	feed        *Feed
	push        Service
	logger      *slog.Logger
	pushErrors  bool
	pushSuccess bool
	wg          sync.WaitGroup
}

// NewHub builds a hub from configuration.
func NewHub(cfg *config.Config, logger *slog.Logger) *Hub {
	ttl := time.Duration(cfg.Notifications.ToastSeconds) * time.Second
	return &Hub{
		feed:        NewFeed(ttl),
		push:        NewService(cfg),
		logger:      logging.NewComponentLogger(logger, "notifications"),
		pushErrors:  cfg.Notifications.Errors,
		pushSuccess: cfg.Notifications.Research,
	}
}

// NewHubWith builds a hub around an explicit feed and push service.
func NewHubWith(feed *Feed, push Service, logger *slog.Logger) *Hub {
	if push == nil {
		push = noopService{}
	}
	return &Hub{
		feed:        feed,
		push:        push,
		logger:      logging.NewComponentLogger(logger, "notifications"),
		pushErrors:  true,
		pushSuccess: true,
	}
}

// Notify records the notice and pushes it in the background when enabled.
func (h *Hub) Notify(ctx context.Context, level Level, message string) {
	message = strings.TrimSpace(message)
	if h == nil || message == "" {
		return
	}
	notice := h.feed.Add(level, message)
	h.logger.Debug("notice raised",
		logging.String("notice_level", string(level)),
		logging.String("notice_message", message),
	)

	if !h.shouldPush(level) {
		return
	}
	pushCtx := context.WithoutCancel(ctx)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.push.Publish(pushCtx, notice); err != nil {
			logging.WarnWithContext(h.logger, "ntfy push failed", "notification_push_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network reachability"),
				logging.String(logging.FieldImpact, "notice shown locally only"),
			)
		}
	}()
}

func (h *Hub) shouldPush(level Level) bool {
	switch level {
	case LevelError:
		return h.pushErrors
	case LevelSuccess:
		return h.pushSuccess
	default:
		return false
	}
}

// Active returns the notices currently visible.
func (h *Hub) Active() []Notice {
	if h == nil {
		return nil
	}
	return h.feed.Active()
}

// Test sends a test push notification.
func (h *Hub) Test(ctx context.Context) error {
	return h.push.TestNotification(ctx)
}

// Close waits for in-flight pushes.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.wg.Wait()
}
