package workspace

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"salesmind/internal/logging"
	"salesmind/internal/notifications"
	"salesmind/internal/services/backend"
)

// HistoryItem is one past search as displayed in the sidebar.
type HistoryItem struct {
	CompanyName string    `json:"company_name"`
	Timestamp   time.Time `json:"timestamp"`
	Initials    string    `json:"initials"`
	// Divider is set when the entry starts a new company group.
	Divider bool `json:"divider"`
}

// StatusIndicator is the backend health badge.
type StatusIndicator struct {
	Database     bool   `json:"database"`
	TTSAvailable bool   `json:"tts_available"`
	TTSTitle     string `json:"tts_title"`
	CheckedAt    string `json:"checked_at,omitempty"`
}

// History lists past searches grouped by company.
func (w *Workspace) History(ctx context.Context) ([]HistoryItem, error) {
	entries, err := w.backend.History(ctx)
	if err != nil {
		logging.WarnWithContext(w.logger, "history load failed", "history_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history sidebar empty"),
		)
		return nil, err
	}
	return GroupHistory(entries), nil
}

// GroupHistory marks a divider wherever the case-folded company name changes
// between consecutive entries.
func GroupHistory(entries []backend.HistoryEntry) []HistoryItem {
	items := make([]HistoryItem, 0, len(entries))
	previous := ""
	for i, entry := range entries {
		current := strings.ToLower(entry.CompanyName)
		items = append(items, HistoryItem{
			CompanyName: entry.CompanyName,
			Timestamp:   entry.Time(),
			Initials:    Initials(entry.CompanyName),
			Divider:     i > 0 && previous != "" && previous != current,
		})
		previous = current
	}
	return items
}

// Initials returns the upper-cased first letters of the first two words.
func Initials(name string) string {
	words := strings.Split(name, " ")
	var b strings.Builder
	for i, word := range words {
		if i > 1 {
			break
		}
		r, size := utf8.DecodeRuneInString(word)
		if size == 0 {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// DeleteHistory removes a company from the search history.
func (w *Workspace) DeleteHistory(ctx context.Context, company string) error {
	if err := w.backend.DeleteHistory(ctx, company); err != nil {
		logging.WarnWithContext(w.logger, "history delete failed", "history_delete_failed",
			logging.Company(company),
			logging.Error(err),
			logging.String(logging.FieldImpact, "history entry remains"),
		)
		return err
	}
	w.notifier.Notify(ctx, notifications.LevelSuccess, NoticeHistoryDeleted)
	return nil
}

// Keys returns the masked backend credentials.
func (w *Workspace) Keys(ctx context.Context) (map[string]string, error) {
	return w.backend.Keys(ctx)
}

// SaveKeys writes the non-empty credentials.
func (w *Workspace) SaveKeys(ctx context.Context, keys map[string]string) error {
	_, err := w.backend.SaveKeys(ctx, keys)
	switch {
	case errors.Is(err, backend.ErrNoKeys):
		w.notifier.Notify(ctx, notifications.LevelError, NoticeNoKeys)
		return err
	case err != nil:
		message := backend.UserMessage(err)
		if message == "" {
			message = NoticeKeysFailed
		}
		w.notifier.Notify(ctx, notifications.LevelError, message)
		return err
	}
	w.notifier.Notify(ctx, notifications.LevelSuccess, NoticeKeysSaved)
	return nil
}

// RefreshStatus probes the backend and caches the indicator for the view.
func (w *Workspace) RefreshStatus(ctx context.Context) (StatusIndicator, error) {
	status, err := w.backend.Status(ctx)
	if err != nil {
		w.logger.Debug("status probe failed", logging.Error(err))
		return StatusIndicator{}, err
	}
	w.mu.Lock()
	w.status = &status
	w.mu.Unlock()
	return indicatorFor(status), nil
}

func indicatorFor(status backend.Status) StatusIndicator {
	title := "TTS Available"
	if !status.TTS.Available {
		title = status.TTS.Error
		if title == "" {
			title = "TTS Unavailable"
		}
	}
	return StatusIndicator{
		Database:     status.Database,
		TTSAvailable: status.TTS.Available,
		TTSTitle:     title,
		CheckedAt:    status.Timestamp,
	}
}
