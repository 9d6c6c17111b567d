package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// HistoryEntry is one past search.
type HistoryEntry struct {
	CompanyName string `json:"company_name"`
	Timestamp   string `json:"timestamp"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Time parses the backend timestamp, returning the zero time when it cannot.
func (h HistoryEntry) Time() time.Time {
	value := strings.TrimSpace(h.Timestamp)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// History lists past searches, most recent first as returned by the backend.
func (c *Client) History(ctx context.Context) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	if err := c.do(ctx, "backend history", http.MethodGet, "/api/history", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteHistory removes one company from the search history.
func (c *Client) DeleteHistory(ctx context.Context, companyName string) error {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return errors.New("backend delete history: company name required")
	}
	return c.do(ctx, "backend delete history", http.MethodDelete, "/api/history/"+escapeSegment(companyName), nil, nil)
}

// KeyNames lists the credentials the backend manages, in display order.
var KeyNames = []string{"serper", "openrouter", "cartesia", "deepgram", "firecrawl", "sonar"}

// Keys returns the backend's masked API keys.
func (c *Client) Keys(ctx context.Context) (map[string]string, error) {
	keys := make(map[string]string)
	if err := c.do(ctx, "backend keys", http.MethodGet, "/api/keys", nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// ErrNoKeys is returned when SaveKeys is called with only empty values.
var ErrNoKeys = errors.New("no keys to update")

// SaveKeys writes non-empty key values and returns the backend's message.
func (c *Client) SaveKeys(ctx context.Context, keys map[string]string) (string, error) {
	const op = "backend save keys"
	payload := make(map[string]string, len(keys))
	for name, value := range keys {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			payload[name] = trimmed
		}
	}
	if len(payload) == 0 {
		return "", ErrNoKeys
	}
	var resp struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/api/keys", payload, &resp); err != nil {
		return "", err
	}
	if resp.Success == nil {
		return "", missing(op, "success")
	}
	if !*resp.Success {
		return "", &StatusError{Op: op, Message: resp.Message}
	}
	return resp.Message, nil
}

// TTSStatus reports speech synthesis availability.
type TTSStatus struct {
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
	LastChecked string `json:"last_checked,omitempty"`
}

// Status is the backend health probe.
type Status struct {
	Database  bool      `json:"mongodb"`
	TTS       TTSStatus `json:"tts"`
	Timestamp string    `json:"timestamp,omitempty"`
}

// Status probes backend health.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var status Status
	err := c.do(ctx, "backend status", http.MethodGet, "/api/status", nil, &status)
	return status, err
}

// MaskKey renders a secret the way the backend displays stored keys.
func MaskKey(value string) string {
	if value == "" {
		return ""
	}
	if len(value) > 12 {
		return value[:8] + "..." + value[len(value)-4:]
	}
	return "****"
}
