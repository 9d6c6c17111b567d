package ipc

import (
	"salesmind/internal/daemon"
	"salesmind/internal/journal"
	"salesmind/internal/logging"
	"salesmind/internal/render"
	"salesmind/internal/workspace"
)

// ServiceName is the RPC service the daemon registers.
const ServiceName = "Salesmind"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse wraps daemon status information.
type StatusResponse struct {
	Status daemon.Status `json:"status"`
}

// SearchRequest starts research for a company.
type SearchRequest struct {
	CompanyName string `json:"company_name"`
}

// ViewResponse carries the workspace view after a command. Error holds a
// domain failure (blank company, unknown node, backend error) that still
// produced a meaningful view.
type ViewResponse struct {
	View  workspace.View `json:"view"`
	Error string         `json:"error,omitempty"`
}

// ClickRequest activates a graph node.
type ClickRequest struct {
	ID string `json:"id"`
}

// SwitchTabRequest selects a panel tab.
type SwitchTabRequest struct {
	Tab string `json:"tab"`
}

// ClosePanelRequest hides the insight panel.
type ClosePanelRequest struct{}

// BackRequest returns the workspace to search mode.
type BackRequest struct{}

// ResizeRequest changes the canvas size.
type ResizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ViewRequest fetches the current view.
type ViewRequest struct{}

// GraphRequest fetches the rendered scene.
type GraphRequest struct {
	SVG bool `json:"svg"`
}

// GraphResponse holds the scene and, when requested, its SVG document.
type GraphResponse struct {
	Scene render.Snapshot `json:"scene"`
	SVG   string          `json:"svg,omitempty"`
}

// HistoryRequest lists past searches.
type HistoryRequest struct{}

// HistoryResponse lists grouped history items.
type HistoryResponse struct {
	Items []workspace.HistoryItem `json:"items"`
}

// DeleteHistoryRequest removes a company from history.
type DeleteHistoryRequest struct {
	CompanyName string `json:"company_name"`
}

// DeleteHistoryResponse acknowledges a deletion.
type DeleteHistoryResponse struct {
	Deleted bool `json:"deleted"`
}

// KeysRequest reads masked API keys.
type KeysRequest struct{}

// KeysResponse lists masked API keys.
type KeysResponse struct {
	Keys map[string]string `json:"keys"`
}

// SaveKeysRequest writes API keys; empty values are dropped.
type SaveKeysRequest struct {
	Keys map[string]string `json:"keys"`
}

// SaveKeysResponse acknowledges a key update.
type SaveKeysResponse struct {
	Saved bool `json:"saved"`
}

// JournalRequest lists recorded insight outcomes.
type JournalRequest struct {
	Company string `json:"company"`
	Limit   int    `json:"limit"`
}

// JournalResponse holds recent entries and aggregate counts.
type JournalResponse struct {
	Entries []journal.Entry `json:"entries"`
	Stats   journal.Stats   `json:"stats"`
}

// LogsRequest reads buffered daemon log events.
type LogsRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	WaitMillis int    `json:"wait_millis"`
}

// LogsResponse holds log events and the cursor for the next call.
type LogsResponse struct {
	Events []logging.LogEvent `json:"events"`
	Next   uint64             `json:"next"`
}

// TestNotificationRequest triggers a push notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the notification test result.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
