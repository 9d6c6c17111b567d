package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"salesmind/internal/config"
	"salesmind/internal/logging"
	"salesmind/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.Notice{Level: notifications.LevelError, Message: "x"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop test notification to return nil, got %v", err)
	}
}

type capturedRequest struct {
	title    string
	tags     string
	priority string
	agent    string
	body     string
}

func captureServer(t *testing.T) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	requests := make(chan capturedRequest, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		requests <- capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			agent:    r.Header.Get("User-Agent"),
			body:     string(body),
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func TestNtfyServiceFormatsNotices(t *testing.T) {
	tests := []struct {
		name           string
		notice         notifications.Notice
		expectTitle    string
		expectTags     string
		expectPriority string
	}{
		{
			name:        "research ready",
			notice:      notifications.Notice{Level: notifications.LevelSuccess, Message: "Research complete for Acme"},
			expectTitle: "Salesmind - Research Ready",
			expectTags:  "salesmind,success",
		},
		{
			name:           "error",
			notice:         notifications.Notice{Level: notifications.LevelError, Message: "Search failed. Please try again."},
			expectTitle:    "Salesmind - Error",
			expectTags:     "salesmind,error",
			expectPriority: "high",
		},
		{
			name:        "warning",
			notice:      notifications.Notice{Level: notifications.LevelWarning, Message: "Please enter a company name"},
			expectTitle: "Salesmind - Warning",
			expectTags:  "salesmind,warning",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, requests := captureServer(t)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.notice); err != nil {
				t.Fatalf("Publish returned error: %v", err)
			}
			got := <-requests
			if got.title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tc.expectTitle)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tc.expectTags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tc.expectPriority)
			}
			if got.body != tc.notice.Message {
				t.Fatalf("body = %q, want %q", got.body, tc.notice.Message)
			}
			if got.agent == "" {
				t.Fatal("expected user agent header")
			}
		})
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic disabled", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for forbidden response")
	}
}

func TestFeedExpiresNotices(t *testing.T) {
	feed := notifications.NewFeed(50 * time.Millisecond)
	first := feed.Add(notifications.LevelInfo, "one")
	second := feed.Add(notifications.LevelError, "two")

	active := feed.Active()
	if len(active) != 2 {
		t.Fatalf("expected 2 active notices, got %d", len(active))
	}
	if active[0].ID != first.ID || active[1].ID != second.ID {
		t.Fatalf("expected oldest first, got %+v", active)
	}
	if !second.ExpiresAt.After(second.CreatedAt) {
		t.Fatalf("expected expiry after creation, got %+v", second)
	}

	time.Sleep(120 * time.Millisecond)
	if got := feed.Active(); len(got) != 0 {
		t.Fatalf("expected notices to expire, got %+v", got)
	}
}

func TestFeedClear(t *testing.T) {
	feed := notifications.NewFeed(time.Minute)
	feed.Add(notifications.LevelInfo, "one")
	feed.Clear()
	if got := feed.Active(); len(got) != 0 {
		t.Fatalf("expected empty feed after clear, got %+v", got)
	}
}

type recordingService struct {
	mu      sync.Mutex
	notices []notifications.Notice
}

func (r *recordingService) Publish(_ context.Context, n notifications.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func (r *recordingService) TestNotification(context.Context) error { return nil }

func (r *recordingService) levels() []notifications.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notifications.Level, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.Level)
	}
	return out
}

func TestHubPushesOnlyErrorsAndSuccess(t *testing.T) {
	push := &recordingService{}
	hub := notifications.NewHubWith(notifications.NewFeed(time.Minute), push, logging.NewNop())

	ctx := context.Background()
	hub.Notify(ctx, notifications.LevelInfo, "Preparing audio...")
	hub.Notify(ctx, notifications.LevelWarning, "Please enter a company name")
	hub.Notify(ctx, notifications.LevelSuccess, "Research complete for Acme")
	hub.Notify(ctx, notifications.LevelError, "Failed to start audio")
	hub.Notify(ctx, notifications.LevelError, "   ")
	hub.Close()

	if got := len(hub.Active()); got != 4 {
		t.Fatalf("expected 4 toasts, got %d", got)
	}
	levels := push.levels()
	if len(levels) != 2 {
		t.Fatalf("expected 2 pushes, got %v", levels)
	}
	seen := map[notifications.Level]bool{}
	for _, l := range levels {
		seen[l] = true
	}
	if !seen[notifications.LevelSuccess] || !seen[notifications.LevelError] {
		t.Fatalf("expected success and error pushes, got %v", levels)
	}
}

func TestHubFromConfigRespectsToggles(t *testing.T) {
	server, requests := captureServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Errors = false
	cfg.Notifications.Research = true

	hub := notifications.NewHub(&cfg, logging.NewNop())
	hub.Notify(context.Background(), notifications.LevelError, "Audio playback failed")
	hub.Notify(context.Background(), notifications.LevelSuccess, "Research complete for Acme")
	hub.Close()

	if len(requests) != 1 {
		t.Fatalf("expected 1 push, got %d", len(requests))
	}
	got := <-requests
	if got.body != "Research complete for Acme" {
		t.Fatalf("unexpected push body %q", got.body)
	}
}
