package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"salesmind/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SALESMIND_BACKEND_URL", "SALESMIND_BACKEND_TOKEN", "SALESMIND_NTFY_TOPIC", "SALESMIND_API_TOKEN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "salesmind")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7491" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Journal.Path != filepath.Join(wantState, "journal.db") {
		t.Fatalf("unexpected journal path: %q", cfg.Journal.Path)
	}
	if cfg.Insight.Vendor != "LTIMindtree" {
		t.Fatalf("unexpected vendor: %q", cfg.Insight.Vendor)
	}
	if cfg.Audio.TranscriptClearMS != 2000 {
		t.Fatalf("unexpected transcript clear delay: %d", cfg.Audio.TranscriptClearMS)
	}
	if cfg.Notifications.ToastSeconds != 3 {
		t.Fatalf("unexpected toast seconds: %d", cfg.Notifications.ToastSeconds)
	}
	if cfg.BackendTimeout() != 30*time.Second {
		t.Fatalf("unexpected backend timeout: %s", cfg.BackendTimeout())
	}
	delays := cfg.StageDelays()
	if len(delays) != 5 || delays[0] != 800*time.Millisecond || delays[4] != 1500*time.Millisecond {
		t.Fatalf("unexpected stage delays: %v", delays)
	}
	if cfg.SocketPath() != filepath.Join(wantState, "salesmind.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.SocketPath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	content := `
[paths]
state_dir = "` + filepath.Join(dir, "state") + `"

[backend]
base_url = "https://research.example.com/"
timeout_seconds = 5

[canvas]
width = 640
height = 480

[insight]
vendor = "Globex"

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Backend.BaseURL != "https://research.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSeconds != 5 {
		t.Fatalf("unexpected timeout: %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Canvas.Width != 640 || cfg.Canvas.Height != 480 {
		t.Fatalf("unexpected canvas: %gx%g", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Insight.Vendor != "Globex" {
		t.Fatalf("unexpected vendor: %q", cfg.Insight.Vendor)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging normalized to lower case, got %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if cfg.Paths.StateDir != filepath.Join(dir, "state") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
}

func TestEnvOverridesBackendURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SALESMIND_BACKEND_URL", "http://10.0.0.5:8080")
	t.Setenv("SALESMIND_NTFY_TOPIC", "https://ntfy.sh/leads")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.BaseURL != "http://10.0.0.5:8080" {
		t.Fatalf("expected env backend url, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/leads" {
		t.Fatalf("expected env ntfy topic, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	clearEnv(t)
	t.Cleanup(func() { os.Unsetenv("SALESMIND_BACKEND_TOKEN") })
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[paths]\nstate_dir = \""+dir+"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SALESMIND_BACKEND_TOKEN=secret-token\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.APIToken != "secret-token" {
		t.Fatalf("expected token from .env, got %q", cfg.Backend.APIToken)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[backend]") {
		t.Fatalf("sample config missing backend section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StateDir, "salesmind") {
		t.Fatalf("expected state dir to contain salesmind, got %q", cfg.Paths.StateDir)
	}
	if len(cfg.Progress.StageDelaysMS) != 5 {
		t.Fatalf("expected five stage delays in sample, got %v", cfg.Progress.StageDelaysMS)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"bad scheme", func(c *config.Config) { c.Backend.BaseURL = "ftp://example.com" }, "backend.base_url"},
		{"missing host", func(c *config.Config) { c.Backend.BaseURL = "http://" }, "host"},
		{"tiny canvas", func(c *config.Config) { c.Canvas.Width = 10 }, "canvas"},
		{"stage count", func(c *config.Config) { c.Progress.StageDelaysMS = []int{1, 2} }, "stage_delays_ms"},
		{"negative stage", func(c *config.Config) { c.Progress.StageDelaysMS = []int{1, 2, -3, 4, 5} }, "must not be negative"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}
