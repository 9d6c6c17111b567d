package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizeCanvas()
	c.normalizeAudio()
	c.normalizeProgress()
	c.normalizeNotifications()
	if err := c.normalizeJournal(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("SALESMIND_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeBackend() {
	if value, ok := os.LookupEnv("SALESMIND_BACKEND_URL"); ok && strings.TrimSpace(value) != "" {
		c.Backend.BaseURL = value
	}
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaultBackendURL
	}
	if c.Backend.APIToken == "" {
		if value, ok := os.LookupEnv("SALESMIND_BACKEND_TOKEN"); ok {
			c.Backend.APIToken = strings.TrimSpace(value)
		}
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = defaultBackendTimeoutSeconds
	}
	c.Backend.UserAgent = strings.TrimSpace(c.Backend.UserAgent)
	if c.Backend.UserAgent == "" {
		c.Backend.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeCanvas() {
	if c.Canvas.Width <= 0 {
		c.Canvas.Width = defaultCanvasWidth
	}
	if c.Canvas.Height <= 0 {
		c.Canvas.Height = defaultCanvasHeight
	}
	c.Insight.Vendor = strings.TrimSpace(c.Insight.Vendor)
	if c.Insight.Vendor == "" {
		c.Insight.Vendor = defaultVendor
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.PlayerBinary = strings.TrimSpace(c.Audio.PlayerBinary)
	if c.Audio.PlayerBinary == "" {
		c.Audio.PlayerBinary = defaultPlayerBinary
	}
	c.Audio.ProbeBinary = strings.TrimSpace(c.Audio.ProbeBinary)
	if c.Audio.ProbeBinary == "" {
		c.Audio.ProbeBinary = defaultProbeBinary
	}
	if c.Audio.TranscriptClearMS <= 0 {
		c.Audio.TranscriptClearMS = defaultTranscriptClearMS
	}
	if c.Audio.ProgressIntervalMS <= 0 {
		c.Audio.ProgressIntervalMS = defaultProgressIntervalMS
	}
}

func (c *Config) normalizeProgress() {
	if len(c.Progress.StageDelaysMS) == 0 {
		c.Progress.StageDelaysMS = append([]int(nil), defaultStageDelaysMS...)
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("SALESMIND_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	if c.Notifications.ToastSeconds <= 0 {
		c.Notifications.ToastSeconds = defaultToastSeconds
	}
}

func (c *Config) normalizeJournal() error {
	if strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = filepath.Join(c.Paths.StateDir, defaultJournalFile)
	}
	var err error
	if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
