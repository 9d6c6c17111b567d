package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateCanvas(); err != nil {
		return err
	}
	if err := c.validateProgress(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	parsed, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend.base_url must use http or https, got %q", c.Backend.BaseURL)
	}
	if parsed.Host == "" {
		return errors.New("backend.base_url must include a host")
	}
	return nil
}

func (c *Config) validateCanvas() error {
	if c.Canvas.Width < 100 || c.Canvas.Height < 100 {
		return fmt.Errorf("canvas must be at least 100x100, got %gx%g", c.Canvas.Width, c.Canvas.Height)
	}
	return nil
}

func (c *Config) validateProgress() error {
	if len(c.Progress.StageDelaysMS) != 5 {
		return fmt.Errorf("progress.stage_delays_ms must list 5 stages, got %d", len(c.Progress.StageDelaysMS))
	}
	for i, ms := range c.Progress.StageDelaysMS {
		if ms < 0 {
			return fmt.Errorf("progress.stage_delays_ms[%d] must not be negative", i)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", strings.TrimSpace(c.Logging.Level))
	}
	return nil
}
