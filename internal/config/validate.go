package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSite(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateDispatch(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSite() error {
	if strings.TrimSpace(c.Site.BaseURL) == "" {
		return errors.New("site.base_url must be set")
	}
	if err := validateHTTPURL("site.base_url", c.Site.BaseURL); err != nil {
		return err
	}
	if c.Site.TestBaseURL != "" {
		if err := validateHTTPURL("site.test_base_url", c.Site.TestBaseURL); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.Quality < 0 || c.Encoder.Quality > 100 {
		return errors.New("encoder.quality must be between 0 and 100")
	}
	if c.Encoder.Method < 0 || c.Encoder.Method > 6 {
		return errors.New("encoder.method must be between 0 and 6")
	}
	if c.Encoder.MaxWidth < 0 {
		return errors.New("encoder.max_width must be >= 0 (0 disables resizing)")
	}
	if c.Encoder.TimeoutSeconds < 0 {
		return errors.New("encoder.timeout_seconds must be >= 0 (0 disables the timeout)")
	}
	return nil
}

func (c *Config) validatePublish() error {
	switch c.Publish.Mode {
	case ModePlain, ModeForcedWithSignal:
	default:
		return fmt.Errorf("publish.mode must be %q or %q, got %q", ModePlain, ModeForcedWithSignal, c.Publish.Mode)
	}
	if !strings.Contains(c.Publish.CommitMessage, "{count}") {
		return errors.New("publish.commit_message must contain the {count} placeholder")
	}
	return nil
}

func (c *Config) validateDispatch() error {
	if !c.SignalEnabled() {
		return nil
	}
	if c.Dispatch.Owner == "" {
		return errors.New("dispatch.owner must be set when publish.mode is forced_with_signal")
	}
	if c.Dispatch.Repo == "" {
		return errors.New("dispatch.repo must be set when publish.mode is forced_with_signal")
	}
	return validateHTTPURL("dispatch.api_base_url", c.Dispatch.APIBaseURL)
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be >= 0")
	}
	return nil
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, value)
	}
	return nil
}
