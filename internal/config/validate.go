package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEndpoints(); err != nil {
		return err
	}
	if err := c.validateWikipedia(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"captions.timeout_seconds":           c.Captions.TimeoutSeconds,
		"heideltime.timeout_seconds":         c.HeidelTime.TimeoutSeconds,
		"pipeline.event_concurrency":         c.Pipeline.EventConcurrency,
		"pipeline.video_concurrency":         c.Pipeline.VideoConcurrency,
		"wikipedia.timeout_seconds":          c.Wikipedia.TimeoutSeconds,
		"wikipedia.max_concurrent_requests":  c.Wikipedia.MaxConcurrentRequests,
		"wikipedia.retry_initial_backoff_ms": c.Wikipedia.RetryInitialBackoffMS,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEndpoints() error {
	for key, value := range map[string]string{
		"captions.base_url":  c.Captions.BaseURL,
		"wikipedia.base_url": c.Wikipedia.BaseURL,
		"wikipedia.api_url":  c.Wikipedia.APIURL,
	} {
		parsed, err := url.Parse(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s must be an http(s) URL, got %q", key, value)
		}
		if parsed.Host == "" {
			return fmt.Errorf("%s must include a host, got %q", key, value)
		}
	}
	return nil
}

func (c *Config) validateWikipedia() error {
	if strings.TrimSpace(c.Wikipedia.UserAgent) == "" {
		return errors.New("wikipedia.user_agent must be set (or set TIMELINES_USER_AGENT)")
	}
	if c.Wikipedia.RequestsPerSecond < 0 {
		return errors.New("wikipedia.requests_per_second must be >= 0")
	}
	if c.Wikipedia.RetryMaxBackoffMS < c.Wikipedia.RetryInitialBackoffMS {
		return errors.New("wikipedia.retry_max_backoff_ms must be >= wikipedia.retry_initial_backoff_ms")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.ItemThreshold < 0 || c.Matching.ItemThreshold > 1 {
		return errors.New("matching.item_threshold must be between 0 and 1")
	}
	if c.Matching.WindowThreshold < 0 || c.Matching.WindowThreshold > 1 {
		return errors.New("matching.window_threshold must be between 0 and 1")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
