package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Captions contains configuration for the timed-text caption service.
type Captions struct {
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// HeidelTime contains configuration for the temporal tagger process.
type HeidelTime struct {
	JavaBinary     string `toml:"java_binary"`
	JarPath        string `toml:"jar_path"`
	WorkDir        string `toml:"work_dir"`
	DocumentType   string `toml:"document_type"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// NLP contains configuration for sentence segmentation and entity recognition.
type NLP struct {
	ModelName string `toml:"model_name"`
	ModelDir  string `toml:"model_dir"`
	OnnxFile  string `toml:"onnx_file"`
}

// Wikipedia contains endpoints and politeness limits for Wikipedia access.
type Wikipedia struct {
	BaseURL               string  `toml:"base_url"`
	APIURL                string  `toml:"api_url"`
	UserAgent             string  `toml:"user_agent"`
	TimeoutSeconds        int     `toml:"timeout_seconds"`
	MaxConcurrentRequests int     `toml:"max_concurrent_requests"`
	RequestsPerSecond     float64 `toml:"requests_per_second"`
	RetryAttempts         int     `toml:"retry_attempts"`
	RetryInitialBackoffMS int     `toml:"retry_initial_backoff_ms"`
	RetryMaxBackoffMS     int     `toml:"retry_max_backoff_ms"`
	CacheEnabled          bool    `toml:"cache_enabled"`
	CacheTTLHours         int     `toml:"cache_ttl_hours"`
	TitleBatchSize        int     `toml:"title_batch_size"`
}

// Matching contains the entity similarity thresholds.
type Matching struct {
	ItemThreshold      float64  `toml:"item_threshold"`
	WindowThreshold    float64  `toml:"window_threshold"`
	WindowBefore       int      `toml:"window_before"`
	WindowAfter        int      `toml:"window_after"`
	IgnoredEntityTypes []string `toml:"ignored_entity_types"`
}

// Pipeline contains concurrency limits for per-video processing.
type Pipeline struct {
	EventConcurrency int `toml:"event_concurrency"`
	VideoConcurrency int `toml:"video_concurrency"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics contains configuration for the Prometheus endpoint.
type Metrics struct {
	ListenAddr string `toml:"listen_addr"`
}

// Config encapsulates all configuration values for timelines.
//
// Configuration sections by subsystem:
//   - Paths: data (store, lock) and log directories
//   - Captions: timed-text caption endpoint
//   - HeidelTime: temporal tagger installation
//   - NLP: NER model location
//   - Wikipedia: page and API endpoints, rate limits, retries, page cache
//   - Matching: similarity thresholds and context window span
//   - Pipeline: event and video concurrency
//   - Logging: log format and level
//   - Metrics: optional Prometheus listener
type Config struct {
	Paths      Paths      `toml:"paths"`
	Captions   Captions   `toml:"captions"`
	HeidelTime HeidelTime `toml:"heideltime"`
	NLP        NLP        `toml:"nlp"`
	Wikipedia  Wikipedia  `toml:"wikipedia"`
	Matching   Matching   `toml:"matching"`
	Pipeline   Pipeline   `toml:"pipeline"`
	Logging    Logging    `toml:"logging"`
	Metrics    Metrics    `toml:"metrics"`
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the SQLite database location inside the data directory.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.DataDir, "timelines.db")
}

// LockPath returns the lock file guarding the data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "timelines.lock")
}

// WikipediaTimeout returns the per-request Wikipedia timeout.
func (c *Config) WikipediaTimeout() time.Duration {
	return time.Duration(c.Wikipedia.TimeoutSeconds) * time.Second
}

// CaptionsTimeout returns the caption fetch timeout.
func (c *Config) CaptionsTimeout() time.Duration {
	return time.Duration(c.Captions.TimeoutSeconds) * time.Second
}

// HeidelTimeTimeout returns the temporal tagger process timeout.
func (c *Config) HeidelTimeTimeout() time.Duration {
	return time.Duration(c.HeidelTime.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long cached Wikipedia pages stay fresh. Zero disables expiry.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Wikipedia.CacheTTLHours) * time.Hour
}
