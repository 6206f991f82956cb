package testsupport

import (
	"path/filepath"
	"testing"

	"timelines/internal/config"
)

// ConfigOption adjusts a generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig returns the default configuration rooted in a fresh temp
// directory, with fast retry backoff and a test user agent.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.NLP.ModelDir = filepath.Join(base, "models")
	cfg.HeidelTime.JarPath = filepath.Join(base, "heideltime", "heideltime.jar")
	cfg.HeidelTime.WorkDir = filepath.Join(base, "heideltime")
	cfg.Wikipedia.UserAgent = "timelines-test/1.0"
	cfg.Wikipedia.RetryInitialBackoffMS = 1
	cfg.Wikipedia.RetryMaxBackoffMS = 5

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCacheTTLHours overrides the Wikipedia page cache lifetime.
func WithCacheTTLHours(hours int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Wikipedia.CacheTTLHours = hours
	}
}

// WithWikipediaURL points page and API requests at a test server.
func WithWikipediaURL(base string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Wikipedia.BaseURL = base
		cfg.Wikipedia.APIURL = base + "/w/api.php"
	}
}

// BaseDir returns the temp directory a NewConfig result is rooted in.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
