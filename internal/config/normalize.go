package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCaptions()
	if err := c.normalizeHeidelTime(); err != nil {
		return err
	}
	if err := c.normalizeNLP(); err != nil {
		return err
	}
	c.normalizeWikipedia()
	c.normalizeMatching()
	c.normalizePipeline()
	c.normalizeLogging()
	c.Metrics.ListenAddr = strings.TrimSpace(c.Metrics.ListenAddr)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir()
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCaptions() {
	c.Captions.BaseURL = strings.TrimSpace(c.Captions.BaseURL)
	if c.Captions.BaseURL == "" {
		c.Captions.BaseURL = defaultCaptionsBaseURL
	}
	c.Captions.Language = strings.ToLower(strings.TrimSpace(c.Captions.Language))
	if c.Captions.Language == "" {
		c.Captions.Language = defaultCaptionsLanguage
	}
	if c.Captions.TimeoutSeconds <= 0 {
		c.Captions.TimeoutSeconds = defaultCaptionsTimeout
	}
}

func (c *Config) normalizeHeidelTime() error {
	var err error
	if value, ok := os.LookupEnv("HEIDELTIME_JAR"); ok && strings.TrimSpace(value) != "" {
		c.HeidelTime.JarPath = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.HeidelTime.JarPath) == "" {
		c.HeidelTime.JarPath = defaultHeidelTimeJar
	}
	if c.HeidelTime.JarPath, err = expandPath(c.HeidelTime.JarPath); err != nil {
		return fmt.Errorf("heideltime.jar_path: %w", err)
	}
	if c.HeidelTime.WorkDir, err = expandPath(strings.TrimSpace(c.HeidelTime.WorkDir)); err != nil {
		return fmt.Errorf("heideltime.work_dir: %w", err)
	}
	c.HeidelTime.JavaBinary = strings.TrimSpace(c.HeidelTime.JavaBinary)
	if c.HeidelTime.JavaBinary == "" {
		c.HeidelTime.JavaBinary = defaultJavaBinary
	}
	c.HeidelTime.DocumentType = strings.ToLower(strings.TrimSpace(c.HeidelTime.DocumentType))
	if c.HeidelTime.DocumentType == "" {
		c.HeidelTime.DocumentType = defaultHeidelTimeDocumentType
	}
	if c.HeidelTime.TimeoutSeconds <= 0 {
		c.HeidelTime.TimeoutSeconds = defaultHeidelTimeTimeout
	}
	return nil
}

func (c *Config) normalizeNLP() error {
	var err error
	c.NLP.ModelName = strings.TrimSpace(c.NLP.ModelName)
	if c.NLP.ModelName == "" {
		c.NLP.ModelName = defaultNLPModelName
	}
	if strings.TrimSpace(c.NLP.ModelDir) == "" {
		c.NLP.ModelDir = defaultNLPModelDir
	}
	if c.NLP.ModelDir, err = expandPath(c.NLP.ModelDir); err != nil {
		return fmt.Errorf("nlp.model_dir: %w", err)
	}
	c.NLP.OnnxFile = strings.TrimSpace(c.NLP.OnnxFile)
	if c.NLP.OnnxFile == "" {
		c.NLP.OnnxFile = defaultNLPOnnxFile
	}
	return nil
}

func (c *Config) normalizeWikipedia() {
	w := &c.Wikipedia
	w.BaseURL = strings.TrimRight(strings.TrimSpace(w.BaseURL), "/")
	if w.BaseURL == "" {
		w.BaseURL = defaultWikipediaBaseURL
	}
	w.APIURL = strings.TrimSpace(w.APIURL)
	if w.APIURL == "" {
		w.APIURL = defaultWikipediaAPIURL
	}
	if value, ok := os.LookupEnv("TIMELINES_USER_AGENT"); ok && strings.TrimSpace(value) != "" {
		w.UserAgent = value
	}
	w.UserAgent = strings.TrimSpace(w.UserAgent)
	if w.UserAgent == "" {
		w.UserAgent = defaultWikipediaUserAgent
	}
	if w.TimeoutSeconds <= 0 {
		w.TimeoutSeconds = defaultWikipediaTimeout
	}
	if w.MaxConcurrentRequests <= 0 {
		w.MaxConcurrentRequests = defaultWikipediaConcurrency
	}
	if w.RetryAttempts < 0 {
		w.RetryAttempts = 0
	}
	if w.RetryInitialBackoffMS <= 0 {
		w.RetryInitialBackoffMS = defaultRetryInitialBackoffMS
	}
	if w.RetryMaxBackoffMS <= 0 {
		w.RetryMaxBackoffMS = defaultRetryMaxBackoffMS
	}
	if w.CacheTTLHours < 0 {
		w.CacheTTLHours = 0
	}
	if w.TitleBatchSize <= 0 || w.TitleBatchSize > defaultTitleBatchSize {
		w.TitleBatchSize = defaultTitleBatchSize
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.WindowBefore < 0 {
		c.Matching.WindowBefore = 0
	}
	if c.Matching.WindowAfter < 0 {
		c.Matching.WindowAfter = 0
	}
	if c.Matching.IgnoredEntityTypes == nil {
		c.Matching.IgnoredEntityTypes = DefaultIgnoredEntityTypes()
		return
	}
	types := make([]string, 0, len(c.Matching.IgnoredEntityTypes))
	seen := make(map[string]struct{}, len(c.Matching.IgnoredEntityTypes))
	for _, value := range c.Matching.IgnoredEntityTypes {
		normalized := strings.ToUpper(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		types = append(types, normalized)
	}
	c.Matching.IgnoredEntityTypes = types
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.EventConcurrency <= 0 {
		c.Pipeline.EventConcurrency = defaultEventConcurrency
	}
	if c.Pipeline.VideoConcurrency <= 0 {
		c.Pipeline.VideoConcurrency = defaultVideoConcurrency
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
