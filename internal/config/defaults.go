package config

const (
	defaultConfigPath             = "~/.config/timelines/config.toml"
	defaultLogDir                 = "~/.local/share/timelines/logs"
	defaultCaptionsBaseURL        = "http://video.google.com/timedtext"
	defaultCaptionsLanguage       = "en"
	defaultCaptionsTimeout        = 15
	defaultJavaBinary             = "java"
	defaultHeidelTimeJar          = "~/.local/share/timelines/heideltime/de.unihd.dbs.heideltime.standalone.jar"
	defaultHeidelTimeDocumentType = "narratives"
	defaultHeidelTimeTimeout      = 120
	defaultNLPModelName           = "KnightsAnalytics/distilbert-NER"
	defaultNLPModelDir            = "~/.local/share/timelines/models"
	defaultNLPOnnxFile            = "model.onnx"
	defaultWikipediaBaseURL       = "https://en.wikipedia.org"
	defaultWikipediaAPIURL        = "https://en.wikipedia.org/w/api.php"
	defaultWikipediaUserAgent     = "timelines/dev (caption event matcher)"
	defaultWikipediaTimeout       = 20
	defaultWikipediaConcurrency   = 4
	defaultWikipediaRate          = 5.0
	defaultWikipediaRetries       = 4
	defaultRetryInitialBackoffMS  = 500
	defaultRetryMaxBackoffMS      = 8000
	defaultCacheTTLHours          = 24 * 7
	defaultTitleBatchSize         = 50
	defaultItemThreshold          = 0.25
	defaultWindowThreshold        = 0.18
	defaultWindowSpan             = 1
	defaultEventConcurrency       = 4
	defaultVideoConcurrency       = 2
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// DefaultIgnoredEntityTypes lists entity types excluded from similarity scoring.
// They describe quantities and times rather than the subject of an event.
func DefaultIgnoredEntityTypes() []string {
	return []string{"CARDINAL", "DATE", "LANGUAGE", "MONEY", "ORDINAL", "PERCENT", "QUANTITY", "TIME"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir(),
			LogDir:  defaultLogDir,
		},
		Captions: Captions{
			BaseURL:        defaultCaptionsBaseURL,
			Language:       defaultCaptionsLanguage,
			TimeoutSeconds: defaultCaptionsTimeout,
		},
		HeidelTime: HeidelTime{
			JavaBinary:     defaultJavaBinary,
			JarPath:        defaultHeidelTimeJar,
			DocumentType:   defaultHeidelTimeDocumentType,
			TimeoutSeconds: defaultHeidelTimeTimeout,
		},
		NLP: NLP{
			ModelName: defaultNLPModelName,
			ModelDir:  defaultNLPModelDir,
			OnnxFile:  defaultNLPOnnxFile,
		},
		Wikipedia: Wikipedia{
			BaseURL:               defaultWikipediaBaseURL,
			APIURL:                defaultWikipediaAPIURL,
			UserAgent:             defaultWikipediaUserAgent,
			TimeoutSeconds:        defaultWikipediaTimeout,
			MaxConcurrentRequests: defaultWikipediaConcurrency,
			RequestsPerSecond:     defaultWikipediaRate,
			RetryAttempts:         defaultWikipediaRetries,
			RetryInitialBackoffMS: defaultRetryInitialBackoffMS,
			RetryMaxBackoffMS:     defaultRetryMaxBackoffMS,
			CacheEnabled:          true,
			CacheTTLHours:         defaultCacheTTLHours,
			TitleBatchSize:        defaultTitleBatchSize,
		},
		Matching: Matching{
			ItemThreshold:      defaultItemThreshold,
			WindowThreshold:    defaultWindowThreshold,
			WindowBefore:       defaultWindowSpan,
			WindowAfter:        defaultWindowSpan,
			IgnoredEntityTypes: DefaultIgnoredEntityTypes(),
		},
		Pipeline: Pipeline{
			EventConcurrency: defaultEventConcurrency,
			VideoConcurrency: defaultVideoConcurrency,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
