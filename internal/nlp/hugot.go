package nlp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"timelines/internal/logging"
)

// HugotConfig locates the token-classification model.
type HugotConfig struct {
	ModelName string
	ModelDir  string
	OnnxFile  string
}

// HugotAnalyzer tags entities with a hugot token-classification pipeline.
type HugotAnalyzer struct {
	segmenter *Segmenter
	session   *hugot.Session
	pipeline  *pipelines.TokenClassificationPipeline
	logger    *slog.Logger

	// the ONNX pipeline is not documented as goroutine safe
	mu sync.Mutex
}

// NewHugotAnalyzer prepares the model (downloading it on first use) and
// builds the NER pipeline.
func NewHugotAnalyzer(cfg HugotConfig, logger *slog.Logger) (*HugotAnalyzer, error) {
	logger = logging.NewComponentLogger(logger, "nlp")
	segmenter, err := NewSegmenter()
	if err != nil {
		return nil, err
	}

	modelPath, err := prepareModel(cfg, logger)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "timelines-ner",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("create NER pipeline: %w", err)
	}

	return &HugotAnalyzer{
		segmenter: segmenter,
		session:   session,
		pipeline:  nerPipeline,
		logger:    logger,
	}, nil
}

// Analyze segments text and tags every sentence in a single pipeline batch.
func (a *HugotAnalyzer) Analyze(ctx context.Context, text string) ([]Sentence, error) {
	spans := a.segmenter.Split(text)
	if len(spans) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputs := make([]string, len(spans))
	for i, span := range spans {
		inputs[i] = span.Text
	}

	a.mu.Lock()
	result, err := a.pipeline.RunPipeline(inputs)
	a.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run NER: %w", err)
	}

	out := make([]Sentence, len(spans))
	for i, span := range spans {
		out[i] = Sentence{Text: span.Text}
		if i >= len(result.Entities) {
			continue
		}
		tokens := make([]Token, 0, len(result.Entities[i]))
		for _, ent := range result.Entities[i] {
			start, end := int(ent.Start), int(ent.End)
			word := ent.Word
			if start >= 0 && end <= len(span.Text) && start < end {
				word = span.Text[start:end]
			}
			tokens = append(tokens, Token{Text: word, Label: ent.Entity, Start: start, End: end})
		}
		out[i].Entities = MergeIOB(tokens)
	}
	return out, nil
}

// Close releases the ONNX session.
func (a *HugotAnalyzer) Close() error {
	if a == nil || a.session == nil {
		return nil
	}
	return a.session.Destroy()
}

func prepareModel(cfg HugotConfig, logger *slog.Logger) (string, error) {
	name := strings.TrimSpace(cfg.ModelName)
	if name == "" {
		return "", errors.New("nlp model name is empty")
	}
	modelPath := filepath.Join(cfg.ModelDir, strings.ReplaceAll(name, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat model: %w", err)
	}

	if err := os.MkdirAll(cfg.ModelDir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}
	logger.Info("downloading NER model", logging.String("model", name), logging.String("dir", cfg.ModelDir))
	downloadOptions := hugot.NewDownloadOptions()
	if cfg.OnnxFile != "" {
		downloadOptions.OnnxFilePath = cfg.OnnxFile
	}
	downloaded, err := hugot.DownloadModel(name, cfg.ModelDir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("download model %s: %w", name, err)
	}
	return downloaded, nil
}

var (
	sharedOnce     sync.Once
	sharedAnalyzer *HugotAnalyzer
	sharedErr      error
)

// Shared returns the process-wide analyzer, building it on first call. The
// model is loaded once and reused by every pipeline run.
func Shared(cfg HugotConfig, logger *slog.Logger) (*HugotAnalyzer, error) {
	sharedOnce.Do(func() {
		sharedAnalyzer, sharedErr = NewHugotAnalyzer(cfg, logger)
	})
	return sharedAnalyzer, sharedErr
}
