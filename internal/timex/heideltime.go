package timex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"timelines/internal/logging"
	"timelines/internal/services"
	"timelines/internal/textutil"
)

// Tagger annotates sentences with temporal expressions. The result holds
// one entry per annotated line, in sentence order.
type Tagger interface {
	Tag(ctx context.Context, sentences []string) ([][]Annotation, error)
}

// commandRunner executes name in dir and returns its standard output.
type commandRunner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// Config describes how to launch HeidelTime.
type Config struct {
	JavaBinary   string
	JarPath      string
	WorkDir      string
	DocumentType string
	Timeout      time.Duration
	TempDir      string
}

// HeidelTime runs the HeidelTime standalone jar.
type HeidelTime struct {
	cfg    Config
	logger *slog.Logger
	run    commandRunner
}

// Option customises a HeidelTime runner.
type Option func(*HeidelTime)

// WithCommandRunner injects a custom command runner (primarily for tests).
func WithCommandRunner(r commandRunner) Option {
	return func(h *HeidelTime) {
		if r != nil {
			h.run = r
		}
	}
}

// NewHeidelTime builds a runner. WorkDir defaults to the jar's directory so
// HeidelTime finds its config.props next to it.
func NewHeidelTime(cfg Config, logger *slog.Logger, opts ...Option) *HeidelTime {
	if strings.TrimSpace(cfg.JavaBinary) == "" {
		cfg.JavaBinary = "java"
	}
	if strings.TrimSpace(cfg.DocumentType) == "" {
		cfg.DocumentType = "narratives"
	}
	if strings.TrimSpace(cfg.WorkDir) == "" && cfg.JarPath != "" {
		cfg.WorkDir = filepath.Dir(cfg.JarPath)
	}
	h := &HeidelTime{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "heideltime"),
		run:    defaultCommandRunner,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Tag writes sentences to a temp file, one per line, and runs the tagger on
// it. Missing TimeML in the output is not an error: it yields no lines.
func (h *HeidelTime) Tag(ctx context.Context, sentences []string) ([][]Annotation, error) {
	if len(sentences) == 0 {
		return nil, nil
	}
	if strings.TrimSpace(h.cfg.JarPath) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "timex", "tag", "heideltime jar path not configured", nil)
	}

	input, err := h.writeInput(ctx, sentences)
	if err != nil {
		return nil, err
	}
	defer os.Remove(input)

	if h.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Timeout)
		defer cancel()
	}

	args := []string{"-jar", h.cfg.JarPath, "-t", h.cfg.DocumentType, input}
	h.logger.Debug("invoking heideltime",
		logging.String("command", h.cfg.JavaBinary+" "+strings.Join(args, " ")),
		logging.String("work_dir", h.cfg.WorkDir),
		logging.Int("sentences", len(sentences)),
	)
	started := time.Now()
	output, err := h.run(ctx, h.cfg.WorkDir, h.cfg.JavaBinary, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "timex", "run heideltime", fmt.Sprintf("no output after %s", h.cfg.Timeout), err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "timex", "run heideltime", "", err)
	}

	lines, ok := ExtractBody(string(output))
	if !ok {
		h.logger.Info("no TimeML found in heideltime output",
			logging.String(logging.FieldEventType, "timeml_missing"),
			logging.Int("output_bytes", len(output)),
		)
		return nil, nil
	}
	h.logger.Debug("heideltime complete",
		logging.Int("lines", len(lines)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return ExtractAll(lines), nil
}

func (h *HeidelTime) writeInput(ctx context.Context, sentences []string) (string, error) {
	videoID, _ := services.VideoIDFromContext(ctx)
	prefix := "cap-" + textutil.FileToken(videoID) + "-"
	f, err := os.CreateTemp(h.cfg.TempDir, prefix+"*.txt")
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "timex", "write input", "", err)
	}
	var buf bytes.Buffer
	for _, s := range sentences {
		buf.WriteString(textutil.NormalizeSpace(s))
		buf.WriteByte('\n')
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", services.Wrap(services.ErrExternalTool, "timex", "write input", "", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", services.Wrap(services.ErrExternalTool, "timex", "write input", "", err)
	}
	return f.Name(), nil
}

func defaultCommandRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Dir = dir
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}
