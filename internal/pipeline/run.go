package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"timelines/internal/captions"
	"timelines/internal/events"
	"timelines/internal/logging"
	"timelines/internal/nlp"
	"timelines/internal/services"
	"timelines/internal/timex"
)

// Outcome pairs a batch input with its result or error.
type Outcome struct {
	VideoID string
	Result  *Result
	Err     error
}

// RunBatch runs every video with at most VideoConcurrency in flight. A
// failing video never stops the others; outcomes are in input order.
func (p *Pipeline) RunBatch(ctx context.Context, videos []Video) []Outcome {
	outcomes := make([]Outcome, len(videos))
	var g errgroup.Group
	g.SetLimit(p.opts.VideoConcurrency)
	for i, video := range videos {
		g.Go(func() error {
			result, err := p.Run(ctx, video)
			outcomes[i] = Outcome{VideoID: video.ID, Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// Run processes one video. The returned error is non-nil only when the run
// as a whole could not produce events.
func (p *Pipeline) Run(ctx context.Context, video Video) (*Result, error) {
	if strings.TrimSpace(video.ID) == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "run", "video id is required", nil)
	}
	runID := uuid.NewString()
	ctx = services.WithVideoID(ctx, video.ID)
	ctx = services.WithRequestID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)

	result := &Result{
		VideoID:   video.ID,
		RunID:     runID,
		Source:    video.Source,
		StartedAt: p.now(),
	}
	logger.Info("video run started",
		logging.String(logging.FieldEventType, "video_start"),
		logging.Int("chunks", len(video.Chunks)),
		logging.String("source", video.Source),
	)

	err := p.run(ctx, video, result)
	result.FinishedAt = p.now()
	elapsed := result.FinishedAt.Sub(result.StartedAt)
	if err != nil {
		if errors.Is(err, services.ErrAlignment) {
			p.observer().ObserveAlignmentFailure()
		}
		p.observer().ObserveVideo("failed", elapsed)
		return nil, err
	}

	total, matched := result.Counts()
	p.observer().ObserveVideo("ok", elapsed)
	logger.Info("video run completed",
		logging.String(logging.FieldEventType, "video_complete"),
		logging.Int("sentences", len(result.Sentences)),
		logging.Int("events", total),
		logging.Int("matched", matched),
		logging.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, video Video, result *Result) error {
	var analyzed []nlp.Sentence
	err := p.runStage(ctx, stageAnalyze, func(ctx context.Context, _ *slog.Logger) error {
		var err error
		analyzed, err = p.deps.Analyzer.Analyze(ctx, captions.JoinText(video.Chunks))
		if err != nil {
			return services.Wrap(services.ErrExternalTool, stageAnalyze, "analyze captions", "", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	sentences := make([]captions.Sentence, len(analyzed))
	perSentence := make([][]nlp.Entity, len(analyzed))
	for i, s := range analyzed {
		sentences[i] = captions.Sentence{Ordinal: i, Text: s.Text}
		perSentence[i] = s.Entities
	}

	err = p.runStage(ctx, stageAlign, func(ctx context.Context, _ *slog.Logger) error {
		stamped, err := captions.Align(video.Chunks, sentences)
		if err != nil {
			return err
		}
		result.Sentences = stamped
		return nil
	})
	if err != nil {
		return err
	}
	windows := events.BuildWindows(perSentence, p.opts.WindowBefore, p.opts.WindowAfter)

	var annotations [][]timex.Annotation
	err = p.runStage(ctx, stageTag, func(ctx context.Context, _ *slog.Logger) error {
		texts := make([]string, len(sentences))
		for i, s := range sentences {
			texts[i] = s.Text
		}
		var err error
		annotations, err = p.deps.Tagger.Tag(ctx, texts)
		return err
	})
	if err != nil {
		return err
	}

	pending := p.buildEvents(result.Sentences, windows, annotations)
	err = p.runStage(ctx, stageMatch, func(ctx context.Context, logger *slog.Logger) error {
		processed, err := p.processEvents(ctx, pending)
		if err != nil {
			return err
		}
		result.Events = groupBySentence(processed, len(result.Sentences))
		logger.Debug("events processed", logging.Int("events", len(processed)))
		return nil
	})
	return err
}

// buildEvents creates one pending event per DATE annotation. Annotation line
// i belongs to sentence i; lines beyond the last sentence are ignored.
func (p *Pipeline) buildEvents(sentences []captions.TimestampedSentence, windows []events.ContextWindow, annotations [][]timex.Annotation) []events.TemporalEvent {
	var out []events.TemporalEvent
	for i, line := range annotations {
		if i >= len(sentences) {
			p.logger.Warn("annotation lines exceed sentences; extra lines ignored",
				logging.String(logging.FieldEventType, "annotation_overflow"),
				logging.Int("lines", len(annotations)),
				logging.Int("sentences", len(sentences)),
			)
			break
		}
		for j, ann := range line {
			ev := events.New(i, j, sentences[i].Start, sentences[i].Text, ann.Text, ann.Value, windows[i])
			if ann.Malformed() {
				ev = ev.WithFailure(events.StatusMalformed, services.Wrap(services.ErrDateParse, stageTag, "extract annotation", "", ann.Err))
			}
			out = append(out, ev)
		}
	}
	return out
}

func groupBySentence(evs []events.TemporalEvent, sentences int) [][]events.TemporalEvent {
	grouped := make([][]events.TemporalEvent, sentences)
	for i := range grouped {
		grouped[i] = []events.TemporalEvent{}
	}
	for _, ev := range evs {
		grouped[ev.SentenceIndex] = append(grouped[ev.SentenceIndex], ev)
	}
	return grouped
}

type nopObserver struct{}

func (nopObserver) ObserveEvent(string)                {}
func (nopObserver) ObserveAlignmentFailure()           {}
func (nopObserver) ObserveVideo(string, time.Duration) {}

func (p *Pipeline) observer() Observer {
	if p.deps.Observer == nil {
		return nopObserver{}
	}
	return p.deps.Observer
}
