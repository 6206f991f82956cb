package pipeline

import (
	"context"
	"log/slog"
	"time"

	"timelines/internal/captions"
	"timelines/internal/config"
	"timelines/internal/dates"
	"timelines/internal/events"
	"timelines/internal/logging"
	"timelines/internal/matching"
	"timelines/internal/nlp"
	"timelines/internal/services"
	"timelines/internal/timex"
)

// CandidateSource returns the candidate descriptions for a date.
type CandidateSource interface {
	Fetch(ctx context.Context, expr dates.Expression) ([]events.WikiCandidateEvent, error)
}

// TopicResolver maps article links to knowledge-base identifiers. It may
// return topics together with an error when only part of the batch resolved.
type TopicResolver interface {
	Resolve(ctx context.Context, links []string) ([]events.ResolvedTopic, error)
}

// Observer receives run outcomes. metrics.Recorder implements it.
type Observer interface {
	ObserveEvent(status string)
	ObserveAlignmentFailure()
	ObserveVideo(outcome string, elapsed time.Duration)
}

// Deps are the collaborators of a pipeline. Analyzer, Tagger, Candidates and
// Matcher are required.
type Deps struct {
	Analyzer   nlp.Analyzer
	Tagger     timex.Tagger
	Candidates CandidateSource
	Topics     TopicResolver
	Matcher    *matching.Matcher
	Observer   Observer
	Logger     *slog.Logger
}

// Options bound window size and concurrency.
type Options struct {
	WindowBefore     int
	WindowAfter      int
	EventConcurrency int
	VideoConcurrency int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{WindowBefore: 1, WindowAfter: 1, EventConcurrency: 4, VideoConcurrency: 2}
}

// OptionsFromConfig reads the matching and pipeline sections.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return DefaultOptions()
	}
	return Options{
		WindowBefore:     cfg.Matching.WindowBefore,
		WindowAfter:      cfg.Matching.WindowAfter,
		EventConcurrency: cfg.Pipeline.EventConcurrency,
		VideoConcurrency: cfg.Pipeline.VideoConcurrency,
	}
}

// Video is the input of one run.
type Video struct {
	ID     string
	Source string
	Chunks []captions.TimedTextChunk
}

// Result is the output of one video run. Events is index-aligned with
// Sentences; a sentence without tagged dates has an empty slice.
type Result struct {
	VideoID    string                         `json:"video_id"`
	RunID      string                         `json:"run_id"`
	Source     string                         `json:"source,omitempty"`
	Sentences  []captions.TimestampedSentence `json:"sentences"`
	Events     [][]events.TemporalEvent       `json:"events"`
	StartedAt  time.Time                      `json:"started_at"`
	FinishedAt time.Time                      `json:"finished_at"`
}

// Flatten returns every event in sentence order.
func (r *Result) Flatten() []events.TemporalEvent {
	if r == nil {
		return nil
	}
	var out []events.TemporalEvent
	for _, group := range r.Events {
		out = append(out, group...)
	}
	return out
}

// Counts returns the number of events and how many of them matched.
func (r *Result) Counts() (total, matched int) {
	for _, ev := range r.Flatten() {
		total++
		if ev.Status == events.StatusMatched {
			matched++
		}
	}
	return total, matched
}

// Pipeline wires the collaborators together. It is safe for concurrent use
// when its collaborators are.
type Pipeline struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New validates deps and normalizes opts.
func New(deps Deps, opts Options) (*Pipeline, error) {
	switch {
	case deps.Analyzer == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "nlp analyzer is required", nil)
	case deps.Tagger == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "temporal tagger is required", nil)
	case deps.Candidates == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "candidate source is required", nil)
	case deps.Matcher == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "matcher is required", nil)
	}
	if opts.WindowBefore < 0 {
		opts.WindowBefore = 0
	}
	if opts.WindowAfter < 0 {
		opts.WindowAfter = 0
	}
	if opts.EventConcurrency <= 0 {
		opts.EventConcurrency = 1
	}
	if opts.VideoConcurrency <= 0 {
		opts.VideoConcurrency = 1
	}
	return &Pipeline{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(deps.Logger, "pipeline"),
		now:    time.Now,
	}, nil
}
