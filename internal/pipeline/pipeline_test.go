package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"timelines/internal/captions"
	"timelines/internal/dates"
	"timelines/internal/events"
	"timelines/internal/matching"
	"timelines/internal/nlp"
	"timelines/internal/pipeline"
	"timelines/internal/services"
	"timelines/internal/timex"
)

var moonChunks = []captions.TimedTextChunk{
	{Start: 0, Text: "In 1969 Neil Armstrong"},
	{Start: 2.5, Text: "walked on the Moon. Later in"},
	{Start: 5, Text: "1989 the Berlin Wall fell."},
}

func moonAnalyzer() nlp.Analyzer {
	return nlp.AnalyzerFunc(func(_ context.Context, text string) ([]nlp.Sentence, error) {
		if !strings.Contains(text, "Berlin Wall") {
			return nil, errors.New("unexpected text")
		}
		return []nlp.Sentence{
			{Text: "In 1969 Neil Armstrong walked on the Moon.", Entities: []nlp.Entity{
				{Text: "1969", Type: "DATE"},
				{Text: "Neil Armstrong", Type: "PERSON"},
				{Text: "Moon", Type: "LOC"},
			}},
			{Text: "Later in 1989 the Berlin Wall fell.", Entities: []nlp.Entity{
				{Text: "1989", Type: "DATE"},
				{Text: "Berlin Wall", Type: "FAC"},
			}},
		}, nil
	})
}

type stubTagger struct {
	lines [][]timex.Annotation
	err   error
	seen  []string
}

func (s *stubTagger) Tag(_ context.Context, sentences []string) ([][]timex.Annotation, error) {
	s.seen = append([]string(nil), sentences...)
	return s.lines, s.err
}

type stubCandidates struct {
	byDate   map[string][]events.WikiCandidateEvent
	failures map[string]error
	delay    time.Duration
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *stubCandidates) Fetch(ctx context.Context, expr dates.Expression) ([]events.WikiCandidateEvent, error) {
	s.calls.Add(1)
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if current <= peak || s.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := s.failures[expr.String()]; ok {
		return nil, err
	}
	return s.byDate[expr.String()], nil
}

type stubTopics struct{}

func (stubTopics) Resolve(_ context.Context, links []string) ([]events.ResolvedTopic, error) {
	out := make([]events.ResolvedTopic, 0, len(links))
	for _, link := range links {
		id := "Q-" + strings.TrimPrefix(link, "/wiki/")
		out = append(out, events.ResolvedTopic{Href: link, Title: strings.TrimPrefix(link, "/wiki/"), KnowledgeBaseID: &id})
	}
	return out, nil
}

type recordingObserver struct {
	mu         sync.Mutex
	statuses   map[string]int
	alignments int
	videos     map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{statuses: map[string]int{}, videos: map[string]int{}}
}

func (o *recordingObserver) ObserveEvent(status string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses[status]++
}

func (o *recordingObserver) ObserveAlignmentFailure() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.alignments++
}

func (o *recordingObserver) ObserveVideo(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.videos[outcome]++
}

func moonCandidates() *stubCandidates {
	return &stubCandidates{
		byDate: map[string][]events.WikiCandidateEvent{
			"1969-07": {
				{
					Text:     "Apollo 11: Neil Armstrong walks on the Moon",
					Links:    []string{"/wiki/Apollo_11", "/wiki/Neil_Armstrong", "/wiki/Moon"},
					Entities: []nlp.Entity{{Text: "Neil Armstrong", Type: "PERSON"}, {Text: "Moon", Type: "LOC"}},
				},
				{
					Text:     "Woodstock opens",
					Links:    []string{"/wiki/Woodstock"},
					Entities: []nlp.Entity{{Text: "Woodstock", Type: "EVENT"}},
				},
			},
		},
		failures: map[string]error{
			"1989-11-09": services.Wrap(services.ErrFetch, "wikipedia", "fetch year page", "1989", errors.New("503")),
		},
	}
}

func newPipeline(t *testing.T, deps pipeline.Deps, opts pipeline.Options) *pipeline.Pipeline {
	t.Helper()
	if deps.Matcher == nil {
		deps.Matcher = matching.NewMatcher(matching.DefaultConfig())
	}
	p, err := pipeline.New(deps, opts)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return p
}

func TestRunMatchesAndDegradesPerEvent(t *testing.T) {
	tagger := &stubTagger{lines: [][]timex.Annotation{
		{{Value: "1969-07", Text: "1969"}},
		{{Value: "1989-11-09", Text: "1989"}, {Value: "PRESENT_REF", Text: "later"}},
	}}
	candidates := moonCandidates()
	observer := newRecordingObserver()
	p := newPipeline(t, pipeline.Deps{
		Analyzer:   moonAnalyzer(),
		Tagger:     tagger,
		Candidates: candidates,
		Topics:     stubTopics{},
		Observer:   observer,
	}, pipeline.DefaultOptions())

	result, err := p.Run(context.Background(), pipeline.Video{ID: "moon", Source: "moon.srt", Chunks: moonChunks})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.RunID == "" || result.VideoID != "moon" {
		t.Fatalf("unexpected identity %q/%q", result.VideoID, result.RunID)
	}
	if len(result.Sentences) != 2 || result.Sentences[0].Start != 0 || result.Sentences[1].Start != 2.5 {
		t.Fatalf("unexpected sentences %+v", result.Sentences)
	}
	if len(tagger.seen) != 2 || tagger.seen[1] != "Later in 1989 the Berlin Wall fell." {
		t.Fatalf("tagger saw %q", tagger.seen)
	}
	if len(result.Events) != 2 || len(result.Events[0]) != 1 || len(result.Events[1]) != 2 {
		t.Fatalf("unexpected event grouping %+v", result.Events)
	}

	moon := result.Events[0][0]
	if moon.Status != events.StatusMatched || moon.Match == nil {
		t.Fatalf("expected moon event matched, got %s (%s)", moon.Status, moon.Failure)
	}
	if moon.Match.CandidateIndex != 0 || moon.Match.Score != 1 || !moon.Match.ViaItem {
		t.Fatalf("unexpected match %+v", moon.Match)
	}
	if len(moon.ItemScores) != 2 || len(moon.WindowScores) != 2 {
		t.Fatalf("scores not reported for every candidate: %v %v", moon.ItemScores, moon.WindowScores)
	}
	if len(moon.Topics) != 3 || moon.Topics[1].KnowledgeBaseID == nil || *moon.Topics[1].KnowledgeBaseID != "Q-Neil_Armstrong" {
		t.Fatalf("unexpected topics %+v", moon.Topics)
	}
	if len(moon.Window.After) != 2 || len(moon.Window.Before) != 0 {
		t.Fatalf("unexpected window %+v", moon.Window)
	}

	wall := result.Events[1][0]
	if wall.Status != events.StatusFetchFailed || !strings.Contains(wall.Failure, "503") {
		t.Fatalf("expected fetch failure, got %s (%s)", wall.Status, wall.Failure)
	}
	if wall.Date.Kind != dates.KindFull || wall.Start != 2.5 {
		t.Fatalf("unexpected wall event %+v", wall)
	}
	present := result.Events[1][1]
	if present.Status != events.StatusUnparseable || present.EventIndex != 1 {
		t.Fatalf("expected unparseable sentinel, got %+v", present)
	}
	if got := candidates.calls.Load(); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}

	total, matched := result.Counts()
	if total != 3 || matched != 1 {
		t.Fatalf("counts = %d/%d, want 3/1", total, matched)
	}
	if observer.statuses["matched"] != 1 || observer.statuses["fetch_failed"] != 1 || observer.statuses["unparseable"] != 1 {
		t.Fatalf("unexpected observed statuses %v", observer.statuses)
	}
	if observer.videos["ok"] != 1 {
		t.Fatalf("unexpected observed videos %v", observer.videos)
	}
}

func TestRunMarksMalformedAndIgnoresExtraLines(t *testing.T) {
	tagger := &stubTagger{lines: [][]timex.Annotation{
		{{Err: services.ErrMalformedAnnotation}},
		{},
		{{Value: "2001-09-11", Text: "extra"}},
	}}
	candidates := moonCandidates()
	p := newPipeline(t, pipeline.Deps{Analyzer: moonAnalyzer(), Tagger: tagger, Candidates: candidates}, pipeline.DefaultOptions())

	result, err := p.Run(context.Background(), pipeline.Video{ID: "moon", Chunks: moonChunks})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	flat := result.Flatten()
	if len(flat) != 1 {
		t.Fatalf("expected one event, got %d", len(flat))
	}
	if flat[0].Status != events.StatusMalformed || !strings.Contains(flat[0].Failure, "malformed") {
		t.Fatalf("unexpected event %+v", flat[0])
	}
	if candidates.calls.Load() != 0 {
		t.Fatal("malformed events must not be fetched")
	}
	if len(result.Events[1]) != 0 || result.Events[1] == nil {
		t.Fatalf("sentence without events should have an empty slice, got %#v", result.Events[1])
	}
}

func TestRunUnmatchedKeepsScores(t *testing.T) {
	tagger := &stubTagger{lines: [][]timex.Annotation{{}, {{Value: "1989-11", Text: "1989"}}}}
	candidates := &stubCandidates{byDate: map[string][]events.WikiCandidateEvent{
		"1989-11": {{Text: "Unrelated", Entities: []nlp.Entity{{Text: "Prague", Type: "GPE"}}}},
	}}
	p := newPipeline(t, pipeline.Deps{Analyzer: moonAnalyzer(), Tagger: tagger, Candidates: candidates, Topics: stubTopics{}}, pipeline.DefaultOptions())

	result, err := p.Run(context.Background(), pipeline.Video{ID: "moon", Chunks: moonChunks})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	ev := result.Events[1][0]
	if ev.Status != events.StatusUnmatched || ev.Match != nil || ev.Topics != nil {
		t.Fatalf("expected unmatched event, got %+v", ev)
	}
	if len(ev.ItemScores) != 1 || ev.ItemScores[0] != 0 {
		t.Fatalf("expected diagnostic scores, got %v", ev.ItemScores)
	}
}

func TestRunFatalErrors(t *testing.T) {
	tests := []struct {
		name     string
		analyzer nlp.Analyzer
		tagger   *stubTagger
		marker   error
	}{
		{
			name: "alignment mismatch",
			analyzer: nlp.AnalyzerFunc(func(context.Context, string) ([]nlp.Sentence, error) {
				return []nlp.Sentence{{Text: "Something else entirely."}}, nil
			}),
			tagger: &stubTagger{},
			marker: services.ErrAlignment,
		},
		{
			name:     "tagger failure",
			analyzer: moonAnalyzer(),
			tagger:   &stubTagger{err: services.Wrap(services.ErrExternalTool, "timex", "run heideltime", "", errors.New("exit status 1"))},
			marker:   services.ErrExternalTool,
		},
		{
			name: "analyzer failure",
			analyzer: nlp.AnalyzerFunc(func(context.Context, string) ([]nlp.Sentence, error) {
				return nil, errors.New("model missing")
			}),
			tagger: &stubTagger{},
			marker: services.ErrExternalTool,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := newRecordingObserver()
			p := newPipeline(t, pipeline.Deps{Analyzer: tt.analyzer, Tagger: tt.tagger, Candidates: moonCandidates(), Observer: observer}, pipeline.DefaultOptions())
			result, err := p.Run(context.Background(), pipeline.Video{ID: "moon", Chunks: moonChunks})
			if err == nil || result != nil {
				t.Fatalf("expected failure, got %+v", result)
			}
			if !errors.Is(err, tt.marker) {
				t.Fatalf("error %v does not carry %v", err, tt.marker)
			}
			if !services.IsFatal(err) {
				t.Fatalf("expected fatal error, got %v", err)
			}
			if observer.videos["failed"] != 1 {
				t.Fatalf("unexpected observed videos %v", observer.videos)
			}
			wantAlignments := 0
			if errors.Is(tt.marker, services.ErrAlignment) {
				wantAlignments = 1
			}
			if observer.alignments != wantAlignments {
				t.Fatalf("alignment failures = %d, want %d", observer.alignments, wantAlignments)
			}
		})
	}
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	analyzer := nlp.AnalyzerFunc(func(ctx context.Context, text string) ([]nlp.Sentence, error) {
		if strings.HasPrefix(text, "broken") {
			return []nlp.Sentence{{Text: "mismatch"}}, nil
		}
		return moonAnalyzer().Analyze(ctx, text)
	})
	p := newPipeline(t, pipeline.Deps{
		Analyzer:   analyzer,
		Tagger:     &stubTagger{lines: [][]timex.Annotation{{{Value: "1969-07", Text: "1969"}}}},
		Candidates: moonCandidates(),
	}, pipeline.Options{VideoConcurrency: 2, EventConcurrency: 2, WindowBefore: 1, WindowAfter: 1})

	outcomes := p.RunBatch(context.Background(), []pipeline.Video{
		{ID: "broken", Chunks: []captions.TimedTextChunk{{Text: "broken captions"}}},
		{ID: "moon", Chunks: moonChunks},
		{ID: ""},
	})
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].VideoID != "broken" || !errors.Is(outcomes[0].Err, services.ErrAlignment) {
		t.Fatalf("unexpected first outcome %+v", outcomes[0])
	}
	if outcomes[1].Err != nil || outcomes[1].Result == nil {
		t.Fatalf("unexpected second outcome %+v", outcomes[1])
	}
	if _, matched := outcomes[1].Result.Counts(); matched != 1 {
		t.Fatalf("expected one match, got %d", matched)
	}
	if !errors.Is(outcomes[2].Err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing id, got %v", outcomes[2].Err)
	}
}

func TestEventConcurrencyIsCapped(t *testing.T) {
	line := make([]timex.Annotation, 6)
	for i := range line {
		line[i] = timex.Annotation{Value: "2001-05", Text: "May 2001"}
	}
	candidates := &stubCandidates{delay: 20 * time.Millisecond}
	p := newPipeline(t, pipeline.Deps{
		Analyzer:   moonAnalyzer(),
		Tagger:     &stubTagger{lines: [][]timex.Annotation{line}},
		Candidates: candidates,
	}, pipeline.Options{EventConcurrency: 2, VideoConcurrency: 1, WindowBefore: 1, WindowAfter: 1})

	result, err := p.Run(context.Background(), pipeline.Video{ID: "moon", Chunks: moonChunks})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := len(result.Events[0]); got != 6 {
		t.Fatalf("expected 6 events, got %d", got)
	}
	if peak := candidates.peak.Load(); peak > 2 || peak == 0 {
		t.Fatalf("peak concurrent fetches = %d, want 1..2", peak)
	}
	for i, ev := range result.Events[0] {
		if ev.EventIndex != i || ev.Status != events.StatusUnmatched {
			t.Fatalf("event %d out of place or wrong status: %+v", i, ev)
		}
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newPipeline(t, pipeline.Deps{
		Analyzer:   moonAnalyzer(),
		Tagger:     &stubTagger{lines: [][]timex.Annotation{{{Value: "1969-07", Text: "1969"}}}},
		Candidates: &stubCandidates{delay: time.Second},
	}, pipeline.DefaultOptions())

	if _, err := p.Run(ctx, pipeline.Video{ID: "moon", Chunks: moonChunks}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	full := pipeline.Deps{
		Analyzer:   moonAnalyzer(),
		Tagger:     &stubTagger{},
		Candidates: moonCandidates(),
		Matcher:    matching.NewMatcher(matching.DefaultConfig()),
	}
	tests := []struct {
		name   string
		mutate func(*pipeline.Deps)
	}{
		{"analyzer", func(d *pipeline.Deps) { d.Analyzer = nil }},
		{"tagger", func(d *pipeline.Deps) { d.Tagger = nil }},
		{"candidates", func(d *pipeline.Deps) { d.Candidates = nil }},
		{"matcher", func(d *pipeline.Deps) { d.Matcher = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := full
			tt.mutate(&deps)
			if _, err := pipeline.New(deps, pipeline.DefaultOptions()); !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}
