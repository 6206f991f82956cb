package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"timelines/internal/dates"
	"timelines/internal/events"
	"timelines/internal/logging"
	"timelines/internal/services"
)

// processEvents runs fetch, match and resolve for every event with at most
// EventConcurrency in flight. Per-event failures are recorded on the event;
// only cancellation of ctx is returned.
func (p *Pipeline) processEvents(ctx context.Context, pending []events.TemporalEvent) ([]events.TemporalEvent, error) {
	out := make([]events.TemporalEvent, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.EventConcurrency)
	for i, ev := range pending {
		g.Go(func() error {
			out[i] = p.processEvent(services.WithEvent(gctx, ev.Key()), ev)
			p.observer().ObserveEvent(string(out[i].Status))
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) processEvent(ctx context.Context, ev events.TemporalEvent) events.TemporalEvent {
	logger := logging.WithContext(ctx, p.logger)
	if ev.Status != events.StatusPending {
		logger.Debug("event skipped",
			logging.String(logging.FieldEventType, "event_skipped"),
			logging.String("status", string(ev.Status)),
			logging.String("reason", ev.Failure),
		)
		return ev
	}

	expr := dates.Parse(ev.DateTag)
	ev = ev.WithDate(expr)
	if !expr.Parseable() {
		reason := "unrecognized date tag"
		if dates.IsUnresolved(ev.DateTag) {
			reason = "unresolved date reference"
		}
		logger.Debug("event date not matchable",
			logging.String(logging.FieldEventType, "date_unparseable"),
			logging.String("date_tag", ev.DateTag),
			logging.String("reason", reason),
		)
		return ev.WithFailure(events.StatusUnparseable, services.Wrap(services.ErrDateParse, stageMatch, "parse date", reason+" "+ev.DateTag, nil))
	}

	candidates, err := p.deps.Candidates.Fetch(ctx, expr)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ev.WithFailure(events.StatusFetchFailed, err)
		}
		logging.WarnWithContext(logger, "candidate fetch failed", "candidate_fetch_failed",
			logging.String("date", expr.String()),
			logging.String("error_kind", services.Kind(err)),
			logging.String(logging.FieldImpact, "event left without candidates"),
			logging.String(logging.FieldErrorHint, "check wikipedia connectivity and rate limits"),
			logging.Error(err),
		)
		return ev.WithCandidates(nil).WithFailure(events.StatusFetchFailed, err)
	}
	ev = ev.WithCandidates(candidates)

	outcome := p.deps.Matcher.Match(ev.Window, ev.Candidates)
	ev = ev.WithMatch(outcome.Match, outcome.ItemScores, outcome.WindowScores)
	if outcome.Match == nil {
		logger.Debug("no candidate qualified",
			logging.String(logging.FieldEventType, "event_unmatched"),
			logging.Int("candidates", len(candidates)),
		)
		return ev
	}
	logger.Debug("event matched",
		logging.String(logging.FieldEventType, "event_matched"),
		logging.Int("candidate_index", outcome.Match.CandidateIndex),
		logging.Float64("score", outcome.Match.Score),
		logging.Bool("via_item", outcome.Match.ViaItem),
	)

	if p.deps.Topics == nil || len(outcome.Match.Links) == 0 {
		return ev
	}
	topics, err := p.deps.Topics.Resolve(ctx, outcome.Match.Links)
	if err != nil {
		logging.WarnWithContext(logger, "topic resolution incomplete", "topic_resolution_failed",
			logging.String(logging.FieldImpact, "topics carry no knowledge-base identifier"),
			logging.Error(err),
		)
	}
	return ev.WithTopics(topics)
}
