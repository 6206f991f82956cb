package wikipedia

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"timelines/internal/dates"
	"timelines/internal/events"
	"timelines/internal/logging"
	"timelines/internal/nlp"
	"timelines/internal/services"
)

// PageFetcher returns the HTML of an article by title.
type PageFetcher interface {
	FetchPage(ctx context.Context, title string) (string, error)
}

// CandidateFetcher gathers candidate event descriptions for a date.
type CandidateFetcher struct {
	pages    PageFetcher
	analyzer nlp.Analyzer
	logger   *slog.Logger
}

// NewCandidateFetcher wires a fetcher. analyzer may be nil, in which case
// candidates carry no entities.
func NewCandidateFetcher(pages PageFetcher, analyzer nlp.Analyzer, logger *slog.Logger) *CandidateFetcher {
	return &CandidateFetcher{
		pages:    pages,
		analyzer: analyzer,
		logger:   logging.NewComponentLogger(logger, "candidates"),
	}
}

// DayPageTitle returns the day page title for a full date, such as
// "March_5" for 2011-03-05.
func DayPageTitle(expr dates.Expression) (string, bool) {
	if !expr.HasDay() {
		return "", false
	}
	month, ok := dates.MonthName(expr.Month)
	if !ok {
		return "", false
	}
	day, ok := dates.DayNumber(expr.Day)
	if !ok {
		return "", false
	}
	return month + "_" + day, true
}

// Fetch returns the candidates for expr: bullets under each candidate month
// of the year page, then the day page bullet for full dates. An unparseable
// expression yields no candidates and no requests. Failing to fetch the year
// page returns an error matching services.ErrFetch; every other problem is
// logged and skipped.
func (f *CandidateFetcher) Fetch(ctx context.Context, expr dates.Expression) ([]events.WikiCandidateEvent, error) {
	if !expr.Parseable() || strings.TrimSpace(expr.Year) == "" {
		return nil, nil
	}
	logger := logging.WithContext(ctx, f.logger)

	var yearHTML, dayHTML string
	dayTitle, wantDay := DayPageTitle(expr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		html, err := f.pages.FetchPage(gctx, expr.Year)
		if err != nil {
			return err
		}
		yearHTML = html
		return nil
	})
	if wantDay {
		g.Go(func() error {
			html, err := f.pages.FetchPage(gctx, dayTitle)
			if err != nil {
				logging.WarnWithContext(logger, "day page fetch failed", "day_page_failed",
					logging.String("title", dayTitle),
					logging.Error(err),
					logging.String(logging.FieldImpact, "no day page addendum for this event"),
				)
				return nil
			}
			dayHTML = html
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, services.Wrap(services.ErrFetch, "candidates", "fetch year page", expr.Year, err)
	}

	yearDoc, err := ParseDocument(strings.NewReader(yearHTML))
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "candidates", "parse year page", expr.Year, err)
	}

	var candidates []events.WikiCandidateEvent
	for _, month := range expr.CandidateMonths() {
		name, ok := dates.MonthName(month)
		if !ok {
			logging.WarnWithContext(logger, "invalid month in date", "invalid_month",
				logging.String("month", month),
				logging.String("date", expr.String()),
			)
			continue
		}
		found, ok := MonthEvents(yearDoc, name)
		if !ok {
			logging.WarnWithContext(logger, "month section missing from year page", "month_anchor_missing",
				logging.String("year", expr.Year),
				logging.String("month", name),
				logging.String(logging.FieldImpact, "month skipped"),
			)
			continue
		}
		candidates = append(candidates, found...)
	}

	if dayHTML != "" {
		if candidate, ok := f.dayCandidate(dayHTML, expr.Year); ok {
			candidates = append(candidates, candidate)
		} else {
			logger.Debug("no day page bullet for year",
				logging.String("title", dayTitle),
				logging.String("year", expr.Year),
			)
		}
	}

	return f.annotate(ctx, logger, candidates), nil
}

func (f *CandidateFetcher) dayCandidate(html, year string) (events.WikiCandidateEvent, bool) {
	doc, err := ParseDocument(strings.NewReader(html))
	if err != nil {
		return events.WikiCandidateEvent{}, false
	}
	return DayEvent(doc, year)
}

// annotate strips citations from each candidate and fills its entities. An
// analyzer failure leaves that candidate with no entities.
func (f *CandidateFetcher) annotate(ctx context.Context, logger *slog.Logger, candidates []events.WikiCandidateEvent) []events.WikiCandidateEvent {
	out := make([]events.WikiCandidateEvent, len(candidates))
	for i, c := range candidates {
		c.Text = StripCitations(c.Text)
		c.Entities = []nlp.Entity{}
		if f.analyzer != nil && c.Text != "" {
			sentences, err := f.analyzer.Analyze(ctx, c.Text)
			if err != nil {
				logging.WarnWithContext(logger, "entity extraction failed for candidate", "candidate_nlp_failed",
					logging.Int("candidate", i),
					logging.Error(err),
					logging.String(logging.FieldImpact, "candidate scored with no entities"),
				)
			} else if entities := nlp.Flatten(sentences); entities != nil {
				c.Entities = entities
			}
		}
		out[i] = c
	}
	return out
}
