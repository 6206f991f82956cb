package topics

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"timelines/internal/events"
	"timelines/internal/logging"
	"timelines/internal/services"
	"timelines/internal/wikipedia"
)

const (
	articlePrefix    = "/wiki/"
	wikibaseProperty = "wikibase_item"
)

// Non-article namespaces that show up in event bullets.
var skippedNamespaces = map[string]struct{}{
	"file": {}, "image": {}, "category": {}, "help": {}, "special": {}, "template": {},
	"wikipedia": {}, "portal": {}, "talk": {}, "user": {}, "draft": {}, "module": {},
	"mediawiki": {},
}

// TitleQuerier resolves a batch of titles.
type TitleQuerier interface {
	QueryTitles(ctx context.Context, titles []string) (*wikipedia.QueryResult, error)
}

// GapObserver is told about every link left without an identifier.
type GapObserver interface {
	ObserveResolutionGap()
}

// Resolver maps article links to knowledge-base identifiers.
type Resolver struct {
	api       TitleQuerier
	batchSize int
	observer  GapObserver
	logger    *slog.Logger
}

// NewResolver builds a resolver issuing at most batchSize titles per query.
// batchSize is clamped to wikipedia.MaxTitlesPerQuery.
func NewResolver(api TitleQuerier, batchSize int, observer GapObserver, logger *slog.Logger) *Resolver {
	if batchSize <= 0 || batchSize > wikipedia.MaxTitlesPerQuery {
		batchSize = wikipedia.MaxTitlesPerQuery
	}
	return &Resolver{
		api:       api,
		batchSize: batchSize,
		observer:  observer,
		logger:    logging.NewComponentLogger(logger, "topics"),
	}
}

// ArticleTitle extracts the article title from a relative link such as
// "/wiki/Barack_Obama#Early_life". Links into other namespaces, external
// links and malformed escapes report false.
func ArticleTitle(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if !strings.HasPrefix(href, articlePrefix) {
		return "", false
	}
	raw := strings.TrimPrefix(href, articlePrefix)
	if i := strings.IndexAny(raw, "#?"); i >= 0 {
		raw = raw[:i]
	}
	title, err := url.PathUnescape(raw)
	if err != nil {
		return "", false
	}
	title = strings.TrimSpace(strings.ReplaceAll(title, "_", " "))
	if title == "" {
		return "", false
	}
	if ns, _, found := strings.Cut(title, ":"); found {
		if _, skip := skippedNamespaces[strings.ToLower(strings.TrimSpace(ns))]; skip {
			return "", false
		}
	}
	return title, true
}

// Resolve returns one ResolvedTopic per article link in links, in order and
// with duplicates kept. Titles that cannot be resolved get a nil identifier.
// A failed query leaves its titles unresolved and is reported in the
// returned error, which matches services.ErrResolution; the topics are
// returned regardless.
func (r *Resolver) Resolve(ctx context.Context, links []string) ([]events.ResolvedTopic, error) {
	topics := make([]events.ResolvedTopic, 0, len(links))
	var distinct []string
	seen := make(map[string]struct{})
	for _, href := range links {
		title, ok := ArticleTitle(href)
		if !ok {
			continue
		}
		topics = append(topics, events.ResolvedTopic{Href: href, Title: title})
		if _, dup := seen[title]; !dup {
			seen[title] = struct{}{}
			distinct = append(distinct, title)
		}
	}
	if len(distinct) == 0 {
		return topics, nil
	}

	ids := make(map[string]string, len(distinct))
	var errs []error
	for start := 0; start < len(distinct); start += r.batchSize {
		batch := distinct[start:min(start+r.batchSize, len(distinct))]
		result, err := r.api.QueryTitles(ctx, batch)
		if err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, r.logger), "title resolution query failed", "title_query_failed",
				logging.Int("titles", len(batch)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "topics left without identifiers"),
			)
			errs = append(errs, err)
			continue
		}
		for _, title := range batch {
			if id, ok := Lookup(result, title); ok {
				ids[title] = id
			}
		}
	}

	for i := range topics {
		if id, ok := ids[topics[i].Title]; ok {
			topics[i].KnowledgeBaseID = &id
			continue
		}
		if r.observer != nil {
			r.observer.ObserveResolutionGap()
		}
	}
	if len(errs) > 0 {
		return topics, services.Wrap(services.ErrResolution, "topics", "resolve", "", errors.Join(errs...))
	}
	return topics, nil
}

// Lookup follows title through the normalization and redirect tables of
// result to a page and returns its knowledge-base identifier. Chains of
// either table are followed; a cycle or a missing page reports false.
func Lookup(result *wikipedia.QueryResult, title string) (string, bool) {
	if result == nil {
		return "", false
	}
	normalized := mapping(result.Normalized)
	redirects := mapping(result.Redirects)

	current := title
	visited := map[string]struct{}{}
	for {
		if page, ok := result.Pages[current]; ok {
			if page.Missing {
				return "", false
			}
			id := strings.TrimSpace(page.PageProps[wikibaseProperty])
			return id, id != ""
		}
		if _, loop := visited[current]; loop {
			return "", false
		}
		visited[current] = struct{}{}
		if next, ok := normalized[current]; ok {
			current = next
			continue
		}
		if next, ok := redirects[current]; ok {
			current = next
			continue
		}
		return "", false
	}
}

func mapping(entries []wikipedia.TitleMapping) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.From] = e.To
	}
	return out
}
