package matching

import (
	"slices"
	"strings"

	"timelines/internal/events"
	"timelines/internal/textutil"
)

const (
	DefaultItemThreshold   = 0.25
	DefaultWindowThreshold = 0.18
)

// DefaultIgnoredTypes are entity types too generic to identify an event.
func DefaultIgnoredTypes() []string {
	return []string{"CARDINAL", "DATE", "LANGUAGE", "MONEY", "ORDINAL", "PERCENT", "QUANTITY", "TIME"}
}

// Config holds the thresholds and entity type blacklist.
type Config struct {
	ItemThreshold   float64
	WindowThreshold float64
	IgnoredTypes    []string
}

// DefaultConfig returns the standard thresholds and blacklist.
func DefaultConfig() Config {
	return Config{
		ItemThreshold:   DefaultItemThreshold,
		WindowThreshold: DefaultWindowThreshold,
		IgnoredTypes:    DefaultIgnoredTypes(),
	}
}

// Scored is a candidate index that passed a threshold.
type Scored struct {
	Index   int
	Score   float64
	ViaItem bool
}

// Outcome is the result of matching one event. Match is nil when no
// candidate qualified; the score slices are always index-aligned with the
// candidates.
type Outcome struct {
	Match        *events.MatchResult
	ItemScores   []float64
	WindowScores []float64
	Qualified    []Scored
}

// Matcher selects the best candidate for an event window. It holds no
// mutable state and is safe for concurrent use.
type Matcher struct {
	cfg     Config
	ignored map[string]struct{}
}

// NewMatcher builds a matcher. A nil IgnoredTypes uses the default
// blacklist; an empty non-nil slice disables filtering.
func NewMatcher(cfg Config) *Matcher {
	types := cfg.IgnoredTypes
	if types == nil {
		types = DefaultIgnoredTypes()
	}
	ignored := make(map[string]struct{}, len(types))
	for _, t := range types {
		ignored[strings.ToUpper(strings.TrimSpace(t))] = struct{}{}
	}
	return &Matcher{cfg: cfg, ignored: ignored}
}

// Match scores every candidate against window and selects the winner.
func (m *Matcher) Match(window events.ContextWindow, candidates []events.WikiCandidateEvent) Outcome {
	itemSet := EntitySet(window.Item, m.ignored)
	windowSet := EntitySet(window.All(), m.ignored)

	out := Outcome{
		ItemScores:   make([]float64, len(candidates)),
		WindowScores: make([]float64, len(candidates)),
	}
	var itemHits, windowHits []Scored
	for i, candidate := range candidates {
		candidateSet := EntitySet(candidate.Entities, m.ignored)
		itemScore := textutil.Jaccard(itemSet, candidateSet)
		windowScore := textutil.Jaccard(windowSet, candidateSet)
		out.ItemScores[i] = itemScore
		out.WindowScores[i] = windowScore
		if itemScore >= m.cfg.ItemThreshold {
			itemHits = append(itemHits, Scored{Index: i, Score: itemScore, ViaItem: true})
		}
		if windowScore >= m.cfg.WindowThreshold {
			windowHits = append(windowHits, Scored{Index: i, Score: windowScore})
		}
	}

	out.Qualified = Merge(itemHits, windowHits)
	best, ok := Select(out.Qualified)
	if !ok {
		return out
	}
	winner := candidates[best.Index]
	out.Match = &events.MatchResult{
		CandidateIndex: best.Index,
		Text:           winner.Text,
		Links:          slices.Clone(winner.Links),
		Entities:       slices.Clone(winner.Entities),
		Score:          best.Score,
		ViaItem:        best.ViaItem,
		ItemScores:     slices.Clone(out.ItemScores),
		WindowScores:   slices.Clone(out.WindowScores),
	}
	return out
}

// Merge unions two ascending, duplicate-free index lists into one ascending
// list in which every index appears once. When both lists hold the same
// index the item entry is kept.
func Merge(item, window []Scored) []Scored {
	merged := make([]Scored, 0, len(item)+len(window))
	i, w := 0, 0
	for i < len(item) && w < len(window) {
		switch {
		case item[i].Index < window[w].Index:
			merged = append(merged, item[i])
			i++
		case item[i].Index == window[w].Index:
			merged = append(merged, item[i])
			i++
			w++
		default:
			merged = append(merged, window[w])
			w++
		}
	}
	merged = append(merged, item[i:]...)
	merged = append(merged, window[w:]...)
	return merged
}

// Select returns the highest scoring entry. Ties prefer item-qualified
// entries, then the lower index.
func Select(merged []Scored) (Scored, bool) {
	if len(merged) == 0 {
		return Scored{}, false
	}
	best := merged[0]
	for _, s := range merged[1:] {
		if better(s, best) {
			best = s
		}
	}
	return best, true
}

func better(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.ViaItem != b.ViaItem {
		return a.ViaItem
	}
	return a.Index < b.Index
}
