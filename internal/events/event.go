package events

import (
	"slices"
	"strconv"

	"timelines/internal/dates"
	"timelines/internal/nlp"
)

// Status summarises how far an event got through matching.
type Status string

const (
	StatusPending     Status = "pending"
	StatusMatched     Status = "matched"
	StatusUnmatched   Status = "unmatched"
	StatusUnparseable Status = "unparseable"
	StatusFetchFailed Status = "fetch_failed"
	StatusMalformed   Status = "malformed"
)

// WikiCandidateEvent is one bullet from a year or day page.
type WikiCandidateEvent struct {
	Text     string       `json:"text"`
	Links    []string     `json:"links"`
	Entities []nlp.Entity `json:"entities"`
	Source   string       `json:"source,omitempty"`
}

func (c WikiCandidateEvent) clone() WikiCandidateEvent {
	c.Links = slices.Clone(c.Links)
	c.Entities = cloneEntities(c.Entities)
	return c
}

// MatchResult is the selected candidate plus the diagnostic scores of every
// candidate considered.
type MatchResult struct {
	CandidateIndex int          `json:"candidate_index"`
	Text           string       `json:"text"`
	Links          []string     `json:"links"`
	Entities       []nlp.Entity `json:"entities"`
	Score          float64      `json:"score"`
	ViaItem        bool         `json:"via_item"`
	ItemScores     []float64    `json:"item_scores"`
	WindowScores   []float64    `json:"window_scores"`
}

func (m *MatchResult) clone() *MatchResult {
	if m == nil {
		return nil
	}
	out := *m
	out.Links = slices.Clone(m.Links)
	out.Entities = cloneEntities(m.Entities)
	out.ItemScores = slices.Clone(m.ItemScores)
	out.WindowScores = slices.Clone(m.WindowScores)
	return &out
}

// ResolvedTopic is an article link and its knowledge-base identifier. A nil
// KnowledgeBaseID means the title could not be resolved.
type ResolvedTopic struct {
	Href            string  `json:"href"`
	Title           string  `json:"title"`
	KnowledgeBaseID *string `json:"knowledge_base_id"`
}

// TemporalEvent is a dated mention found in a caption sentence.
type TemporalEvent struct {
	SentenceIndex int                  `json:"sentence_index"`
	EventIndex    int                  `json:"event_index"`
	Start         float64              `json:"start"`
	Sentence      string               `json:"sentence"`
	Text          string               `json:"text"`
	DateTag       string               `json:"date_tag"`
	Date          dates.Expression     `json:"date"`
	Window        ContextWindow        `json:"window"`
	Candidates    []WikiCandidateEvent `json:"candidates,omitempty"`
	Match         *MatchResult         `json:"match,omitempty"`
	ItemScores    []float64            `json:"item_scores,omitempty"`
	WindowScores  []float64            `json:"window_scores,omitempty"`
	Topics        []ResolvedTopic      `json:"topics,omitempty"`
	Status        Status               `json:"status"`
	Failure       string               `json:"failure,omitempty"`
}

// Key identifies the event within its video as "<sentence>.<event>".
func (e TemporalEvent) Key() string {
	return strconv.Itoa(e.SentenceIndex) + "." + strconv.Itoa(e.EventIndex)
}

// Clone returns a deep copy.
func (e TemporalEvent) Clone() TemporalEvent {
	out := e
	out.Date.Months = slices.Clone(e.Date.Months)
	out.Window = e.Window.clone()
	if e.Candidates != nil {
		out.Candidates = make([]WikiCandidateEvent, len(e.Candidates))
		for i, c := range e.Candidates {
			out.Candidates[i] = c.clone()
		}
	}
	out.Match = e.Match.clone()
	out.ItemScores = slices.Clone(e.ItemScores)
	out.WindowScores = slices.Clone(e.WindowScores)
	out.Topics = slices.Clone(e.Topics)
	return out
}

// WithDate returns a copy carrying the parsed date.
func (e TemporalEvent) WithDate(expr dates.Expression) TemporalEvent {
	out := e.Clone()
	out.Date = expr
	out.Date.Months = slices.Clone(expr.Months)
	if !expr.Parseable() {
		out.Status = StatusUnparseable
	}
	return out
}

// WithCandidates returns a copy carrying the fetched candidates.
func (e TemporalEvent) WithCandidates(candidates []WikiCandidateEvent) TemporalEvent {
	out := e.Clone()
	out.Candidates = make([]WikiCandidateEvent, len(candidates))
	for i, c := range candidates {
		out.Candidates[i] = c.clone()
	}
	return out
}

// WithMatch returns a copy carrying the scores and, when match is non-nil,
// the selected candidate.
func (e TemporalEvent) WithMatch(match *MatchResult, itemScores, windowScores []float64) TemporalEvent {
	out := e.Clone()
	out.Match = match.clone()
	out.ItemScores = slices.Clone(itemScores)
	out.WindowScores = slices.Clone(windowScores)
	if match != nil {
		out.Status = StatusMatched
	} else if out.Status == StatusPending {
		out.Status = StatusUnmatched
	}
	return out
}

// WithTopics returns a copy carrying the resolved topics of the match.
func (e TemporalEvent) WithTopics(topics []ResolvedTopic) TemporalEvent {
	out := e.Clone()
	out.Topics = slices.Clone(topics)
	return out
}

// WithFailure returns a copy marked with status and the failure message.
func (e TemporalEvent) WithFailure(status Status, err error) TemporalEvent {
	out := e.Clone()
	out.Status = status
	if err != nil {
		out.Failure = err.Error()
	}
	return out
}

// New builds a pending event for one tagged date inside a sentence.
func New(sentenceIndex, eventIndex int, start float64, sentence, text, tag string, window ContextWindow) TemporalEvent {
	return TemporalEvent{
		SentenceIndex: sentenceIndex,
		EventIndex:    eventIndex,
		Start:         start,
		Sentence:      sentence,
		Text:          text,
		DateTag:       tag,
		Window:        window.clone(),
		Status:        StatusPending,
	}
}
