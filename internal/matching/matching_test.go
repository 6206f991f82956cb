package matching

import (
	"math"
	"reflect"
	"testing"

	"timelines/internal/events"
	"timelines/internal/nlp"
)

func e(text, typ string) nlp.Entity { return nlp.Entity{Text: text, Type: typ} }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []nlp.Entity
		want float64
	}{
		{"empty left", nil, []nlp.Entity{e("a", "PERSON")}, 0},
		{"empty right", []nlp.Entity{e("a", "PERSON")}, nil, 0},
		{"both empty", nil, nil, 0},
		{"half overlap", []nlp.Entity{e("a", "PERSON")}, []nlp.Entity{e("a", "PERSON"), e("b", "GPE")}, 0.5},
		{"type matters", []nlp.Entity{e("a", "PERSON")}, []nlp.Entity{e("a", "ORG")}, 0},
		{"duplicates collapse", []nlp.Entity{e("a", "PERSON"), e("a", "PERSON")}, []nlp.Entity{e("a", "PERSON")}, 1},
		{"unicode normalized", []nlp.Entity{e("Mu\u0308ller", "PERSON")}, []nlp.Entity{e("M\u00fcller", "PERSON")}, 1},
		{"whitespace collapsed", []nlp.Entity{e("New  York", "GPE")}, []nlp.Entity{e("New York", "GPE")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); !near(got, tt.want) {
				t.Fatalf("Similarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	item := []Scored{{Index: 2, Score: 0.30, ViaItem: true}}
	window := []Scored{{Index: 1, Score: 0.20}, {Index: 2, Score: 0.30}}
	got := Merge(item, window)
	want := []Scored{{Index: 1, Score: 0.20}, {Index: 2, Score: 0.30, ViaItem: true}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge = %+v, want %+v", got, want)
	}

	tests := []struct {
		name         string
		item, window []Scored
		wantIndexes  []int
	}{
		{"both empty", nil, nil, []int{}},
		{"item only", []Scored{{Index: 0}, {Index: 3}}, nil, []int{0, 3}},
		{"window only", nil, []Scored{{Index: 4}}, []int{4}},
		{"interleaved", []Scored{{Index: 1}, {Index: 5}}, []Scored{{Index: 0}, {Index: 1}, {Index: 7}}, []int{0, 1, 5, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := Merge(tt.item, tt.window)
			indexes := make([]int, len(merged))
			for i, s := range merged {
				indexes[i] = s.Index
			}
			if !reflect.DeepEqual(indexes, tt.wantIndexes) {
				t.Fatalf("indexes = %v, want %v", indexes, tt.wantIndexes)
			}
		})
	}
}

func TestSelectTieBreaks(t *testing.T) {
	tests := []struct {
		name   string
		merged []Scored
		want   Scored
		ok     bool
	}{
		{"empty", nil, Scored{}, false},
		{"highest wins", []Scored{{Index: 1, Score: 0.19}, {Index: 2, Score: 0.30, ViaItem: true}}, Scored{Index: 2, Score: 0.30, ViaItem: true}, true},
		{"item preferred on tie", []Scored{{Index: 0, Score: 0.4}, {Index: 3, Score: 0.4, ViaItem: true}}, Scored{Index: 3, Score: 0.4, ViaItem: true}, true},
		{"lower index on full tie", []Scored{{Index: 1, Score: 0.4, ViaItem: true}, {Index: 4, Score: 0.4, ViaItem: true}}, Scored{Index: 1, Score: 0.4, ViaItem: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Select(tt.merged)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("Select = %+v, %v; want %+v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMatchPrefersItemQualifiedCandidate(t *testing.T) {
	// Item entities: A..C. Window adds D..J from the neighbours.
	window := events.ContextWindow{
		Item:   []nlp.Entity{e("A", "PERSON"), e("B", "PERSON"), e("C", "GPE")},
		Before: []nlp.Entity{e("D", "ORG"), e("E", "ORG"), e("F", "ORG")},
		After:  []nlp.Entity{e("G", "GPE"), e("H", "GPE"), e("I", "GPE"), e("J", "GPE")},
	}
	candidates := []events.WikiCandidateEvent{
		{Text: "unrelated", Entities: []nlp.Entity{e("Z", "PERSON")}},
		// Shares D,E with the window only: item 0, window 2/11.
		{Text: "neighbour match", Entities: []nlp.Entity{e("D", "ORG"), e("E", "ORG"), e("Y", "ORG")}, Links: []string{"/wiki/D"}},
		// Shares A,B with the item: item 2/4 = 0.5.
		{Text: "item match", Entities: []nlp.Entity{e("A", "PERSON"), e("B", "PERSON"), e("X", "GPE")}, Links: []string{"/wiki/A", "/wiki/B"}},
	}

	out := NewMatcher(DefaultConfig()).Match(window, candidates)
	if out.Match == nil {
		t.Fatal("expected a match")
	}
	if out.Match.CandidateIndex != 2 || !out.Match.ViaItem {
		t.Fatalf("match = %+v", out.Match)
	}
	if !near(out.Match.Score, 0.5) {
		t.Fatalf("score = %v, want 0.5", out.Match.Score)
	}
	if !near(out.WindowScores[1], 2.0/11.0) || out.ItemScores[1] != 0 {
		t.Fatalf("candidate 1 scores = %v / %v", out.ItemScores[1], out.WindowScores[1])
	}
	if len(out.Qualified) != 2 || out.Qualified[0].Index != 1 || out.Qualified[1].Index != 2 {
		t.Fatalf("qualified = %+v", out.Qualified)
	}
	if !reflect.DeepEqual(out.Match.Links, []string{"/wiki/A", "/wiki/B"}) {
		t.Fatalf("links = %v", out.Match.Links)
	}
	if len(out.Match.ItemScores) != 3 || len(out.Match.WindowScores) != 3 {
		t.Fatalf("match must carry every candidate's scores: %+v", out.Match)
	}
}

func TestMatchNoMatchKeepsScores(t *testing.T) {
	window := events.ContextWindow{Item: []nlp.Entity{e("A", "PERSON")}}
	candidates := []events.WikiCandidateEvent{
		{Entities: []nlp.Entity{e("B", "PERSON")}},
		{Entities: []nlp.Entity{e("A", "PERSON"), e("B", "PERSON"), e("C", "PERSON"), e("D", "PERSON"), e("E", "PERSON"), e("F", "PERSON")}},
	}
	out := NewMatcher(DefaultConfig()).Match(window, candidates)
	if out.Match != nil {
		t.Fatalf("expected no match, got %+v", out.Match)
	}
	if len(out.ItemScores) != 2 || !near(out.ItemScores[1], 1.0/6.0) {
		t.Fatalf("item scores = %v", out.ItemScores)
	}
	if len(out.WindowScores) != 2 {
		t.Fatalf("window scores = %v", out.WindowScores)
	}
}

func TestMatchFiltersBlacklistedTypes(t *testing.T) {
	window := events.ContextWindow{Item: []nlp.Entity{e("2011", "DATE"), e("three", "CARDINAL"), e("Japan", "GPE")}}
	candidates := []events.WikiCandidateEvent{
		{Entities: []nlp.Entity{e("2011", "DATE"), e("three", "CARDINAL")}},
		{Entities: []nlp.Entity{e("Japan", "GPE"), e("March 11", "DATE")}},
	}
	out := NewMatcher(DefaultConfig()).Match(window, candidates)
	if out.ItemScores[0] != 0 {
		t.Fatalf("blacklisted overlap should score 0, got %v", out.ItemScores[0])
	}
	if out.Match == nil || out.Match.CandidateIndex != 1 || !near(out.Match.Score, 1) {
		t.Fatalf("match = %+v", out.Match)
	}

	unfiltered := NewMatcher(Config{ItemThreshold: 0.25, WindowThreshold: 0.18, IgnoredTypes: []string{}}).Match(window, candidates)
	if !near(unfiltered.ItemScores[0], 2.0/3.0) {
		t.Fatalf("unfiltered score = %v", unfiltered.ItemScores[0])
	}
}

func TestMatchEmptyCandidates(t *testing.T) {
	out := NewMatcher(DefaultConfig()).Match(events.ContextWindow{}, nil)
	if out.Match != nil || len(out.ItemScores) != 0 || len(out.WindowScores) != 0 {
		t.Fatalf("unexpected outcome %+v", out)
	}
}
