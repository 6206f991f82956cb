package events

import "timelines/internal/nlp"

// ContextWindow is the entity neighbourhood of one sentence.
type ContextWindow struct {
	Item   []nlp.Entity `json:"item"`
	Before []nlp.Entity `json:"before"`
	After  []nlp.Entity `json:"after"`
}

// All returns item, before, and after entities in one slice.
func (w ContextWindow) All() []nlp.Entity {
	out := make([]nlp.Entity, 0, len(w.Item)+len(w.Before)+len(w.After))
	out = append(out, w.Item...)
	out = append(out, w.Before...)
	out = append(out, w.After...)
	return out
}

func (w ContextWindow) clone() ContextWindow {
	return ContextWindow{
		Item:   cloneEntities(w.Item),
		Before: cloneEntities(w.Before),
		After:  cloneEntities(w.After),
	}
}

// BuildWindows produces exactly one window per entry of perSentence. Window i
// holds entities[i] as the item, the flattened span of up to before sentences
// preceding it, and up to after sentences following it. Spans are clipped at
// both ends of the sequence.
func BuildWindows(perSentence [][]nlp.Entity, before, after int) []ContextWindow {
	if before < 0 {
		before = 0
	}
	if after < 0 {
		after = 0
	}
	n := len(perSentence)
	windows := make([]ContextWindow, n)
	for i := range perSentence {
		lo := max(0, i-before)
		hi := min(n, i+1+after)
		windows[i] = ContextWindow{
			Item:   cloneEntities(perSentence[i]),
			Before: flatten(perSentence[lo:i]),
			After:  flatten(perSentence[i+1 : hi]),
		}
	}
	return windows
}

func flatten(groups [][]nlp.Entity) []nlp.Entity {
	out := []nlp.Entity{}
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func cloneEntities(in []nlp.Entity) []nlp.Entity {
	out := make([]nlp.Entity, len(in))
	copy(out, in)
	return out
}
