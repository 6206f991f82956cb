package matching

import (
	"strings"

	"timelines/internal/nlp"
	"timelines/internal/textutil"
)

// entityKey is the comparison identity of an entity.
type entityKey struct {
	text string
	typ  string
}

// EntitySet builds the deduplicated comparison set of entities, dropping
// those whose type is in ignored. A nil ignored keeps everything.
func EntitySet(entities []nlp.Entity, ignored map[string]struct{}) map[entityKey]struct{} {
	set := make(map[entityKey]struct{}, len(entities))
	for _, e := range entities {
		typ := strings.ToUpper(strings.TrimSpace(e.Type))
		if _, skip := ignored[typ]; skip {
			continue
		}
		text := textutil.NormalizeEntity(e.Text)
		if text == "" {
			continue
		}
		set[entityKey{text: text, typ: typ}] = struct{}{}
	}
	return set
}

// Similarity is the Jaccard similarity of two entity lists compared as
// (text, type) sets. It is 0 when either side is empty.
func Similarity(a, b []nlp.Entity) float64 {
	return textutil.Jaccard(EntitySet(a, nil), EntitySet(b, nil))
}
