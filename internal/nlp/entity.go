package nlp

import "strings"

// Entity is a named span with a type tag such as PERSON or GPE.
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Sentence is one segmented sentence and the entities inside it.
type Sentence struct {
	Text     string   `json:"text"`
	Entities []Entity `json:"entities"`
}

// Token is a single tagged token. Label uses IOB notation ("B-PER", "I-PER",
// "O"); a label without a prefix is treated as a beginning. Start and End are
// byte offsets into the analyzed text and let sub-word pieces be glued back
// together without a space.
type Token struct {
	Text  string
	Label string
	Start int
	End   int
}

// MergeIOB folds IOB-tagged tokens into entities. A B- token closes any open
// entity and opens a new one, I- tokens extend the open entity when the type
// agrees, and O tokens close it. An I- token with no matching open entity
// starts a new entity instead of failing.
func MergeIOB(tokens []Token) []Entity {
	var (
		entities []Entity
		open     []Token
		openType string
	)
	flush := func() {
		if len(open) == 0 {
			return
		}
		entities = append(entities, Entity{Text: joinTokens(open), Type: MapLabel(openType)})
		open = open[:0]
		openType = ""
	}

	for _, tok := range tokens {
		tag, typ := splitLabel(tok.Label)
		switch tag {
		case "O":
			flush()
		case "I":
			if len(open) > 0 && openType == typ {
				open = append(open, tok)
				continue
			}
			flush()
			open = append(open, tok)
			openType = typ
		default:
			flush()
			open = append(open, tok)
			openType = typ
		}
	}
	flush()
	return entities
}

func splitLabel(label string) (string, string) {
	label = strings.TrimSpace(label)
	if label == "" || label == "O" {
		return "O", ""
	}
	if len(label) > 2 && label[1] == '-' {
		switch label[0] {
		case 'B', 'b':
			return "B", strings.ToUpper(label[2:])
		case 'I', 'i':
			return "I", strings.ToUpper(label[2:])
		}
	}
	return "B", strings.ToUpper(label)
}

func joinTokens(tokens []Token) string {
	var b strings.Builder
	for i, tok := range tokens {
		text := strings.TrimPrefix(strings.TrimSpace(tok.Text), "##")
		if i > 0 && !adjacent(tokens[i-1], tok) {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
	return b.String()
}

func adjacent(prev, next Token) bool {
	if prev.End == 0 && next.Start == 0 {
		return strings.HasPrefix(next.Text, "##")
	}
	return prev.End == next.Start
}

// Flatten concatenates the entities of every sentence in order.
func Flatten(sentences []Sentence) []Entity {
	var out []Entity
	for _, s := range sentences {
		out = append(out, s.Entities...)
	}
	return out
}

// MapLabel translates CoNLL-style model labels to the tag set used for
// matching. Unknown labels pass through upper-cased.
func MapLabel(label string) string {
	label = strings.ToUpper(strings.TrimSpace(label))
	switch label {
	case "PER", "PERS":
		return "PERSON"
	case "LOC":
		return "GPE"
	case "ORGANIZATION":
		return "ORG"
	default:
		return label
	}
}
