package nlp

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Segmenter splits text into sentences with byte offsets.
type Segmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// Span is a sentence and its byte offsets within the source text.
type Span struct {
	Text  string
	Start int
	End   int
}

// NewSegmenter loads the bundled English punkt model.
func NewSegmenter() (*Segmenter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load sentence tokenizer: %w", err)
	}
	return &Segmenter{tokenizer: tokenizer}, nil
}

// Split returns the non-empty sentences of text, trimmed, in order.
func (s *Segmenter) Split(text string) []Span {
	var spans []Span
	for _, sent := range s.tokenizer.Tokenize(text) {
		trimmed := strings.TrimSpace(sent.Text)
		if trimmed == "" {
			continue
		}
		lead := strings.Index(sent.Text, trimmed)
		start := sent.Start + max(lead, 0)
		spans = append(spans, Span{Text: trimmed, Start: start, End: start + len(trimmed)})
	}
	return spans
}
