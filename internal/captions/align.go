package captions

import (
	"fmt"
	"strings"

	"timelines/internal/services"
	"timelines/internal/textutil"
)

// AlignmentError reports that chunks and sentences could not be reconciled.
type AlignmentError struct {
	SentenceIndex int
	ChunkIndex    int
	Sentence      string
	Chunk         string
	Reason        string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("align captions: %s (sentence %d %q, chunk %d %q)",
		e.Reason, e.SentenceIndex, clip(e.Sentence), e.ChunkIndex, clip(e.Chunk))
}

// Unwrap lets errors.Is match services.ErrAlignment.
func (e *AlignmentError) Unwrap() error {
	return services.ErrAlignment
}

func clip(s string) string {
	const limit = 60
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}

// Align assigns every sentence the start time of the chunk in which it begins.
//
// Both sequences are walked with a cursor and a remainder buffer. At each step
// the shorter of the two active strings must be a prefix of the longer one;
// it is consumed entirely and the longer one keeps the unconsumed suffix. A
// timestamp is recorded only when a sentence starts matching. Texts are
// compared with whitespace collapsed. Empty chunks are skipped and an empty
// sentence takes the start of the active chunk.
//
// The output has exactly one entry per sentence, in order. Any mismatch, or
// content left in one sequence after the other is exhausted, returns an
// *AlignmentError.
func Align(chunks []TimedTextChunk, sentences []Sentence) ([]TimestampedSentence, error) {
	out := make([]TimestampedSentence, 0, len(sentences))

	ci := -1
	var rest string
	var start float64
	load := func() bool {
		for rest == "" {
			ci++
			if ci >= len(chunks) {
				return false
			}
			rest = textutil.NormalizeSpace(chunks[ci].Text)
			start = chunks[ci].Start
		}
		return true
	}

	for si, sentence := range sentences {
		remaining := textutil.NormalizeSpace(sentence.Text)
		if remaining == "" {
			out = append(out, TimestampedSentence{Start: start, Text: sentence.Text})
			continue
		}
		if !load() {
			return nil, &AlignmentError{SentenceIndex: si, ChunkIndex: len(chunks), Sentence: remaining, Reason: "captions exhausted before sentence"}
		}
		out = append(out, TimestampedSentence{Start: start, Text: sentence.Text})

		for remaining != "" {
			if !load() {
				return nil, &AlignmentError{SentenceIndex: si, ChunkIndex: len(chunks), Sentence: remaining, Reason: "captions exhausted mid-sentence"}
			}
			switch {
			case rest == remaining:
				rest, remaining = "", ""
			case strings.HasPrefix(remaining, rest):
				remaining = strings.TrimLeft(remaining[len(rest):], " ")
				rest = ""
			case strings.HasPrefix(rest, remaining):
				rest = strings.TrimLeft(rest[len(remaining):], " ")
				remaining = ""
			default:
				return nil, &AlignmentError{SentenceIndex: si, ChunkIndex: ci, Sentence: remaining, Chunk: rest, Reason: "text mismatch"}
			}
		}
	}

	if load() {
		return nil, &AlignmentError{SentenceIndex: len(sentences), ChunkIndex: ci, Chunk: rest, Reason: "sentences exhausted with captions remaining"}
	}
	return out, nil
}
