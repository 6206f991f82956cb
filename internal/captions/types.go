package captions

import (
	"strings"

	"timelines/internal/textutil"
)

// TimedTextChunk is one caption fragment. Start and Duration are seconds from
// the beginning of the video.
type TimedTextChunk struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration,omitempty"`
	Text     string  `json:"text"`
}

// Sentence is a segmented sentence in caption order.
type Sentence struct {
	Ordinal int
	Text    string
}

// TimestampedSentence pairs a sentence with the start time of the chunk in
// which it begins.
type TimestampedSentence struct {
	Start float64 `json:"start"`
	Text  string  `json:"text"`
}

// JoinText reconstitutes the caption blob fed to sentence segmentation:
// chunk texts joined by single spaces with newlines flattened.
func JoinText(chunks []TimedTextChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if text := textutil.NormalizeSpace(chunk.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
