package captions

import (
	"errors"
	"reflect"
	"testing"

	"timelines/internal/services"
)

func chunks(pairs ...any) []TimedTextChunk {
	out := make([]TimedTextChunk, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, TimedTextChunk{Start: pairs[i].(float64), Text: pairs[i+1].(string)})
	}
	return out
}

func sentences(texts ...string) []Sentence {
	out := make([]Sentence, len(texts))
	for i, text := range texts {
		out[i] = Sentence{Ordinal: i, Text: text}
	}
	return out
}

func TestAlign(t *testing.T) {
	tests := []struct {
		name      string
		chunks    []TimedTextChunk
		sentences []Sentence
		want      []TimestampedSentence
	}{
		{
			name:      "chunk spans two sentences",
			chunks:    chunks(0.0, "Hello world. Bye", 2.5, "now."),
			sentences: sentences("Hello world.", "Bye now."),
			want:      []TimestampedSentence{{0, "Hello world."}, {0, "Bye now."}},
		},
		{
			name:      "sentence spans chunks",
			chunks:    chunks(1.0, "In March 2011 an", 3.0, "earthquake struck", 5.5, "Japan. It was huge."),
			sentences: sentences("In March 2011 an earthquake struck Japan.", "It was huge."),
			want:      []TimestampedSentence{{1, "In March 2011 an earthquake struck Japan."}, {5.5, "It was huge."}},
		},
		{
			name:      "exact one to one",
			chunks:    chunks(0.0, "One.", 1.0, "Two.", 2.0, "Three."),
			sentences: sentences("One.", "Two.", "Three."),
			want:      []TimestampedSentence{{0, "One."}, {1, "Two."}, {2, "Three."}},
		},
		{
			name:      "newlines and empty chunks",
			chunks:    chunks(0.0, "Tahrir\nSquare filled", 2.0, "", 4.0, "  with people. "),
			sentences: sentences("Tahrir Square filled with people."),
			want:      []TimestampedSentence{{0, "Tahrir Square filled with people."}},
		},
		{
			name:      "sentence begins in remainder",
			chunks:    chunks(0.0, "A. B", 7.0, "C."),
			sentences: sentences("A.", "B C."),
			want:      []TimestampedSentence{{0, "A."}, {0, "B C."}},
		},
		{
			name: "empty input",
			want: []TimestampedSentence{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Align(tt.chunks, tt.sentences)
			if err != nil {
				t.Fatalf("Align returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Align() = %v, want %v", got, tt.want)
			}
			if len(got) != len(tt.sentences) {
				t.Errorf("len(Align()) = %d, want %d", len(got), len(tt.sentences))
			}
		})
	}
}

func TestAlignTimestampsNonDecreasing(t *testing.T) {
	in := chunks(0.0, "The first", 1.5, "sentence. The", 3.0, "second one. And", 4.0, "the third", 6.0, "one.")
	got, err := Align(in, sentences("The first sentence.", "The second one.", "And the third one."))
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	want := []float64{0, 1.5, 3.0}
	for i, ts := range got {
		if ts.Start != want[i] {
			t.Errorf("sentence %d start = %v, want %v", i, ts.Start, want[i])
		}
		if i > 0 && ts.Start < got[i-1].Start {
			t.Errorf("timestamps decrease at %d", i)
		}
	}
}

func TestAlignErrors(t *testing.T) {
	tests := []struct {
		name      string
		chunks    []TimedTextChunk
		sentences []Sentence
		reason    string
	}{
		{
			name:      "mismatch",
			chunks:    chunks(0.0, "Hello world."),
			sentences: sentences("Goodbye world."),
			reason:    "text mismatch",
		},
		{
			name:      "captions run out",
			chunks:    chunks(0.0, "Hello"),
			sentences: sentences("Hello world."),
			reason:    "captions exhausted mid-sentence",
		},
		{
			name:      "sentences run out",
			chunks:    chunks(0.0, "Hello.", 1.0, "Extra."),
			sentences: sentences("Hello."),
			reason:    "sentences exhausted with captions remaining",
		},
		{
			name:      "no captions",
			sentences: sentences("Hello."),
			reason:    "captions exhausted before sentence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Align(tt.chunks, tt.sentences)
			if err == nil {
				t.Fatal("expected alignment error")
			}
			var alignErr *AlignmentError
			if !errors.As(err, &alignErr) {
				t.Fatalf("expected *AlignmentError, got %T", err)
			}
			if alignErr.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", alignErr.Reason, tt.reason)
			}
			if !errors.Is(err, services.ErrAlignment) {
				t.Error("expected error to match services.ErrAlignment")
			}
		})
	}
}

func TestJoinText(t *testing.T) {
	got := JoinText(chunks(0.0, "Hello\nworld.", 1.0, "  ", 2.0, "Bye now."))
	if got != "Hello world. Bye now." {
		t.Errorf("JoinText() = %q", got)
	}
}
