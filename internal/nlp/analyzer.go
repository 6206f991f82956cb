package nlp

import "context"

// Analyzer segments text into sentences and tags the entities in each one.
// Implementations must be safe for concurrent use.
type Analyzer interface {
	Analyze(ctx context.Context, text string) ([]Sentence, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, text string) ([]Sentence, error)

// Analyze calls f.
func (f AnalyzerFunc) Analyze(ctx context.Context, text string) ([]Sentence, error) {
	return f(ctx, text)
}
