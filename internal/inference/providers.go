package inference

import "context"

// Classifier head names. Each head is an independently trained model served
// by the provider.
const (
	HeadIntent    = "intent"
	HeadSentiment = "sentiment"
	HeadPriority  = "priority"
)

// Embedder produces a fixed-dimension embedding of a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Classifier scores a feature vector against one classification head and
// returns the decoded categorical label.
type Classifier interface {
	Classify(ctx context.Context, head string, features []float64) (string, error)
}

// SummaryRequest carries the text and decode parameters for one summary
// generation. MaxInputTokens is the tokenizer truncation limit; MinLength
// and MaxLength bound the decoded output in tokens.
type SummaryRequest struct {
	Text           string
	MaxInputTokens int
	MinLength      int
	MaxLength      int
	NumBeams       int
	EarlyStopping  bool
}

// Summarizer generates an abstractive summary of a text.
type Summarizer interface {
	Summarize(ctx context.Context, req *SummaryRequest) (string, error)
}
