// Package inference wraps the three classification heads and the
// summarization head behind a single Analyze call. Analyze never fails:
// every provider error degrades to a documented default so one broken model
// cannot block ingestion.
package inference

import (
	"context"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

// Defaults applied before any head runs. A head that fails leaves its
// default in place; the other heads are unaffected.
const (
	DefaultIntent    = "unknown"
	DefaultSentiment = "neutral"
	DefaultPriority  = "low"
)

// The two summary fallbacks are distinct so callers can tell "model ran but
// produced nothing" from "model errored".
const (
	SummaryBlankFallback = "Model produced a blank summary"
	SummaryErrorFallback = "Summary generation failed"

	minSummaryLen = 5
)

// Summarization bounds: input is cut to maxSummaryChars before tokenization,
// the tokenizer truncates to maxSummaryTokens, and decoding is beam search.
const (
	maxSummaryChars  = 8000
	maxSummaryTokens = 1024
	summaryMinLength = 30
	summaryMaxLength = 100
	summaryNumBeams  = 4
)

// Result is the outcome of analyzing one message body.
type Result struct {
	Intent    string
	Sentiment string
	Priority  string
	Summary   string
	AgeHours  float64
}

// Hooks receives engine events, wired to metrics by main.
type Hooks struct {
	OnHeadFailure     func(head string)
	OnSummaryFallback func(kind string)
}

// Engine runs the multi-head analysis pipeline.
type Engine struct {
	embedder   Embedder
	classifier Classifier
	summarizer Summarizer
	logger     log.Logger
	hooks      Hooks
	now        func() time.Time
}

// NewEngine creates an analysis engine over the given providers.
func NewEngine(embedder Embedder, classifier Classifier, summarizer Summarizer, logger log.Logger, hooks Hooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		embedder:   embedder,
		classifier: classifier,
		summarizer: summarizer,
		logger:     logger,
		hooks:      hooks,
		now:        time.Now,
	}
}

// Analyze classifies and summarizes a message body. It never returns an
// error; partial provider failure yields the documented defaults for the
// failed heads only. AgeHours may be negative under clock skew and is not
// clamped.
func (e *Engine) Analyze(ctx context.Context, text string, receivedAt time.Time) *Result {
	res := &Result{
		Intent:    DefaultIntent,
		Sentiment: DefaultSentiment,
		Priority:  DefaultPriority,
		AgeHours:  e.now().Sub(receivedAt).Hours(),
	}

	e.classify(ctx, text, res)
	res.Summary = e.summarize(ctx, text)

	return res
}

// classify runs the three heads over a shared embedding. The priority head
// sees the embedding with age_hours appended as a hybrid feature vector.
// Each head falls back independently.
func (e *Engine) classify(ctx context.Context, text string, res *Result) {
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		e.logger.Error(ctx, err, "embedding failed, keeping classifier defaults")
		e.headFailed(HeadIntent)
		e.headFailed(HeadSentiment)
		e.headFailed(HeadPriority)
		return
	}

	if label, err := e.classifier.Classify(ctx, HeadIntent, vec); err != nil {
		e.logger.Error(ctx, err, "intent head failed")
		e.headFailed(HeadIntent)
	} else if n := normalizeLabel(label); n != "" {
		res.Intent = n
	}

	if label, err := e.classifier.Classify(ctx, HeadSentiment, vec); err != nil {
		e.logger.Error(ctx, err, "sentiment head failed")
		e.headFailed(HeadSentiment)
	} else if n := normalizeLabel(label); n != "" {
		res.Sentiment = n
	}

	hybrid := make([]float64, 0, len(vec)+1)
	hybrid = append(hybrid, vec...)
	hybrid = append(hybrid, res.AgeHours)

	if label, err := e.classifier.Classify(ctx, HeadPriority, hybrid); err != nil {
		e.logger.Error(ctx, err, "priority head failed")
		e.headFailed(HeadPriority)
	} else if n := normalizeLabel(label); n != "" {
		res.Priority = n
	}
}

func (e *Engine) summarize(ctx context.Context, text string) string {
	summary, err := e.summarizer.Summarize(ctx, &SummaryRequest{
		Text:           truncateRunes(text, maxSummaryChars),
		MaxInputTokens: maxSummaryTokens,
		MinLength:      summaryMinLength,
		MaxLength:      summaryMaxLength,
		NumBeams:       summaryNumBeams,
		EarlyStopping:  true,
	})
	if err != nil {
		e.logger.Error(ctx, err, "summary generation failed")
		e.summaryFellBack("error")
		return SummaryErrorFallback
	}
	if len(strings.TrimSpace(summary)) < minSummaryLen {
		e.summaryFellBack("blank")
		return SummaryBlankFallback
	}
	return summary
}

func (e *Engine) headFailed(head string) {
	if e.hooks.OnHeadFailure != nil {
		e.hooks.OnHeadFailure(head)
	}
}

func (e *Engine) summaryFellBack(kind string) {
	if e.hooks.OnSummaryFallback != nil {
		e.hooks.OnSummaryFallback(kind)
	}
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
