// Package claude implements inference.Summarizer on the Anthropic API. It is
// the alternative summary head for deployments that would rather not run the
// seq2seq sidecar; the classifier heads always come from the sidecar.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/mailtriage/internal/inference"
)

const systemPrompt = `You summarize customer support emails for agents.
Write one short paragraph covering what the customer wants and any deadline
or order reference they mention. Plain text only, no preamble.`

// Summarizer generates summaries via the Anthropic Messages API.
type Summarizer struct {
	client anthropic.Client
	model  string
}

// New creates a Claude summarizer with the given API key and model name.
func New(apiKey, model string) *Summarizer {
	return &Summarizer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Summarize generates a summary bounded by the request's MaxLength. Beam
// search parameters are seq2seq decoder knobs and do not apply here.
func (s *Summarizer) Summarize(ctx context.Context, req *inference.SummaryRequest) (string, error) {
	maxTokens := int64(req.MaxLength)
	if maxTokens <= 0 {
		maxTokens = 100
	}

	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude summarize: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
