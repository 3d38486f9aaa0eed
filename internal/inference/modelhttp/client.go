// Package modelhttp is a JSON-over-HTTP client for the model sidecar that
// serves the trained artifacts: the sentence embedder, the three
// classification heads with their label decoders, and the seq2seq
// summarizer. The sidecar owns model loading and GPU placement; this client
// only ships vectors and text back and forth.
package modelhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/mailtriage/internal/inference"
)

// Client implements inference.Embedder, inference.Classifier and
// inference.Summarizer against a model sidecar.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the sidecar at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

type classifyRequest struct {
	Head     string    `json:"head"`
	Features []float64 `json:"features"`
}

type classifyResponse struct {
	Label string `json:"label"`
}

type summarizeRequest struct {
	Text           string `json:"text"`
	MaxInputTokens int    `json:"max_input_tokens"`
	MinLength      int    `json:"min_length"`
	MaxLength      int    `json:"max_length"`
	NumBeams       int    `json:"num_beams"`
	EarlyStopping  bool   `json:"early_stopping"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// Embed returns the sidecar's embedding of text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	var out embedResponse
	if err := c.post(ctx, "/v1/embed", embedRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("model server returned empty embedding")
	}
	return out.Embedding, nil
}

// Classify scores features against the named head and returns the decoded
// label. Label normalization is the caller's concern.
func (c *Client) Classify(ctx context.Context, head string, features []float64) (string, error) {
	var out classifyResponse
	if err := c.post(ctx, "/v1/classify", classifyRequest{Head: head, Features: features}, &out); err != nil {
		return "", err
	}
	return out.Label, nil
}

// Summarize generates a summary with the requested decode parameters.
func (c *Client) Summarize(ctx context.Context, req *inference.SummaryRequest) (string, error) {
	var out summarizeResponse
	err := c.post(ctx, "/v1/summarize", summarizeRequest{
		Text:           req.Text,
		MaxInputTokens: req.MaxInputTokens,
		MinLength:      req.MinLength,
		MaxLength:      req.MaxLength,
		NumBeams:       req.NumBeams,
		EarlyStopping:  req.EarlyStopping,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Summary, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server error %d on %s: %s", resp.StatusCode, path, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
