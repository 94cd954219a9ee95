// Package ollama adapts the Ollama HTTP API to the pipeline's Embedder and
// Generator boundaries.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jmorganca/ollama/api"

	"ragline/src/core/rag"
	"ragline/src/log"
)

const DefaultURL = "http://localhost:11434"

// Client wraps an Ollama server for embedding and generation. The same
// client serves the build and query phases, so embeddings are produced with
// consistent settings on both sides.
type Client struct {
	api           *api.Client
	embedModel    string
	generateModel string
}

// NewClient creates a client for the Ollama server at baseURL. A nil
// httpClient falls back to http.DefaultClient; deadlines come from the
// per-call context.
func NewClient(baseURL, embedModel, generateModel string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		api:           api.NewClient(base, httpClient),
		embedModel:    embedModel,
		generateModel: generateModel,
	}, nil
}

// Embed implements rag.Embedder.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  c.embedModel,
		Prompt: text,
	})
	if err != nil {
		return nil, wrapContextErr(ctx, fmt.Errorf("ollama embeddings request: %w", err))
	}

	vector := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}

// Generate implements rag.Generator. Options map onto Ollama's sampling
// parameters; unset values are omitted so the model defaults apply.
func (c *Client) Generate(ctx context.Context, prompt string, opts rag.GenerateOptions) (string, error) {
	options := map[string]interface{}{}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if opts.Temperature != nil {
		options["temperature"] = *opts.Temperature
	}
	if opts.TopP > 0 {
		options["top_p"] = opts.TopP
	}
	if opts.RepeatPenalty > 0 {
		options["repeat_penalty"] = opts.RepeatPenalty
	}

	stream := false
	var out strings.Builder
	err := c.api.Generate(ctx, &api.GenerateRequest{
		Model:   c.generateModel,
		Prompt:  prompt,
		Stream:  &stream,
		Options: options,
	}, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		log.Error(err, "ollama generate failed", "model", c.generateModel)
		return "", wrapContextErr(ctx, fmt.Errorf("ollama generate request: %w", err))
	}

	return out.String(), nil
}

// Models lists the models available on the server; used by health checks.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	resp, err := c.api.List(ctx)
	if err != nil {
		return nil, wrapContextErr(ctx, fmt.Errorf("ollama list request: %w", err))
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// wrapContextErr surfaces deadline and cancellation as the pipeline's
// Timeout/Cancelled error kinds.
func wrapContextErr(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", rag.ErrTimeout, err)
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %w", rag.ErrCancelled, err)
	}
	return err
}
