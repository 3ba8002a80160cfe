// Package ollama implements the inference gateway over the Ollama API.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"car-identifier/pkg/client"
)

// defaultTimeout bounds a single chat call when the caller supplied no
// deadline; large vision models on CPU can take minutes per image.
const defaultTimeout = 300 * time.Second

// Client wraps the Ollama API client.
type Client struct {
	client *api.Client
	opts   client.Options
}

// NewClient creates a client for the given server URL. Any path on the
// URL (like /api/chat) is ignored; only scheme and host are used.
func NewClient(ollamaURL string, opts client.Options) (*Client, error) {
	parsed, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &Client{
		client: api.NewClient(base, http.DefaultClient),
		opts:   opts,
	}, nil
}

// Chat sends one user turn with the given image payloads and returns the
// assistant text. Streamed responses are concatenated chunk by chunk, so
// both single-shot and streaming server behavior normalize to the same
// plain text.
func (c *Client) Chat(ctx context.Context, model, prompt string, images [][]byte) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	imgs := make([]api.ImageData, 0, len(images))
	for _, img := range images {
		imgs = append(imgs, api.ImageData(img))
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{Role: "user", Content: prompt, Images: imgs},
		},
		Stream:    &streamFalse,
		KeepAlive: &api.Duration{Duration: c.opts.KeepAlive},
		Options: map[string]any{
			"temperature": c.opts.Temperature,
			"top_p":       c.opts.TopP,
			"num_predict": c.opts.MaxTokens,
		},
	}

	var content string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %v", err)
	}
	return content, nil
}

// ListModels returns the model identifiers available on the server.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ollama list error: %v", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
