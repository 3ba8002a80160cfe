// Package openaicompat implements the inference gateway against servers
// speaking the OpenAI-compatible chat completions protocol (llama.cpp,
// vLLM, LM Studio and friends).
package openaicompat

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to an OpenAI-compatible server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	opts       Options
}

// Options mirrors client.Options minus keep-alive, which the protocol
// has no field for.
type Options struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Message content is either a plain string or a list of content parts;
// both shapes occur in the wild.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// NewClient creates a client for the given server URL.
func NewClient(serverURL string, opts Options) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		opts: opts,
	}, nil
}

// Chat sends one user turn with the images inlined as data URLs and
// returns the assistant text.
func (c *Client) Chat(ctx context.Context, model, prompt string, images [][]byte) (string, error) {
	content := []contentPart{{Type: "text", Text: prompt}}
	for _, img := range images {
		if len(img) == 0 {
			continue
		}
		mime := http.DetectContentType(img)
		if !strings.HasPrefix(mime, "image/") {
			mime = "image/jpeg"
		}
		content = append(content, contentPart{
			Type: "image_url",
			ImageURL: &imageURL{
				URL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img),
			},
		})
	}

	req := chatRequest{
		Model:       model,
		Messages:    []message{{Role: "user", Content: content}},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
		TopP:        c.opts.TopP,
		Stream:      false,
	}

	body, err := c.post(ctx, "/v1/chat/completions", req)
	if err != nil {
		return "", fmt.Errorf("request failed: %v", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return extractText(resp.Choices[0].Message.Content)
}

// extractText normalizes the closed set of accepted content shapes:
// a plain string or an array of text parts. Anything else is an error so
// integration regressions surface instead of silently returning "".
func extractText(content any) (string, error) {
	switch c := content.(type) {
	case string:
		return c, nil
	case []any:
		for _, item := range c {
			part, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := part["text"].(string); ok && text != "" {
				return text, nil
			}
		}
		return "", fmt.Errorf("no text content in response parts")
	}
	return "", fmt.Errorf("unsupported response content shape %T", content)
}

// ListModels queries /v1/models and returns the advertised model IDs.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var models modelsResponse
	if err := json.Unmarshal(body, &models); err != nil {
		return nil, fmt.Errorf("failed to parse models response: %v", err)
	}
	names := make([]string, 0, len(models.Data))
	for _, m := range models.Data {
		if m.ID != "" {
			names = append(names, m.ID)
		}
	}
	return names, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
