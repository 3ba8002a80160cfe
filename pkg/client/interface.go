package client

import (
	"context"
	"time"
)

// Options holds the generation settings shared by every identification
// call. Low temperature and a short output cap keep the six-line answers
// deterministic; keep-alive avoids model reload cost between calls.
type Options struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
	KeepAlive   time.Duration
}

// DefaultOptions returns the conservative settings used by the pipeline.
func DefaultOptions() Options {
	return Options{
		Temperature: 0.2,
		TopP:        0.8,
		MaxTokens:   160,
		KeepAlive:   10 * time.Minute,
	}
}

// VisionClient sends one conversation turn (prompt text plus encoded
// image payloads) to a vision model backend and returns the assistant
// text. Implementations normalize whatever response shape the backend
// produces to plain text.
type VisionClient interface {
	Chat(ctx context.Context, model, prompt string, images [][]byte) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}
