package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChat(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Make: Kia"}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, Options{Temperature: 0.2, TopP: 0.8, MaxTokens: 160})
	if err != nil {
		t.Fatal(err)
	}

	// Minimal PNG header so content sniffing picks image/png.
	img := []byte("\x89PNG\r\n\x1a\nrest")
	got, err := c.Chat(context.Background(), "test-model", "identify", [][]byte{img})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "Make: Kia" {
		t.Errorf("Chat = %q", got)
	}

	if captured.Model != "test-model" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.Stream {
		t.Error("stream should be disabled")
	}
	if captured.Temperature != 0.2 || captured.MaxTokens != 160 {
		t.Errorf("options not forwarded: %+v", captured)
	}
	parts, ok := captured.Messages[0].Content.([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("content = %#v, want text part plus image part", captured.Messages[0].Content)
	}
	imgPart := parts[1].(map[string]any)
	url := imgPart["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("image url = %q, want png data url", url)
	}
}

func TestChatContentPartsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":[{"type":"text","text":"Make: Seat"}]}}]}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, Options{})
	got, err := c.Chat(context.Background(), "m", "p", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "Make: Seat" {
		t.Errorf("Chat = %q", got)
	}
}

func TestChatRejectsUnknownContentShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":42}}]}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, Options{})
	if _, err := c.Chat(context.Background(), "m", "p", nil); err == nil {
		t.Error("expected error for numeric content")
	}
}

func TestChatServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, Options{})
	if _, err := c.Chat(context.Background(), "m", "p", nil); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"llava:13b"},{"id":""},{"id":"qwen2.5vl"}]}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, Options{})
	names, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(names) != 2 || names[0] != "llava:13b" || names[1] != "qwen2.5vl" {
		t.Errorf("names = %v", names)
	}
}

func TestExtractText(t *testing.T) {
	if got, err := extractText("plain"); err != nil || got != "plain" {
		t.Errorf("extractText(string) = %q, %v", got, err)
	}
	if _, err := extractText(nil); err == nil {
		t.Error("extractText(nil) should fail")
	}
	if _, err := extractText([]any{map[string]any{"type": "image_url"}}); err == nil {
		t.Error("extractText with no text part should fail")
	}
}
