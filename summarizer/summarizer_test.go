package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSummarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{
				{Message: chatMessage{Role: "assistant", Content: "  A design document about caching.  "}},
			},
		})
	}))
	defer server.Close()

	c := NewClient(WithEndpoint(server.URL), WithModel("llama3.2"))

	overview, err := c.Summarize(context.Background(), "some document text")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if overview != "A design document about caching." {
		t.Errorf("unexpected overview: %q", overview)
	}
}

func TestSummarize_TruncatesLongInput(t *testing.T) {
	var gotLen int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotLen = len(req.Messages[1].Content)
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{
				{Message: chatMessage{Content: "ok"}},
			},
		})
	}))
	defer server.Close()

	c := NewClient(WithEndpoint(server.URL))

	if _, err := c.Summarize(context.Background(), strings.Repeat("a", 20000)); err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if gotLen != maxInputChars {
		t.Errorf("expected input truncated to %d chars, got %d", maxInputChars, gotLen)
	}
}

func TestSummarize_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(WithEndpoint(server.URL))

	if _, err := c.Summarize(context.Background(), "text"); err == nil {
		t.Fatal("expected error on server failure")
	}
}

func TestSummarize_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer server.Close()

	c := NewClient(WithEndpoint(server.URL))

	if _, err := c.Summarize(context.Background(), "text"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestChatBase(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"http://localhost:11434", "http://localhost:11434/v1"},
		{"http://localhost:11434/", "http://localhost:11434/v1"},
		{"https://api.openai.com/v1", "https://api.openai.com/v1"},
	}
	for _, tt := range tests {
		c := NewClient(WithEndpoint(tt.endpoint))
		if got := c.chatBase(); got != tt.want {
			t.Errorf("chatBase(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}
