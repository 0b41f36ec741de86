package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIEmbedder_RequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewOpenAIEmbedder(); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestOpenAIEmbedder_KeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	emb, err := NewOpenAIEmbedder()
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder failed: %v", err)
	}
	if emb.apiKey != "sk-test" {
		t.Errorf("expected key from environment, got %q", emb.apiKey)
	}
}

func TestOpenAIEmbedder_EmbedBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %s", got)
		}
		var req openAIEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		// Respond out of order; the client must reorder by index.
		resp := openAIEmbedResponse{}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float32{float32(i)}, Index: i})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder(
		WithOpenAIEndpoint(server.URL),
		WithOpenAIKey("sk-test"),
	)
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder failed: %v", err)
	}

	vecs, err := emb.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	for i, vec := range vecs {
		if int(vec[0]) != i {
			t.Errorf("vector %d out of order: %v", i, vec)
		}
	}
}

func TestOpenAIEmbedder_APIErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited", "type": "rate_limit"},
		})
	}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder(
		WithOpenAIEndpoint(server.URL),
		WithOpenAIKey("sk-test"),
	)
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder failed: %v", err)
	}

	_, err = emb.EmbedBatch(context.Background(), []string{"a"})
	if err == nil {
		t.Fatal("expected API error")
	}
}

func TestOpenAIEmbedder_Dimensions(t *testing.T) {
	emb, err := NewOpenAIEmbedder(WithOpenAIKey("sk-test"))
	if err != nil {
		t.Fatal(err)
	}
	if emb.Dimensions() != 1536 {
		t.Errorf("expected native dimensions 1536, got %d", emb.Dimensions())
	}

	emb2, err := NewOpenAIEmbedder(WithOpenAIKey("sk-test"), WithOpenAIDimensions(256))
	if err != nil {
		t.Fatal(err)
	}
	if emb2.Dimensions() != 256 {
		t.Errorf("expected configured dimensions 256, got %d", emb2.Dimensions())
	}
}
