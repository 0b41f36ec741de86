package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaEmbedder_EmbedBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		embeddings := make([][]float32, len(req.Input))
		for i := range embeddings {
			embeddings[i] = []float32{0.1, 0.2, 0.3}
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: embeddings})
	}))
	defer server.Close()

	emb := NewOllamaEmbedder(WithOllamaEndpoint(server.URL))

	vecs, err := emb.EmbedBatch(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}
	if len(vecs[0]) != 3 {
		t.Errorf("unexpected vector size: %d", len(vecs[0]))
	}
}

func TestOllamaEmbedder_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	emb := NewOllamaEmbedder(WithOllamaEndpoint(server.URL))

	if _, err := emb.EmbedBatch(context.Background(), []string{"one"}); err == nil {
		t.Fatal("expected error on server failure")
	}
}

func TestOllamaEmbedder_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{0.1}}})
	}))
	defer server.Close()

	emb := NewOllamaEmbedder(WithOllamaEndpoint(server.URL))

	if _, err := emb.EmbedBatch(context.Background(), []string{"one", "two"}); err == nil {
		t.Fatal("expected error when embedding count does not match input count")
	}
}

func TestOllamaEmbedder_Defaults(t *testing.T) {
	emb := NewOllamaEmbedder()
	if emb.Dimensions() != 768 {
		t.Errorf("expected default dimensions 768, got %d", emb.Dimensions())
	}
	if emb.endpoint != defaultOllamaEndpoint {
		t.Errorf("unexpected default endpoint: %s", emb.endpoint)
	}
}
