package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ziadkadry99/turnguard/internal/config"
)

func TestNewLocalProviderIsOffline(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider = config.ProviderLocal
	_, err := New(cfg)
	if err != ErrNoRemoteProvider {
		t.Fatalf("err = %v, want ErrNoRemoteProvider", err)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider = "bedrock"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestOllamaComplete(t *testing.T) {
	var captured ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message:         ollamaMessage{Role: "assistant", Content: `{"answer":"done"}`},
			Model:           "llama3",
			Done:            true,
			DoneReason:      "stop",
			PromptEvalCount: 10,
			EvalCount:       5,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "draft"}},
		JSONMode: true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"answer":"done"}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.OutputTokens != 5 {
		t.Errorf("OutputTokens = %d, want 5", resp.OutputTokens)
	}
	if captured.Format != "json" {
		t.Errorf("Format = %q, want json mode forwarded", captured.Format)
	}
	if captured.Stream {
		t.Error("stream should be disabled")
	}
}

func TestOllamaCompleteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "missing")
	if _, err := p.Complete(context.Background(), CompletionRequest{}); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
