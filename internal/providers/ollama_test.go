package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erg0nix/gnomegpt/internal/config"
)

func newOllamaServer(t *testing.T, chat http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2"}]}`))
	})
	mux.HandleFunc("/api/chat", chat)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestOllamaChat(t *testing.T) {
	var payload map[string]any

	server := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Hiya!"},"done":true}`))
	})

	p := NewOllamaProvider(OllamaConfig{BaseURL: server.URL}, config.DebugConfig{})
	p.retry.sleep = noSleep

	if !p.IsAvailable(context.Background()) {
		t.Fatal("expected ollama to be available")
	}

	req := testRequest()
	req.Model = ""
	reply, err := p.Chat(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Hiya!" {
		t.Errorf("reply = %q", reply)
	}
	if payload["model"] != DefaultOllamaModel || payload["stream"] != false {
		t.Errorf("payload = %v", payload)
	}
}

func TestOllamaStreamDeliversSingleToken(t *testing.T) {
	server := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"content":"Go to [[Falador]]"}}`))
	})

	var rec streamRecorder
	NewOllamaProvider(OllamaConfig{BaseURL: server.URL}, config.DebugConfig{}).
		ChatStream(context.Background(), testRequest(), rec.handler())

	if len(rec.tokens) != 1 || rec.tokens[0] != "Go to [[Falador]]" {
		t.Errorf("tokens = %q", rec.tokens)
	}
	if len(rec.completed) != 1 {
		t.Errorf("completed = %q", rec.completed)
	}
}

func TestOllamaModelMissing(t *testing.T) {
	server := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := NewOllamaProvider(OllamaConfig{BaseURL: server.URL}, config.DebugConfig{}).
		Chat(context.Background(), Request{Model: "mistral"})

	if err == nil || !strings.Contains(err.Error(), "ollama pull mistral") {
		t.Fatalf("error = %v, want pull hint", err)
	}
}

func TestOllamaNotRunning(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: baseURL}, config.DebugConfig{})

	if p.IsAvailable(context.Background()) {
		t.Error("expected ollama to be unavailable")
	}

	_, err := p.Chat(context.Background(), testRequest())
	if err == nil || !strings.Contains(err.Error(), "Ollama is not running") {
		t.Fatalf("error = %v", err)
	}
	if KindOf(err) != KindBackendUnreachable {
		t.Errorf("kind = %q", KindOf(err))
	}
}
