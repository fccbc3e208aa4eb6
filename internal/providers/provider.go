package providers

import (
	"context"
	"sync"
	"time"

	"github.com/erg0nix/gnomegpt/internal/config"
	"github.com/erg0nix/gnomegpt/internal/core"
)

type Name string

const (
	OpenAI    Name = "openai"
	Anthropic Name = "anthropic"
	Ollama    Name = "ollama"
)

const defaultMaxTokens = 1024

type Request struct {
	SystemPrompt string
	Messages     []core.Message
	Model        string
	Stream       bool
}

// StreamHandler receives the outcome of ChatStream. Exactly one of OnComplete
// or OnError is called, after zero or more OnToken calls.
type StreamHandler struct {
	OnToken    func(token string)
	OnComplete func(full string)
	OnError    func(err error)
}

func (h StreamHandler) token(t string) {
	if h.OnToken != nil {
		h.OnToken(t)
	}
}

func (h StreamHandler) complete(full string) {
	if h.OnComplete != nil {
		h.OnComplete(full)
	}
}

func (h StreamHandler) fail(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

// Provider is one chat backend. ChatStream blocks until the reply is finished
// and runs every handler callback on the calling goroutine.
type Provider interface {
	Name() Name
	DefaultModel() string
	Chat(ctx context.Context, req Request) (string, error)
	ChatStream(ctx context.Context, req Request, handler StreamHandler)
	IsAvailable(ctx context.Context) bool
}

// Router holds one instance of every backend and the selection made in the config.
type Router struct {
	mu        sync.RWMutex
	providers map[Name]Provider
	active    Name
	model     string
	apiKey    string
}

func NewRouter(cfg config.Config) *Router {
	r := &Router{}
	r.Reconfigure(cfg)
	return r
}

// Reconfigure rebuilds the backends from cfg; calls already in flight keep their old instance.
func (r *Router) Reconfigure(cfg config.Config) {
	debugCfg := cfg.Debug

	built := map[Name]Provider{
		OpenAI: NewOpenAIProvider(OpenAIConfig{
			Endpoint: cfg.Endpoints.OpenAI,
			APIKey:   cfg.APIKey,
		}, debugCfg),
		Anthropic: NewAnthropicProvider(AnthropicConfig{
			Endpoint: cfg.Endpoints.Anthropic,
			APIKey:   cfg.APIKey,
		}, debugCfg),
		Ollama: NewOllamaProvider(OllamaConfig{
			BaseURL: cfg.OllamaURL,
		}, debugCfg),
	}

	active := Name(cfg.Provider)
	if _, ok := built[active]; !ok {
		active = OpenAI
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = built
	r.active = active
	r.model = cfg.Model
	r.apiKey = cfg.APIKey
}

// Active returns the selected backend and the model to request from it.
func (r *Router) Active() (Provider, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := r.providers[r.active]
	model := r.model
	if model == "" {
		model = p.DefaultModel()
	}
	return p, model
}

func (r *Router) Get(name Name) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	return p, ok
}

// Validate checks the credential of the active backend. It never touches the network.
func (r *Router) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return ValidateCredential(r.active, r.apiKey)
}

// Check reports why the active backend cannot take a request right now, without
// sending one to a hosted backend.
func (r *Router) Check(ctx context.Context) error {
	r.mu.RLock()
	name, key := r.active, r.apiKey
	p := r.providers[name]
	r.mu.RUnlock()

	if err := ValidateCredential(name, key); err != nil {
		return err
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if p.IsAvailable(probeCtx) {
		return nil
	}

	if reporter, ok := p.(interface{ unavailable() *Error }); ok {
		return reporter.unavailable()
	}

	return &Error{Kind: KindBackendUnreachable, Provider: name, Message: string(name) + " is not available."}
}
