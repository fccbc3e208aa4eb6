package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/erg0nix/gnomegpt/internal/config"
	"github.com/erg0nix/gnomegpt/internal/core"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama3.2"

	localConnectTimeout = 10 * time.Second
	localReadTimeout    = 120 * time.Second
)

type OllamaConfig struct {
	BaseURL        string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// OllamaProvider talks to a local Ollama server. It has no credential;
// availability is a probe of the model list endpoint.
type OllamaProvider struct {
	baseURL       string
	readTimeout   time.Duration
	client        *http.Client
	retry         retryPolicy
	requestLogger *RequestLogger
}

func NewOllamaProvider(cfg OllamaConfig, debugCfg config.DebugConfig) *OllamaProvider {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = localConnectTimeout
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = localReadTimeout
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}

	return &OllamaProvider{
		baseURL:       baseURL,
		readTimeout:   readTimeout,
		client:        newHTTPClient(connectTimeout, readTimeout),
		retry:         defaultRetryPolicy(),
		requestLogger: newRequestLoggerFromConfig(debugCfg),
	}
}

func (p *OllamaProvider) Name() Name { return Ollama }

func (p *OllamaProvider) DefaultModel() string { return DefaultOllamaModel }

func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (p *OllamaProvider) unavailable() *Error {
	return &Error{
		Kind:     KindBackendUnreachable,
		Provider: Ollama,
		Message:  "Ollama is not running. Start it at " + p.baseURL + " or switch to OpenAI/Anthropic in your config.",
	}
}

func (p *OllamaProvider) Chat(ctx context.Context, req Request) (string, error) {
	if !p.IsAvailable(ctx) {
		return "", p.unavailable()
	}

	model := req.Model
	if model == "" {
		model = DefaultOllamaModel
	}

	requestID := core.NewRequestID()
	payload := map[string]any{
		"model":    model,
		"messages": toWireMessages(req.SystemPrompt, req.Messages),
		"stream":   false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &Error{Kind: KindUpstream, Provider: Ollama, Message: "Could not encode request: " + err.Error(), Err: err}
	}

	p.requestLogger.LogRequest(requestID, Ollama, payload)
	startTime := time.Now()

	httpResp, err := p.retry.do(ctx, p.client, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	})
	if err != nil {
		p.requestLogger.LogError(requestID, Ollama, 0, []byte(err.Error()), payload)
		return "", connectionError(Ollama, err)
	}
	defer httpResp.Body.Close()

	responseBody, err := readAllIdle(httpResp.Body, p.readTimeout)
	if err != nil {
		return "", connectionError(Ollama, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		p.requestLogger.LogError(requestID, Ollama, httpResp.StatusCode, responseBody, payload)
		statusErr := statusError(Ollama, httpResp.StatusCode, "Ollama error")
		statusErr.Message = fmt.Sprintf("Ollama error (%d). Is the model '%s' installed? Run: ollama pull %s",
			httpResp.StatusCode, model, model)
		return "", statusErr
	}

	var responsePayload struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(responseBody, &responsePayload); err != nil || responsePayload.Message.Content == "" {
		p.requestLogger.LogError(requestID, Ollama, httpResp.StatusCode, responseBody, payload)
		return "", &Error{Kind: KindUpstream, Provider: Ollama, Status: httpResp.StatusCode, Message: "Empty response from Ollama"}
	}

	content := responsePayload.Message.Content
	p.requestLogger.LogResponse(requestID, Ollama, content, time.Since(startTime))

	return content, nil
}

// ChatStream delivers the whole non-streamed reply as a single token.
func (p *OllamaProvider) ChatStream(ctx context.Context, req Request, handler StreamHandler) {
	content, err := p.Chat(ctx, req)
	if err != nil {
		handler.fail(err)
		return
	}

	handler.token(content)
	handler.complete(content)
}

func readAllIdle(body io.ReadCloser, idle time.Duration) ([]byte, error) {
	var buf bytes.Buffer
	err := readFrames(body, idle, func(line string) bool {
		buf.WriteString(line)
		buf.WriteByte('\n')
		return true
	})
	return buf.Bytes(), err
}
