package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erg0nix/gnomegpt/internal/config"
	"github.com/erg0nix/gnomegpt/internal/core"
)

const (
	DefaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	DefaultAnthropicModel    = "claude-haiku-4-20250514"
	anthropicVersion         = "2023-06-01"
)

type AnthropicConfig struct {
	Endpoint       string
	APIKey         string
	MaxTokens      int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

type AnthropicProvider struct {
	endpoint      string
	apiKey        string
	maxTokens     int
	readTimeout   time.Duration
	client        *http.Client
	retry         retryPolicy
	requestLogger *RequestLogger
}

func NewAnthropicProvider(cfg AnthropicConfig, debugCfg config.DebugConfig) *AnthropicProvider {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = hostedConnectTimeout
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = hostedReadTimeout
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultAnthropicEndpoint
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return &AnthropicProvider{
		endpoint:      endpoint,
		apiKey:        strings.TrimSpace(cfg.APIKey),
		maxTokens:     maxTokens,
		readTimeout:   readTimeout,
		client:        newHTTPClient(connectTimeout, readTimeout),
		retry:         defaultRetryPolicy(),
		requestLogger: newRequestLoggerFromConfig(debugCfg),
	}
}

func (p *AnthropicProvider) Name() Name { return Anthropic }

func (p *AnthropicProvider) DefaultModel() string { return DefaultAnthropicModel }

func (p *AnthropicProvider) IsAvailable(context.Context) bool {
	return p.apiKey != ""
}

func (p *AnthropicProvider) Chat(ctx context.Context, req Request) (string, error) {
	if p.apiKey == "" {
		return "", missingCredential(Anthropic)
	}

	requestID := core.NewRequestID()
	payload := p.payload(req, false)

	startTime := time.Now()
	httpResp, err := p.post(ctx, requestID, payload)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 4<<20))
	if err != nil {
		return "", connectionError(Anthropic, err)
	}

	var responsePayload struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &responsePayload); err != nil {
		p.requestLogger.LogError(requestID, Anthropic, httpResp.StatusCode, body, payload)
		return "", &Error{Kind: KindUpstream, Provider: Anthropic, Status: httpResp.StatusCode, Message: "Anthropic returned an unreadable response."}
	}

	var content strings.Builder
	for _, block := range responsePayload.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	p.requestLogger.LogResponse(requestID, Anthropic, content.String(), time.Since(startTime))
	return content.String(), nil
}

func (p *AnthropicProvider) ChatStream(ctx context.Context, req Request, handler StreamHandler) {
	if p.apiKey == "" {
		handler.fail(missingCredential(Anthropic))
		return
	}

	requestID := core.NewRequestID()
	payload := p.payload(req, true)

	startTime := time.Now()
	httpResp, err := p.post(ctx, requestID, payload)
	if err != nil {
		handler.fail(err)
		return
	}
	defer httpResp.Body.Close()

	var full strings.Builder
	var streamErr *Error
	skipped := 0

	err = readFrames(httpResp.Body, p.readTimeout, func(line string) bool {
		data, ok := sseData(line)
		if !ok || data == "" {
			return true
		}

		var event struct {
			Type  string `json:"type"`
			Delta struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"delta"`
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if !decodeFrame(data, &event) {
			skipped++
			return true
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Text != "" {
				full.WriteString(event.Delta.Text)
				handler.token(event.Delta.Text)
			}
		case "message_stop":
			return false
		case "error":
			streamErr = &Error{Kind: KindUpstream, Provider: Anthropic, Message: "Anthropic error: " + event.Error.Message}
			return false
		}
		return true
	})

	if skipped > 0 {
		slog.Debug("skipped malformed stream frames", "provider", Anthropic, "request_id", requestID, "count", skipped)
	}

	if err != nil {
		p.requestLogger.LogError(requestID, Anthropic, 0, []byte(err.Error()), payload)
		handler.fail(connectionError(Anthropic, err))
		return
	}

	if streamErr != nil {
		p.requestLogger.LogError(requestID, Anthropic, 0, []byte(streamErr.Message), payload)
		handler.fail(streamErr)
		return
	}

	p.requestLogger.LogResponse(requestID, Anthropic, full.String(), time.Since(startTime))
	handler.complete(full.String())
}

// payload carries the system prompt as a top-level field; it is never sent as a message.
func (p *AnthropicProvider) payload(req Request, stream bool) map[string]any {
	model := req.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	payload := map[string]any{
		"model":      model,
		"max_tokens": p.maxTokens,
		"stream":     stream,
		"messages":   toWireMessages("", userFirst(normalizeMessages(req.Messages))),
	}

	if req.SystemPrompt != "" {
		payload["system"] = req.SystemPrompt
	}

	return payload
}

func (p *AnthropicProvider) post(ctx context.Context, requestID core.RequestID, payload map[string]any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Provider: Anthropic, Message: "Could not encode request: " + err.Error(), Err: err}
	}

	p.requestLogger.LogRequest(requestID, Anthropic, payload)

	httpResp, err := p.retry.do(ctx, p.client, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", p.apiKey)
		httpReq.Header.Set("anthropic-version", anthropicVersion)
		return httpReq, nil
	})
	if err != nil {
		p.requestLogger.LogError(requestID, Anthropic, 0, []byte(err.Error()), payload)
		return nil, connectionError(Anthropic, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(httpResp.Body, 64<<10))
		httpResp.Body.Close()

		p.requestLogger.LogError(requestID, Anthropic, httpResp.StatusCode, bodyBytes, payload)
		return nil, statusError(Anthropic, httpResp.StatusCode, "Anthropic error")
	}

	return httpResp, nil
}
