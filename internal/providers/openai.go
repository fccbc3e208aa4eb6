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
	DefaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	DefaultOpenAIModel    = "gpt-4o-mini"

	hostedConnectTimeout = 30 * time.Second
	hostedReadTimeout    = 90 * time.Second
)

type OpenAIConfig struct {
	Endpoint       string
	APIKey         string
	MaxTokens      int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

type OpenAIProvider struct {
	endpoint      string
	apiKey        string
	maxTokens     int
	readTimeout   time.Duration
	client        *http.Client
	retry         retryPolicy
	requestLogger *RequestLogger
}

func NewOpenAIProvider(cfg OpenAIConfig, debugCfg config.DebugConfig) *OpenAIProvider {
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
		endpoint = DefaultOpenAIEndpoint
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return &OpenAIProvider{
		endpoint:      endpoint,
		apiKey:        strings.TrimSpace(cfg.APIKey),
		maxTokens:     maxTokens,
		readTimeout:   readTimeout,
		client:        newHTTPClient(connectTimeout, readTimeout),
		retry:         defaultRetryPolicy(),
		requestLogger: newRequestLoggerFromConfig(debugCfg),
	}
}

func (p *OpenAIProvider) Name() Name { return OpenAI }

func (p *OpenAIProvider) DefaultModel() string { return DefaultOpenAIModel }

func (p *OpenAIProvider) IsAvailable(context.Context) bool {
	return p.apiKey != ""
}

func (p *OpenAIProvider) Chat(ctx context.Context, req Request) (string, error) {
	if p.apiKey == "" {
		return "", missingCredential(OpenAI)
	}

	requestID := core.NewRequestID()
	payload := p.payload(req, false)

	startTime := time.Now()
	httpResp, err := p.post(ctx, requestID, payload)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	var responsePayload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 4<<20))
	if err != nil {
		return "", connectionError(OpenAI, err)
	}
	if err := json.Unmarshal(body, &responsePayload); err != nil || len(responsePayload.Choices) == 0 {
		p.requestLogger.LogError(requestID, OpenAI, httpResp.StatusCode, body, payload)
		return "", &Error{Kind: KindUpstream, Provider: OpenAI, Status: httpResp.StatusCode, Message: "OpenAI returned an unreadable response."}
	}

	content := responsePayload.Choices[0].Message.Content
	p.requestLogger.LogResponse(requestID, OpenAI, content, time.Since(startTime))

	return content, nil
}

func (p *OpenAIProvider) ChatStream(ctx context.Context, req Request, handler StreamHandler) {
	if p.apiKey == "" {
		handler.fail(missingCredential(OpenAI))
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
	skipped := 0

	err = readFrames(httpResp.Body, p.readTimeout, func(line string) bool {
		data, ok := sseData(line)
		if !ok || data == "" {
			return true
		}
		if data == "[DONE]" {
			return false
		}

		var frame struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if !decodeFrame(data, &frame) {
			skipped++
			return true
		}

		if len(frame.Choices) > 0 && frame.Choices[0].Delta.Content != "" {
			token := frame.Choices[0].Delta.Content
			full.WriteString(token)
			handler.token(token)
		}
		return true
	})

	if skipped > 0 {
		slog.Debug("skipped malformed stream frames", "provider", OpenAI, "request_id", requestID, "count", skipped)
	}

	if err != nil {
		p.requestLogger.LogError(requestID, OpenAI, 0, []byte(err.Error()), payload)
		handler.fail(connectionError(OpenAI, err))
		return
	}

	p.requestLogger.LogResponse(requestID, OpenAI, full.String(), time.Since(startTime))
	handler.complete(full.String())
}

func (p *OpenAIProvider) payload(req Request, stream bool) map[string]any {
	model := req.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return map[string]any{
		"model":      model,
		"max_tokens": p.maxTokens,
		"stream":     stream,
		"messages":   toWireMessages(req.SystemPrompt, req.Messages),
	}
}

func (p *OpenAIProvider) post(ctx context.Context, requestID core.RequestID, payload map[string]any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Provider: OpenAI, Message: "Could not encode request: " + err.Error(), Err: err}
	}

	p.requestLogger.LogRequest(requestID, OpenAI, payload)

	httpResp, err := p.retry.do(ctx, p.client, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
		return httpReq, nil
	})
	if err != nil {
		p.requestLogger.LogError(requestID, OpenAI, 0, []byte(err.Error()), payload)
		return nil, connectionError(OpenAI, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(httpResp.Body, 64<<10))
		httpResp.Body.Close()

		p.requestLogger.LogError(requestID, OpenAI, httpResp.StatusCode, bodyBytes, payload)
		return nil, statusError(OpenAI, httpResp.StatusCode, "OpenAI API error")
	}

	return httpResp, nil
}
