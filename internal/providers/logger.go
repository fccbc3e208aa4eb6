package providers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/erg0nix/gnomegpt/internal/config"
	"github.com/erg0nix/gnomegpt/internal/core"
)

// RequestLogger appends provider traffic to a daily JSONL file when debug
// logging is on. A nil *RequestLogger is valid and only reports errors to slog.
type RequestLogger struct {
	logDir       string
	logRequests  bool
	logResponses bool
	logger       *slog.Logger
}

type LogEntry struct {
	Timestamp  string         `json:"timestamp"`
	RequestID  string         `json:"request_id"`
	Provider   string         `json:"provider"`
	Type       string         `json:"type"`
	Payload    map[string]any `json:"payload,omitempty"`
	Response   string         `json:"response,omitempty"`
	Duration   string         `json:"duration,omitempty"`
	Error      string         `json:"error,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
}

func NewRequestLogger(logDir string, logRequests, logResponses bool, logger *slog.Logger) *RequestLogger {
	return &RequestLogger{
		logDir:       logDir,
		logRequests:  logRequests,
		logResponses: logResponses,
		logger:       logger,
	}
}

func newRequestLoggerFromConfig(debugCfg config.DebugConfig) *RequestLogger {
	if !debugCfg.LogRequests && !debugCfg.LogResponses {
		return nil
	}
	return NewRequestLogger(debugCfg.LogDirectory, debugCfg.LogRequests, debugCfg.LogResponses, slog.Default())
}

func (l *RequestLogger) LogRequest(requestID core.RequestID, provider Name, payload map[string]any) {
	if l == nil || !l.logRequests {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: string(requestID),
		Provider:  string(provider),
		Type:      "request",
		Payload:   payload,
	}

	l.writeLog(entry)
	l.logger.Debug("provider request", "request_id", requestID, "provider", provider)
}

func (l *RequestLogger) LogResponse(requestID core.RequestID, provider Name, content string, duration time.Duration) {
	if l == nil || !l.logResponses {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: string(requestID),
		Provider:  string(provider),
		Type:      "response",
		Response:  content,
		Duration:  duration.String(),
	}

	l.writeLog(entry)
}

func (l *RequestLogger) LogError(requestID core.RequestID, provider Name, statusCode int, errorBody []byte, payload map[string]any) {
	logger := slog.Default()

	if l != nil {
		logger = l.logger
		l.writeLog(LogEntry{
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			RequestID:  string(requestID),
			Provider:   string(provider),
			Type:       "error",
			StatusCode: statusCode,
			Error:      string(errorBody),
			Payload:    payload,
		})
	}

	body := string(errorBody)
	if len(body) > 200 {
		body = body[:200] + "..."
	}

	logger.Warn("provider request failed",
		"request_id", requestID,
		"provider", provider,
		"status_code", statusCode,
		"error", body,
	)
}

func (l *RequestLogger) writeLog(entry LogEntry) {
	if l.logDir == "" {
		return
	}

	_ = os.MkdirAll(l.logDir, 0o755)

	logFile := filepath.Join(l.logDir, fmt.Sprintf("provider_%s.jsonl", time.Now().Format("2006-01-02")))

	data, _ := json.Marshal(entry)
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.Write(data)
	_, _ = f.WriteString("\n")
}
