package providers

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCredential(t *testing.T) {
	tests := []struct {
		name        string
		provider    Name
		key         string
		wantKind    ErrorKind
		errorSubstr string
	}{
		{name: "ollama needs no key", provider: Ollama, key: ""},
		{name: "openai missing", provider: OpenAI, key: "  ", wantKind: KindMissingCredential, errorSubstr: "platform.openai.com/api-keys"},
		{name: "openai wrong prefix", provider: OpenAI, key: "abc123", wantKind: KindInvalidCredential, errorSubstr: "start with 'sk-'"},
		{name: "openai valid", provider: OpenAI, key: "sk-proj-abcdef"},
		{name: "anthropic missing", provider: Anthropic, key: "", wantKind: KindMissingCredential, errorSubstr: "console.anthropic.com"},
		{name: "anthropic given openai key", provider: Anthropic, key: "sk-proj-abcdef", wantKind: KindInvalidCredential, errorSubstr: "sk-ant-"},
		{name: "anthropic valid", provider: Anthropic, key: "sk-ant-api03-xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredential(tt.provider, tt.key)

			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %q, want %q", got, tt.wantKind)
			}
			if !strings.Contains(err.Error(), tt.errorSubstr) {
				t.Errorf("error %q should contain %q", err.Error(), tt.errorSubstr)
			}
		})
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := ValidateCredential(OpenAI, "")

	if !errors.Is(err, ErrMissingCredential) {
		t.Error("missing key should match ErrMissingCredential")
	}
	if errors.Is(err, ErrInvalidCredential) {
		t.Error("missing key should not match ErrInvalidCredential")
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"sk-ant-api03-secretvalue", "sk-an...lue"},
		{"short", "****"},
		{"", "****"},
	}

	for _, tt := range tests {
		if got := Redact(tt.key); got != tt.want {
			t.Errorf("Redact(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
