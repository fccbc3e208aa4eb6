package providers

import "strings"

const (
	openAIKeyURL    = "https://platform.openai.com/api-keys"
	anthropicKeyURL = "https://console.anthropic.com/settings/keys"
)

// ValidateCredential checks the shape of an API key for a backend without
// contacting it. Local backends need no key.
func ValidateCredential(provider Name, apiKey string) error {
	key := strings.TrimSpace(apiKey)

	switch provider {
	case Ollama:
		return nil

	case OpenAI:
		if key == "" {
			return missingCredential(OpenAI)
		}
		if !strings.HasPrefix(key, "sk-") {
			return &Error{
				Kind:     KindInvalidCredential,
				Provider: OpenAI,
				Message:  "That doesn't look like an OpenAI API key. They start with 'sk-'.",
			}
		}

	case Anthropic:
		if key == "" {
			return missingCredential(Anthropic)
		}
		if strings.HasPrefix(key, "sk-") && !strings.HasPrefix(key, "sk-ant-") {
			return &Error{
				Kind:     KindInvalidCredential,
				Provider: Anthropic,
				Message:  "That looks like an OpenAI key, not an Anthropic key. Anthropic keys start with 'sk-ant-'.",
			}
		}
	}

	return nil
}

func missingCredential(provider Name) *Error {
	message := "Need an API key for " + string(provider) + "."

	switch provider {
	case OpenAI:
		message = "Need an OpenAI API key to work my magic. Grab one at: " + openAIKeyURL
	case Anthropic:
		message = "Need an Anthropic API key. Get one at: " + anthropicKeyURL
	}

	return &Error{Kind: KindMissingCredential, Provider: provider, Message: message}
}

// Redact shortens a key to something safe to print.
func Redact(apiKey string) string {
	if len(apiKey) < 10 {
		return "****"
	}
	return apiKey[:5] + "..." + apiKey[len(apiKey)-3:]
}
