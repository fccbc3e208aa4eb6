package providers

import (
	"github.com/erg0nix/gnomegpt/internal/core"
)

// normalizeMessages drops system messages and merges runs of the same role,
// which appear in history when a turn fails before the assistant replied.
func normalizeMessages(messages []core.Message) []core.Message {
	result := make([]core.Message, 0, len(messages))

	for _, current := range messages {
		if current.Role == core.RoleSystem {
			continue
		}

		if n := len(result); n > 0 && result[n-1].Role == current.Role {
			mergeMessages(&result[n-1], current)
			continue
		}

		result = append(result, current)
	}

	return result
}

// userFirst drops assistant messages ahead of the first user message. Anthropic
// rejects a conversation that opens with the assistant, which a trimmed history can do.
func userFirst(messages []core.Message) []core.Message {
	for i, message := range messages {
		if message.Role == core.RoleUser {
			return messages[i:]
		}
	}
	return nil
}

func mergeMessages(target *core.Message, source core.Message) {
	if target.Content != "" && source.Content != "" {
		target.Content += "\n\n" + source.Content
	} else {
		target.Content += source.Content
	}
}

func toWireMessages(systemPrompt string, messages []core.Message) []map[string]any {
	msgJSON := make([]map[string]any, 0, len(messages)+1)

	if systemPrompt != "" {
		msgJSON = append(msgJSON, map[string]any{"role": string(core.RoleSystem), "content": systemPrompt})
	}

	for _, message := range normalizeMessages(messages) {
		msgJSON = append(msgJSON, map[string]any{"role": string(message.Role), "content": message.Content})
	}

	return msgJSON
}
