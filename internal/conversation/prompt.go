package conversation

import (
	"sort"
	"strings"

	"github.com/erg0nix/gnomegpt/internal/core"
	"github.com/erg0nix/gnomegpt/internal/providers"
)

const noWikiNote = "No wiki context was found for this query. Be extra careful not to make things up. If unsure, say so."

var sectionFormats = map[core.ContextSource]struct {
	header   string
	guidance string
}{
	core.SourcePlayerStats: {
		header:   "--- Player Stats ---",
		guidance: "Use these stats to tailor your advice (e.g. don't suggest methods requiring 90 Slayer if they're level 50).",
	},
	core.SourceSkillCalc: {
		header:   "--- Skill Calculator Data (live GE prices) ---",
		guidance: "Use this data to give accurate cost estimates. These prices are live from the GE.",
	},
	core.SourceMoneyGuide: {
		header:   "--- Money Making Guide Data ---",
		guidance: "These are real methods from the OSRS Wiki money making guide. Use these exact GP/hr rates. When player stats are known, only methods they meet the requirements for are listed.",
	},
	core.SourceWiki: {
		header: "--- OSRS Wiki Context ---",
	},
}

// SystemPrompt folds the context blocks into the base prompt in priority order.
func SystemPrompt(base string, blocks []core.ContextBlock) string {
	ordered := make([]core.ContextBlock, 0, len(blocks))
	for _, block := range blocks {
		if strings.TrimSpace(block.Text) != "" {
			ordered = append(ordered, block)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	var sb strings.Builder
	sb.WriteString(base)

	hasWiki := false
	for _, block := range ordered {
		format, ok := sectionFormats[block.Source]
		if !ok {
			continue
		}
		if block.Source == core.SourceWiki {
			hasWiki = true
		}

		sb.WriteString("\n\n")
		sb.WriteString(format.header)
		sb.WriteString("\n")
		sb.WriteString(strings.TrimRight(block.Text, "\n"))
		if format.guidance != "" {
			sb.WriteString("\n")
			sb.WriteString(format.guidance)
		}
	}

	if !hasWiki {
		sb.WriteString("\n\n")
		sb.WriteString(noWikiNote)
	}

	return sb.String()
}

// BuildRequest synthesizes the turn's only system prompt; system messages that
// ended up in history are never forwarded.
func BuildRequest(base string, blocks []core.ContextBlock, history []core.Message, model string) providers.Request {
	messages := make([]core.Message, 0, len(history))
	for _, msg := range history {
		if msg.Role != core.RoleSystem {
			messages = append(messages, msg)
		}
	}

	return providers.Request{
		SystemPrompt: SystemPrompt(base, blocks),
		Messages:     messages,
		Model:        model,
		Stream:       true,
	}
}
