package conversation

import (
	"strings"
	"testing"

	"github.com/erg0nix/gnomegpt/internal/core"
)

func block(source core.ContextSource, text string) core.ContextBlock {
	return core.ContextBlock{Source: source, Text: text, Priority: source.Priority()}
}

func TestSystemPromptOrdersSectionsByPriority(t *testing.T) {
	blocks := []core.ContextBlock{
		block(core.SourceWiki, "=== Varrock ===\nA city."),
		block(core.SourcePlayerStats, "Player: Zezima"),
		block(core.SourceMoneyGuide, "1. Vorkath"),
		block(core.SourceSkillCalc, "Fletching 70 -> 99"),
	}

	prompt := SystemPrompt("BASE", blocks)

	headers := []string{
		"--- Player Stats ---",
		"--- Skill Calculator Data (live GE prices) ---",
		"--- Money Making Guide Data ---",
		"--- OSRS Wiki Context ---",
	}

	last := -1
	for _, header := range headers {
		idx := strings.Index(prompt, header)
		if idx < 0 {
			t.Fatalf("prompt missing %q", header)
		}
		if idx <= last {
			t.Errorf("%q out of order", header)
		}
		last = idx
	}

	if !strings.HasPrefix(prompt, "BASE\n\n") {
		t.Errorf("prompt should start with base: %q", prompt[:20])
	}
	if strings.Contains(prompt, noWikiNote) {
		t.Error("no-wiki note should be absent when wiki context exists")
	}
}

func TestSystemPromptWithoutWiki(t *testing.T) {
	prompt := SystemPrompt("BASE", []core.ContextBlock{block(core.SourceWiki, "   ")})

	if !strings.HasSuffix(prompt, noWikiNote) {
		t.Errorf("prompt = %q, want no-wiki note", prompt)
	}
}

func TestBuildRequestHasSingleSystemPrompt(t *testing.T) {
	history := []core.Message{
		core.NewMessage(core.RoleSystem, "stale"),
		core.NewMessage(core.RoleUser, "where is lumbridge"),
	}

	req := BuildRequest("BASE", nil, history, "llama3.2")

	if len(req.Messages) != 1 || req.Messages[0].Role != core.RoleUser {
		t.Fatalf("messages = %+v, want the user message only", req.Messages)
	}
	if strings.Contains(req.SystemPrompt, "stale") {
		t.Error("system prompt must be synthesized, not taken from history")
	}
	if req.Model != "llama3.2" || !req.Stream {
		t.Errorf("request = %+v", req)
	}
}
