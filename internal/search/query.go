// Package search turns a player's question into wiki search queries.
package search

import (
	"regexp"
	"strings"

	"github.com/erg0nix/gnomegpt/internal/core"
)

// MaxQueries bounds the primary plus supplementary queries for one question.
const MaxQueries = 4

var stopWords = toSet(
	"how", "do", "i", "can", "what", "is", "the", "a", "an", "to", "for",
	"of", "in", "on", "at", "with", "my", "me", "should", "would", "could",
	"where", "when", "why", "does", "did", "will", "am", "are", "was", "were",
	"be", "been", "being", "have", "has", "had", "it", "its", "this", "that",
	"which", "who", "from", "about", "into", "best", "good", "way", "some",
	"any", "much", "many", "most", "more", "also", "just", "very", "really",
	"like", "get", "got", "go", "going", "need", "want", "know", "tell",
	"please", "thanks", "thank", "help", "hey", "hi", "yo", "whats", "hows",
)

// compoundTerms are searched as whole phrases and never split into words.
var compoundTerms = []string{
	"superior dragon bones", "dragon bones", "dagannoth bones",
	"abyssal whip", "abyssal sire", "abyssal demon",
	"theatre of blood", "chambers of xeric", "tombs of amascut",
	"giant mole", "king black dragon", "kalphite queen",
	"corporeal beast", "nightmare zone", "pest control",
	"fight caves", "the inferno", "corrupted gauntlet", "the gauntlet",
	"guardians of the rift", "hallowed sepulchre",
	"blast furnace", "motherlode mine", "volcanic mine",
	"god wars dungeon", "wilderness bosses",
	"money making", "quest guide", "skill guide",
	"fire cape", "infernal cape", "barrows gloves",
	"dragon slayer", "monkey madness", "desert treasure",
	"recipe for disaster", "song of the elves", "sins of the father",
	"a night at the theatre",
	"black chinchompa", "red chinchompa",
	"mahogany table", "oak larder", "teak bench",
	"gilded altar", "wilderness altar",
	"slayer task", "slayer master",
	"grand exchange", "collection log",
	"max cape", "quest cape", "music cape",
	"cox", "tob", "toa", "gwd", "nmz",
	"dps calculator", "skill calculator",
}

var (
	levelPattern = regexp.MustCompile(`(?i)(?:level|lvl)\s*\d+`)
	tokenSplit   = regexp.MustCompile(`[\s,.?!;:]+`)
	tokenClean   = regexp.MustCompile(`[^a-z0-9'-]`)
)

// Extract returns the primary search query: known phrases first, then the
// remaining meaningful words.
func Extract(input string) string {
	lower := strings.ToLower(strings.TrimSpace(input))
	if lower == "" {
		return ""
	}

	var parts []string
	remaining := lower
	for _, term := range compoundTerms {
		if idx := phraseIndex(remaining, term); idx >= 0 {
			parts = append(parts, term)
			remaining = remaining[:idx] + " " + remaining[idx+len(term):]
		}
	}

	parts = append(parts, meaningfulWords(remaining)...)
	if len(parts) == 0 {
		return lower
	}

	return strings.Join(parts, " ")
}

// ExtractMultiple returns the primary query followed by intent-specific
// queries, deduplicated and capped at MaxQueries.
func ExtractMultiple(input string) []string {
	primary := Extract(input)
	if primary == "" {
		return nil
	}

	lower := strings.ToLower(input)
	queries := []string{primary}

	if containsAny(lower, "money", "gp/h", "profit") {
		queries = append(queries, "Money making guide")
	}

	if strings.Contains(lower, "quest") && !strings.Contains(primary, "quest") {
		queries = append(queries, primary+" quest")
	}

	if containsAny(lower, "train", "level", "xp", "fastest", "cheapest", "quickest", "efficient", "99") {
		queries = append(queries, primary+" training")
		for _, skill := range core.Skills {
			if strings.Contains(lower, skill) {
				queries = append(queries, core.SkillTitle(skill)+" training")
				break
			}
		}
	}

	if containsAny(lower, "kill", "fight", "beat", "defeat", "strategy") {
		queries = append(queries, primary+" strategy")
	}

	if containsAny(lower, "gear", "setup", "equipment", "bis", "what to wear", "loadout") {
		queries = append(queries, primary+" equipment", primary+" strategy", primary+"/Strategies")
	}

	return dedupe(queries, MaxQueries)
}

func meaningfulWords(text string) []string {
	text = levelPattern.ReplaceAllString(text, "")

	var words []string
	for _, token := range tokenSplit.Split(text, -1) {
		clean := strings.TrimSpace(tokenClean.ReplaceAllString(token, ""))
		if len(clean) > 1 && !stopWords[clean] {
			words = append(words, clean)
		}
	}
	return words
}

// phraseIndex finds term in text only where it starts and ends on a word boundary.
func phraseIndex(text, term string) int {
	offset := 0
	for {
		idx := strings.Index(text[offset:], term)
		if idx < 0 {
			return -1
		}
		start := offset + idx
		end := start + len(term)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return start
		}
		offset = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '\''
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

func dedupe(queries []string, limit int) []string {
	seen := make(map[string]bool, len(queries))
	out := make([]string, 0, len(queries))

	for _, q := range queries {
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
		if len(out) == limit {
			break
		}
	}
	return out
}

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
