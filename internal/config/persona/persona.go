// Package persona holds the built-in assistant personalities.
package persona

import "strings"

const (
	GnomeChild = "gnome_child"
	WiseOldMan = "wise_old_man"
	Hans       = "hans"
	Custom     = "custom"
)

// Names lists the selectable personalities in display order.
func Names() []string {
	return []string{GnomeChild, WiseOldMan, Hans, Custom}
}

// SystemPrompt returns the base prompt for a personality. A non-empty
// override replaces the whole prompt, personality included.
func SystemPrompt(personality, override string) string {
	if strings.TrimSpace(override) != "" {
		return strings.TrimSpace(override)
	}

	base := strings.TrimSpace(BaseSystemPrompt)

	switch personality {
	case Custom:
		return base
	case WiseOldMan:
		return base + "\n\n" + strings.TrimSpace(WiseOldManPrompt)
	case Hans:
		return base + "\n\n" + strings.TrimSpace(HansPrompt)
	default:
		return base + "\n\n" + strings.TrimSpace(GnomeChildPrompt)
	}
}
