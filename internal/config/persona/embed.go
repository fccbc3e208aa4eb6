package persona

import (
	_ "embed"
)

//go:embed prompts/system.md
var BaseSystemPrompt string

//go:embed prompts/gnome-child.md
var GnomeChildPrompt string

//go:embed prompts/wise-old-man.md
var WiseOldManPrompt string

//go:embed prompts/hans.md
var HansPrompt string
