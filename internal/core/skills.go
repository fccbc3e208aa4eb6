package core

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Skills lists the skills in hiscores order, lower case.
var Skills = []string{
	"attack", "defence", "strength", "hitpoints", "ranged", "prayer", "magic",
	"cooking", "woodcutting", "fletching", "fishing", "firemaking", "crafting",
	"smithing", "mining", "herblore", "agility", "thieving", "slayer", "farming",
	"runecraft", "hunter", "construction",
}

var titleCaser = cases.Title(language.English)

// SkillTitle returns the display form of a skill name ("woodcutting" -> "Woodcutting").
func SkillTitle(skill string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(skill)))
}

// IsSkill reports whether name is a skill, ignoring case.
func IsSkill(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range Skills {
		if s == name {
			return true
		}
	}
	return false
}
