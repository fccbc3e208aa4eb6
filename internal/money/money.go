// Package money ranks money making methods by profit and the player's levels.
package money

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/erg0nix/gnomegpt/internal/core"
	"github.com/erg0nix/gnomegpt/internal/osrs"
)

//go:embed data/methods.yaml
var methodsYAML []byte

// Method is one money making method.
type Method struct {
	Name         string         `yaml:"name"`
	Category     string         `yaml:"category"`
	GPPerHour    int            `yaml:"gp_per_hour"`
	Intensity    string         `yaml:"intensity"`
	Members      *bool          `yaml:"members"`
	Requirements map[string]int `yaml:"requirements"`
}

// IsMembers reports whether the method needs membership; methods default to members.
func (m Method) IsMembers() bool {
	return m.Members == nil || *m.Members
}

// Meets reports whether levels satisfy every requirement. Empty levels satisfy everything.
func (m Method) Meets(levels map[string]int) bool {
	if len(levels) == 0 {
		return true
	}

	for skill, required := range m.Requirements {
		if required <= 1 {
			continue
		}
		if skill == "combat" {
			if combatLevel(levels) < required {
				return false
			}
			continue
		}
		level, ok := levels[skill]
		if ok && level < required {
			return false
		}
	}
	return true
}

func combatLevel(levels map[string]int) int {
	best := 1
	for _, skill := range []string{"attack", "strength", "ranged", "magic"} {
		best = max(best, levels[skill])
	}
	return best
}

// Guide is the loaded method list, sorted by profit.
type Guide struct {
	methods []Method
}

// Load reads the embedded method list.
func Load() (*Guide, error) {
	var methods []Method
	if err := yaml.Unmarshal(methodsYAML, &methods); err != nil {
		return nil, fmt.Errorf("load money making methods: %w", err)
	}

	for _, method := range methods {
		for skill := range method.Requirements {
			if skill != "combat" && !core.IsSkill(skill) {
				return nil, fmt.Errorf("load money making methods: %s requires unknown skill %q", method.Name, skill)
			}
		}
	}

	slices.SortStableFunc(methods, func(a, b Method) int {
		return b.GPPerHour - a.GPPerHour
	})
	return &Guide{methods: methods}, nil
}

// Len is the number of known methods.
func (g *Guide) Len() int {
	return len(g.methods)
}

// Top returns up to n of the most profitable methods the player can do.
func (g *Guide) Top(levels map[string]int, n int) []Method {
	return g.filter(levels, n, func(Method) bool { return true })
}

// ByCategory returns up to n methods whose category, requirement skill or
// name contains query. With no match it falls back to Top.
func (g *Guide) ByCategory(query string, levels map[string]int, n int) []Method {
	query = strings.ToLower(strings.TrimSpace(query))
	matches := g.filter(levels, n, func(m Method) bool {
		if strings.Contains(strings.ToLower(m.Category), query) || strings.Contains(strings.ToLower(m.Name), query) {
			return true
		}
		_, ok := m.Requirements[query]
		return ok
	})
	if len(matches) == 0 {
		return g.Top(levels, n)
	}
	return matches
}

func (g *Guide) filter(levels map[string]int, n int, keep func(Method) bool) []Method {
	var out []Method
	for _, method := range g.methods {
		if len(out) == n {
			break
		}
		if keep(method) && method.Meets(levels) {
			out = append(out, method)
		}
	}
	return out
}

// Format renders methods as a numbered list under title.
func Format(title string, methods []Method) string {
	var builder strings.Builder
	builder.WriteString(title + "\n")

	for i, method := range methods {
		fmt.Fprintf(&builder, "%d. %s - %s gp/h (%s)", i+1, method.Name, formatRate(method.GPPerHour), method.Category)
		if reqs := formatRequirements(method.Requirements); reqs != "" {
			builder.WriteString(" [" + reqs + "]")
		}
		if !method.IsMembers() {
			builder.WriteString(" F2P")
		}
		builder.WriteString("\n")
	}
	return strings.TrimRight(builder.String(), "\n")
}

func formatRate(gp int) string {
	if gp >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(gp)/1_000_000)
	}
	return osrs.FormatGP(gp)
}

func formatRequirements(requirements map[string]int) string {
	skills := make([]string, 0, len(requirements))
	for skill, level := range requirements {
		if level > 1 {
			skills = append(skills, skill)
		}
	}
	slices.Sort(skills)

	parts := make([]string, len(skills))
	for i, skill := range skills {
		parts[i] = fmt.Sprintf("%d %s", requirements[skill], core.SkillTitle(skill))
	}
	return strings.Join(parts, ", ")
}
