// Package calc estimates the experience, actions and GE cost of training a skill.
package calc

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/erg0nix/gnomegpt/internal/core"
	"github.com/erg0nix/gnomegpt/internal/osrs"
)

//go:embed data/methods.yaml
var methodsYAML []byte

// ErrUnknownSkill is returned for names that are not skills.
var ErrUnknownSkill = errors.New("unknown skill")

// Method is one way to train a skill by consuming a bought item.
type Method struct {
	Name     string  `yaml:"name"`
	XP       float64 `yaml:"xp"`
	Item     string  `yaml:"item"`
	Quantity int     `yaml:"quantity"`
}

// PriceSource resolves live prices; *osrs.PriceClient satisfies it.
type PriceSource interface {
	Latest(ctx context.Context, name string) (osrs.Price, error)
}

// Calculator combines the XP table, the method list and live prices.
type Calculator struct {
	prices  PriceSource
	methods map[string][]Method
	printer *message.Printer
}

// New loads the embedded method list. prices may be nil to skip cost estimates.
func New(prices PriceSource) (*Calculator, error) {
	methods := make(map[string][]Method)
	if err := yaml.Unmarshal(methodsYAML, &methods); err != nil {
		return nil, fmt.Errorf("load training methods: %w", err)
	}

	for skill := range methods {
		if !core.IsSkill(skill) {
			return nil, fmt.Errorf("load training methods: %w: %s", ErrUnknownSkill, skill)
		}
	}

	return &Calculator{
		prices:  prices,
		methods: methods,
		printer: message.NewPrinter(language.English),
	}, nil
}

// Skills lists the skills that have priced training methods.
func (c *Calculator) Skills() []string {
	skills := make([]string, 0, len(c.methods))
	for skill := range c.methods {
		skills = append(skills, skill)
	}
	slices.Sort(skills)
	return skills
}

// Methods returns the training methods for skill.
func (c *Calculator) Methods(skill string) []Method {
	return c.methods[strings.ToLower(strings.TrimSpace(skill))]
}

// Calculate describes training skill from one level to another: XP needed,
// then per method the actions, items and cost at current GE prices.
func (c *Calculator) Calculate(ctx context.Context, skill string, from, to int) (string, error) {
	skill = strings.ToLower(strings.TrimSpace(skill))
	if !core.IsSkill(skill) {
		return "", fmt.Errorf("%w: %s", ErrUnknownSkill, skill)
	}

	from = max(1, min(MaxLevel, from))
	to = max(1, min(MaxLevel, to))
	if to <= from {
		return "", fmt.Errorf("target level %d must be above current level %d", to, from)
	}

	xpNeeded := XPBetween(from, to)

	var builder strings.Builder
	fmt.Fprintf(&builder, "%s: Level %d -> %d\n", core.SkillTitle(skill), from, to)
	c.printer.Fprintf(&builder, "XP needed: %d\n\n", xpNeeded)

	methods := c.methods[skill]
	if len(methods) == 0 {
		builder.WriteString("No cost data for this skill yet. Check the wiki for training methods.")
		return builder.String(), nil
	}

	for _, method := range methods {
		actions := int(math.Ceil(float64(xpNeeded) / method.XP))
		items := actions * max(1, method.Quantity)

		builder.WriteString("- " + method.Name + "\n")
		c.printer.Fprintf(&builder, "  %d actions | %dx [[%s]]\n", actions, items, method.Item)

		if cost, unit, ok := c.cost(ctx, method.Item, items); ok {
			fmt.Fprintf(&builder, "  Cost: %s gp (%s ea)\n", osrs.FormatGP(cost), osrs.FormatGP(unit))
		}
		builder.WriteString("\n")
	}

	return strings.TrimRight(builder.String(), "\n"), nil
}

func (c *Calculator) cost(ctx context.Context, item string, quantity int) (int, int, bool) {
	if c.prices == nil || item == "" {
		return 0, 0, false
	}

	price, err := c.prices.Latest(ctx, item)
	if err != nil {
		slog.Debug("price lookup failed", "item", item, "error", err)
		return 0, 0, false
	}

	unit := price.Unit()
	if unit <= 0 {
		return 0, 0, false
	}
	return unit * quantity, unit, true
}
