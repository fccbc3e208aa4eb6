package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/erg0nix/gnomegpt/internal/calc"
	"github.com/erg0nix/gnomegpt/internal/markup"
)

const maxWikiRunes = 1500

type Wiki interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
	Page(ctx context.Context, title string) (string, error)
}

type Prices interface {
	Lookup(ctx context.Context, name string) (string, error)
}

type Calculator interface {
	Calculate(ctx context.Context, skill string, from, to int) (string, error)
	Skills() []string
}

type Guide interface {
	Current() string
	Advance() (string, error)
	Undo() (string, error)
	Status() string
	Reset() (string, error)
}

// Deps are the lookup collaborators behind the commands. Nil members make
// their commands reply that the feature is unavailable.
type Deps struct {
	Wiki     Wiki
	Prices   Prices
	Calc     Calculator
	Guide    Guide
	WikiBase string
}

type builtins struct {
	deps  Deps
	links *markup.Segmenter
	reg   *Registry
}

// NewDefault returns a registry with every built-in command.
func NewDefault(deps Deps) *Registry {
	b := &builtins{deps: deps, links: markup.NewSegmenter(deps.WikiBase), reg: NewRegistry()}

	b.reg.Register(&Command{Name: "price", Usage: "/price <item>", Description: "GE price check", Run: b.price})
	b.reg.Register(&Command{Name: "wiki", Usage: "/wiki <topic>", Description: "Quick wiki lookup", Run: b.wikiCommand("/wiki <topic>", "Abyssal whip", "")})
	b.reg.Register(&Command{Name: "item", Usage: "/item <name>", Description: "Item info", Run: b.wikiCommand("/item <name>", "Dragon scimitar", "")})
	b.reg.Register(&Command{Name: "quest", Usage: "/quest <name>", Description: "Quest info", Run: b.wikiCommand("/quest <name>", "Dragon Slayer I", " quest")})
	b.reg.Register(&Command{Name: "monster", Usage: "/monster <name>", Description: "Monster info", Run: b.wikiCommand("/monster <name>", "Abyssal demon", "")})
	b.reg.Register(&Command{Name: "gear", Usage: "/gear <boss or item>", Description: "Gear setups and strategy", Run: b.gear})
	b.reg.Register(&Command{Name: "calc", Usage: "/calc <skill> [current] [target]", Description: "Training cost calculator", Run: b.calc})
	b.reg.Register(&Command{Name: "iron", Aliases: []string{"guide"}, Usage: "/iron [next|back|status|reset|help]", Description: "Ironman guide tracker", Run: b.iron})
	b.reg.Register(&Command{Name: "clear", Usage: "/clear", Description: "Clear chat history", Run: clearHistory})
	b.reg.Register(&Command{Name: "help", Usage: "/help", Description: "This message", Run: b.help})

	return b.reg
}

func text(format string, args ...any) Result {
	return Result{Text: fmt.Sprintf(format, args...)}
}

func clearHistory(context.Context, string) Result {
	return Result{Clear: true}
}

func (b *builtins) help(context.Context, string) Result {
	var sb strings.Builder
	sb.WriteString("**GnomeGPT Commands:**\n\n")
	sb.WriteString(b.reg.Summaries())
	if b.deps.Calc != nil {
		sb.WriteString("\nPriced /calc skills: " + strings.Join(b.deps.Calc.Skills(), ", "))
	}
	sb.WriteString("\nOr just type normally and I'll help you out!")
	return Result{Text: sb.String()}
}

func (b *builtins) price(ctx context.Context, item string) Result {
	if item == "" {
		return text("Usage: /price <item name>\nExample: /price Dragon bones")
	}
	if b.deps.Prices == nil {
		return text("Price lookups are not available.")
	}

	reply, err := b.deps.Prices.Lookup(ctx, item)
	if err != nil {
		slog.Warn("price lookup failed", "item", item, "error", err)
		return text("Couldn't look up price for '%s'. Try again or check the wiki.", item)
	}
	return Result{Text: reply}
}

func (b *builtins) wikiCommand(usage, example, suffix string) Handler {
	return func(ctx context.Context, query string) Result {
		if query == "" {
			return text("Usage: %s\nExample: %s %s", usage, strings.Fields(usage)[0], example)
		}
		if b.deps.Wiki == nil {
			return text("Wiki lookups are not available.")
		}

		reply, err := b.lookup(ctx, query+suffix)
		if err != nil {
			slog.Warn("wiki lookup failed", "query", query, "error", err)
			return text("Couldn't search the wiki for '%s'.", query+suffix)
		}
		return Result{Text: reply}
	}
}

// lookup returns the top search hit for query with a link to the page.
func (b *builtins) lookup(ctx context.Context, query string) (string, error) {
	titles, err := b.deps.Wiki.Search(ctx, query, 1)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return fmt.Sprintf("No wiki results for '%s'.", query), nil
	}

	title := titles[0]
	content, err := b.deps.Wiki.Page(ctx, title)
	if err != nil {
		return "", err
	}
	return b.page(title, content), nil
}

func (b *builtins) page(title, content string) string {
	url := b.links.WikiURL(title)
	if content == "" {
		return title + "\n" + url + "\n\nNo content available."
	}

	if runes := []rune(content); len(runes) > maxWikiRunes {
		return "=== " + title + " ===\n" + string(runes[:maxWikiRunes]) + "...\n\nRead more: " + url
	}
	return "=== " + title + " ===\n" + content + "\n\n" + url
}

func (b *builtins) gear(ctx context.Context, target string) Result {
	if target == "" {
		return text("Usage: /gear <boss or item>\nExample: /gear Vorkath")
	}
	if b.deps.Wiki == nil {
		return text("Wiki lookups are not available.")
	}

	strategies := target + "/Strategies"
	content, err := b.deps.Wiki.Page(ctx, strategies)
	if err == nil && content != "" {
		return Result{Text: b.page(strategies, content)}
	}
	if err != nil {
		slog.Warn("strategy page fetch failed", "target", target, "error", err)
	}

	reply, err := b.lookup(ctx, target)
	if err != nil {
		slog.Warn("gear lookup failed", "target", target, "error", err)
		return text("Couldn't look up '%s'.", target)
	}

	if b.deps.Prices != nil {
		price, err := b.deps.Prices.Lookup(ctx, target)
		if err == nil && !strings.HasPrefix(price, "Couldn't") && !strings.HasPrefix(price, "No GE data") {
			reply = price + "\n\n" + reply
		}
	}
	return Result{Text: reply}
}

func (b *builtins) calc(ctx context.Context, args string) Result {
	if b.deps.Calc == nil {
		return text("The skill calculator is not available.")
	}

	usage := "Usage: /calc <skill> [current] [target]\nExample: /calc construction 50 99"
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return text("%s\n\nPriced skills: %s", usage, strings.Join(b.deps.Calc.Skills(), ", "))
	}
	if len(fields) > 3 {
		return Result{Text: usage}
	}

	levels := []int{1, calc.MaxLevel}
	for i, field := range fields[1:] {
		level, err := strconv.Atoi(field)
		if err != nil {
			return text("Invalid levels. Use numbers: /calc construction 50 99")
		}
		if level < 1 || level > calc.MaxLevel {
			return text("Levels must be between 1 and 99.")
		}
		levels[i] = level
	}
	if levels[1] <= levels[0] {
		return text("Target level must be higher than current level.")
	}

	reply, err := b.deps.Calc.Calculate(ctx, fields[0], levels[0], levels[1])
	if errors.Is(err, calc.ErrUnknownSkill) {
		return text("'%s' isn't a skill. Priced skills: %s", fields[0], strings.Join(b.deps.Calc.Skills(), ", "))
	}
	if err != nil {
		return text("Couldn't calculate %s: %v", fields[0], err)
	}
	return Result{Text: reply}
}

func (b *builtins) iron(_ context.Context, args string) Result {
	if b.deps.Guide == nil {
		return text("Guide data not loaded. Something went wrong at startup.")
	}

	var (
		reply string
		err   error
	)

	switch strings.ToLower(args) {
	case "":
		reply = b.deps.Guide.Current()
	case "next", "done", "complete":
		reply, err = b.deps.Guide.Advance()
	case "status", "progress":
		reply = b.deps.Guide.Status()
	case "back", "undo":
		reply, err = b.deps.Guide.Undo()
	case "reset":
		reply, err = b.deps.Guide.Reset()
	case "help":
		reply = "**Ironman Guide**\n\n" +
			"- /iron - Show current step\n" +
			"- /iron next - Mark step complete, show next\n" +
			"- /iron back - Undo last step\n" +
			"- /iron status - Show progress\n" +
			"- /iron reset - Reset all progress"
	default:
		reply = "Unknown /iron command. Try: /iron help"
	}

	if err != nil {
		slog.Warn("guide progress update failed", "args", args, "error", err)
		return text("Couldn't save guide progress: %v", err)
	}
	return Result{Text: reply}
}
