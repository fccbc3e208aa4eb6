// Package assembler gathers the per-turn context blocks from the lookup services.
package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/erg0nix/gnomegpt/internal/core"
	"github.com/erg0nix/gnomegpt/internal/money"
	"github.com/erg0nix/gnomegpt/internal/osrs"
	"github.com/erg0nix/gnomegpt/internal/search"
)

const (
	// MaxWikiRunes bounds the concatenated wiki text of one turn.
	MaxWikiRunes = 12000

	topMoneyMethods      = 15
	categoryMoneyMethods = 10
	multiQueryWikiLimit  = 2
	wikiFetchParallelism = 2
)

var targetLevelPattern = regexp.MustCompile(`(?:to|level|lvl)\s*(\d{1,2})\b`)

type Wiki interface {
	SearchAndFetch(ctx context.Context, query string, limit int) (string, error)
}

type Hiscores interface {
	Stats(ctx context.Context, rsn string) (osrs.Stats, error)
}

type Calculator interface {
	Calculate(ctx context.Context, skill string, from, to int) (string, error)
}

type MoneyGuide interface {
	Top(levels map[string]int, n int) []money.Method
	ByCategory(query string, levels map[string]int, n int) []money.Method
}

// Deps are the lookup collaborators. Any of them may be nil.
type Deps struct {
	Wiki     Wiki
	Hiscores Hiscores
	Calc     Calculator
	Money    MoneyGuide
}

// Options are the per-turn switches taken from the configuration.
type Options struct {
	WikiLookup bool
	MaxResults int
	RSN        string
}

type Assembler struct {
	deps Deps
}

func New(deps Deps) *Assembler {
	return &Assembler{deps: deps}
}

// Assemble returns the context blocks for utterance in priority order. Every
// source failure is logged and leaves its block out; Assemble itself never fails.
func (a *Assembler) Assemble(ctx context.Context, utterance string, opts Options) []core.ContextBlock {
	lower := strings.ToLower(utterance)

	var blocks []core.ContextBlock
	add := func(source core.ContextSource, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		blocks = append(blocks, core.ContextBlock{Source: source, Text: text, Priority: source.Priority()})
	}

	stats, haveStats := a.playerStats(ctx, opts.RSN)
	if haveStats {
		add(core.SourcePlayerStats, stats.Format())
	}

	var calcText, moneyText, wikiText string
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		absorb(core.SourceSkillCalc, func() { calcText = a.skillCalc(groupCtx, lower, stats, haveStats) })
		return nil
	})
	group.Go(func() error {
		absorb(core.SourceMoneyGuide, func() { moneyText = a.moneyGuide(lower, stats, haveStats) })
		return nil
	})
	if opts.WikiLookup {
		group.Go(func() error {
			absorb(core.SourceWiki, func() { wikiText = a.wiki(groupCtx, utterance, opts.MaxResults) })
			return nil
		})
	}
	group.Wait()

	add(core.SourceSkillCalc, calcText)
	add(core.SourceMoneyGuide, moneyText)
	add(core.SourceWiki, wikiText)

	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Priority < blocks[j].Priority })
	return blocks
}

func (a *Assembler) playerStats(ctx context.Context, rsn string) (stats osrs.Stats, ok bool) {
	if a.deps.Hiscores == nil || strings.TrimSpace(rsn) == "" {
		return osrs.Stats{}, false
	}

	absorb(core.SourcePlayerStats, func() {
		var err error
		stats, err = a.deps.Hiscores.Stats(ctx, rsn)
		if err != nil {
			logFailure(core.SourcePlayerStats, err)
			return
		}
		ok = true
	})
	if !ok {
		return osrs.Stats{}, false
	}
	return stats, true
}

func (a *Assembler) skillCalc(ctx context.Context, lower string, stats osrs.Stats, haveStats bool) string {
	if a.deps.Calc == nil || !containsAny(lower, "cost", "how much", "99", "train", "level", "xp") {
		return ""
	}

	skill := mentionedSkill(lower)
	if skill == "" {
		return ""
	}

	target := 99
	if match := targetLevelPattern.FindStringSubmatch(lower); match != nil {
		if level, err := strconv.Atoi(match[1]); err == nil && level > 1 {
			target = level
		}
	}

	current := 1
	if haveStats {
		current = stats.Level(skill)
	}
	if current >= target {
		return ""
	}

	text, err := a.deps.Calc.Calculate(ctx, skill, current, target)
	if err != nil {
		logFailure(core.SourceSkillCalc, err)
		return ""
	}
	return text
}

func (a *Assembler) moneyGuide(lower string, stats osrs.Stats, haveStats bool) string {
	if a.deps.Money == nil || !containsAny(lower, "money", "gp/h", "gp/hr", "profit", "earning", "gold per") {
		return ""
	}

	var levels map[string]int
	if haveStats {
		levels = stats.Levels()
	}

	for _, category := range []string{"boss", "slayer"} {
		if strings.Contains(lower, category) {
			methods := a.deps.Money.ByCategory(category, levels, categoryMoneyMethods)
			return money.Format("Money making methods matching '"+category+"' (sorted by GP/hr):", methods)
		}
	}

	methods := a.deps.Money.Top(levels, topMoneyMethods)
	return money.Format("Top money making methods (sorted by GP/hr):", methods)
}

// wiki fetches every extracted query, keeping query order, and caps the total.
func (a *Assembler) wiki(ctx context.Context, utterance string, maxResults int) string {
	if a.deps.Wiki == nil {
		return ""
	}

	queries := search.ExtractMultiple(utterance)
	if len(queries) == 0 {
		return ""
	}

	limit := max(1, maxResults)
	if len(queries) > 1 {
		limit = multiQueryWikiLimit
	}

	results := make([]string, len(queries))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(wikiFetchParallelism)

	for i, query := range queries {
		i, query := i, query
		group.Go(func() error {
			absorb(core.SourceWiki, func() {
				text, err := a.deps.Wiki.SearchAndFetch(groupCtx, query, limit)
				if err != nil {
					logFailure(core.SourceWiki, err, "query", query)
					return
				}
				results[i] = text
			})
			return nil
		})
	}
	group.Wait()

	return osrs.TruncateRunes(strings.Join(results, ""), MaxWikiRunes)
}

func mentionedSkill(lower string) string {
	for _, skill := range core.Skills {
		if strings.Contains(lower, skill) {
			return skill
		}
	}
	return ""
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

// absorb runs fn and turns a panic into a logged source failure.
func absorb(source core.ContextSource, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logFailure(source, fmt.Errorf("panic: %v", r))
		}
	}()
	fn()
}

func logFailure(source core.ContextSource, err error, attrs ...any) {
	slog.Warn("context source failed", append([]any{"source", string(source), "error", err}, attrs...)...)
}
