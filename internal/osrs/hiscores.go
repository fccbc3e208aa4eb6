package osrs

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/erg0nix/gnomegpt/internal/core"
)

const DefaultHiscoresBaseURL = "https://secure.runescape.com/m=hiscore_oldschool"

// ErrPlayerNotFound is returned when the hiscores have no entry for a name.
var ErrPlayerNotFound = errors.New("player not found")

// SkillStat is one skill row of the hiscores.
type SkillStat struct {
	Level int
	XP    int
}

// Stats is a player's hiscores entry. Skills is keyed by lower-case skill name.
type Stats struct {
	Player     string
	TotalLevel int
	TotalXP    int
	Skills     map[string]SkillStat
}

// Level returns the level of skill, or 1 when it is unknown.
func (s Stats) Level(skill string) int {
	if stat, ok := s.Skills[strings.ToLower(skill)]; ok && stat.Level > 0 {
		return stat.Level
	}
	return 1
}

// Levels returns a copy of the levels keyed by skill.
func (s Stats) Levels() map[string]int {
	levels := make(map[string]int, len(s.Skills))
	for name, stat := range s.Skills {
		levels[name] = stat.Level
	}
	return levels
}

// Format renders the stats as a context block.
func (s Stats) Format() string {
	var builder strings.Builder
	builder.WriteString("Player: " + s.Player + "\n")
	fmt.Fprintf(&builder, "Total Level: %d | Total XP: %s\n", s.TotalLevel, formatXP(s.TotalXP))
	builder.WriteString("Skills: ")

	first := true
	for _, skill := range core.Skills {
		stat, ok := s.Skills[skill]
		if !ok {
			continue
		}
		if !first {
			builder.WriteString(", ")
		}
		fmt.Fprintf(&builder, "%s: %d", core.SkillTitle(skill), stat.Level)
		first = false
	}
	return builder.String()
}

// HiscoresClient reads index_lite player stats, caching each player for a while.
type HiscoresClient struct {
	baseURL string
	fetch   fetcher
	cache   *TTLCache[string, Stats]
}

func NewHiscoresClient(baseURL, userAgent string, ttl time.Duration) *HiscoresClient {
	if baseURL == "" {
		baseURL = DefaultHiscoresBaseURL
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &HiscoresClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetch:   newFetcher("hiscores", userAgent),
		cache:   NewTTLCache[string, Stats](ttl, nil),
	}
}

// Stats fetches the hiscores entry for rsn.
func (c *HiscoresClient) Stats(ctx context.Context, rsn string) (Stats, error) {
	rsn = strings.TrimSpace(rsn)
	if rsn == "" {
		return Stats{}, errors.New("player name is empty")
	}

	key := strings.ToLower(rsn)
	if stats, ok := c.cache.Get(key); ok {
		return stats, nil
	}

	body, err := c.fetch.get(ctx, c.baseURL+"/index_lite.ws?player="+url.QueryEscape(rsn))
	if IsStatus(err, http.StatusNotFound) {
		return Stats{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, rsn)
	}
	if err != nil {
		return Stats{}, err
	}

	stats, err := parseIndexLite(rsn, string(body))
	if err != nil {
		return Stats{}, err
	}

	c.cache.Set(key, stats)
	return stats, nil
}

// parseIndexLite reads "rank,level,xp" rows: the overall row, then one row per skill.
// Activity rows after the skills are ignored.
func parseIndexLite(rsn, body string) (Stats, error) {
	reader := csv.NewReader(strings.NewReader(body))
	reader.FieldsPerRecord = -1

	stats := Stats{Player: rsn, Skills: make(map[string]SkillStat, len(core.Skills))}
	for row := 0; row <= len(core.Skills); row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Stats{}, fmt.Errorf("parse hiscores: %w", err)
		}
		if len(record) < 3 {
			continue
		}

		level, levelErr := strconv.Atoi(strings.TrimSpace(record[1]))
		xp, xpErr := strconv.Atoi(strings.TrimSpace(record[2]))
		if levelErr != nil || xpErr != nil {
			continue
		}

		if row == 0 {
			stats.TotalLevel = level
			stats.TotalXP = max(0, xp)
			continue
		}
		stats.Skills[core.Skills[row-1]] = SkillStat{Level: level, XP: max(0, xp)}
	}

	if len(stats.Skills) == 0 {
		return Stats{}, errors.New("parse hiscores: no skill rows")
	}
	return stats, nil
}

func formatXP(xp int) string {
	switch {
	case xp >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(xp)/1_000_000)
	case xp >= 1_000:
		return fmt.Sprintf("%.1fK", float64(xp)/1_000)
	default:
		return strconv.Itoa(xp)
	}
}
