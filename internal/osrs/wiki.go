package osrs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultWikiBaseURL = "https://oldschool.runescape.wiki"
	maxPageRunes       = 3000
	TruncationMarker   = "\n...[truncated]"
)

// WikiClient searches the OSRS wiki and fetches plain-text page extracts.
type WikiClient struct {
	baseURL string
	fetch   fetcher
}

func NewWikiClient(baseURL, userAgent string) *WikiClient {
	if baseURL == "" {
		baseURL = DefaultWikiBaseURL
	}
	return &WikiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetch:   newFetcher("wiki", userAgent),
	}
}

// BaseURL is the wiki root used for page links.
func (c *WikiClient) BaseURL() string {
	return c.baseURL
}

// Search returns up to limit page titles matching query.
func (c *WikiClient) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 1
	}

	params := url.Values{}
	params.Set("action", "opensearch")
	params.Set("search", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("format", "json")

	body, err := c.fetch.get(ctx, c.apiURL(params))
	if err != nil {
		return nil, err
	}

	var response []json.RawMessage
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decode wiki search: %w", err)
	}
	if len(response) < 2 {
		return nil, nil
	}

	var titles []string
	if err := json.Unmarshal(response[1], &titles); err != nil {
		return nil, fmt.Errorf("decode wiki search titles: %w", err)
	}
	return titles, nil
}

type extractResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string  `json:"title"`
			Extract *string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// Page returns the plain-text extract of title, or "" when the page does not exist.
func (c *WikiClient) Page(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("prop", "extracts")
	params.Set("explaintext", "1")
	params.Set("redirects", "1")
	params.Set("format", "json")

	body, err := c.fetch.get(ctx, c.apiURL(params))
	if err != nil {
		return "", err
	}

	var response extractResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("decode wiki page: %w", err)
	}

	for _, page := range response.Query.Pages {
		if page.Extract == nil {
			continue
		}
		return TruncateRunes(strings.TrimSpace(*page.Extract), maxPageRunes), nil
	}
	return "", nil
}

// SearchAndFetch searches for query and joins the extracts of the hits as
// "=== Title ===" sections. Pages that fail to load are skipped.
func (c *WikiClient) SearchAndFetch(ctx context.Context, query string, limit int) (string, error) {
	titles, err := c.Search(ctx, query, limit)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for _, title := range titles {
		content, err := c.Page(ctx, title)
		if err != nil {
			slog.Warn("wiki page fetch failed", "title", title, "error", err)
			continue
		}
		if content == "" {
			continue
		}
		writeSection(&builder, title, content)
	}
	return builder.String(), nil
}

// Strategy fetches "<target>/Strategies", falling back to the best search hit for "<target> strategy".
func (c *WikiClient) Strategy(ctx context.Context, target string) (string, error) {
	target = strings.TrimSpace(target)
	title := target + "/Strategies"

	content, err := c.Page(ctx, title)
	if err != nil {
		return "", err
	}
	if content == "" {
		titles, err := c.Search(ctx, target+" strategy", 1)
		if err != nil {
			return "", err
		}
		if len(titles) == 0 {
			return "", nil
		}
		title = titles[0]
		if content, err = c.Page(ctx, title); err != nil || content == "" {
			return "", err
		}
	}

	var builder strings.Builder
	writeSection(&builder, title, content)
	return builder.String(), nil
}

func (c *WikiClient) apiURL(params url.Values) string {
	return c.baseURL + "/api.php?" + params.Encode()
}

func writeSection(builder *strings.Builder, title, content string) {
	builder.WriteString("=== ")
	builder.WriteString(title)
	builder.WriteString(" ===\n")
	builder.WriteString(content)
	builder.WriteString("\n\n")
}

// TruncateRunes cuts s to limit runes and appends TruncationMarker when it was longer.
func TruncateRunes(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i] + TruncationMarker
		}
		count++
	}
	return s
}
