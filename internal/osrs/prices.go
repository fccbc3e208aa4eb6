package osrs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/erg0nix/gnomegpt/internal/core"
)

const DefaultPricesBaseURL = "https://prices.runescape.wiki/api/v1/osrs"

// ErrItemNotFound is returned when no tradeable item matches a name.
var ErrItemNotFound = errors.New("item not found")

// Item is one entry of the GE item mapping.
type Item struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Members bool   `json:"members"`
	Limit   int    `json:"limit"`
}

// Price is the latest instant-buy (High) and instant-sell (Low) price of an item.
// Zero means no recent trade.
type Price struct {
	Item     Item
	High     int
	Low      int
	HighTime time.Time
}

// Unit picks the price used for cost estimates: the buy price, else the sell price.
func (p Price) Unit() int {
	if p.High > 0 {
		return p.High
	}
	return p.Low
}

// PriceClient looks up live Grand Exchange prices from the wiki price API.
type PriceClient struct {
	baseURL string
	wikiURL string
	fetch   fetcher
	mapping *TTLCache[string, []Item]
	now     func() time.Time
}

func NewPriceClient(baseURL, wikiURL, userAgent string, mappingTTL time.Duration) *PriceClient {
	if baseURL == "" {
		baseURL = DefaultPricesBaseURL
	}
	if wikiURL == "" {
		wikiURL = DefaultWikiBaseURL
	}
	if mappingTTL <= 0 {
		mappingTTL = time.Hour
	}
	return &PriceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		wikiURL: strings.TrimRight(wikiURL, "/"),
		fetch:   newFetcher("prices", userAgent),
		mapping: NewTTLCache[string, []Item](mappingTTL, nil),
		now:     time.Now,
	}
}

// FindItem resolves a name to an item: exact match first, then the first
// item whose name contains the query or is contained in it.
func (c *PriceClient) FindItem(ctx context.Context, name string) (Item, error) {
	items, err := c.items(ctx)
	if err != nil {
		return Item{}, err
	}

	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return Item{}, ErrItemNotFound
	}

	for _, item := range items {
		if strings.ToLower(item.Name) == query {
			return item, nil
		}
	}
	for _, item := range items {
		lower := strings.ToLower(item.Name)
		if strings.Contains(lower, query) || strings.Contains(query, lower) {
			return item, nil
		}
	}
	return Item{}, ErrItemNotFound
}

type latestResponse struct {
	Data map[string]map[string]any `json:"data"`
}

// Latest returns the current price of the named item.
func (c *PriceClient) Latest(ctx context.Context, name string) (Price, error) {
	item, err := c.FindItem(ctx, name)
	if err != nil {
		return Price{}, err
	}

	body, err := c.fetch.get(ctx, c.baseURL+"/latest?id="+strconv.Itoa(item.ID))
	if err != nil {
		return Price{}, err
	}

	var response latestResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Price{}, fmt.Errorf("decode latest prices: %w", err)
	}

	data, ok := response.Data[strconv.Itoa(item.ID)]
	if !ok {
		return Price{Item: item}, nil
	}

	price := Price{
		Item: item,
		High: core.IntFromAny(data["high"]),
		Low:  core.IntFromAny(data["low"]),
	}
	if ts := core.IntFromAny(data["highTime"]); ts > 0 {
		price.HighTime = time.Unix(int64(ts), 0)
	}
	return price, nil
}

// Lookup formats the current price of an item for display. Unknown items
// produce a hint rather than an error.
func (c *PriceClient) Lookup(ctx context.Context, name string) (string, error) {
	price, err := c.Latest(ctx, name)
	if errors.Is(err, ErrItemNotFound) {
		return fmt.Sprintf("Couldn't find '%s'. Try the exact in-game name.", strings.TrimSpace(name)), nil
	}
	if err != nil {
		return "", err
	}

	if price.High == 0 && price.Low == 0 {
		return fmt.Sprintf("No GE data for '%s'.", price.Item.Name), nil
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "%s: high %s gp / low %s gp", price.Item.Name, FormatGP(price.High), FormatGP(price.Low))
	if !price.HighTime.IsZero() {
		minutes := int(c.now().Sub(price.HighTime).Minutes())
		fmt.Fprintf(&builder, "\nLast trade: %dm ago", max(0, minutes))
	}
	if price.Item.Limit > 0 {
		fmt.Fprintf(&builder, "\nBuy limit: %d", price.Item.Limit)
	}
	builder.WriteString("\nWiki: " + c.wikiURL + "/w/" + url.PathEscape(strings.ReplaceAll(price.Item.Name, " ", "_")))
	return builder.String(), nil
}

func (c *PriceClient) items(ctx context.Context) ([]Item, error) {
	if items, ok := c.mapping.Get("mapping"); ok {
		return items, nil
	}

	body, err := c.fetch.get(ctx, c.baseURL+"/mapping")
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode item mapping: %w", err)
	}

	c.mapping.Set("mapping", items)
	return items, nil
}

// FormatGP renders an amount the way players write it: 950, 12.5K, 1.50M, 2.10B.
func FormatGP(amount int) string {
	switch {
	case amount >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", float64(amount)/1_000_000_000)
	case amount >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(amount)/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("%.1fK", float64(amount)/1_000)
	default:
		return strconv.Itoa(amount)
	}
}
