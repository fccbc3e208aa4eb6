package osrs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mappingJSON = `[
	{"id": 4151, "name": "Abyssal whip", "members": true, "limit": 70},
	{"id": 536, "name": "Dragon bones", "members": true, "limit": 7500},
	{"id": 22124, "name": "Superior dragon bones", "members": true, "limit": 7500},
	{"id": 1511, "name": "Logs", "members": false, "limit": 15000}
]`

func newPriceServer(t *testing.T, mappingCalls *atomic.Int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/mapping":
			mappingCalls.Add(1)
			w.Write([]byte(mappingJSON))
		case "/latest":
			switch r.URL.Query().Get("id") {
			case "4151":
				w.Write([]byte(`{"data":{"4151":{"high":1520000,"highTime":1700000000,"low":1490000,"lowTime":1700000000}}}`))
			case "536":
				w.Write([]byte(`{"data":{"536":{"high":2100,"highTime":null,"low":null,"lowTime":null}}}`))
			default:
				w.Write([]byte(`{"data":{}}`))
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestPriceLatest(t *testing.T) {
	var calls atomic.Int32
	server := newPriceServer(t, &calls)
	client := NewPriceClient(server.URL, "", "", time.Hour)

	price, err := client.Latest(context.Background(), "abyssal WHIP")
	require.NoError(t, err)
	assert.Equal(t, 4151, price.Item.ID)
	assert.Equal(t, 1520000, price.High)
	assert.Equal(t, 1490000, price.Low)
	assert.Equal(t, int64(1700000000), price.HighTime.Unix())

	price, err = client.Latest(context.Background(), "dragon bones")
	require.NoError(t, err)
	assert.Equal(t, "Dragon bones", price.Item.Name, "exact match wins over partial")
	assert.Equal(t, 2100, price.Unit())
	assert.Zero(t, price.Low)

	assert.Equal(t, int32(1), calls.Load(), "mapping is cached")
}

func TestPriceFindItemPartial(t *testing.T) {
	var calls atomic.Int32
	server := newPriceServer(t, &calls)
	client := NewPriceClient(server.URL, "", "", time.Hour)

	item, err := client.FindItem(context.Background(), "whip")
	require.NoError(t, err)
	assert.Equal(t, "Abyssal whip", item.Name)

	_, err = client.FindItem(context.Background(), "twisted bow")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestPriceLookupText(t *testing.T) {
	var calls atomic.Int32
	server := newPriceServer(t, &calls)
	client := NewPriceClient(server.URL, "https://wiki.test", "", time.Hour)
	client.now = func() time.Time { return time.Unix(1700000000+300, 0) }

	got, err := client.Lookup(context.Background(), "abyssal whip")
	require.NoError(t, err)
	assert.Equal(t, "Abyssal whip: high 1.52M gp / low 1.49M gp\nLast trade: 5m ago\nBuy limit: 70\nWiki: https://wiki.test/w/Abyssal_whip", got)

	got, err = client.Lookup(context.Background(), "twisted bow")
	require.NoError(t, err)
	assert.Equal(t, "Couldn't find 'twisted bow'. Try the exact in-game name.", got)

	got, err = client.Lookup(context.Background(), "logs")
	require.NoError(t, err)
	assert.Equal(t, "No GE data for 'Logs'.", got)
}

func TestPriceMappingFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewPriceClient(server.URL, "", "", time.Hour).Lookup(context.Background(), "logs")
	assert.Error(t, err)
}

func TestFormatGP(t *testing.T) {
	tests := []struct {
		amount int
		want   string
	}{
		{950, "950"},
		{12500, "12.5K"},
		{1500000, "1.50M"},
		{2100000000, "2.10B"},
	}

	for _, tt := range tests {
		if got := FormatGP(tt.amount); got != tt.want {
			t.Errorf("FormatGP(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
