// Package sentiment builds the market context line attached to alerts from
// CoinGecko global data and the alternative.me Fear & Greed index.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultCoinGeckoURL = "https://api.coingecko.com"
	DefaultFearGreedURL = "https://api.alternative.me"

	// Unavailable is returned whenever the global market data cannot be read.
	Unavailable = "⚠️ *Market data unavailable*"
)

// Client implements model.ContextSource.
type Client struct {
	coingecko string
	fng       string
	client    *http.Client
	fngClient *http.Client
}

// NewClient creates a sentiment client. Empty URLs select the public APIs.
func NewClient(coingeckoURL, fngURL string, timeout time.Duration) *Client {
	if coingeckoURL == "" {
		coingeckoURL = DefaultCoinGeckoURL
	}
	if fngURL == "" {
		fngURL = DefaultFearGreedURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		coingecko: strings.TrimRight(coingeckoURL, "/"),
		fng:       strings.TrimRight(fngURL, "/"),
		client:    &http.Client{Timeout: timeout},
		fngClient: &http.Client{Timeout: timeout / 2},
	}
}

type globalResponse struct {
	Data struct {
		TotalMarketCap      map[string]float64 `json:"total_market_cap"`
		MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
		MarketCapChange24h  float64            `json:"market_cap_change_percentage_24h_usd"`
	} `json:"data"`
}

type fngResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

// MarketContext never fails; any error yields Unavailable.
func (c *Client) MarketContext(ctx context.Context) string {
	var g globalResponse
	if err := c.getJSON(ctx, c.client, c.coingecko+"/api/v3/global", &g); err != nil {
		slog.Warn("market data unavailable", "component", "sentiment", "error", err)
		return Unavailable
	}
	capUSD := g.Data.TotalMarketCap["usd"]
	btc := g.Data.MarketCapPercentage["btc"]
	if capUSD <= 0 || btc <= 0 {
		slog.Warn("market data incomplete", "component", "sentiment")
		return Unavailable
	}
	return Format(capUSD, g.Data.MarketCapChange24h, btc, c.fearGreed(ctx))
}

func (c *Client) fearGreed(ctx context.Context) string {
	var f fngResponse
	if err := c.getJSON(ctx, c.fngClient, c.fng+"/fng/?limit=1", &f); err != nil || len(f.Data) == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%s (%s)", f.Data[0].Value, f.Data[0].Classification)
}

func (c *Client) getJSON(ctx context.Context, hc *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("sentiment: create request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("sentiment: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sentiment: %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sentiment: decode: %w", err)
	}
	return nil
}

// Format renders the Markdown market block.
func Format(capUSD, change24h, btcDominance float64, fearGreed string) string {
	arrow := "📈"
	if change24h < 0 {
		arrow = "📉"
	}
	return fmt.Sprintf("🌍 *CRYPTO MARKET:*\n"+
		"• Total Cap: %s %s (%+.1f%%)\n"+
		"• BTC Dominance: %.1f%%\n"+
		"• Fear & Greed: %s",
		Abbreviate(capUSD), arrow, change24h, btcDominance, fearGreed)
}

// Abbreviate formats a USD amount as $x.xxT, $x.xxB or $xM.
func Abbreviate(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	}
	return fmt.Sprintf("$%.0fM", v/1e6)
}
