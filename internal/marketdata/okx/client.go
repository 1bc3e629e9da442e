// Package okx fetches OHLCV candles from the OKX public REST API.
package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"setup-scanner/internal/model"
)

const (
	// DefaultBaseURL is the public OKX REST endpoint.
	DefaultBaseURL = "https://www.okx.com"

	candlesPath = "/api/v5/market/candles"
	// maxPerPage is the OKX page limit for market/candles.
	maxPerPage = 300
)

// Client is a model.CandleSource for OKX spot markets.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates an OKX client. Empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type candlesResponse struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}

// InstID converts "BTC/USDT" to the OKX instrument id "BTC-USDT".
func InstID(asset string) string {
	return strings.ToUpper(strings.ReplaceAll(asset, "/", "-"))
}

// Bar maps a timeframe to an OKX bar string (15m, 1H, 4H, 1D, 1W).
func Bar(tf time.Duration) (string, error) {
	switch {
	case tf <= 0:
	case tf < time.Hour && tf%time.Minute == 0:
		switch m := int(tf / time.Minute); m {
		case 1, 3, 5, 15, 30:
			return strconv.Itoa(m) + "m", nil
		}
	case tf < 24*time.Hour && tf%time.Hour == 0:
		switch h := int(tf / time.Hour); h {
		case 1, 2, 4, 6, 12:
			return strconv.Itoa(h) + "H", nil
		}
	case tf == 24*time.Hour:
		return "1D", nil
	case tf == 7*24*time.Hour:
		return "1W", nil
	}
	return "", fmt.Errorf("okx: unsupported timeframe %s", tf)
}

// FetchCandles returns the latest count candles for asset, oldest first.
// The newest (possibly still forming) candle is included. Fewer than count
// candles, an unknown instrument, or any transport error is reported as
// model.ErrDataUnavailable.
func (c *Client) FetchCandles(ctx context.Context, asset string, timeframe time.Duration, count int) (model.Series, error) {
	bar, err := Bar(timeframe)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDataUnavailable, err)
	}
	inst := InstID(asset)

	// Pages come newest first; "after" pages backwards in time.
	var rows [][]string
	after := ""
	for len(rows) < count {
		limit := min(count-len(rows), maxPerPage)
		page, err := c.page(ctx, inst, bar, limit, after)
		if err != nil {
			return nil, fmt.Errorf("%w: okx: %s: %v", model.ErrDataUnavailable, inst, err)
		}
		if len(page) == 0 {
			break
		}
		rows = append(rows, page...)
		after = page[len(page)-1][0]
		if len(page) < limit {
			break
		}
	}
	if len(rows) < count {
		return nil, fmt.Errorf("%w: okx: %s: got %d candles, want %d", model.ErrDataUnavailable, inst, len(rows), count)
	}

	series := make(model.Series, 0, count)
	for i := count - 1; i >= 0; i-- {
		cndl, err := parseRow(rows[i])
		if err != nil {
			return nil, fmt.Errorf("%w: okx: %s: row %d: %v", model.ErrDataUnavailable, inst, i, err)
		}
		series = append(series, cndl)
	}
	log.Printf("[okx] fetched %d %s candles for %s", len(series), bar, inst)
	return series, nil
}

func (c *Client) page(ctx context.Context, inst, bar string, limit int, after string) ([][]string, error) {
	q := url.Values{}
	q.Set("instId", inst)
	q.Set("bar", bar)
	q.Set("limit", strconv.Itoa(limit))
	if after != "" {
		q.Set("after", after)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+candlesPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out candlesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if out.Code != "0" {
		return nil, fmt.Errorf("api error %s: %s", out.Code, out.Msg)
	}
	return out.Data, nil
}

// parseRow decodes [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm].
func parseRow(row []string) (model.Candle, error) {
	if len(row) < 6 {
		return model.Candle{}, fmt.Errorf("expected at least 6 fields, got %d", len(row))
	}
	ms, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return model.Candle{}, fmt.Errorf("ts: %w", err)
	}
	var v [5]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return model.Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
	}
	return model.Candle{
		TS:     time.UnixMilli(ms).UTC(),
		Open:   v[0],
		High:   v[1],
		Low:    v[2],
		Close:  v[3],
		Volume: v[4],
	}, nil
}
