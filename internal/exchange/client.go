// Package exchange implements the candle series source against the venue's
// public REST API. It mirrors the venue's /candlesticks endpoint, request
// parameters, and loose response typing, and normalizes everything to the
// canonical model.Candle at the fetch boundary.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"trading-agentv1/internal/model"
)

const (
	defaultBaseURL = "https://mainnet.zklighter.elliot.ai"
	defaultTimeout = 10 * time.Second

	routeCandles = "/api/v1/candlesticks"
)

// Config configures the exchange client.
type Config struct {
	BaseURL      string // default: mainnet venue URL
	BlockchainID int
	Timeout      time.Duration // default: 10s
}

// Client is a thin REST client for the venue's candlestick endpoint.
// The endpoint is public; no credentials are required.
type Client struct {
	baseURL      string
	blockchainID int
	httpClient   *http.Client
}

// NewClient creates an exchange client with the given config.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		blockchainID: cfg.BlockchainID,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// candlePayload tolerates the venue's loose typing: numeric fields may
// arrive as JSON numbers or as quoted strings.
type candlePayload struct {
	Timestamp flexFloat `json:"timestamp"`
	Open      flexFloat `json:"open"`
	High      flexFloat `json:"high"`
	Low       flexFloat `json:"low"`
	Close     flexFloat `json:"close"`
}

type candlesResponse struct {
	Candlesticks []candlePayload `json:"candlesticks"`
}

// GetCandles fetches up to limit candles at the given resolution, ordered
// oldest → newest. The time range is sized from the resolution's seconds
// per candle; the venue may still return fewer candles than requested.
func (c *Client) GetCandles(ctx context.Context, marketID int, resolution string, limit int) ([]model.Candle, error) {
	res := LookupResolution(resolution)

	now := time.Now().Unix()
	start := now - int64(limit)*res.Seconds

	params := url.Values{}
	params.Set("blockchain_id", strconv.Itoa(c.blockchainID))
	params.Set("market_id", strconv.Itoa(marketID))
	params.Set("resolution", res.Canonical)
	params.Set("start_timestamp", strconv.FormatInt(start, 10))
	params.Set("end_timestamp", strconv.FormatInt(now, 10))
	params.Set("count_back", strconv.Itoa(limit))

	var resp candlesResponse
	if err := c.get(ctx, routeCandles, params, &resp); err != nil {
		return nil, fmt.Errorf("get candles market=%d res=%s: %w", marketID, res.Canonical, err)
	}

	candles := make([]model.Candle, 0, len(resp.Candlesticks))
	for _, p := range resp.Candlesticks {
		candles = append(candles, model.Candle{
			Timestamp: int64(p.Timestamp),
			Open:      float64(p.Open),
			High:      float64(p.High),
			Low:       float64(p.Low),
			Close:     float64(p.Close),
		})
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp < candles[j].Timestamp
	})
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// get performs a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, route string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + route + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// flexFloat decodes a float64 from either a JSON number or a quoted string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}
