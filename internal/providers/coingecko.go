// Package providers contains the market-data client used to back the asset
// list, detail, and chart endpoints.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	coinGeckoPublicBaseURL = "https://api.coingecko.com/api/v3"
	coinGeckoProBaseURL    = "https://pro-api.coingecko.com/api/v3"
)

// ErrRateLimited is returned when CoinGecko answers 429. Callers treat it as
// a transient condition rather than a hard fetch failure.
var ErrRateLimited = errors.New("provider rate limited")

type CoinGeckoClient struct {
	baseURL      string
	apiKey       string
	apiKeyHeader string
	client       *http.Client
	limiter      *rate.Limiter
	vsCurrency   string
}

func NewCoinGeckoClient(baseURL, apiKey string, maxRPS float64) *CoinGeckoClient {
	resolvedBaseURL := strings.TrimRight(baseURL, "/")
	if resolvedBaseURL == "" {
		resolvedBaseURL = coinGeckoPublicBaseURL
	}

	header := "x-cg-demo-api-key"
	if strings.Contains(resolvedBaseURL, "pro-api.coingecko.com") {
		header = "x-cg-pro-api-key"
	}

	if maxRPS <= 0 {
		maxRPS = 2
	}

	return &CoinGeckoClient{
		baseURL:      resolvedBaseURL,
		apiKey:       apiKey,
		apiKeyHeader: header,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:    rate.NewLimiter(rate.Limit(maxRPS), 1),
		vsCurrency: "usd",
	}
}

// MarketAsset is one row of /coins/markets. Nullable numeric fields stay
// pointers so normalization can distinguish absent from zero.
type MarketAsset struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	TotalVolume              *float64 `json:"total_volume"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
}

// Coin is the payload of /coins/{id} restricted to the fields this service
// serves.
type Coin struct {
	ID            string            `json:"id"`
	Symbol        string            `json:"symbol"`
	Name          string            `json:"name"`
	Description   map[string]string `json:"description"`
	Categories    []string          `json:"categories"`
	MarketCapRank *int              `json:"market_cap_rank"`
	Image         struct {
		Large string `json:"large"`
	} `json:"image"`
	Links struct {
		Homepage       []string `json:"homepage"`
		BlockchainSite []string `json:"blockchain_site"`
	} `json:"links"`
	MarketData CoinMarketData `json:"market_data"`
}

type CoinMarketData struct {
	CurrentPrice             map[string]float64 `json:"current_price"`
	MarketCap                map[string]float64 `json:"market_cap"`
	TotalVolume              map[string]float64 `json:"total_volume"`
	High24h                  map[string]float64 `json:"high_24h"`
	Low24h                   map[string]float64 `json:"low_24h"`
	PriceChangePercentage24h *float64           `json:"price_change_percentage_24h"`
	PriceChangePercentage7d  *float64           `json:"price_change_percentage_7d"`
	PriceChangePercentage30d *float64           `json:"price_change_percentage_30d"`
	CirculatingSupply        *float64           `json:"circulating_supply"`
	TotalSupply              *float64           `json:"total_supply"`
	MaxSupply                *float64           `json:"max_supply"`
	ATH                      map[string]float64 `json:"ath"`
	ATHChangePercentage      map[string]float64 `json:"ath_change_percentage"`
	ATHDate                  map[string]string  `json:"ath_date"`
	ATL                      map[string]float64 `json:"atl"`
	ATLChangePercentage      map[string]float64 `json:"atl_change_percentage"`
	ATLDate                  map[string]string  `json:"atl_date"`
}

// MarketChart is the payload of /coins/{id}/market_chart. Each price row is
// [timestamp_ms, price].
type MarketChart struct {
	Prices [][]float64 `json:"prices"`
}

func (c *CoinGeckoClient) ListMarkets(ctx context.Context, page, perPage int) ([]MarketAsset, error) {
	query := url.Values{}
	query.Set("vs_currency", c.vsCurrency)
	query.Set("order", "market_cap_desc")
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("sparkline", "false")

	var assets []MarketAsset
	if err := c.getJSON(ctx, "/coins/markets", query, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

func (c *CoinGeckoClient) FetchCoin(ctx context.Context, id string) (Coin, error) {
	query := url.Values{}
	query.Set("localization", "false")
	query.Set("tickers", "false")
	query.Set("market_data", "true")
	query.Set("community_data", "false")
	query.Set("developer_data", "false")
	query.Set("sparkline", "false")

	var coin Coin
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id), query, &coin); err != nil {
		return Coin{}, err
	}
	return coin, nil
}

func (c *CoinGeckoClient) FetchMarketChart(ctx context.Context, id string, days int) (MarketChart, error) {
	query := url.Values{}
	query.Set("vs_currency", c.vsCurrency)
	query.Set("days", strconv.Itoa(days))
	query.Set("interval", "daily")

	var chart MarketChart
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id)+"/market_chart", query, &chart); err != nil {
		return MarketChart{}, err
	}
	return chart, nil
}

func (c *CoinGeckoClient) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHeader, c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("coingecko %s: %w", path, ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("coingecko error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}

func CoinGeckoDefaultBaseURL(plan string) string {
	if strings.EqualFold(plan, "pro") {
		return coinGeckoProBaseURL
	}
	return coinGeckoPublicBaseURL
}
