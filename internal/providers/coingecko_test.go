package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestListMarketsQueryAndDecode(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("vs_currency"); got != "usd" {
			t.Fatalf("expected vs_currency usd, got %q", got)
		}
		if got := q.Get("order"); got != "market_cap_desc" {
			t.Fatalf("expected order market_cap_desc, got %q", got)
		}
		if got := q.Get("page"); got != "2" {
			t.Fatalf("expected page 2, got %q", got)
		}
		if got := q.Get("per_page"); got != "10" {
			t.Fatalf("expected per_page 10, got %q", got)
		}
		if got := q.Get("sparkline"); got != "false" {
			t.Fatalf("expected sparkline false, got %q", got)
		}
		if got := r.Header.Get("x-cg-demo-api-key"); got != "test-key" {
			t.Fatalf("expected api key header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"https://img/btc.png","current_price":45000,"market_cap":880000000000,"total_volume":21000000000,"price_change_percentage_24h":1.5},{"id":"nulls","symbol":"nul","name":"Nulls","current_price":null,"market_cap":null}]`))
	}))
	defer ts.Close()

	c := NewCoinGeckoClient(ts.URL, "test-key", 100)
	assets, err := c.ListMarkets(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(assets))
	}
	if assets[0].ID != "bitcoin" || assets[0].Name != "Bitcoin" {
		t.Fatalf("unexpected first asset: %+v", assets[0])
	}
	if assets[0].CurrentPrice == nil || *assets[0].CurrentPrice != 45000 {
		t.Fatalf("unexpected bitcoin price: %+v", assets[0].CurrentPrice)
	}
	if assets[1].CurrentPrice != nil {
		t.Fatalf("expected nil price for null field, got %v", *assets[1].CurrentPrice)
	}
}

func TestFetchCoinQueryAndDecode(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		for key, want := range map[string]string{
			"localization":   "false",
			"tickers":        "false",
			"market_data":    "true",
			"community_data": "false",
			"developer_data": "false",
		} {
			if got := q.Get(key); got != want {
				t.Fatalf("expected %s=%s, got %q", key, want, got)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"bitcoin","symbol":"btc","name":"Bitcoin",
			"description":{"en":"Digital gold."},
			"categories":["Layer 1"],
			"market_cap_rank":1,
			"image":{"large":"https://img/btc-large.png"},
			"links":{"homepage":["","https://bitcoin.org"],"blockchain_site":["https://blockchair.com/bitcoin"]},
			"market_data":{
				"current_price":{"usd":45000},
				"market_cap":{"usd":880000000000},
				"high_24h":{"usd":46000},
				"low_24h":{"usd":44000},
				"price_change_percentage_24h":1.5,
				"circulating_supply":19600000,
				"max_supply":21000000,
				"ath":{"usd":69000},
				"ath_date":{"usd":"2021-11-10T14:24:11.849Z"}
			}
		}`))
	}))
	defer ts.Close()

	c := NewCoinGeckoClient(ts.URL, "test-key", 100)
	coin, err := c.FetchCoin(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if coin.ID != "bitcoin" {
		t.Fatalf("unexpected coin id %q", coin.ID)
	}
	if coin.Description["en"] != "Digital gold." {
		t.Fatalf("unexpected description: %+v", coin.Description)
	}
	if coin.MarketCapRank == nil || *coin.MarketCapRank != 1 {
		t.Fatalf("unexpected rank: %+v", coin.MarketCapRank)
	}
	if coin.MarketData.CurrentPrice["usd"] != 45000 {
		t.Fatalf("unexpected price: %+v", coin.MarketData.CurrentPrice)
	}
	if len(coin.Links.Homepage) != 2 || coin.Links.Homepage[1] != "https://bitcoin.org" {
		t.Fatalf("unexpected homepage links: %+v", coin.Links.Homepage)
	}
	if coin.MarketData.TotalSupply != nil {
		t.Fatalf("expected nil total supply, got %v", *coin.MarketData.TotalSupply)
	}
}

func TestFetchMarketChart(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/ethereum/market_chart" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("days"); got != "7" {
			t.Fatalf("expected days 7, got %q", got)
		}
		if got := q.Get("interval"); got != "daily" {
			t.Fatalf("expected interval daily, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prices":[[1717200000000,3750.12],[1717286400000,3801.5]]}`))
	}))
	defer ts.Close()

	c := NewCoinGeckoClient(ts.URL, "", 100)
	chart, err := c.FetchMarketChart(context.Background(), "ethereum", 7)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(chart.Prices) != 2 {
		t.Fatalf("expected 2 price rows, got %d", len(chart.Prices))
	}
	if chart.Prices[0][0] != 1717200000000 || chart.Prices[0][1] != 3750.12 {
		t.Fatalf("unexpected first row: %v", chart.Prices[0])
	}
}

func TestRateLimitedMapsToSentinel(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := NewCoinGeckoClient(ts.URL, "", 100)
	_, err := c.ListMarkets(context.Background(), 1, 10)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestNon200IsGenericError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewCoinGeckoClient(ts.URL, "", 100)
	_, err := c.FetchCoin(context.Background(), "bitcoin")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Fatalf("502 must not map to ErrRateLimited: %v", err)
	}
	if !strings.Contains(err.Error(), "status 502") {
		t.Fatalf("expected status in error, got %v", err)
	}
	if !strings.Contains(err.Error(), "upstream exploded") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestProHeaderSelection(t *testing.T) {
	t.Parallel()

	c := NewCoinGeckoClient("https://pro-api.coingecko.com/api/v3", "k", 2)
	if c.apiKeyHeader != "x-cg-pro-api-key" {
		t.Fatalf("expected pro header, got %q", c.apiKeyHeader)
	}

	c = NewCoinGeckoClient("", "k", 2)
	if c.apiKeyHeader != "x-cg-demo-api-key" {
		t.Fatalf("expected demo header, got %q", c.apiKeyHeader)
	}
	if c.baseURL != coinGeckoPublicBaseURL {
		t.Fatalf("expected public base url, got %q", c.baseURL)
	}
}
