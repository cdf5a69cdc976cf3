// Package market is the read-through layer between the API and the
// market-data provider: per-endpoint TTL caches with single-flight guarding
// the miss-then-fetch-then-store sequence.
package market

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"crypto-tracker/internal/cache"
	"crypto-tracker/internal/providers"
	"crypto-tracker/internal/telemetry"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 250
)

// ErrFetchFailed collapses every non-rate-limit provider failure (network,
// non-2xx, decode) into one caller-visible error kind.
var ErrFetchFailed = errors.New("fetch failed")

type Provider interface {
	ListMarkets(ctx context.Context, page, perPage int) ([]providers.MarketAsset, error)
	FetchCoin(ctx context.Context, id string) (providers.Coin, error)
	FetchMarketChart(ctx context.Context, id string, days int) (providers.MarketChart, error)
}

type Options struct {
	ListTTL        time.Duration
	DetailTTL      time.Duration
	ChartTTL       time.Duration
	ListMaxEntries int
	HistoryDays    int
}

type Service struct {
	provider Provider
	days     int
	lists    *cache.Cache[AssetPage]
	details  *cache.Cache[AssetDetail]
	charts   *cache.Cache[[]PricePoint]
	flight   singleflight.Group
}

func NewService(provider Provider, opts Options) *Service {
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = 7
	}
	return &Service{
		provider: provider,
		days:     opts.HistoryDays,
		lists:    cache.New[AssetPage](opts.ListTTL, opts.ListMaxEntries),
		details:  cache.New[AssetDetail](opts.DetailTTL, 0),
		charts:   cache.New[[]PricePoint](opts.ChartTTL, 0),
	}
}

// ParsePage interprets a raw page query value. Non-numeric, zero, and
// negative input fall back to the default rather than erroring.
func ParsePage(raw string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || parsed < 1 {
		return DefaultPage
	}
	return parsed
}

// ParsePerPage clamps a raw per-page query value to [1, 250].
func ParsePerPage(raw string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || parsed < 1 {
		return DefaultPerPage
	}
	if parsed > MaxPerPage {
		return MaxPerPage
	}
	return parsed
}

func (s *Service) ListAssets(ctx context.Context, page, perPage int) (AssetPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	key := fmt.Sprintf("%d-%d", page, perPage)
	if cached, ok := s.lists.Lookup(key); ok {
		telemetry.CacheHit()
		return cached, nil
	}

	result, err, _ := s.flight.Do("list:"+key, func() (any, error) {
		// A concurrent caller may have populated the cache while this call
		// waited on the flight lock.
		if cached, ok := s.lists.Lookup(key); ok {
			telemetry.CacheHit()
			return cached, nil
		}
		telemetry.CacheMiss()

		raw, err := s.fetchMarkets(ctx, page, perPage)
		if err != nil {
			return AssetPage{}, err
		}

		assets := make([]Asset, 0, len(raw))
		for _, item := range raw {
			assets = append(assets, normalizeAsset(item))
		}

		assetPage := AssetPage{
			Assets:  assets,
			Page:    page,
			PerPage: perPage,
			HasMore: len(raw) == perPage,
		}
		s.lists.Set(key, assetPage)
		return assetPage, nil
	})
	if err != nil {
		return AssetPage{}, err
	}
	return result.(AssetPage), nil
}

func (s *Service) GetAssetDetail(ctx context.Context, id string) (AssetDetail, error) {
	if cached, ok := s.details.Lookup(id); ok {
		telemetry.CacheHit()
		return cached, nil
	}

	result, err, _ := s.flight.Do("detail:"+id, func() (any, error) {
		if cached, ok := s.details.Lookup(id); ok {
			telemetry.CacheHit()
			return cached, nil
		}
		telemetry.CacheMiss()

		coin, err := s.fetchCoin(ctx, id)
		if err != nil {
			return AssetDetail{}, err
		}

		detail := normalizeDetail(coin)
		s.details.Set(id, detail)
		return detail, nil
	})
	if err != nil {
		return AssetDetail{}, err
	}
	return result.(AssetDetail), nil
}

func (s *Service) GetAssetHistory(ctx context.Context, id string) ([]PricePoint, error) {
	if cached, ok := s.charts.Lookup(id); ok {
		telemetry.CacheHit()
		return cached, nil
	}

	result, err, _ := s.flight.Do("chart:"+id, func() (any, error) {
		if cached, ok := s.charts.Lookup(id); ok {
			telemetry.CacheHit()
			return cached, nil
		}
		telemetry.CacheMiss()

		chart, err := s.fetchChart(ctx, id)
		if err != nil {
			return nil, err
		}

		points := make([]PricePoint, 0, len(chart.Prices))
		for _, row := range chart.Prices {
			if len(row) < 2 {
				continue
			}
			points = append(points, PricePoint{Timestamp: int64(row[0]), Price: row[1]})
		}
		s.charts.Set(id, points)
		return points, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]PricePoint), nil
}

// HistoryDays reports the configured lookback window length.
func (s *Service) HistoryDays() int {
	return s.days
}

func (s *Service) fetchMarkets(ctx context.Context, page, perPage int) ([]providers.MarketAsset, error) {
	telemetry.ProviderCall()
	raw, err := s.provider.ListMarkets(ctx, page, perPage)
	if err != nil {
		return nil, collapseFetchError(err)
	}
	return raw, nil
}

func (s *Service) fetchCoin(ctx context.Context, id string) (providers.Coin, error) {
	telemetry.ProviderCall()
	coin, err := s.provider.FetchCoin(ctx, id)
	if err != nil {
		return providers.Coin{}, collapseFetchError(err)
	}
	return coin, nil
}

func (s *Service) fetchChart(ctx context.Context, id string) (providers.MarketChart, error) {
	telemetry.ProviderCall()
	chart, err := s.provider.FetchMarketChart(ctx, id, s.days)
	if err != nil {
		return providers.MarketChart{}, collapseFetchError(err)
	}
	return chart, nil
}

// collapseFetchError keeps the rate-limit signal distinguishable and folds
// everything else into ErrFetchFailed.
func collapseFetchError(err error) error {
	if errors.Is(err, providers.ErrRateLimited) {
		telemetry.ProviderRateLimited()
		return err
	}
	return fmt.Errorf("%w: %v", ErrFetchFailed, err)
}

func normalizeAsset(raw providers.MarketAsset) Asset {
	return Asset{
		ID:             raw.ID,
		Name:           raw.Name,
		Symbol:         raw.Symbol,
		Image:          raw.Image,
		CurrentPrice:   zeroIfNil(raw.CurrentPrice),
		PriceChange24h: zeroIfNil(raw.PriceChangePercentage24h),
		MarketCap:      raw.MarketCap,
		Volume24h:      raw.TotalVolume,
	}
}

func normalizeDetail(coin providers.Coin) AssetDetail {
	md := coin.MarketData
	marketCap := usdOptional(md.MarketCap)
	volume := usdOptional(md.TotalVolume)

	return AssetDetail{
		Asset: Asset{
			ID:             coin.ID,
			Name:           coin.Name,
			Symbol:         coin.Symbol,
			Image:          coin.Image.Large,
			CurrentPrice:   usd(md.CurrentPrice),
			PriceChange24h: zeroIfNil(md.PriceChangePercentage24h),
			MarketCap:      marketCap,
			Volume24h:      volume,
		},
		Rank:              coin.MarketCapRank,
		CirculatingSupply: zeroIfNil(md.CirculatingSupply),
		TotalSupply:       md.TotalSupply,
		MaxSupply:         md.MaxSupply,
		PriceChange7d:     zeroIfNil(md.PriceChangePercentage7d),
		PriceChange30d:    zeroIfNil(md.PriceChangePercentage30d),
		High24h:           usd(md.High24h),
		Low24h:            usd(md.Low24h),
		ATH:               usd(md.ATH),
		ATHChangePct:      usd(md.ATHChangePercentage),
		ATHDate:           md.ATHDate["usd"],
		ATL:               usd(md.ATL),
		ATLChangePct:      usd(md.ATLChangePercentage),
		ATLDate:           md.ATLDate["usd"],
		Description:       coin.Description["en"],
		Homepage:          firstNonEmpty(coin.Links.Homepage),
		Explorer:          firstNonEmpty(coin.Links.BlockchainSite),
		Categories:        coin.Categories,
	}
}

// firstNonEmpty returns the first non-blank entry of an ordered link list,
// or nil when every entry is blank.
func firstNonEmpty(values []string) *string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out := v
			return &out
		}
	}
	return nil
}

func zeroIfNil(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func usd(m map[string]float64) float64 {
	return m["usd"]
}

func usdOptional(m map[string]float64) *float64 {
	v, ok := m["usd"]
	if !ok {
		return nil
	}
	return &v
}
