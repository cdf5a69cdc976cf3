// Package listview implements the asset-list interaction model: a paged,
// searchable, filterable, sortable in-memory collection with a favorites set.
// It is framework-free so any front end (or test) can drive it.
package listview

import (
	"sort"
	"strings"

	"crypto-tracker/internal/market"
)

type Filter string

const (
	FilterAll     Filter = "all"
	FilterGainers Filter = "gainers"
	FilterLosers  Filter = "losers"
)

type Sort string

const (
	SortNone       Sort = "none"
	SortPriceAsc   Sort = "price-asc"
	SortPriceDesc  Sort = "price-desc"
	SortChangeAsc  Sort = "change-asc"
	SortChangeDesc Sort = "change-desc"
)

// Query is the active search/filter/sort selection.
type Query struct {
	Search string
	Filter Filter
	Sort   Sort
}

// IsDefault reports whether the query leaves the provider ordering
// untouched. Paging is only defined over the unmodified provider order, so
// incremental loading is gated on this.
func (q Query) IsDefault() bool {
	if strings.TrimSpace(q.Search) != "" {
		return false
	}
	if q.Filter != "" && q.Filter != FilterAll {
		return false
	}
	if q.Sort != "" && q.Sort != SortNone {
		return false
	}
	return true
}

// Apply computes the derived view: search, then filter, then sort. The input
// slice is never mutated; SortNone preserves provider order (market cap,
// descending, as delivered).
func Apply(assets []market.Asset, q Query) []market.Asset {
	out := make([]market.Asset, 0, len(assets))
	term := strings.ToLower(strings.TrimSpace(q.Search))

	for _, asset := range assets {
		if term != "" && !matchesSearch(asset, term) {
			continue
		}
		if !matchesFilter(asset, q.Filter) {
			continue
		}
		out = append(out, asset)
	}

	switch q.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CurrentPrice < out[j].CurrentPrice })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CurrentPrice > out[j].CurrentPrice })
	case SortChangeAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].PriceChange24h < out[j].PriceChange24h })
	case SortChangeDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].PriceChange24h > out[j].PriceChange24h })
	}

	return out
}

func matchesSearch(asset market.Asset, term string) bool {
	return strings.Contains(strings.ToLower(asset.Name), term) ||
		strings.Contains(strings.ToLower(asset.Symbol), term)
}

// A 24h change of exactly zero classifies as a gainer.
func matchesFilter(asset market.Asset, f Filter) bool {
	switch f {
	case FilterGainers:
		return asset.PriceChange24h >= 0
	case FilterLosers:
		return asset.PriceChange24h < 0
	default:
		return true
	}
}
