package listview

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"crypto-tracker/internal/market"
)

// PageLoader fetches one page of the market-cap-ordered asset listing.
type PageLoader interface {
	LoadPage(ctx context.Context, page int) (market.AssetPage, error)
}

// PageLoaderFunc adapts a function to the PageLoader interface.
type PageLoaderFunc func(ctx context.Context, page int) (market.AssetPage, error)

func (f PageLoaderFunc) LoadPage(ctx context.Context, page int) (market.AssetPage, error) {
	return f(ctx, page)
}

// FavoritesClient is the engine's view of the favorites store.
type FavoritesClient interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, assetID string) error
	Remove(ctx context.Context, assetID string) error
}

const defaultMinLoadInterval = 500 * time.Millisecond

// Engine holds the loaded asset collection and favorite-id set, and drives
// incremental page loading. All entry points are safe for concurrent use and
// take a context so navigation away can cancel in-flight fetches.
type Engine struct {
	loader    PageLoader
	favorites FavoritesClient
	gate      *Gate

	mu          sync.Mutex
	query       Query
	assets      []market.Asset
	page        int
	hasMore     bool
	loading     bool
	loadingMore bool
	favoriteIDs map[string]struct{}
	pending     map[string]struct{}
}

func NewEngine(loader PageLoader, favorites FavoritesClient) *Engine {
	return &Engine{
		loader:      loader,
		favorites:   favorites,
		gate:        NewGate(defaultMinLoadInterval),
		favoriteIDs: make(map[string]struct{}),
		pending:     make(map[string]struct{}),
	}
}

// Load runs the initial fetch: page 1 and the full favorites list,
// concurrently. On failure the engine state is left untouched so the caller
// can simply re-invoke Load as the retry affordance.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.loading {
		e.mu.Unlock()
		return nil
	}
	e.loading = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.loading = false
		e.mu.Unlock()
	}()

	var (
		firstPage market.AssetPage
		favIDs    []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := e.loader.LoadPage(gctx, 1)
		if err != nil {
			return err
		}
		firstPage = page
		return nil
	})
	g.Go(func() error {
		ids, err := e.favorites.List(gctx)
		if err != nil {
			return err
		}
		favIDs = ids
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.assets = firstPage.Assets
	e.page = 1
	e.hasMore = firstPage.HasMore
	e.favoriteIDs = make(map[string]struct{}, len(favIDs))
	for _, id := range favIDs {
		e.favoriteIDs[id] = struct{}{}
	}
	return nil
}

// CanLoadMore reports whether a load-more request would currently be issued:
// no request outstanding, more pages available, and the baseline query
// active.
func (e *Engine) CanLoadMore() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.loadingMore && e.hasMore && e.query.IsDefault()
}

// LoadMore fetches the next page and appends it. When the guard rejects the
// request it is a silent no-op. Any fetch error, including the provider's
// rate-limit signal, leaves already-loaded state intact; the error is
// returned so the caller can classify it as transient.
func (e *Engine) LoadMore(ctx context.Context) error {
	e.mu.Lock()
	if e.loadingMore || !e.hasMore || !e.query.IsDefault() {
		e.mu.Unlock()
		return nil
	}
	e.loadingMore = true
	next := e.page + 1
	e.mu.Unlock()

	page, err := e.loader.LoadPage(ctx, next)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadingMore = false
	if err != nil {
		return err
	}
	e.assets = append(e.assets, page.Assets...)
	e.page = next
	e.hasMore = page.HasMore
	return nil
}

// NearEnd is the visibility-triggered load path: it fires LoadMore at most
// once per minimum interval, and never while a non-default query is active.
func (e *Engine) NearEnd(ctx context.Context) error {
	if !e.CanLoadMore() {
		return nil
	}
	if !e.gate.TryFire() {
		return nil
	}
	return e.LoadMore(ctx)
}

func (e *Engine) SetSearch(term string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.query.Search = term
}

func (e *Engine) SetFilter(f Filter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.query.Filter = f
}

func (e *Engine) SetSort(s Sort) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.query.Sort = s
}

// View returns the derived search/filter/sort projection of the loaded
// collection. It never mutates engine state.
func (e *Engine) View() []market.Asset {
	e.mu.Lock()
	assets := make([]market.Asset, len(e.assets))
	copy(assets, e.assets)
	query := e.query
	e.mu.Unlock()
	return Apply(assets, query)
}

// ToggleFavorite adds or removes the asset from the favorites set depending
// on current membership. Local membership flips only after the store call
// succeeds; while the call is in flight the id is marked pending so its
// control can be disabled.
func (e *Engine) ToggleFavorite(ctx context.Context, assetID string) error {
	e.mu.Lock()
	if _, busy := e.pending[assetID]; busy {
		e.mu.Unlock()
		return nil
	}
	e.pending[assetID] = struct{}{}
	_, isFavorite := e.favoriteIDs[assetID]
	e.mu.Unlock()

	var err error
	if isFavorite {
		err = e.favorites.Remove(ctx, assetID)
	} else {
		err = e.favorites.Add(ctx, assetID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pending, assetID)
	if err != nil {
		return err
	}
	if isFavorite {
		delete(e.favoriteIDs, assetID)
	} else {
		e.favoriteIDs[assetID] = struct{}{}
	}
	return nil
}

func (e *Engine) IsFavorite(assetID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.favoriteIDs[assetID]
	return ok
}

func (e *Engine) IsPending(assetID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[assetID]
	return ok
}

// State is a point-in-time snapshot of the engine for rendering.
type State struct {
	Query       Query
	Page        int
	HasMore     bool
	LoadingMore bool
	Loaded      int
	Favorites   []string
}

func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	favorites := make([]string, 0, len(e.favoriteIDs))
	for id := range e.favoriteIDs {
		favorites = append(favorites, id)
	}
	return State{
		Query:       e.query,
		Page:        e.page,
		HasMore:     e.hasMore,
		LoadingMore: e.loadingMore,
		Loaded:      len(e.assets),
		Favorites:   favorites,
	}
}
