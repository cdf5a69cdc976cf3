package db

import (
	"context"
	"time"
)

// Favorite is one row of the favorites table. AssetID carries the provider's
// opaque asset identifier and is unique per row.
type Favorite struct {
	ID        int64
	AssetID   string
	CreatedAt time.Time
}

// ListFavorites returns every favorite, newest first. An empty table yields
// an empty slice, not an error.
func (d *DB) ListFavorites(ctx context.Context) ([]Favorite, error) {
	rows, err := d.pool.Query(ctx, `
		select id, asset_id, created_at
		from public.favorites
		order by created_at desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	favorites := make([]Favorite, 0)
	for rows.Next() {
		var favorite Favorite
		if err := rows.Scan(&favorite.ID, &favorite.AssetID, &favorite.CreatedAt); err != nil {
			return nil, err
		}
		favorites = append(favorites, favorite)
	}
	return favorites, rows.Err()
}

// AddFavorite inserts the asset id, tolerating duplicates: a second add for
// the same id reports created=false with no error.
func (d *DB) AddFavorite(ctx context.Context, assetID string) (bool, error) {
	tag, err := d.pool.Exec(ctx, `
		insert into public.favorites (asset_id)
		values ($1)
		on conflict (asset_id) do nothing
	`, assetID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveFavorite deletes the asset id. Removing an id that was never
// favorited succeeds silently.
func (d *DB) RemoveFavorite(ctx context.Context, assetID string) error {
	_, err := d.pool.Exec(ctx, `
		delete from public.favorites
		where asset_id = $1
	`, assetID)
	return err
}
