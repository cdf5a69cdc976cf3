package db

import "context"

// Migrate creates the favorites schema. Statements are idempotent, so running
// at every startup is safe.
func Migrate(ctx context.Context, d *DB) error {
	stmts := []string{
		`create table if not exists public.favorites (
			id bigserial primary key,
			asset_id text not null unique,
			created_at timestamptz not null default now()
		);`,
		`create index if not exists favorites_created_at_idx on public.favorites(created_at desc);`,
	}

	for _, stmt := range stmts {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
