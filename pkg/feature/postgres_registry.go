package feature

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistry returns a Registry backed by the features table
// (see migrations/).
func NewPostgresRegistry(pool *pgxpool.Pool) Registry {
	return &postgresRegistry{pool: pool}
}

func (r *postgresRegistry) Upsert(ctx context.Context, f Feature) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO features (chargebee_id, name, type, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chargebee_id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			metadata = EXCLUDED.metadata`,
		f.ChargebeeID, f.Name, f.Type, f.Metadata)
	if err != nil {
		return fmt.Errorf("upsert feature: %w", err)
	}
	return nil
}

func (r *postgresRegistry) Get(ctx context.Context, chargebeeID string) (*Feature, error) {
	var f Feature
	err := r.pool.QueryRow(ctx, `
		SELECT chargebee_id, name, type, metadata FROM features WHERE chargebee_id = $1`,
		chargebeeID).Scan(&f.ChargebeeID, &f.Name, &f.Type, &f.Metadata)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFeatureNotFound
		}
		return nil, fmt.Errorf("get feature: %w", err)
	}
	return &f, nil
}

func (r *postgresRegistry) List(ctx context.Context) ([]Feature, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT chargebee_id, name, type, metadata FROM features ORDER BY chargebee_id`)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	defer rows.Close()

	var out []Feature
	for rows.Next() {
		var f Feature
		if err := rows.Scan(&f.ChargebeeID, &f.Name, &f.Type, &f.Metadata); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
