package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by the subscriptions and
// subscription_items tables (see migrations/).
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Get(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, chargebee_id, status, chargebee_price, quantity,
		       trial_ends_at, ends_at, created_at, updated_at
		FROM subscriptions WHERE id = $1`, id)

	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	if err := s.loadItems(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *postgresStore) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]Subscription, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, chargebee_id, status, chargebee_price, quantity,
		       trial_ends_at, ends_at, created_at, updated_at
		FROM subscriptions WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range subs {
		if err := s.loadItems(ctx, &subs[i]); err != nil {
			return nil, err
		}
	}
	return subs, nil
}

func (s *postgresStore) Save(ctx context.Context, sub *Subscription) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save subscription: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, `
		INSERT INTO subscriptions (id, owner_id, chargebee_id, status, chargebee_price,
		                           quantity, trial_ends_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			chargebee_price = EXCLUDED.chargebee_price,
			quantity = EXCLUDED.quantity,
			trial_ends_at = EXCLUDED.trial_ends_at,
			ends_at = EXCLUDED.ends_at,
			updated_at = EXCLUDED.updated_at`,
		sub.ID, sub.OwnerID, sub.ChargebeeID, sub.Status, sub.ChargebeePrice,
		sub.Quantity, sub.TrialEndsAt, sub.EndsAt, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}

	// The item set on the value is authoritative: replace the stored rows.
	if _, err := tx.Exec(ctx, `DELETE FROM subscription_items WHERE subscription_id = $1`, sub.ID); err != nil {
		return fmt.Errorf("clear subscription items: %w", err)
	}
	for _, item := range sub.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO subscription_items (id, subscription_id, chargebee_price, chargebee_product, quantity)
			VALUES ($1, $2, $3, $4, $5)`,
			item.ID, sub.ID, item.ChargebeePrice, item.ChargebeeProduct, item.Quantity)
		if err != nil {
			return fmt.Errorf("insert subscription item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *postgresStore) DeleteItems(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM subscription_items WHERE subscription_id = $1`, id); err != nil {
		return fmt.Errorf("delete subscription items: %w", err)
	}
	return nil
}

func (s *postgresStore) loadItems(ctx context.Context, sub *Subscription) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, subscription_id, chargebee_price, chargebee_product, quantity
		FROM subscription_items WHERE subscription_id = $1 ORDER BY chargebee_price`, sub.ID)
	if err != nil {
		return fmt.Errorf("list subscription items: %w", err)
	}
	defer rows.Close()

	sub.Items = nil
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.SubscriptionID, &item.ChargebeePrice,
			&item.ChargebeeProduct, &item.Quantity); err != nil {
			return fmt.Errorf("scan subscription item: %w", err)
		}
		sub.Items = append(sub.Items, item)
	}
	return rows.Err()
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(&sub.ID, &sub.OwnerID, &sub.ChargebeeID, &sub.Status,
		&sub.ChargebeePrice, &sub.Quantity, &sub.TrialEndsAt, &sub.EndsAt,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
