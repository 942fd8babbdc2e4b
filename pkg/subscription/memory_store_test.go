package subscription_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbilling/billingkit/pkg/subscription"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	t.Run("get returns not found for unknown id", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		_, err := store.Get(context.Background(), uuid.New())
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("save then get round-trips items", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		sub := multiPriceSub("price_a", "price_b")
		require.NoError(t, store.Save(context.Background(), sub))

		got, err := store.Get(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, sub.ChargebeeID, got.ChargebeeID)
		assert.Len(t, got.Items, 2)
	})

	t.Run("stored state is isolated from caller mutations", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		sub := singlePriceSub("price_basic", 2)
		require.NoError(t, store.Save(context.Background(), sub))

		// Mutating the caller's value must not leak into the store.
		*sub.Quantity = 99
		sub.Items[0].ChargebeePrice = "price_mutated"

		got, err := store.Get(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, *got.Quantity)
		assert.Equal(t, "price_basic", got.Items[0].ChargebeePrice)
	})

	t.Run("delete items keeps the subscription row", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		sub := multiPriceSub("price_a", "price_b")
		require.NoError(t, store.Save(context.Background(), sub))

		require.NoError(t, store.DeleteItems(context.Background(), sub.ID))

		got, err := store.Get(context.Background(), sub.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Items)
		assert.Equal(t, sub.ChargebeeID, got.ChargebeeID)

		assert.ErrorIs(t, store.DeleteItems(context.Background(), uuid.New()),
			subscription.ErrSubscriptionNotFound)
	})

	t.Run("get by owner filters other owners", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		mine := singlePriceSub("price_basic", 1)
		other := singlePriceSub("price_basic", 1)
		require.NoError(t, store.Save(context.Background(), mine))
		require.NoError(t, store.Save(context.Background(), other))

		subs, err := store.GetByOwner(context.Background(), mine.OwnerID)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, mine.ID, subs[0].ID)
	})
}
