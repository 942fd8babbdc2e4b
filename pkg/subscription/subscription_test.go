package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbilling/billingkit/pkg/subscription"
)

func TestSubscription_TrialPredicates(t *testing.T) {
	t.Parallel()

	t.Run("on trial while the window is open", func(t *testing.T) {
		t.Parallel()

		sub := singlePriceSub("price_basic", 1)
		sub.TrialEndsAt = ptr(time.Now().Add(24 * time.Hour))

		assert.True(t, sub.OnTrial())
		assert.False(t, sub.HasExpiredTrial())
		assert.False(t, sub.Recurring())
	})

	t.Run("expired trial", func(t *testing.T) {
		t.Parallel()

		sub := singlePriceSub("price_basic", 1)
		sub.TrialEndsAt = ptr(time.Now().Add(-24 * time.Hour))

		assert.False(t, sub.OnTrial())
		assert.True(t, sub.HasExpiredTrial())
	})

	t.Run("no trial set", func(t *testing.T) {
		t.Parallel()

		sub := singlePriceSub("price_basic", 1)
		assert.False(t, sub.OnTrial())
		assert.False(t, sub.HasExpiredTrial())
		assert.True(t, sub.Recurring())
	})
}

func TestSubscription_CancellationPredicates(t *testing.T) {
	t.Parallel()

	t.Run("grace period before the scheduled end", func(t *testing.T) {
		t.Parallel()

		sub := singlePriceSub("price_basic", 1)
		sub.Status = subscription.StatusNonRenewing
		sub.EndsAt = ptr(time.Now().Add(10 * 24 * time.Hour))

		assert.True(t, sub.Canceled())
		assert.True(t, sub.OnGracePeriod())
		assert.False(t, sub.Ended())
		assert.True(t, sub.Valid(), "grace period still grants access")
		assert.False(t, sub.Recurring())
	})

	t.Run("ended once past the scheduled end", func(t *testing.T) {
		t.Parallel()

		sub := singlePriceSub("price_basic", 1)
		sub.Status = subscription.StatusCancelled
		sub.EndsAt = ptr(time.Now().Add(-time.Hour))

		assert.True(t, sub.Canceled())
		assert.False(t, sub.OnGracePeriod())
		assert.True(t, sub.Ended())
		assert.False(t, sub.Valid())
	})
}

func TestSubscription_PriceIntrospection(t *testing.T) {
	t.Parallel()

	t.Run("single-price mirror", func(t *testing.T) {
		t.Parallel()

		sub := singlePriceSub("price_basic", 2)
		assert.True(t, sub.HasSinglePrice())
		assert.False(t, sub.HasMultiplePrices())
		assert.True(t, sub.HasPrice("price_basic"))
		assert.False(t, sub.HasPrice("price_other"))
		assert.True(t, sub.HasProduct("prod_basic"))
	})

	t.Run("multi-price items are authoritative", func(t *testing.T) {
		t.Parallel()

		sub := multiPriceSub("price_a", "price_b")
		assert.False(t, sub.HasSinglePrice())
		assert.True(t, sub.HasPrice("price_b"))
		assert.True(t, sub.HasProduct("prod_price_a"))

		item, err := sub.FindItem("price_a")
		require.NoError(t, err)
		assert.Equal(t, "price_a", item.ChargebeePrice)

		_, err = sub.FindItem("price_missing")
		assert.ErrorIs(t, err, subscription.ErrItemNotFound)
	})
}

func TestProration(t *testing.T) {
	t.Parallel()

	t.Run("default omits the remote flag", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, subscription.ProrateDefault.Flag())
		assert.Equal(t, subscription.CreditNone, subscription.ProrateDefault.CreditOption())
	})

	t.Run("on prorates and credits proportionally", func(t *testing.T) {
		t.Parallel()
		flag := subscription.ProrateOn.Flag()
		require.NotNil(t, flag)
		assert.True(t, *flag)
		assert.Equal(t, subscription.CreditProrate, subscription.ProrateOn.CreditOption())
	})

	t.Run("off disables proration and credits in full", func(t *testing.T) {
		t.Parallel()
		flag := subscription.ProrateOff.Flag()
		require.NotNil(t, flag)
		assert.False(t, *flag)
		assert.Equal(t, subscription.CreditFull, subscription.ProrateOff.CreditOption())
	})
}
