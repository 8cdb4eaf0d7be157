package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealtrail/internal/models"
	"dealtrail/internal/utils"
	"dealtrail/pkg/logger"
	"dealtrail/pkg/storage"
)

type failingStore struct {
	err error
}

func (s *failingStore) Get(ctx context.Context, key string) (string, error) { return "", s.err }
func (s *failingStore) Set(ctx context.Context, key, value string) error    { return s.err }
func (s *failingStore) Remove(ctx context.Context, key string) error        { return s.err }

func newTestRedemptions(store storage.KeyValueStore, cache DealCacheService) *redemptionService {
	svc := NewRedemptionService(store, cache, logger.NewNop())
	return svc.(*redemptionService)
}

func loadedCache(t *testing.T, repo *fakeDealRepo) DealCacheService {
	t.Helper()
	svc := newTestCache(repo, storage.NewMemoryStore())
	require.True(t, svc.Refresh(context.Background(), false))
	return svc
}

func TestRedemptionCooldown(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newTestRedemptions(store, loadedCache(t, tacoTuesdayCatalog()))

	base := time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	require.NoError(t, svc.Record(ctx, "10", models.DealTypeDaily, ""))

	t.Run("blocked inside the window", func(t *testing.T) {
		assert.False(t, svc.CanRedeem(ctx, "10", models.DealTypeDaily))
	})

	t.Run("per-type isolation", func(t *testing.T) {
		assert.True(t, svc.CanRedeem(ctx, "10", models.DealTypeEveryday))
		assert.True(t, svc.CanRedeem(ctx, "20", models.DealTypeDaily))
	})

	t.Run("allowed after 24 hours", func(t *testing.T) {
		svc.now = func() time.Time { return base.Add(24*time.Hour + time.Minute) }
		assert.True(t, svc.CanRedeem(ctx, "10", models.DealTypeDaily))
	})
}

func TestRedemptionBirthdayCooldownIsOneYear(t *testing.T) {
	ctx := context.Background()
	svc := newTestRedemptions(storage.NewMemoryStore(), loadedCache(t, tacoTuesdayCatalog()))

	base := time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.Record(ctx, "10", models.DealTypeBirthday, ""))

	svc.now = func() time.Time { return base.Add(30 * 24 * time.Hour) }
	assert.False(t, svc.CanRedeem(ctx, "10", models.DealTypeBirthday))

	svc.now = func() time.Time { return base.Add(366 * 24 * time.Hour) }
	assert.True(t, svc.CanRedeem(ctx, "10", models.DealTypeBirthday))
}

func TestRedemptionMostRecentEventWins(t *testing.T) {
	ctx := context.Background()
	svc := newTestRedemptions(storage.NewMemoryStore(), loadedCache(t, tacoTuesdayCatalog()))

	base := time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.Record(ctx, "10", models.DealTypeDaily, "first"))

	svc.now = func() time.Time { return base.Add(30 * time.Hour) }
	require.NoError(t, svc.Record(ctx, "10", models.DealTypeDaily, "second"))

	// The first event is past cooldown but the second is not.
	svc.now = func() time.Time { return base.Add(40 * time.Hour) }
	assert.False(t, svc.CanRedeem(ctx, "10", models.DealTypeDaily))
}

func TestRedemptionFailsOpen(t *testing.T) {
	ctx := context.Background()
	cache := loadedCache(t, tacoTuesdayCatalog())

	t.Run("unreadable store", func(t *testing.T) {
		svc := newTestRedemptions(&failingStore{err: errors.New("disk gone")}, cache)
		assert.True(t, svc.CanRedeem(ctx, "10", models.DealTypeDaily))
	})

	t.Run("corrupt log", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(ctx, utils.StorageKeyRedemptions, "{not json"))
		svc := newTestRedemptions(store, cache)
		assert.True(t, svc.CanRedeem(ctx, "10", models.DealTypeDaily))
	})
}

func TestRedemptionVendorIDCoercion(t *testing.T) {
	ctx := context.Background()
	svc := newTestRedemptions(storage.NewMemoryStore(), loadedCache(t, tacoTuesdayCatalog()))
	svc.now = func() time.Time { return time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC) }

	require.NoError(t, svc.Record(ctx, "10", models.DealTypeDaily, ""))
	assert.False(t, svc.CanRedeem(ctx, "10.0", models.DealTypeDaily), "numeric spellings are the same vendor")
}

func TestFilterEligible(t *testing.T) {
	ctx := context.Background()

	// Tuesday evening: vendor 10 has taco tuesday, vendor 20's multi_day
	// covers Tuesday, vendor 30 only has a special.
	tuesday := time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC)
	require.Equal(t, models.Tuesday, models.DayOfWeekFromTime(tuesday))

	cache := loadedCache(t, tacoTuesdayCatalog())
	svc := newTestRedemptions(storage.NewMemoryStore(), cache)
	svc.now = func() time.Time { return tuesday }

	vendors := []*models.Vendor{
		{ID: "10", Name: "Taqueria"},
		{ID: "20", Name: "Brewpub"},
		{ID: "30", Name: "Diner"},
	}

	t.Run("keeps vendors offering the deal, in order", func(t *testing.T) {
		eligible := svc.FilterEligible(ctx, vendors, models.DealTypeDaily)
		require.Len(t, eligible, 1)
		assert.Equal(t, models.FlexID("10"), eligible[0].ID)

		eligible = svc.FilterEligible(ctx, vendors, models.DealTypeMultiDay)
		require.Len(t, eligible, 1)
		assert.Equal(t, models.FlexID("20"), eligible[0].ID)
	})

	t.Run("drops vendors on cooldown", func(t *testing.T) {
		require.NoError(t, svc.Record(ctx, "10", models.DealTypeDaily, ""))
		assert.Empty(t, svc.FilterEligible(ctx, vendors, models.DealTypeDaily))
	})
}

func TestVendorOffersDealFallsBackToSummary(t *testing.T) {
	cache := loadedCache(t, tacoTuesdayCatalog())
	svc := newTestRedemptions(storage.NewMemoryStore(), cache)
	svc.now = func() time.Time { return time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC) }

	// Vendor 99 has nothing in the cache, only an embedded summary.
	vendor := &models.Vendor{
		ID: "99",
		Deals: &models.VendorDealSummary{
			Daily: []models.DealSummary{{Day: models.Tuesday}},
		},
	}

	assert.True(t, svc.VendorOffersDeal(vendor, models.DealTypeDaily))
	assert.False(t, svc.VendorOffersDeal(vendor, models.DealTypeBirthday))
	assert.False(t, svc.VendorOffersDeal(nil, models.DealTypeDaily))
}
