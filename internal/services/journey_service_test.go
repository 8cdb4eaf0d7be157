package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealtrail/internal/models"
	"dealtrail/internal/utils"
	"dealtrail/pkg/logger"
	"dealtrail/pkg/storage"
)

func newTestJourneys(store storage.KeyValueStore) *journeyService {
	svc := NewJourneyService(store, &stubRedemptions{}, logger.NewNop(), utils.JourneyTTL, utils.JourneyHistoryLimit)
	return svc.(*journeyService)
}

func testRoute(stops int) *models.RouteResult {
	route := &models.RouteResult{
		DealType:           models.DealTypeEveryday,
		TotalDistanceMiles: float64(stops) * 1.5,
	}
	for i := 0; i < stops; i++ {
		route.Vendors = append(route.Vendors, models.VendorStop{
			Vendor:        *anchorageVendor(fmt.Sprintf("%d", i+1), fmt.Sprintf("Stop %d", i+1), 61.22+float64(i)*0.01, -149.9),
			DistanceMiles: 1.5,
		})
	}
	return route
}

func TestJourneyStart(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newTestJourneys(store)

	journey, err := svc.Start(ctx, testRoute(3), 5.0)
	require.NoError(t, err)

	assert.Equal(t, 0, journey.CurrentVendorIndex)
	assert.Equal(t, 3, journey.TotalVendors)
	assert.Equal(t, 5.0, journey.MaxDistance)
	for _, stop := range journey.Vendors {
		assert.False(t, stop.CheckedIn)
	}

	_, err = store.Get(ctx, utils.StorageKeyCurrentJourney)
	assert.NoError(t, err, "journey is persisted on start")

	t.Run("replaces a prior journey", func(t *testing.T) {
		replacement, err := svc.Start(ctx, testRoute(1), 2.0)
		require.NoError(t, err)
		assert.Equal(t, 1, replacement.TotalVendors)
		assert.Equal(t, 1, svc.Current().TotalVendors)
	})
}

func TestJourneyAdvance(t *testing.T) {
	ctx := context.Background()
	svc := newTestJourneys(storage.NewMemoryStore())

	_, err := svc.Start(ctx, testRoute(3), 0)
	require.NoError(t, err)

	journey, err := svc.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, journey.CurrentVendorIndex)

	journey, err = svc.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, journey.CurrentVendorIndex)

	t.Run("last stop signals completion without mutating", func(t *testing.T) {
		journey, err = svc.Advance(ctx)
		require.NoError(t, err)
		assert.Nil(t, journey)
		assert.Equal(t, 2, svc.Current().CurrentVendorIndex)
	})
}

func TestJourneySkip(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the current stop", func(t *testing.T) {
		svc := newTestJourneys(storage.NewMemoryStore())
		_, err := svc.Start(ctx, testRoute(3), 0)
		require.NoError(t, err)

		journey, err := svc.Skip(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, journey.TotalVendors)
		assert.Equal(t, 0, journey.CurrentVendorIndex)
		assert.Equal(t, "Stop 2", journey.Vendors[0].Vendor.Name)
	})

	t.Run("clamps index when skipping the last stop", func(t *testing.T) {
		svc := newTestJourneys(storage.NewMemoryStore())
		_, err := svc.Start(ctx, testRoute(3), 0)
		require.NoError(t, err)

		_, err = svc.Advance(ctx)
		require.NoError(t, err)
		_, err = svc.Advance(ctx)
		require.NoError(t, err)

		journey, err := svc.Skip(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, journey.TotalVendors)
		assert.Equal(t, 1, journey.CurrentVendorIndex)
	})

	t.Run("single stop yields an empty journey", func(t *testing.T) {
		svc := newTestJourneys(storage.NewMemoryStore())
		_, err := svc.Start(ctx, testRoute(1), 0)
		require.NoError(t, err)

		journey, err := svc.Skip(ctx)
		require.NoError(t, err)
		assert.Empty(t, journey.Vendors)
		assert.Equal(t, 0, journey.CurrentVendorIndex)
		assert.True(t, journey.Finished())
	})
}

func TestJourneyCheckIn(t *testing.T) {
	ctx := context.Background()
	ledger := &stubRedemptions{}
	svc := NewJourneyService(storage.NewMemoryStore(), ledger, logger.NewNop(), utils.JourneyTTL, utils.JourneyHistoryLimit)

	_, err := svc.Start(ctx, testRoute(2), 0)
	require.NoError(t, err)

	journey, err := svc.CheckIn(ctx, "gps")
	require.NoError(t, err)
	assert.True(t, journey.Vendors[0].CheckedIn)
	assert.Equal(t, "gps", journey.Vendors[0].CheckInType)
	assert.False(t, journey.Vendors[1].CheckedIn)
	assert.Equal(t, []string{"1:everyday"}, ledger.recorded, "check-in writes one redemption event")

	// Checking in again at the same stop must not duplicate the event.
	_, err = svc.CheckIn(ctx, "manual")
	require.NoError(t, err)
	assert.Len(t, ledger.recorded, 1)
}

func TestJourneyComplete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newTestJourneys(store)

	_, err := svc.Start(ctx, testRoute(3), 0)
	require.NoError(t, err)
	_, err = svc.Advance(ctx)
	require.NoError(t, err)
	_, err = svc.Advance(ctx)
	require.NoError(t, err)

	completed, err := svc.Complete(ctx)
	require.NoError(t, err)

	assert.Equal(t, 20, completed.PointsEarned, "the current stop does not score")
	assert.NotNil(t, completed.CompletedAt)
	assert.Nil(t, svc.Current())

	_, err = store.Get(ctx, utils.StorageKeyCurrentJourney)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	history, err := svc.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 20, history[0].PointsEarned)
}

func TestJourneyHistoryNewestFirstAndCapped(t *testing.T) {
	ctx := context.Background()
	svc := newTestJourneys(storage.NewMemoryStore())

	for i := 0; i < utils.JourneyHistoryLimit+5; i++ {
		_, err := svc.Start(ctx, testRoute(i%3+1), 0)
		require.NoError(t, err)
		_, err = svc.Complete(ctx)
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, utils.JourneyHistoryLimit)

	// The last completed journey had (24 % 3) + 1 = 1 stop.
	assert.Equal(t, 1, history[0].TotalVendors)

	t.Run("limit slices the newest entries", func(t *testing.T) {
		limited, err := svc.History(ctx, 3)
		require.NoError(t, err)
		assert.Len(t, limited, 3)
		assert.Equal(t, history[0].TotalVendors, limited[0].TotalVendors)
	})
}

func TestJourneyAbandon(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newTestJourneys(store)

	_, err := svc.Start(ctx, testRoute(2), 0)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, utils.StorageKeyRouteData, "cached-route"))

	require.NoError(t, svc.Abandon(ctx))

	assert.Nil(t, svc.Current())
	_, err = store.Get(ctx, utils.StorageKeyCurrentJourney)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.Get(ctx, utils.StorageKeyRouteData)
	assert.ErrorIs(t, err, storage.ErrNotFound, "cached route data is cleared too")

	history, err := svc.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history, "abandoned journeys do not enter history")
}

func TestJourneyLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first := newTestJourneys(store)
	_, err := first.Start(ctx, testRoute(3), 4.0)
	require.NoError(t, err)
	_, err = first.Advance(ctx)
	require.NoError(t, err)

	restored := newTestJourneys(store)
	journey, err := restored.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, journey)

	assert.Equal(t, 1, journey.CurrentVendorIndex)
	assert.Equal(t, 3, journey.TotalVendors)
	assert.Equal(t, "Stop 1", journey.Vendors[0].Vendor.Name)
	assert.Equal(t, "Stop 3", journey.Vendors[2].Vendor.Name)
}

func TestJourneyLoadExpiry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first := newTestJourneys(store)
	_, err := first.Start(ctx, testRoute(2), 0)
	require.NoError(t, err)

	restored := newTestJourneys(store)
	restored.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	journey, err := restored.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, journey, "expired journeys are cleared, not resumed")

	_, err = store.Get(ctx, utils.StorageKeyCurrentJourney)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestJourneyLoadCorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, utils.StorageKeyCurrentJourney, "{broken"))

	svc := newTestJourneys(store)
	journey, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, journey)
}

func TestJourneyMutationsRequireActiveJourney(t *testing.T) {
	ctx := context.Background()
	svc := newTestJourneys(storage.NewMemoryStore())

	_, err := svc.Advance(ctx)
	assert.ErrorIs(t, err, ErrNoActiveJourney)
	_, err = svc.Skip(ctx)
	assert.ErrorIs(t, err, ErrNoActiveJourney)
	_, err = svc.CheckIn(ctx, "gps")
	assert.ErrorIs(t, err, ErrNoActiveJourney)
	_, err = svc.Complete(ctx)
	assert.ErrorIs(t, err, ErrNoActiveJourney)
	assert.ErrorIs(t, svc.Abandon(ctx), ErrNoActiveJourney)
	assert.Nil(t, svc.Current())
}

func TestJourneyReturnsCopies(t *testing.T) {
	ctx := context.Background()
	svc := newTestJourneys(storage.NewMemoryStore())

	journey, err := svc.Start(ctx, testRoute(2), 0)
	require.NoError(t, err)

	journey.Vendors[0].CheckedIn = true
	journey.CurrentVendorIndex = 99

	current := svc.Current()
	assert.False(t, current.Vendors[0].CheckedIn, "callers cannot mutate internal state")
	assert.Equal(t, 0, current.CurrentVendorIndex)
}
