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

type fakeDealRepo struct {
	birthday []*models.Deal
	daily    map[models.DayOfWeek][]*models.Deal
	multiDay map[models.DayOfWeek][]*models.Deal
	special  []*models.Deal
	everyday []*models.Deal
	err      error
	fetches  int
}

func (r *fakeDealRepo) GetBirthdayDeals(ctx context.Context) ([]*models.Deal, error) {
	r.fetches++
	if r.err != nil {
		return nil, r.err
	}
	return r.birthday, nil
}

func (r *fakeDealRepo) GetDailyDeals(ctx context.Context, day models.DayOfWeek) ([]*models.Deal, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.daily[day], nil
}

func (r *fakeDealRepo) GetMultiDayDeals(ctx context.Context, day models.DayOfWeek) ([]*models.Deal, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.multiDay[day], nil
}

func (r *fakeDealRepo) GetSpecialDeals(ctx context.Context) ([]*models.Deal, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.special, nil
}

func (r *fakeDealRepo) GetEverydayDeals(ctx context.Context) ([]*models.Deal, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.everyday, nil
}

func (r *fakeDealRepo) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, deal := range r.everyday {
		if deal.ID.String() == id {
			return deal, nil
		}
	}
	return nil, nil
}

func tacoTuesdayCatalog() *fakeDealRepo {
	return &fakeDealRepo{
		birthday: []*models.Deal{
			{ID: "b1", VendorID: "10", DealType: models.DealTypeBirthday, Description: "free dessert"},
		},
		daily: map[models.DayOfWeek][]*models.Deal{
			models.Tuesday: {
				{ID: "d1", VendorID: "10", DealType: models.DealTypeDaily, Day: models.Tuesday, Description: "taco tuesday"},
			},
			models.Friday: {
				{ID: "d2", VendorID: "20", DealType: models.DealTypeDaily, Day: models.Friday},
			},
		},
		multiDay: map[models.DayOfWeek][]*models.Deal{
			models.Monday: {
				{ID: "m1", VendorID: "20", DealType: models.DealTypeMultiDay, ActiveDays: []models.DayOfWeek{models.Monday, models.Tuesday}},
			},
			models.Tuesday: {
				{ID: "m1", VendorID: "20", DealType: models.DealTypeMultiDay, ActiveDays: []models.DayOfWeek{models.Monday, models.Tuesday}},
			},
		},
		special: []*models.Deal{
			{ID: "s1", VendorID: "30", DealType: models.DealTypeSpecial},
		},
		everyday: []*models.Deal{
			{ID: "e1", VendorID: "10", DealType: models.DealTypeEveryday, Description: "happy hour"},
		},
	}
}

func newTestCache(repo *fakeDealRepo, store storage.KeyValueStore) *dealCacheService {
	svc := NewDealCacheService(repo, store, logger.NewNop(), utils.DealCacheExpiration)
	return svc.(*dealCacheService)
}

func TestDealCacheRefreshBuildsIndices(t *testing.T) {
	svc := newTestCache(tacoTuesdayCatalog(), storage.NewMemoryStore())

	require.True(t, svc.Refresh(context.Background(), false))
	require.True(t, svc.IsLoaded())

	t.Run("deduplicates multi_day deals across day fetches", func(t *testing.T) {
		all := svc.Query(&DealFilter{})
		ids := make(map[models.FlexID]int)
		for _, deal := range all {
			ids[deal.ID]++
		}
		assert.Equal(t, 1, ids["m1"])
		assert.Len(t, all, 5)
	})

	t.Run("query by type", func(t *testing.T) {
		deals := svc.Query(&DealFilter{Type: models.DealTypeBirthday})
		require.Len(t, deals, 1)
		assert.Equal(t, models.FlexID("b1"), deals[0].ID)
	})

	t.Run("day bucket holds daily plus multi_day", func(t *testing.T) {
		deals := svc.Query(&DealFilter{Day: models.Tuesday})
		ids := make([]string, 0, len(deals))
		for _, deal := range deals {
			ids = append(ids, deal.ID.String())
		}
		assert.ElementsMatch(t, []string{"d1", "m1"}, ids)
	})

	t.Run("multi_day plus day scans membership", func(t *testing.T) {
		deals := svc.Query(&DealFilter{Type: models.DealTypeMultiDay, Day: models.Monday})
		require.Len(t, deals, 1)
		assert.Equal(t, models.FlexID("m1"), deals[0].ID)

		assert.Empty(t, svc.Query(&DealFilter{Type: models.DealTypeMultiDay, Day: models.Saturday}))
	})

	t.Run("query by vendor with numeric coercion", func(t *testing.T) {
		deals := svc.Query(&DealFilter{VendorID: "10.0"})
		assert.Len(t, deals, 3)
	})

	t.Run("invalid day yields nothing", func(t *testing.T) {
		assert.Empty(t, svc.Query(&DealFilter{Day: "funday"}))
	})

	t.Run("limit caps results", func(t *testing.T) {
		assert.Len(t, svc.Query(&DealFilter{Limit: 2}), 2)
	})
}

func TestDealCacheQueryActiveFilter(t *testing.T) {
	inactive := false
	repo := &fakeDealRepo{
		everyday: []*models.Deal{
			{ID: "e1", VendorID: "10", DealType: models.DealTypeEveryday},
			{ID: "e2", VendorID: "10", DealType: models.DealTypeEveryday, IsActive: &inactive},
		},
	}
	svc := newTestCache(repo, storage.NewMemoryStore())
	require.True(t, svc.Refresh(context.Background(), false))

	assert.Len(t, svc.Query(&DealFilter{Type: models.DealTypeEveryday}), 1, "active-only is the default")

	all := false
	assert.Len(t, svc.Query(&DealFilter{Type: models.DealTypeEveryday, ActiveOnly: &all}), 2)
}

func TestDealCacheLoadPrefersSnapshot(t *testing.T) {
	store := storage.NewMemoryStore()
	seed := newTestCache(tacoTuesdayCatalog(), store)
	require.True(t, seed.Refresh(context.Background(), false))

	// A broken catalog must not matter when a fresh snapshot exists.
	svc := newTestCache(&fakeDealRepo{err: errors.New("catalog down")}, store)
	require.True(t, svc.Load(context.Background(), false))
	svc.background.Wait()

	assert.True(t, svc.IsLoaded())
	assert.Len(t, svc.Query(&DealFilter{}), 5)
}

func TestDealCacheStaleSnapshotTriggersBackgroundRefresh(t *testing.T) {
	store := storage.NewMemoryStore()
	seed := newTestCache(tacoTuesdayCatalog(), store)
	require.True(t, seed.Refresh(context.Background(), false))

	repo := tacoTuesdayCatalog()
	repo.everyday = append(repo.everyday, &models.Deal{ID: "e9", VendorID: "40", DealType: models.DealTypeEveryday})

	svc := newTestCache(repo, store)
	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	require.True(t, svc.Load(context.Background(), false))
	svc.background.Wait()

	assert.Len(t, svc.Query(&DealFilter{}), 6, "background refresh picked up the new deal")
}

func TestDealCacheBackgroundFailureKeepsStaleData(t *testing.T) {
	store := storage.NewMemoryStore()
	seed := newTestCache(tacoTuesdayCatalog(), store)
	require.True(t, seed.Refresh(context.Background(), false))

	svc := newTestCache(&fakeDealRepo{err: errors.New("catalog down")}, store)
	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	require.True(t, svc.Load(context.Background(), false))
	svc.background.Wait()

	assert.True(t, svc.IsLoaded())
	assert.Len(t, svc.Query(&DealFilter{}), 5, "stale snapshot stays queryable")
}

func TestDealCacheForceLoadBypassesSnapshot(t *testing.T) {
	store := storage.NewMemoryStore()
	seed := newTestCache(tacoTuesdayCatalog(), store)
	require.True(t, seed.Refresh(context.Background(), false))

	repo := tacoTuesdayCatalog()
	svc := newTestCache(repo, store)
	require.True(t, svc.Load(context.Background(), true))
	assert.Positive(t, repo.fetches, "force load goes to the catalog")
}

func TestDealCacheSubscribe(t *testing.T) {
	svc := newTestCache(tacoTuesdayCatalog(), storage.NewMemoryStore())

	var events []CacheEvent
	unsubscribe := svc.Subscribe(func(e CacheEvent) {
		events = append(events, e)
	})

	require.True(t, svc.Refresh(context.Background(), false))
	require.True(t, svc.Refresh(context.Background(), false))

	require.Len(t, events, 2)
	assert.Equal(t, "init", events[0].Type)
	assert.Equal(t, 5, events[0].Count)
	assert.Equal(t, "update", events[1].Type)

	unsubscribe()
	require.True(t, svc.Refresh(context.Background(), false))
	assert.Len(t, events, 2, "no events after unsubscribe")
}

func TestDealCacheDealsForVendorOnDay(t *testing.T) {
	svc := newTestCache(tacoTuesdayCatalog(), storage.NewMemoryStore())
	require.True(t, svc.Refresh(context.Background(), false))

	t.Run("union of daily and everyday", func(t *testing.T) {
		deals := svc.DealsForVendorOnDay("10", models.Tuesday)
		ids := make([]string, 0, len(deals))
		for _, deal := range deals {
			ids = append(ids, deal.ID.String())
		}
		assert.ElementsMatch(t, []string{"d1", "e1"}, ids)
	})

	t.Run("everyday only on other days", func(t *testing.T) {
		deals := svc.DealsForVendorOnDay("10", models.Wednesday)
		require.Len(t, deals, 1)
		assert.Equal(t, models.FlexID("e1"), deals[0].ID)
	})

	t.Run("multi_day membership", func(t *testing.T) {
		assert.Len(t, svc.DealsForVendorOnDay("20", models.Monday), 1)
		assert.Empty(t, svc.DealsForVendorOnDay("20", models.Saturday))
	})
}

func TestDealCacheRefreshFailureWithoutSnapshot(t *testing.T) {
	svc := newTestCache(&fakeDealRepo{err: errors.New("catalog down")}, storage.NewMemoryStore())

	assert.False(t, svc.Load(context.Background(), false))
	assert.False(t, svc.IsLoaded())
	assert.Nil(t, svc.Query(&DealFilter{}))
}
