package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"dealtrail/internal/models"
	"dealtrail/internal/repositories/interfaces"
	"dealtrail/internal/utils"
	"dealtrail/pkg/logger"
	"dealtrail/pkg/storage"
)

// CacheEvent is delivered to subscribers after every successful load or
// refresh. Background refresh failures do not produce events.
type CacheEvent struct {
	Type  string `json:"type"` // "init" or "update"
	Count int    `json:"count"`
}

// DealFilter selects deals from the pre-built indices. All provided fields
// must match. ActiveOnly defaults to true when nil.
type DealFilter struct {
	Type       models.DealType
	Day        models.DayOfWeek
	VendorID   string
	ActiveOnly *bool
	Limit      int
}

type DealCacheService interface {
	// Load ensures the cache is populated, preferring a valid local
	// snapshot over a catalog pull. Failures are logged and surfaced as
	// false, never as a panic or error.
	Load(ctx context.Context, force bool) bool

	// Refresh pulls all deal sets from the catalog and rebuilds the
	// indices atomically. A failed background refresh leaves prior data
	// loaded and queryable.
	Refresh(ctx context.Context, background bool) bool

	Query(filter *DealFilter) []*models.Deal

	// VendorDeals returns every cached deal for a vendor, trying the raw
	// key and its string/numeric coercions.
	VendorDeals(vendorID string) []*models.Deal

	// DealsForVendorOnDay returns the union of daily, multi_day, and
	// everyday deals a vendor has on the given day.
	DealsForVendorOnDay(vendorID string, day models.DayOfWeek) []*models.Deal

	IsLoaded() bool

	Subscribe(fn func(CacheEvent)) (unsubscribe func())
}

// dealIndex holds the three read-optimized views over one catalog pull.
// An index is immutable once built; refreshes swap the whole pointer so
// readers never observe a partially built set.
type dealIndex struct {
	all      []*models.Deal
	byType   map[models.DealType][]*models.Deal
	byDay    map[models.DayOfWeek][]*models.Deal
	byVendor map[string][]*models.Deal
}

func buildDealIndex(deals []*models.Deal) *dealIndex {
	idx := &dealIndex{
		all:      deals,
		byType:   make(map[models.DealType][]*models.Deal),
		byDay:    make(map[models.DayOfWeek][]*models.Deal),
		byVendor: make(map[string][]*models.Deal),
	}

	for _, deal := range deals {
		idx.byType[deal.DealType] = append(idx.byType[deal.DealType], deal)

		// Day buckets hold daily deals for their day plus every multi_day
		// deal active that day, so per-day lookups stay O(1). Everyday
		// deals are reachable through the type bucket.
		switch deal.DealType {
		case models.DealTypeDaily:
			idx.byDay[deal.Day] = append(idx.byDay[deal.Day], deal)
		case models.DealTypeMultiDay:
			for _, day := range deal.ActiveDays {
				idx.byDay[day] = append(idx.byDay[day], deal)
			}
		}

		vendorKey := deal.VendorID.String()
		idx.byVendor[vendorKey] = append(idx.byVendor[vendorKey], deal)
	}

	return idx
}

// lookupVendor tries the raw key and its coercions before concluding a
// vendor has no cached deals.
func (idx *dealIndex) lookupVendor(vendorID string) []*models.Deal {
	for _, key := range models.KeyCandidates(vendorID) {
		if deals, ok := idx.byVendor[key]; ok {
			return deals
		}
	}
	return nil
}

type dealSnapshot struct {
	Deals []*models.Deal `json:"deals"`
}

type dealCacheService struct {
	dealRepo   interfaces.DealRepository
	store      storage.KeyValueStore
	logger     *logger.Logger
	expiration time.Duration
	now        func() time.Time

	mu     sync.RWMutex
	index  *dealIndex
	loaded bool

	subMu       sync.Mutex
	subscribers map[int]func(CacheEvent)
	nextSubID   int

	// background tracks detached refresh goroutines so tests and shutdown
	// can await them.
	background sync.WaitGroup
}

func NewDealCacheService(
	dealRepo interfaces.DealRepository,
	store storage.KeyValueStore,
	logger *logger.Logger,
	expiration time.Duration,
) DealCacheService {
	if expiration <= 0 {
		expiration = utils.DealCacheExpiration
	}

	return &dealCacheService{
		dealRepo:    dealRepo,
		store:       store,
		logger:      logger,
		expiration:  expiration,
		now:         time.Now,
		subscribers: make(map[int]func(CacheEvent)),
	}
}

func (s *dealCacheService) Load(ctx context.Context, force bool) bool {
	if force {
		return s.Refresh(ctx, false)
	}

	snapshot, age, ok := s.readSnapshot(ctx)
	if !ok {
		return s.Refresh(ctx, false)
	}

	s.install(buildDealIndex(snapshot.Deals))
	s.logger.LogCacheEvent("snapshot_loaded", len(snapshot.Deals), map[string]interface{}{
		"age": age.String(),
	})

	if age > s.expiration {
		// Serve stale data now, refresh behind the caller's back.
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			s.Refresh(context.Background(), true)
		}()
	}

	return true
}

func (s *dealCacheService) Refresh(ctx context.Context, background bool) bool {
	deals, err := s.fetchAll(ctx)
	if err != nil {
		if background && s.IsLoaded() {
			// The prior snapshot stays valid; stale beats empty.
			s.logger.WithError(err).Warn("Background deal refresh failed, keeping stale cache")
		} else {
			s.logger.WithError(err).Error("Deal refresh failed")
		}
		return false
	}

	s.install(buildDealIndex(deals))

	if err := s.writeSnapshot(ctx, deals); err != nil {
		s.logger.WithError(err).Warn("Failed to persist deal snapshot")
		return false
	}

	s.logger.LogCacheEvent("refreshed", len(deals), map[string]interface{}{
		"background": background,
	})
	return true
}

// fetchAll pulls every deal set from the catalog: birthday, daily and
// multi_day per day of week, special, and everyday. Multi-day deals index
// under several days upstream, so they are de-duplicated by id.
func (s *dealCacheService) fetchAll(ctx context.Context) ([]*models.Deal, error) {
	var all []*models.Deal
	seen := make(map[models.FlexID]bool)

	appendDeals := func(deals []*models.Deal) {
		for _, deal := range deals {
			if seen[deal.ID] {
				continue
			}
			seen[deal.ID] = true
			all = append(all, deal)
		}
	}

	birthday, err := s.dealRepo.GetBirthdayDeals(ctx)
	if err != nil {
		return nil, err
	}
	appendDeals(birthday)

	for _, day := range models.AllDays {
		daily, err := s.dealRepo.GetDailyDeals(ctx, day)
		if err != nil {
			return nil, err
		}
		appendDeals(daily)
	}

	for _, day := range models.AllDays {
		multiDay, err := s.dealRepo.GetMultiDayDeals(ctx, day)
		if err != nil {
			return nil, err
		}
		appendDeals(multiDay)
	}

	special, err := s.dealRepo.GetSpecialDeals(ctx)
	if err != nil {
		return nil, err
	}
	appendDeals(special)

	everyday, err := s.dealRepo.GetEverydayDeals(ctx)
	if err != nil {
		return nil, err
	}
	appendDeals(everyday)

	return all, nil
}

// install swaps the new index in one step and notifies subscribers. The
// old index stays queryable until the swap.
func (s *dealCacheService) install(idx *dealIndex) {
	s.mu.Lock()
	wasLoaded := s.loaded
	s.index = idx
	s.loaded = true
	s.mu.Unlock()

	eventType := "update"
	if !wasLoaded {
		eventType = "init"
	}
	s.notify(CacheEvent{Type: eventType, Count: len(idx.all)})
}

func (s *dealCacheService) Query(filter *DealFilter) []*models.Deal {
	if filter == nil {
		filter = &DealFilter{}
	}
	if filter.Day != "" && !models.IsValidDay(filter.Day) {
		return nil
	}
	if filter.Type != "" && !models.IsValidDealType(filter.Type) {
		return nil
	}

	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()

	if idx == nil {
		return nil
	}

	var candidates []*models.Deal
	switch {
	case filter.VendorID != "":
		candidates = idx.lookupVendor(filter.VendorID)
	case filter.Type == models.DealTypeMultiDay && filter.Day != "":
		// The day-set is per-deal, not per-bucket, so this case scans the
		// type bucket and tests membership.
		candidates = idx.byType[models.DealTypeMultiDay]
	case filter.Day != "":
		candidates = idx.byDay[filter.Day]
	case filter.Type != "":
		candidates = idx.byType[filter.Type]
	default:
		candidates = idx.all
	}

	activeOnly := filter.ActiveOnly == nil || *filter.ActiveOnly

	var results []*models.Deal
	for _, deal := range candidates {
		if filter.Type != "" && deal.DealType != filter.Type {
			continue
		}
		if filter.Day != "" && !dealMatchesDay(deal, filter.Day) {
			continue
		}
		if activeOnly && !deal.Active() {
			continue
		}
		results = append(results, deal)
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}

	return results
}

// dealMatchesDay applies the day filter. Daily deals match their single
// day; multi_day deals match by set membership. Other types have no day
// dimension and pass through day-bucket results unchanged.
func dealMatchesDay(deal *models.Deal, day models.DayOfWeek) bool {
	switch deal.DealType {
	case models.DealTypeDaily:
		return deal.Day == day
	case models.DealTypeMultiDay:
		for _, active := range deal.ActiveDays {
			if active == day {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func (s *dealCacheService) VendorDeals(vendorID string) []*models.Deal {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()

	if idx == nil {
		return nil
	}

	deals := idx.lookupVendor(vendorID)
	results := make([]*models.Deal, len(deals))
	copy(results, deals)
	return results
}

func (s *dealCacheService) DealsForVendorOnDay(vendorID string, day models.DayOfWeek) []*models.Deal {
	if !models.IsValidDay(day) {
		return nil
	}

	var results []*models.Deal
	for _, deal := range s.VendorDeals(vendorID) {
		if !deal.Active() {
			continue
		}
		switch deal.DealType {
		case models.DealTypeDaily, models.DealTypeMultiDay:
			if deal.AppliesOn(day) {
				results = append(results, deal)
			}
		case models.DealTypeEveryday:
			results = append(results, deal)
		}
	}

	return results
}

func (s *dealCacheService) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *dealCacheService) Subscribe(fn func(CacheEvent)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *dealCacheService) notify(event CacheEvent) {
	s.subMu.Lock()
	fns := make([]func(CacheEvent), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}

func (s *dealCacheService) readSnapshot(ctx context.Context) (*dealSnapshot, time.Duration, bool) {
	raw, err := s.store.Get(ctx, utils.StorageKeyDealSnapshot)
	if err != nil {
		if err != storage.ErrNotFound {
			s.logger.WithError(err).Warn("Failed to read deal snapshot")
		}
		return nil, 0, false
	}

	rawTime, err := s.store.Get(ctx, utils.StorageKeySnapshotTime)
	if err != nil {
		return nil, 0, false
	}

	savedAt, err := time.Parse(time.RFC3339, rawTime)
	if err != nil {
		s.logger.WithError(err).Warn("Corrupt deal snapshot timestamp")
		return nil, 0, false
	}

	var snapshot dealSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		s.logger.WithError(err).Warn("Corrupt deal snapshot")
		return nil, 0, false
	}

	return &snapshot, s.now().Sub(savedAt), true
}

func (s *dealCacheService) writeSnapshot(ctx context.Context, deals []*models.Deal) error {
	data, err := json.Marshal(&dealSnapshot{Deals: deals})
	if err != nil {
		return err
	}

	if err := s.store.Set(ctx, utils.StorageKeyDealSnapshot, string(data)); err != nil {
		return err
	}
	return s.store.Set(ctx, utils.StorageKeySnapshotTime, s.now().Format(time.RFC3339))
}
