package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"dealtrail/internal/models"
	"dealtrail/internal/utils"
	"dealtrail/pkg/logger"
	"dealtrail/pkg/storage"
)

// ErrNoActiveJourney is returned by mutations invoked with no journey in
// progress.
var ErrNoActiveJourney = errors.New("no active journey")

// JourneyService owns the lifecycle of the single current journey. It is
// the only writer of the persisted journey and history records.
type JourneyService interface {
	// Start turns a planned route into the current journey, replacing any
	// prior one without merging.
	Start(ctx context.Context, route *models.RouteResult, maxDistance float64) (*models.Journey, error)

	// Advance moves to the next stop. At the last stop it returns a nil
	// journey without mutating; completion must go through Complete.
	Advance(ctx context.Context) (*models.Journey, error)

	// Skip removes the current stop entirely instead of marking it.
	Skip(ctx context.Context) (*models.Journey, error)

	// CheckIn marks the current stop as checked in without advancing and
	// records the matching redemption event. Repeat check-ins at the same
	// stop are no-ops.
	CheckIn(ctx context.Context, checkInType string) (*models.Journey, error)

	// Complete stamps the journey finished, scores it, records it in
	// history and clears current state.
	Complete(ctx context.Context) (*models.CompletedJourney, error)

	// Abandon discards the current journey without recording history.
	Abandon(ctx context.Context) error

	// Load restores the persisted journey on process start. Journeys older
	// than the TTL are cleared instead of resumed.
	Load(ctx context.Context) (*models.Journey, error)

	Current() *models.Journey
	History(ctx context.Context, limit int) ([]models.CompletedJourney, error)
}

type journeyService struct {
	store        storage.KeyValueStore
	redemptions  RedemptionService
	logger       *logger.Logger
	ttl          time.Duration
	historyLimit int
	now          func() time.Time

	// Serializes all mutations so two overlapping calls cannot clobber
	// each other's index before persistence settles.
	mu      sync.Mutex
	current *models.Journey
}

func NewJourneyService(store storage.KeyValueStore, redemptions RedemptionService, logger *logger.Logger, ttl time.Duration, historyLimit int) JourneyService {
	if ttl <= 0 {
		ttl = utils.JourneyTTL
	}
	if historyLimit <= 0 {
		historyLimit = utils.JourneyHistoryLimit
	}

	return &journeyService{
		store:        store,
		redemptions:  redemptions,
		logger:       logger,
		ttl:          ttl,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

func (s *journeyService) Start(ctx context.Context, route *models.RouteResult, maxDistance float64) (*models.Journey, error) {
	if route == nil {
		return nil, fmt.Errorf("route is required to start a journey")
	}

	stops := make([]models.VendorStop, len(route.Vendors))
	copy(stops, route.Vendors)
	for i := range stops {
		stops[i].CheckedIn = false
		stops[i].CheckInType = ""
	}

	journey := &models.Journey{
		DealType:           route.DealType,
		Vendors:            stops,
		CurrentVendorIndex: 0,
		MaxDistance:        maxDistance,
		TotalVendors:       len(stops),
		CreatedAt:          s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = journey
	s.persist(ctx)

	s.logger.LogJourneyEvent("started", map[string]interface{}{
		"deal_type": string(journey.DealType),
		"stops":     journey.TotalVendors,
	})

	return copyJourney(journey), nil
}

func (s *journeyService) Advance(ctx context.Context) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoActiveJourney
	}
	if s.current.CurrentVendorIndex >= len(s.current.Vendors)-1 {
		// Already on the last stop. Signal completion to the caller
		// without touching the index.
		return nil, nil
	}

	s.current.CurrentVendorIndex++
	s.persist(ctx)

	s.logger.LogJourneyEvent("advanced", map[string]interface{}{
		"current_index": s.current.CurrentVendorIndex,
		"total_stops":   s.current.TotalVendors,
	})

	return copyJourney(s.current), nil
}

func (s *journeyService) Skip(ctx context.Context) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoActiveJourney
	}
	if len(s.current.Vendors) == 0 {
		return copyJourney(s.current), nil
	}

	idx := s.current.CurrentVendorIndex
	s.current.Vendors = append(s.current.Vendors[:idx], s.current.Vendors[idx+1:]...)
	s.current.TotalVendors = len(s.current.Vendors)

	if len(s.current.Vendors) == 0 {
		s.current.CurrentVendorIndex = 0
	} else if s.current.CurrentVendorIndex >= len(s.current.Vendors) {
		s.current.CurrentVendorIndex = len(s.current.Vendors) - 1
	}

	s.persist(ctx)

	s.logger.LogJourneyEvent("skipped", map[string]interface{}{
		"current_index":   s.current.CurrentVendorIndex,
		"remaining_stops": s.current.TotalVendors,
	})

	return copyJourney(s.current), nil
}

func (s *journeyService) CheckIn(ctx context.Context, checkInType string) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoActiveJourney
	}

	stop := s.current.CurrentStop()
	if stop == nil {
		return nil, fmt.Errorf("journey has no current stop to check in at")
	}
	if stop.CheckedIn {
		// Repeat check-ins at the same stop must not append duplicate
		// redemption events.
		return copyJourney(s.current), nil
	}

	stop.CheckedIn = true
	stop.CheckInType = checkInType
	s.persist(ctx)

	// A successful check-in is the only trigger that creates a redemption
	// event. A ledger write failure is logged, not surfaced, so the user
	// is never stuck at a stop they already visited.
	if err := s.redemptions.Record(ctx, stop.Vendor.ID.String(), s.current.DealType, ""); err != nil {
		s.logger.WithError(err).Warn("Failed to record redemption for check-in")
	}

	s.logger.LogJourneyEvent("checked_in", map[string]interface{}{
		"vendor_id":     stop.Vendor.ID.String(),
		"check_in_type": checkInType,
	})

	return copyJourney(s.current), nil
}

func (s *journeyService) Complete(ctx context.Context) (*models.CompletedJourney, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoActiveJourney
	}

	completedAt := s.now()
	s.current.CompletedAt = &completedAt

	// The stop the user is standing on does not score; only stops fully
	// moved past count as visited.
	completed := &models.CompletedJourney{
		Journey:      *copyJourney(s.current),
		PointsEarned: s.current.CurrentVendorIndex * utils.PointsPerVisitedStop,
	}

	if err := s.appendHistory(ctx, completed); err != nil {
		s.logger.WithError(err).Warn("Failed to record journey history")
	}

	s.current = nil
	s.clearPersisted(ctx)

	s.logger.LogJourneyEvent("completed", map[string]interface{}{
		"points_earned": completed.PointsEarned,
		"total_stops":   completed.TotalVendors,
	})

	return completed, nil
}

func (s *journeyService) Abandon(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNoActiveJourney
	}

	s.current = nil
	s.clearPersisted(ctx)

	s.logger.LogJourneyEvent("abandoned", nil)
	return nil
}

func (s *journeyService) Load(ctx context.Context) (*models.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.store.Get(ctx, utils.StorageKeyCurrentJourney)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read persisted journey: %w", err)
	}

	var journey models.Journey
	if err := json.Unmarshal([]byte(raw), &journey); err != nil {
		s.logger.WithError(err).Warn("Discarding corrupt persisted journey")
		s.clearPersisted(ctx)
		return nil, nil
	}

	if s.now().Sub(journey.CreatedAt) > s.ttl {
		s.logger.LogJourneyEvent("expired", map[string]interface{}{
			"created_at": journey.CreatedAt.Format(time.RFC3339),
		})
		s.clearPersisted(ctx)
		return nil, nil
	}

	s.current = &journey

	s.logger.LogJourneyEvent("restored", map[string]interface{}{
		"current_index": journey.CurrentVendorIndex,
		"total_stops":   journey.TotalVendors,
	})

	return copyJourney(s.current), nil
}

func (s *journeyService) Current() *models.Journey {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	return copyJourney(s.current)
}

func (s *journeyService) History(ctx context.Context, limit int) ([]models.CompletedJourney, error) {
	history, err := s.readHistory(ctx)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// persist writes the current journey best effort. A storage failure keeps
// the in-memory mutation and is logged rather than surfaced.
func (s *journeyService) persist(ctx context.Context) {
	data, err := json.Marshal(s.current)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode journey for persistence")
		return
	}
	if err := s.store.Set(ctx, utils.StorageKeyCurrentJourney, string(data)); err != nil {
		s.logger.WithError(err).Warn("Failed to persist journey")
	}
}

func (s *journeyService) clearPersisted(ctx context.Context) {
	if err := s.store.Remove(ctx, utils.StorageKeyCurrentJourney); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.WithError(err).Warn("Failed to clear persisted journey")
	}
	if err := s.store.Remove(ctx, utils.StorageKeyRouteData); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.WithError(err).Warn("Failed to clear cached route data")
	}
}

func (s *journeyService) readHistory(ctx context.Context) ([]models.CompletedJourney, error) {
	raw, err := s.store.Get(ctx, utils.StorageKeyJourneyHistory)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read journey history: %w", err)
	}

	var history []models.CompletedJourney
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		s.logger.WithError(err).Warn("Discarding corrupt journey history")
		return nil, nil
	}
	return history, nil
}

// appendHistory prepends the entry and evicts the oldest past the cap.
func (s *journeyService) appendHistory(ctx context.Context, entry *models.CompletedJourney) error {
	history, err := s.readHistory(ctx)
	if err != nil {
		// Fail open rather than lose the new entry with the old list.
		s.logger.WithError(err).Warn("Starting fresh journey history after read failure")
		history = nil
	}

	history = append([]models.CompletedJourney{*entry}, history...)
	if len(history) > s.historyLimit {
		history = history[:s.historyLimit]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode journey history: %w", err)
	}
	if err := s.store.Set(ctx, utils.StorageKeyJourneyHistory, string(data)); err != nil {
		return fmt.Errorf("failed to write journey history: %w", err)
	}
	return nil
}

func copyJourney(j *models.Journey) *models.Journey {
	dup := *j
	dup.Vendors = make([]models.VendorStop, len(j.Vendors))
	copy(dup.Vendors, j.Vendors)
	return &dup
}
