package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dealtrail/internal/models"
	"dealtrail/internal/utils"
	"dealtrail/pkg/logger"
	"dealtrail/pkg/storage"

	"github.com/google/uuid"
)

type RedemptionService interface {
	// Record appends a redemption event with the current timestamp.
	// Idempotency is not enforced by id; callers must not double-record.
	Record(ctx context.Context, vendorID string, dealType models.DealType, redemptionID string) error

	// CanRedeem applies the per-type cooldown window. Storage read errors
	// fail open: eligibility is a UX gate, not a security boundary.
	CanRedeem(ctx context.Context, vendorID string, dealType models.DealType) bool

	// CanRedeemWithCooldown is CanRedeem with a per-deal override period,
	// used by special deals that carry their own window.
	CanRedeemWithCooldown(ctx context.Context, vendorID string, dealType models.DealType, cooldown time.Duration) bool

	// FilterEligible keeps vendors that currently advertise the deal type
	// and have an elapsed cooldown, preserving relative order.
	FilterEligible(ctx context.Context, vendors []*models.Vendor, dealType models.DealType) []*models.Vendor

	// VendorOffersDeal is the static "does this vendor currently advertise
	// this deal type" predicate, independent of cooldowns.
	VendorOffersDeal(vendor *models.Vendor, dealType models.DealType) bool

	Events(ctx context.Context) []models.RedemptionEvent
}

type redemptionService struct {
	store     storage.KeyValueStore
	dealCache DealCacheService
	logger    *logger.Logger
	now       func() time.Time
}

func NewRedemptionService(
	store storage.KeyValueStore,
	dealCache DealCacheService,
	logger *logger.Logger,
) RedemptionService {
	return &redemptionService{
		store:     store,
		dealCache: dealCache,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *redemptionService) Record(ctx context.Context, vendorID string, dealType models.DealType, redemptionID string) error {
	if redemptionID == "" {
		redemptionID = uuid.NewString()
	}

	events := s.loadEvents(ctx)
	events = append(events, models.RedemptionEvent{
		ID:        redemptionID,
		VendorID:  models.FlexID(vendorID),
		DealType:  dealType,
		Timestamp: s.now(),
	})

	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal redemption log: %w", err)
	}
	if err := s.store.Set(ctx, utils.StorageKeyRedemptions, string(data)); err != nil {
		return fmt.Errorf("failed to persist redemption log: %w", err)
	}

	s.logger.LogRedemptionEvent(vendorID, string(dealType), map[string]interface{}{
		"redemption_id": redemptionID,
	})
	return nil
}

func (s *redemptionService) CanRedeem(ctx context.Context, vendorID string, dealType models.DealType) bool {
	return s.CanRedeemWithCooldown(ctx, vendorID, dealType, cooldownFor(dealType))
}

func (s *redemptionService) CanRedeemWithCooldown(ctx context.Context, vendorID string, dealType models.DealType, cooldown time.Duration) bool {
	raw, err := s.store.Get(ctx, utils.StorageKeyRedemptions)
	if err != nil {
		if err == storage.ErrNotFound {
			return true
		}
		// Fail open: an unavailable log must not block usage.
		s.logger.WithError(err).WithVendorID(vendorID).Warn("Redemption log unreadable, allowing redemption")
		return true
	}

	var events []models.RedemptionEvent
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		s.logger.WithError(err).Warn("Corrupt redemption log, allowing redemption")
		return true
	}

	var last *models.RedemptionEvent
	for i := range events {
		event := &events[i]
		if event.DealType != dealType || !vendorKeysMatch(event.VendorID.String(), vendorID) {
			continue
		}
		if last == nil || event.Timestamp.After(last.Timestamp) {
			last = event
		}
	}

	if last == nil {
		return true
	}
	return s.now().Sub(last.Timestamp) > cooldown
}

func (s *redemptionService) FilterEligible(ctx context.Context, vendors []*models.Vendor, dealType models.DealType) []*models.Vendor {
	var eligible []*models.Vendor
	for _, vendor := range vendors {
		if !s.VendorOffersDeal(vendor, dealType) {
			continue
		}
		if !s.CanRedeem(ctx, vendor.ID.String(), dealType) {
			continue
		}
		eligible = append(eligible, vendor)
	}
	return eligible
}

func (s *redemptionService) VendorOffersDeal(vendor *models.Vendor, dealType models.DealType) bool {
	if vendor == nil {
		return false
	}

	now := s.now()
	today := models.DayOfWeekFromTime(now)

	cached := s.dealCache.VendorDeals(vendor.ID.String())
	if len(cached) == 0 {
		// The vendor's embedded deal summary is the fallback source when
		// the cache has nothing indexed for it.
		return vendor.SummaryOffers(dealType, today, now)
	}

	for _, deal := range cached {
		if deal.DealType != dealType || !deal.Active() {
			continue
		}
		switch dealType {
		case models.DealTypeDaily, models.DealTypeMultiDay:
			if deal.AppliesOn(today) {
				return true
			}
		case models.DealTypeSpecial:
			if deal.CurrentlyActive(now) {
				return true
			}
		default:
			return true
		}
	}
	return false
}

func (s *redemptionService) Events(ctx context.Context) []models.RedemptionEvent {
	return s.loadEvents(ctx)
}

func (s *redemptionService) loadEvents(ctx context.Context) []models.RedemptionEvent {
	raw, err := s.store.Get(ctx, utils.StorageKeyRedemptions)
	if err != nil {
		if err != storage.ErrNotFound {
			s.logger.WithError(err).Warn("Failed to read redemption log")
		}
		return nil
	}

	var events []models.RedemptionEvent
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		s.logger.WithError(err).Warn("Corrupt redemption log")
		return nil
	}
	return events
}

// cooldownFor maps a deal type onto its redemption window. Unrecognized
// types get the standard 24 hours.
func cooldownFor(dealType models.DealType) time.Duration {
	switch dealType {
	case models.DealTypeBirthday:
		return utils.BirthdayCooldown
	default:
		return utils.StandardCooldown
	}
}

// vendorKeysMatch compares vendor ids across the string/numeric
// representations upstream sources use interchangeably.
func vendorKeysMatch(a, b string) bool {
	if a == b {
		return true
	}
	for _, ka := range models.KeyCandidates(a) {
		for _, kb := range models.KeyCandidates(b) {
			if ka == kb {
				return true
			}
		}
	}
	return false
}
