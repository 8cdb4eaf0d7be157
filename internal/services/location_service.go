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

// LocationProvider supplies the device or client position. Implementations
// may block on network or hardware, so calls carry a context.
type LocationProvider interface {
	CurrentLocation(ctx context.Context) (*models.Coordinates, error)
}

// LocationService fetches the current position with a bounded timeout,
// falling back to the last known position when the provider is slow or
// failing.
type LocationService interface {
	GetLocation(ctx context.Context) (*models.Coordinates, error)
	LastKnown() *models.Coordinates
}

type locationService struct {
	provider LocationProvider
	logger   *logger.Logger
	timeout  time.Duration

	mu        sync.RWMutex
	lastKnown *models.Coordinates
}

func NewLocationService(provider LocationProvider, logger *logger.Logger, timeout time.Duration) LocationService {
	if timeout <= 0 {
		timeout = utils.LocationFetchTimeout
	}

	return &locationService{
		provider: provider,
		logger:   logger,
		timeout:  timeout,
	}
}

func (s *locationService) GetLocation(ctx context.Context) (*models.Coordinates, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coords, err := s.provider.CurrentLocation(fetchCtx)
	if err != nil {
		if last := s.LastKnown(); last != nil {
			s.logger.WithError(err).Warn("Location fetch failed, using last known position")
			return last, nil
		}
		return nil, fmt.Errorf("failed to determine location: %w", err)
	}

	if !utils.IsValidCoordinates(coords.Latitude, coords.Longitude) {
		return nil, fmt.Errorf("provider returned invalid coordinates %f,%f", coords.Latitude, coords.Longitude)
	}

	s.mu.Lock()
	dup := *coords
	s.lastKnown = &dup
	s.mu.Unlock()

	return coords, nil
}

func (s *locationService) LastKnown() *models.Coordinates {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastKnown == nil {
		return nil
	}
	dup := *s.lastKnown
	return &dup
}

// StoredLocationProvider resolves the device position from the most recent
// position the client reported through the API. The server has no GPS of
// its own, so the client pushes fixes and route planning reads them back.
type StoredLocationProvider struct {
	store storage.KeyValueStore
}

func NewStoredLocationProvider(store storage.KeyValueStore) *StoredLocationProvider {
	return &StoredLocationProvider{store: store}
}

// Update records a reported position as the current device fix.
func (p *StoredLocationProvider) Update(ctx context.Context, coords models.Coordinates) error {
	if !utils.IsValidCoordinates(coords.Latitude, coords.Longitude) {
		return fmt.Errorf("invalid coordinates %f,%f", coords.Latitude, coords.Longitude)
	}

	data, err := json.Marshal(coords)
	if err != nil {
		return fmt.Errorf("failed to encode location: %w", err)
	}
	if err := p.store.Set(ctx, utils.StorageKeyLastLocation, string(data)); err != nil {
		return fmt.Errorf("failed to store location: %w", err)
	}
	return nil
}

func (p *StoredLocationProvider) CurrentLocation(ctx context.Context) (*models.Coordinates, error) {
	raw, err := p.store.Get(ctx, utils.StorageKeyLastLocation)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("no device position has been reported")
		}
		return nil, fmt.Errorf("failed to read device position: %w", err)
	}

	var coords models.Coordinates
	if err := json.Unmarshal([]byte(raw), &coords); err != nil {
		return nil, fmt.Errorf("corrupt stored device position: %w", err)
	}
	return &coords, nil
}
