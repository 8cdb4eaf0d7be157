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

type fakeLocationProvider struct {
	coords *models.Coordinates
	err    error
	delay  time.Duration
}

func (p *fakeLocationProvider) CurrentLocation(ctx context.Context) (*models.Coordinates, error) {
	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.delay):
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.coords, nil
}

func TestLocationServiceFetch(t *testing.T) {
	provider := &fakeLocationProvider{coords: &models.Coordinates{Latitude: 61.2181, Longitude: -149.9003}}
	svc := NewLocationService(provider, logger.NewNop(), time.Second)

	coords, err := svc.GetLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 61.2181, coords.Latitude)
	assert.Equal(t, coords, svc.LastKnown())
}

func TestLocationServiceFallsBackToLastKnown(t *testing.T) {
	provider := &fakeLocationProvider{coords: &models.Coordinates{Latitude: 61.2181, Longitude: -149.9003}}
	svc := NewLocationService(provider, logger.NewNop(), time.Second)

	_, err := svc.GetLocation(context.Background())
	require.NoError(t, err)

	provider.err = errors.New("gps unavailable")
	coords, err := svc.GetLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 61.2181, coords.Latitude)
}

func TestLocationServiceErrorsWithoutFallback(t *testing.T) {
	provider := &fakeLocationProvider{err: errors.New("gps unavailable")}
	svc := NewLocationService(provider, logger.NewNop(), time.Second)

	_, err := svc.GetLocation(context.Background())
	assert.Error(t, err)
	assert.Nil(t, svc.LastKnown())
}

func TestLocationServiceTimeout(t *testing.T) {
	provider := &fakeLocationProvider{
		coords: &models.Coordinates{Latitude: 61.2181, Longitude: -149.9003},
		delay:  200 * time.Millisecond,
	}
	svc := NewLocationService(provider, logger.NewNop(), 20*time.Millisecond)

	_, err := svc.GetLocation(context.Background())
	assert.Error(t, err, "slow providers are cut off at the timeout")
}

func TestLocationServiceRejectsInvalidCoordinates(t *testing.T) {
	provider := &fakeLocationProvider{coords: &models.Coordinates{Latitude: 120.0, Longitude: 0}}
	svc := NewLocationService(provider, logger.NewNop(), time.Second)

	_, err := svc.GetLocation(context.Background())
	assert.Error(t, err)
}

func TestStoredLocationProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	provider := NewStoredLocationProvider(storage.NewMemoryStore())

	reported := models.Coordinates{Latitude: 61.2181, Longitude: -149.9003}
	require.NoError(t, provider.Update(ctx, reported))

	coords, err := provider.CurrentLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, reported, *coords)
}

func TestStoredLocationProviderWithoutReportedFix(t *testing.T) {
	provider := NewStoredLocationProvider(storage.NewMemoryStore())

	_, err := provider.CurrentLocation(context.Background())
	assert.Error(t, err)
}

func TestStoredLocationProviderRejectsInvalidUpdate(t *testing.T) {
	provider := NewStoredLocationProvider(storage.NewMemoryStore())

	err := provider.Update(context.Background(), models.Coordinates{Latitude: 95.0, Longitude: 0})
	assert.Error(t, err)
}

func TestStoredLocationProviderCorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, utils.StorageKeyLastLocation, "{not json"))

	provider := NewStoredLocationProvider(store)
	_, err := provider.CurrentLocation(ctx)
	assert.Error(t, err)
}

func TestLocationServiceOverStoredProvider(t *testing.T) {
	ctx := context.Background()
	provider := NewStoredLocationProvider(storage.NewMemoryStore())
	svc := NewLocationService(provider, logger.NewNop(), time.Second)

	_, err := svc.GetLocation(ctx)
	assert.Error(t, err, "no fix reported yet")

	require.NoError(t, provider.Update(ctx, models.Coordinates{Latitude: 61.2181, Longitude: -149.9003}))

	coords, err := svc.GetLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, 61.2181, coords.Latitude)
}
