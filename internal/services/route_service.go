package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"dealtrail/internal/models"
	"dealtrail/internal/repositories/interfaces"
	"dealtrail/internal/utils"
	"dealtrail/pkg/logger"
	"dealtrail/pkg/maps"
)

// ErrNoEligibleVendors distinguishes "nothing to show" from a transport
// failure; callers surface a specific try-different-options message for it.
var ErrNoEligibleVendors = errors.New("no eligible vendors")

type RouteOptions struct {
	DealType         models.DealType
	MaxVendors       int
	MaxDistanceMiles float64 // 0 means no cap
	StartLocation    models.Coordinates
	ExcludeVendorIDs []string
}

type RouteService interface {
	// Plan selects eligible vendors around the start location and orders
	// them into a distance-annotated itinerary.
	Plan(ctx context.Context, opts *RouteOptions) (*models.RouteResult, error)

	// EstimateLeg produces a single point-to-point directions estimate.
	// Unlike Plan's whole-route totals, leg estimates carry the traffic
	// buffer of the configured provider.
	EstimateLeg(ctx context.Context, origin, destination models.Coordinates) (*models.LegEstimate, error)
}

type routeService struct {
	vendorRepo        interfaces.VendorRepository
	redemptions       RedemptionService
	directions        maps.DirectionsProvider
	logger            *logger.Logger
	defaultMaxVendors int
	maxVendorsLimit   int
	averageSpeedMph   float64
}

func NewRouteService(
	vendorRepo interfaces.VendorRepository,
	redemptions RedemptionService,
	directions maps.DirectionsProvider,
	logger *logger.Logger,
	defaultMaxVendors int,
	maxVendorsLimit int,
	averageSpeedMph float64,
) RouteService {
	if defaultMaxVendors <= 0 {
		defaultMaxVendors = utils.DefaultMaxVendors
	}
	if maxVendorsLimit <= 0 {
		maxVendorsLimit = utils.MaxVendorsLimit
	}
	if averageSpeedMph <= 0 {
		averageSpeedMph = utils.AverageSpeedMph
	}

	return &routeService{
		vendorRepo:        vendorRepo,
		redemptions:       redemptions,
		directions:        directions,
		logger:            logger,
		defaultMaxVendors: defaultMaxVendors,
		maxVendorsLimit:   maxVendorsLimit,
		averageSpeedMph:   averageSpeedMph,
	}
}

func (s *routeService) Plan(ctx context.Context, opts *RouteOptions) (*models.RouteResult, error) {
	if opts == nil {
		return nil, fmt.Errorf("route options are required")
	}
	if !models.IsValidDealType(opts.DealType) {
		return nil, fmt.Errorf("invalid deal type %q", opts.DealType)
	}
	if !utils.IsValidCoordinates(opts.StartLocation.Latitude, opts.StartLocation.Longitude) {
		return nil, fmt.Errorf("invalid start coordinates %f,%f", opts.StartLocation.Latitude, opts.StartLocation.Longitude)
	}

	maxVendors := opts.MaxVendors
	if maxVendors <= 0 {
		maxVendors = s.defaultMaxVendors
	}
	if maxVendors > s.maxVendorsLimit {
		maxVendors = s.maxVendorsLimit
	}

	vendors, err := s.vendorRepo.GetAllVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor directory: %w", err)
	}

	excluded := make(map[string]bool)
	for _, id := range opts.ExcludeVendorIDs {
		for _, key := range models.KeyCandidates(id) {
			excluded[key] = true
		}
	}

	var routable []*models.Vendor
	for _, vendor := range vendors {
		if excluded[vendor.ID.String()] || !vendor.HasCoordinates() {
			continue
		}
		routable = append(routable, vendor)
	}

	eligible := s.redemptions.FilterEligible(ctx, routable, opts.DealType)
	usedFallback := false
	if len(eligible) == 0 {
		// Data sparsity should not strand the user with an empty screen;
		// relax to any routable vendor, observably.
		s.logger.WithDealType(string(opts.DealType)).
			WithField("routable", len(routable)).
			Warn("No vendors eligible for deal type, falling back to all vendors with coordinates")
		eligible = routable
		usedFallback = true
	}

	type candidate struct {
		vendor        *models.Vendor
		distanceMiles float64
	}

	start := opts.StartLocation
	var candidates []candidate
	for _, vendor := range eligible {
		coords := vendor.Location.Coordinates
		distance := utils.CalculateDistanceMiles(start.Latitude, start.Longitude, coords.Latitude, coords.Longitude)
		if opts.MaxDistanceMiles > 0 && distance > opts.MaxDistanceMiles {
			continue
		}
		candidates = append(candidates, candidate{vendor: vendor, distanceMiles: distance})
	}

	if len(candidates) == 0 {
		return nil, ErrNoEligibleVendors
	}

	// Take the N nearest, then order them greedily.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distanceMiles < candidates[j].distanceMiles
	})
	if len(candidates) > maxVendors {
		candidates = candidates[:maxVendors]
	}

	// Nearest-neighbor ordering: from the current position, always visit
	// the closest unvisited vendor next. Greedy, not optimal TSP; fine at
	// this stop count. Ties resolve to the first-encountered candidate.
	ordered := make([]models.VendorStop, 0, len(candidates))
	coordinates := make([]models.Coordinates, 0, len(candidates)+1)
	coordinates = append(coordinates, start)

	position := start
	visited := make([]bool, len(candidates))
	totalDistance := 0.0

	for len(ordered) < len(candidates) {
		bestIdx := -1
		bestDistance := 0.0
		for i, c := range candidates {
			if visited[i] {
				continue
			}
			coords := c.vendor.Location.Coordinates
			distance := utils.CalculateDistanceMiles(position.Latitude, position.Longitude, coords.Latitude, coords.Longitude)
			if bestIdx == -1 || distance < bestDistance {
				bestIdx = i
				bestDistance = distance
			}
		}

		visited[bestIdx] = true
		next := candidates[bestIdx].vendor
		ordered = append(ordered, models.VendorStop{
			Vendor:        *next,
			DistanceMiles: bestDistance,
		})
		totalDistance += bestDistance
		position = *next.Location.Coordinates
		coordinates = append(coordinates, position)
	}

	// Whole-route estimates apply no traffic buffer; per-leg directions
	// estimates elsewhere do. Kept distinct on purpose.
	estimatedTime := utils.EstimateTravelMinutes(totalDistance, s.averageSpeedMph)

	points := make([]utils.Point, len(coordinates))
	for i, c := range coordinates {
		points[i] = utils.Point{Lat: c.Latitude, Lng: c.Longitude}
	}
	center := utils.CalculateCenter(points)

	s.logger.WithDealType(string(opts.DealType)).WithFields(map[string]interface{}{
		"stops":         len(ordered),
		"total_miles":   totalDistance,
		"used_fallback": usedFallback,
		"max_vendors":   maxVendors,
	}).Info("Route planned")

	return &models.RouteResult{
		DealType:             opts.DealType,
		Vendors:              ordered,
		TotalDistanceMiles:   totalDistance,
		EstimatedTimeMinutes: estimatedTime,
		Coordinates:          coordinates,
		Center:               models.Coordinates{Latitude: center.Lat, Longitude: center.Lng},
		UsedFallback:         usedFallback,
	}, nil
}

func (s *routeService) EstimateLeg(ctx context.Context, origin, destination models.Coordinates) (*models.LegEstimate, error) {
	estimate, err := s.directions.EstimateLeg(ctx,
		maps.Location{Latitude: origin.Latitude, Longitude: origin.Longitude},
		maps.Location{Latitude: destination.Latitude, Longitude: destination.Longitude},
	)
	if err != nil {
		return nil, fmt.Errorf("leg estimate failed: %w", err)
	}

	return &models.LegEstimate{
		DistanceMiles:   estimate.DistanceMiles,
		DurationMinutes: estimate.DurationMinutes,
	}, nil
}
