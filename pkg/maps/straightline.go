package maps

import (
	"context"
	"fmt"

	"dealtrail/internal/utils"
)

// StraightLineProvider estimates legs from great-circle distance. This is
// the contract behavior: no road network, a fixed average speed, and a
// traffic buffer applied per leg.
type StraightLineProvider struct {
	averageSpeedMph float64
	trafficBuffer   float64
}

func NewStraightLineProvider(averageSpeedMph, trafficBuffer float64) *StraightLineProvider {
	if averageSpeedMph <= 0 {
		averageSpeedMph = utils.AverageSpeedMph
	}
	if trafficBuffer < 0 {
		trafficBuffer = utils.LegTrafficBuffer
	}

	return &StraightLineProvider{
		averageSpeedMph: averageSpeedMph,
		trafficBuffer:   trafficBuffer,
	}
}

func (p *StraightLineProvider) EstimateLeg(ctx context.Context, origin, destination Location) (*LegEstimate, error) {
	if !utils.IsValidCoordinates(origin.Latitude, origin.Longitude) {
		return nil, fmt.Errorf("invalid origin coordinates %f,%f", origin.Latitude, origin.Longitude)
	}
	if !utils.IsValidCoordinates(destination.Latitude, destination.Longitude) {
		return nil, fmt.Errorf("invalid destination coordinates %f,%f", destination.Latitude, destination.Longitude)
	}

	distance := utils.CalculateDistanceMiles(origin.Latitude, origin.Longitude, destination.Latitude, destination.Longitude)
	duration := utils.EstimateTravelMinutes(distance, p.averageSpeedMph) * (1 + p.trafficBuffer)

	return &LegEstimate{
		DistanceMiles:   distance,
		DurationMinutes: duration,
		Provider:        "straight_line",
	}, nil
}
