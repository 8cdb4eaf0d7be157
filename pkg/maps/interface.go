package maps

import "context"

// DirectionsProvider produces point-to-point travel estimates for a single
// leg of a route. Whole-route totals are computed by the planner itself
// from great-circle legs; providers are only consulted for per-leg
// directions surfaces.
type DirectionsProvider interface {
	EstimateLeg(ctx context.Context, origin, destination Location) (*LegEstimate, error)
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type LegEstimate struct {
	DistanceMiles   float64 `json:"distance_miles"`
	DurationMinutes float64 `json:"duration_minutes"`
	Provider        string  `json:"provider"`
}
