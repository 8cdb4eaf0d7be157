package models

// RouteResult is the planner's output: an ordered, distance-annotated
// itinerary. It is ephemeral and recomputable; only the journey built from
// it is persisted.
type RouteResult struct {
	DealType             DealType      `json:"deal_type"`
	Vendors              []VendorStop  `json:"vendors"`
	TotalDistanceMiles   float64       `json:"total_distance_miles"`
	EstimatedTimeMinutes float64       `json:"estimated_time_minutes"`
	Coordinates          []Coordinates `json:"coordinates"`
	Center               Coordinates   `json:"center"`
	UsedFallback         bool          `json:"used_fallback"`
}

// LegEstimate is a single point-to-point directions estimate. Unlike
// whole-route estimates, leg estimates carry a traffic buffer.
type LegEstimate struct {
	DistanceMiles   float64 `json:"distance_miles"`
	DurationMinutes float64 `json:"duration_minutes"`
}
