package utils

import "time"

// Application Constants
const (
	AppName    = "DealTrail"
	AppVersion = "1.0.0"

	// Geo Constants
	EarthRadiusMiles = 3958.8
	AverageSpeedMph  = 25.0
	// Per-leg directions estimates pad drive time for traffic; whole-route
	// estimates do not.
	LegTrafficBuffer = 0.2

	// Deal Cache Constants
	DealCacheExpiration = 24 * time.Hour
	DefaultQueryLimit   = 0 // unlimited

	// Route Planner Constants
	DefaultMaxVendors = 5
	MaxVendorsLimit   = 10

	// Journey Constants
	JourneyTTL           = 24 * time.Hour
	JourneyHistoryLimit  = 20
	PointsPerVisitedStop = 10
	LocationFetchTimeout = 10 * time.Second

	// Redemption Cooldowns
	BirthdayCooldown = 365 * 24 * time.Hour
	StandardCooldown = 24 * time.Hour

	// Storage Keys
	StorageKeyDealSnapshot   = "deal_snapshot"
	StorageKeySnapshotTime   = "deal_snapshot_timestamp"
	StorageKeyRedemptions    = "redemption_list"
	StorageKeyCurrentJourney = "current_journey"
	StorageKeyRouteData      = "current_route_data"
	StorageKeyJourneyHistory = "journey_history"
	StorageKeyLastLocation   = "last_location"

	// Response Status
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrValidationFailed  = "Validation failed"
	ErrInternalServer    = "Internal server error"
	ErrNoEligibleVendors = "No eligible vendors found"
)
