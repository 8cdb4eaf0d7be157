package utils

import (
	"math"
)

// CalculateDistanceMiles returns the great-circle distance between two
// coordinates in miles.
func CalculateDistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return haversineDistance(lat1, lon1, lat2, lon2)
}

func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	// Convert to radians
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	// Differences
	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	// Haversine formula
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

func IsWithinRadiusMiles(centerLat, centerLon, pointLat, pointLon, radiusMiles float64) bool {
	return CalculateDistanceMiles(centerLat, centerLon, pointLat, pointLon) <= radiusMiles
}

// EstimateTravelMinutes converts a distance into a drive-time estimate at
// the given average speed. No traffic buffer is applied here; per-leg
// directions estimates apply their own.
func EstimateTravelMinutes(distanceMiles float64, averageSpeedMph float64) float64 {
	if averageSpeedMph <= 0 {
		averageSpeedMph = AverageSpeedMph
	}

	return distanceMiles / averageSpeedMph * 60
}
