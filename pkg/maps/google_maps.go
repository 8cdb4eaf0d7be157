package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

const metersPerMile = 1609.344

// GoogleMapsProvider resolves legs against the Directions API. Estimates
// already reflect real road travel, so no synthetic traffic buffer is
// applied on top.
type GoogleMapsProvider struct {
	client *maps.Client
}

func NewGoogleMapsProvider(apiKey string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
	}, nil
}

func (g *GoogleMapsProvider) EstimateLeg(ctx context.Context, origin, destination Location) (*LegEstimate, error) {
	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude),
		Destination: fmt.Sprintf("%f,%f", destination.Latitude, destination.Longitude),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, fmt.Errorf("no route found between %f,%f and %f,%f",
			origin.Latitude, origin.Longitude, destination.Latitude, destination.Longitude)
	}

	leg := routes[0].Legs[0]

	return &LegEstimate{
		DistanceMiles:   float64(leg.Distance.Meters) / metersPerMile,
		DurationMinutes: leg.Duration.Minutes(),
		Provider:        "google_maps",
	}, nil
}
