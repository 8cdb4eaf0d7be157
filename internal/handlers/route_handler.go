package handlers

import (
	"errors"
	"net/http"

	"dealtrail/internal/models"
	"dealtrail/internal/services"
	"dealtrail/internal/utils"
	"dealtrail/internal/validators"

	"github.com/gin-gonic/gin"
)

type RouteHandler struct {
	routeService    services.RouteService
	locationService services.LocationService
}

func NewRouteHandler(routeService services.RouteService, locationService services.LocationService) *RouteHandler {
	return &RouteHandler{
		routeService:    routeService,
		locationService: locationService,
	}
}

// PlanRouteRequest is the payload for planning a multi-stop itinerary.
// When start_location is omitted the device position is used instead.
type PlanRouteRequest struct {
	DealType         string              `json:"deal_type" validate:"required,deal_type"`
	MaxVendors       int                 `json:"max_vendors" validate:"omitempty,min=1"`
	MaxDistanceMiles float64             `json:"max_distance_miles" validate:"omitempty,min=0"`
	StartLocation    *models.Coordinates `json:"start_location" validate:"omitempty,coordinates"`
	ExcludeVendorIDs []string            `json:"exclude_vendor_ids"`
}

// resolveStartLocation returns the explicit start point, or the device
// position when none was supplied. On failure it writes the error response
// and reports false.
func resolveStartLocation(c *gin.Context, start *models.Coordinates, locations services.LocationService) (models.Coordinates, bool) {
	if start != nil {
		return *start, true
	}

	coords, err := locations.GetLocation(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "LOCATION_UNAVAILABLE", "No start location provided and device position unavailable: "+err.Error())
		return models.Coordinates{}, false
	}
	return *coords, true
}

// LegEstimateRequest asks for a single point-to-point estimate.
type LegEstimateRequest struct {
	Origin      models.Coordinates `json:"origin" validate:"coordinates"`
	Destination models.Coordinates `json:"destination" validate:"coordinates"`
}

// PlanRoute plans an ordered itinerary for the requested deal type.
func (h *RouteHandler) PlanRoute(c *gin.Context) {
	var request PlanRouteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		details := make(map[string]string)
		for _, e := range errs {
			details[e.Field] = e.Message
		}
		utils.ValidationErrorResponse(c, details)
		return
	}

	start, ok := resolveStartLocation(c, request.StartLocation, h.locationService)
	if !ok {
		return
	}

	result, err := h.routeService.Plan(c.Request.Context(), &services.RouteOptions{
		DealType:         models.DealType(models.CanonicalDealType(request.DealType)),
		MaxVendors:       request.MaxVendors,
		MaxDistanceMiles: request.MaxDistanceMiles,
		StartLocation:    start,
		ExcludeVendorIDs: request.ExcludeVendorIDs,
	})
	if err != nil {
		if errors.Is(err, services.ErrNoEligibleVendors) {
			utils.ErrorResponse(c, http.StatusNotFound, "NO_ELIGIBLE_VENDORS", utils.ErrNoEligibleVendors)
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "ROUTE_PLANNING_FAILED", "Failed to plan route: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Route planned successfully", result)
}

// EstimateLeg returns distance and duration between two points.
func (h *RouteHandler) EstimateLeg(c *gin.Context) {
	var request LegEstimateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		details := make(map[string]string)
		for _, e := range errs {
			details[e.Field] = e.Message
		}
		utils.ValidationErrorResponse(c, details)
		return
	}

	estimate, err := h.routeService.EstimateLeg(c.Request.Context(), request.Origin, request.Destination)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "LEG_ESTIMATE_FAILED", "Failed to estimate leg: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Leg estimated successfully", estimate)
}
