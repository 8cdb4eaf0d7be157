package handlers

import (
	"net/http"

	"dealtrail/internal/models"
	"dealtrail/internal/services"
	"dealtrail/internal/utils"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	locationService services.LocationService
	provider        *services.StoredLocationProvider
}

func NewLocationHandler(locationService services.LocationService, provider *services.StoredLocationProvider) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		provider:        provider,
	}
}

// UpdateLocation records the client's reported position as the current
// device fix. Planning falls back to it when a request omits an explicit
// start location.
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	var coords models.Coordinates
	if err := c.ShouldBindJSON(&coords); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if !utils.IsValidCoordinates(coords.Latitude, coords.Longitude) {
		utils.BadRequestResponse(c, "Invalid GPS coordinates")
		return
	}

	if err := h.provider.Update(c.Request.Context(), coords); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "LOCATION_UPDATE_FAILED", "Failed to store location: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Location updated successfully", coords)
}

// GetLocation returns the current resolved position.
func (h *LocationHandler) GetLocation(c *gin.Context) {
	coords, err := h.locationService.GetLocation(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "LOCATION_UNAVAILABLE", "Device position unavailable: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Location retrieved successfully", coords)
}
