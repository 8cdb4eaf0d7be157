package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"dealtrail/internal/models"
	"dealtrail/internal/services"
	"dealtrail/internal/utils"
	"dealtrail/internal/validators"

	"github.com/gin-gonic/gin"
)

type JourneyHandler struct {
	journeyService  services.JourneyService
	routeService    services.RouteService
	locationService services.LocationService
}

func NewJourneyHandler(journeyService services.JourneyService, routeService services.RouteService, locationService services.LocationService) *JourneyHandler {
	return &JourneyHandler{
		journeyService:  journeyService,
		routeService:    routeService,
		locationService: locationService,
	}
}

// CheckInRequest marks the current stop as visited.
type CheckInRequest struct {
	CheckInType string `json:"check_in_type" validate:"omitempty,oneof=gps manual qr"`
}

// StartJourney plans a route and immediately promotes it to the current
// journey. Any prior journey is replaced.
func (h *JourneyHandler) StartJourney(c *gin.Context) {
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

	route, err := h.routeService.Plan(c.Request.Context(), &services.RouteOptions{
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

	journey, err := h.journeyService.Start(c.Request.Context(), route, request.MaxDistanceMiles)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "JOURNEY_START_FAILED", "Failed to start journey: "+err.Error())
		return
	}

	utils.CreatedResponse(c, "Journey started successfully", gin.H{
		"journey": journey,
		"route":   route,
	})
}

// GetCurrentJourney returns the active journey, or 404 when none exists.
func (h *JourneyHandler) GetCurrentJourney(c *gin.Context) {
	journey := h.journeyService.Current()
	if journey == nil {
		utils.NotFoundResponse(c, "Active journey")
		return
	}

	utils.SuccessResponse(c, "Current journey retrieved", journey)
}

// AdvanceJourney moves to the next stop. On the last stop it reports the
// journey ready for completion instead of advancing.
func (h *JourneyHandler) AdvanceJourney(c *gin.Context) {
	journey, err := h.journeyService.Advance(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoActiveJourney) {
			utils.NotFoundResponse(c, "Active journey")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "JOURNEY_ADVANCE_FAILED", "Failed to advance journey: "+err.Error())
		return
	}

	if journey == nil {
		utils.SuccessResponse(c, "Journey is at its last stop", gin.H{
			"ready_to_complete": true,
		})
		return
	}

	utils.SuccessResponse(c, "Advanced to next stop", journey)
}

// SkipStop removes the current stop from the itinerary.
func (h *JourneyHandler) SkipStop(c *gin.Context) {
	journey, err := h.journeyService.Skip(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoActiveJourney) {
			utils.NotFoundResponse(c, "Active journey")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "JOURNEY_SKIP_FAILED", "Failed to skip stop: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Stop skipped", journey)
}

// CheckIn marks the current stop as visited without advancing.
func (h *JourneyHandler) CheckIn(c *gin.Context) {
	var request CheckInRequest
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

	checkInType := request.CheckInType
	if checkInType == "" {
		checkInType = "manual"
	}

	journey, err := h.journeyService.CheckIn(c.Request.Context(), checkInType)
	if err != nil {
		if errors.Is(err, services.ErrNoActiveJourney) {
			utils.NotFoundResponse(c, "Active journey")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "JOURNEY_CHECKIN_FAILED", "Failed to check in: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Checked in at current stop", journey)
}

// CompleteJourney finalizes the journey and returns the scored record.
func (h *JourneyHandler) CompleteJourney(c *gin.Context) {
	completed, err := h.journeyService.Complete(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoActiveJourney) {
			utils.NotFoundResponse(c, "Active journey")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "JOURNEY_COMPLETE_FAILED", "Failed to complete journey: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Journey completed successfully", completed)
}

// AbandonJourney discards the current journey without recording history.
func (h *JourneyHandler) AbandonJourney(c *gin.Context) {
	if err := h.journeyService.Abandon(c.Request.Context()); err != nil {
		if errors.Is(err, services.ErrNoActiveJourney) {
			utils.NotFoundResponse(c, "Active journey")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "JOURNEY_ABANDON_FAILED", "Failed to abandon journey: "+err.Error())
		return
	}

	utils.NoContentResponse(c)
}

// GetJourneyHistory returns completed journeys, newest first.
func (h *JourneyHandler) GetJourneyHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.BadRequestResponse(c, "Invalid limit")
			return
		}
		limit = parsed
	}

	history, err := h.journeyService.History(c.Request.Context(), limit)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "HISTORY_READ_FAILED", "Failed to read journey history: "+err.Error())
		return
	}

	utils.SuccessResponseWithMeta(c, "Journey history retrieved", history, &utils.Meta{Count: len(history)})
}
