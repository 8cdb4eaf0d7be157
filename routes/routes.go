package routes

import (
	"dealtrail/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupDealRoutes sets up routes for deal cache queries and refreshes
func SetupDealRoutes(r *gin.RouterGroup, dealHandler *handlers.DealHandler) {
	deals := r.Group("/deals")
	{
		deals.GET("", dealHandler.QueryDeals)
		deals.POST("/refresh", dealHandler.RefreshCache)
		deals.GET("/status", dealHandler.GetCacheStatus)
	}

	vendors := r.Group("/vendors")
	{
		vendors.GET("/:id/deals", dealHandler.GetVendorDeals)
	}
}

// SetupRouteRoutes sets up routes for itinerary planning
func SetupRouteRoutes(r *gin.RouterGroup, routeHandler *handlers.RouteHandler) {
	rt := r.Group("/routes")
	{
		rt.POST("/plan", routeHandler.PlanRoute)
		rt.POST("/legs/estimate", routeHandler.EstimateLeg)
	}
}

// SetupJourneyRoutes sets up routes for the journey state machine
func SetupJourneyRoutes(r *gin.RouterGroup, journeyHandler *handlers.JourneyHandler) {
	journeys := r.Group("/journeys")
	{
		journeys.POST("", journeyHandler.StartJourney)
		journeys.GET("/current", journeyHandler.GetCurrentJourney)
		journeys.POST("/advance", journeyHandler.AdvanceJourney)
		journeys.POST("/skip", journeyHandler.SkipStop)
		journeys.POST("/check-in", journeyHandler.CheckIn)
		journeys.POST("/complete", journeyHandler.CompleteJourney)
		journeys.DELETE("/current", journeyHandler.AbandonJourney)
		journeys.GET("/history", journeyHandler.GetJourneyHistory)
	}
}

// SetupLocationRoutes sets up routes for device position reporting
func SetupLocationRoutes(r *gin.RouterGroup, locationHandler *handlers.LocationHandler) {
	location := r.Group("/location")
	{
		location.PUT("", locationHandler.UpdateLocation)
		location.GET("", locationHandler.GetLocation)
	}
}

// SetupRedemptionRoutes sets up routes for the redemption ledger
func SetupRedemptionRoutes(r *gin.RouterGroup, redemptionHandler *handlers.RedemptionHandler) {
	redemptions := r.Group("/redemptions")
	{
		redemptions.POST("", redemptionHandler.RecordRedemption)
		redemptions.GET("", redemptionHandler.ListRedemptions)
		redemptions.GET("/eligibility", redemptionHandler.CheckEligibility)
	}
}
