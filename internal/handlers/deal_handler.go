package handlers

import (
	"net/http"
	"strings"

	"dealtrail/internal/models"
	"dealtrail/internal/services"
	"dealtrail/internal/utils"
	"dealtrail/internal/validators"

	"github.com/gin-gonic/gin"
)

type DealHandler struct {
	dealCache services.DealCacheService
}

func NewDealHandler(dealCache services.DealCacheService) *DealHandler {
	return &DealHandler{
		dealCache: dealCache,
	}
}

// DealQueryRequest carries the query-string filters for deal lookups.
type DealQueryRequest struct {
	Type     string `form:"type" validate:"omitempty,deal_type"`
	Day      string `form:"day" validate:"omitempty,day_of_week"`
	VendorID string `form:"vendor_id"`
	Active   *bool  `form:"active"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=500"`
}

// QueryDeals returns deals matching the requested filters.
func (h *DealHandler) QueryDeals(c *gin.Context) {
	var request DealQueryRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
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

	if !h.dealCache.IsLoaded() {
		if ok := h.dealCache.Load(c.Request.Context(), false); !ok {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "CACHE_UNAVAILABLE", "Deal cache could not be loaded")
			return
		}
	}

	filter := &services.DealFilter{
		Type:       models.DealType(models.CanonicalDealType(request.Type)),
		Day:        models.DayOfWeek(strings.ToLower(request.Day)),
		VendorID:   request.VendorID,
		ActiveOnly: request.Active,
		Limit:      request.Limit,
	}

	deals := h.dealCache.Query(filter)
	utils.SuccessResponseWithMeta(c, "Deals retrieved successfully", deals, &utils.Meta{Count: len(deals)})
}

// GetVendorDeals returns every cached deal for one vendor, optionally
// narrowed to the deals valid on a given day.
func (h *DealHandler) GetVendorDeals(c *gin.Context) {
	vendorID := c.Param("id")
	if vendorID == "" {
		utils.BadRequestResponse(c, "Vendor ID is required")
		return
	}

	day := models.DayOfWeek(strings.ToLower(c.Query("day")))
	if day != "" && !models.IsValidDay(day) {
		utils.BadRequestResponse(c, "Invalid day of week")
		return
	}

	var deals []*models.Deal
	if day != "" {
		deals = h.dealCache.DealsForVendorOnDay(vendorID, day)
	} else {
		deals = h.dealCache.VendorDeals(vendorID)
	}

	utils.SuccessResponseWithMeta(c, "Vendor deals retrieved successfully", deals, &utils.Meta{Count: len(deals)})
}

// RefreshCache forces a synchronous catalog pull and index rebuild.
func (h *DealHandler) RefreshCache(c *gin.Context) {
	if ok := h.dealCache.Refresh(c.Request.Context(), false); !ok {
		utils.ErrorResponse(c, http.StatusBadGateway, "REFRESH_FAILED", "Deal catalog refresh failed")
		return
	}

	utils.SuccessResponse(c, "Deal cache refreshed successfully", nil)
}

// GetCacheStatus reports whether the cache has data loaded.
func (h *DealHandler) GetCacheStatus(c *gin.Context) {
	utils.SuccessResponse(c, "Cache status retrieved", gin.H{
		"loaded": h.dealCache.IsLoaded(),
	})
}
