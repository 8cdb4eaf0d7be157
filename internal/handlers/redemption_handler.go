package handlers

import (
	"net/http"

	"dealtrail/internal/models"
	"dealtrail/internal/services"
	"dealtrail/internal/utils"
	"dealtrail/internal/validators"

	"github.com/gin-gonic/gin"
)

type RedemptionHandler struct {
	redemptionService services.RedemptionService
}

func NewRedemptionHandler(redemptionService services.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{
		redemptionService: redemptionService,
	}
}

// RecordRedemptionRequest appends one redemption event to the log.
type RecordRedemptionRequest struct {
	VendorID string `json:"vendor_id" validate:"required"`
	DealType string `json:"deal_type" validate:"required,deal_type"`
}

// RecordRedemption appends a redemption event for cooldown tracking.
func (h *RedemptionHandler) RecordRedemption(c *gin.Context) {
	var request RecordRedemptionRequest
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

	dealType := models.DealType(models.CanonicalDealType(request.DealType))
	if err := h.redemptionService.Record(c.Request.Context(), request.VendorID, dealType, ""); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "REDEMPTION_RECORD_FAILED", "Failed to record redemption: "+err.Error())
		return
	}

	utils.CreatedResponse(c, "Redemption recorded successfully", nil)
}

// CheckEligibility reports whether a vendor's deal is off cooldown.
func (h *RedemptionHandler) CheckEligibility(c *gin.Context) {
	vendorID := c.Query("vendor_id")
	rawType := c.Query("deal_type")
	if vendorID == "" || rawType == "" {
		utils.BadRequestResponse(c, "vendor_id and deal_type are required")
		return
	}

	dealType := models.DealType(models.CanonicalDealType(rawType))
	if !models.IsValidDealType(dealType) {
		utils.BadRequestResponse(c, "Invalid deal type")
		return
	}

	eligible := h.redemptionService.CanRedeem(c.Request.Context(), vendorID, dealType)
	utils.SuccessResponse(c, "Eligibility checked", gin.H{
		"vendor_id": vendorID,
		"deal_type": dealType,
		"eligible":  eligible,
	})
}

// ListRedemptions returns the raw redemption log.
func (h *RedemptionHandler) ListRedemptions(c *gin.Context) {
	events := h.redemptionService.Events(c.Request.Context())
	utils.SuccessResponseWithMeta(c, "Redemptions retrieved", events, &utils.Meta{Count: len(events)})
}
