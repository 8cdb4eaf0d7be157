package models

import "time"

// Journey is the persisted, progressable instance of a planned route.
// The journey service is its sole writer.
type Journey struct {
	DealType           DealType     `json:"deal_type"`
	Vendors            []VendorStop `json:"vendors"`
	CurrentVendorIndex int          `json:"current_vendor_index"`
	MaxDistance        float64      `json:"max_distance"`
	TotalVendors       int          `json:"total_vendors"`
	CreatedAt          time.Time    `json:"created_at"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty"`
}

// CurrentStop returns the stop the user is on, or nil for an empty journey.
func (j *Journey) CurrentStop() *VendorStop {
	if len(j.Vendors) == 0 || j.CurrentVendorIndex < 0 || j.CurrentVendorIndex >= len(j.Vendors) {
		return nil
	}
	return &j.Vendors[j.CurrentVendorIndex]
}

// Finished reports whether callers should treat the journey as over even
// before Complete is explicitly invoked.
func (j *Journey) Finished() bool {
	return len(j.Vendors) == 0 || j.CompletedAt != nil
}

// CompletedJourney is a history entry for a finished journey.
type CompletedJourney struct {
	Journey
	PointsEarned int `json:"points_earned"`
}
