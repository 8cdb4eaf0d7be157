package models

import "time"

// RedemptionEvent is an immutable record of a successful check-in
// redemption. Events are appended, never mutated; eligibility checks
// ignore events outside the relevant cooldown window instead of deleting
// them.
// The camelCase field names match the log format written by earlier
// client builds, so existing logs keep working.
type RedemptionEvent struct {
	ID        string    `json:"id"`
	VendorID  FlexID    `json:"vendorId"`
	DealType  DealType  `json:"dealType"`
	Timestamp time.Time `json:"timestamp"`
}
