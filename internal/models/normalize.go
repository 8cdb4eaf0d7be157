package models

import (
	"fmt"
	"strings"
)

// dealTypeAliases maps the spellings seen in upstream payloads onto the
// canonical deal type values.
var dealTypeAliases = map[string]DealType{
	"birthday":  DealTypeBirthday,
	"daily":     DealTypeDaily,
	"special":   DealTypeSpecial,
	"everyday":  DealTypeEveryday,
	"every_day": DealTypeEveryday,
	"multi_day": DealTypeMultiDay,
	"multiday":  DealTypeMultiDay,
	"multi-day": DealTypeMultiDay,
}

// CanonicalDealType maps an upstream deal type spelling to its canonical
// value. Unknown spellings pass through unchanged so callers can reject
// them with the original input in the message.
func CanonicalDealType(raw string) string {
	if canonical, ok := dealTypeAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return string(canonical)
	}
	return raw
}

// NormalizeDeal validates and coerces an incoming deal record into the one
// canonical shape the rest of the engine operates on. It is the single
// normalization boundary for catalog data; nothing past it deals with
// duck-typed payloads.
func NormalizeDeal(d *Deal) error {
	if d == nil {
		return fmt.Errorf("nil deal")
	}
	if d.ID == "" {
		return fmt.Errorf("deal missing id")
	}
	if d.VendorID == "" {
		return fmt.Errorf("deal %s missing vendor id", d.ID)
	}

	canonical, ok := dealTypeAliases[strings.ToLower(strings.TrimSpace(string(d.DealType)))]
	if !ok {
		return fmt.Errorf("deal %s has unknown deal type %q", d.ID, d.DealType)
	}
	d.DealType = canonical

	switch d.DealType {
	case DealTypeDaily:
		d.Day = DayOfWeek(strings.ToLower(string(d.Day)))
		if !IsValidDay(d.Day) {
			return fmt.Errorf("daily deal %s has invalid day %q", d.ID, d.Day)
		}
		d.ActiveDays = nil
	case DealTypeMultiDay:
		if len(d.ActiveDays) == 0 {
			return fmt.Errorf("multi_day deal %s has no active days", d.ID)
		}
		normalized := make([]DayOfWeek, 0, len(d.ActiveDays))
		seen := make(map[DayOfWeek]bool)
		for _, day := range d.ActiveDays {
			day = DayOfWeek(strings.ToLower(string(day)))
			if !IsValidDay(day) {
				return fmt.Errorf("multi_day deal %s has invalid day %q", d.ID, day)
			}
			if !seen[day] {
				seen[day] = true
				normalized = append(normalized, day)
			}
		}
		d.ActiveDays = normalized
		d.Day = ""
	default:
		d.Day = ""
		d.ActiveDays = nil
	}

	return nil
}

// NormalizeVendor coerces an incoming vendor record at the system edge.
// Vendors without usable coordinates are kept (screens still list them)
// but the planner filters them out.
func NormalizeVendor(v *Vendor) error {
	if v == nil {
		return fmt.Errorf("nil vendor")
	}
	if v.ID == "" {
		return fmt.Errorf("vendor missing id")
	}
	if v.Location != nil && v.Location.Coordinates != nil {
		c := v.Location.Coordinates
		if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
			v.Location.Coordinates = nil
		}
	}
	return nil
}
