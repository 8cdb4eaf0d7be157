package models

import "time"

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

type VendorLocation struct {
	Address     string       `json:"address" bson:"address"`
	City        string       `json:"city,omitempty" bson:"city,omitempty"`
	State       string       `json:"state,omitempty" bson:"state,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
}

// Vendor is the partial view of a directory record this engine consumes.
// The embedded deal summary is a fallback only, used when the deal cache
// has no indexed entries for the vendor.
type Vendor struct {
	ID        FlexID             `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Location  *VendorLocation    `json:"location,omitempty" bson:"location,omitempty"`
	IsPartner bool               `json:"is_partner" bson:"is_partner"`
	Deals     *VendorDealSummary `json:"deals,omitempty" bson:"deals,omitempty"`
	CreatedAt time.Time          `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt time.Time          `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

type VendorDealSummary struct {
	Birthday []DealSummary `json:"birthday,omitempty" bson:"birthday,omitempty"`
	Daily    []DealSummary `json:"daily,omitempty" bson:"daily,omitempty"`
	Special  []DealSummary `json:"special,omitempty" bson:"special,omitempty"`
	Everyday []DealSummary `json:"everyday,omitempty" bson:"everyday,omitempty"`
	MultiDay []DealSummary `json:"multi_day,omitempty" bson:"multi_day,omitempty"`
}

type DealSummary struct {
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Day         DayOfWeek   `json:"day,omitempty" bson:"day,omitempty"`
	ActiveDays  []DayOfWeek `json:"active_days,omitempty" bson:"active_days,omitempty"`
	EndDate     *time.Time  `json:"end_date,omitempty" bson:"end_date,omitempty"`
}

// HasCoordinates reports whether the vendor can be placed on a route.
func (v *Vendor) HasCoordinates() bool {
	return v.Location != nil && v.Location.Coordinates != nil
}

// SummaryOffers checks the embedded deal summary for a deal of the given
// type valid on the given day. Used only when the cache has nothing
// indexed for this vendor.
func (v *Vendor) SummaryOffers(dealType DealType, day DayOfWeek, now time.Time) bool {
	if v.Deals == nil {
		return false
	}

	switch dealType {
	case DealTypeBirthday:
		return len(v.Deals.Birthday) > 0
	case DealTypeEveryday:
		return len(v.Deals.Everyday) > 0
	case DealTypeDaily:
		for _, s := range v.Deals.Daily {
			if s.Day == day {
				return true
			}
		}
		return false
	case DealTypeMultiDay:
		for _, s := range v.Deals.MultiDay {
			for _, d := range s.ActiveDays {
				if d == day {
					return true
				}
			}
		}
		return false
	case DealTypeSpecial:
		for _, s := range v.Deals.Special {
			if s.EndDate == nil || s.EndDate.After(now) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// VendorStop is a vendor on a planned route, annotated with progress state.
type VendorStop struct {
	Vendor        Vendor  `json:"vendor" bson:"vendor"`
	DistanceMiles float64 `json:"distance_miles" bson:"distance_miles"`
	CheckedIn     bool    `json:"checked_in" bson:"checked_in"`
	CheckInType   string  `json:"check_in_type,omitempty" bson:"check_in_type,omitempty"`
}
