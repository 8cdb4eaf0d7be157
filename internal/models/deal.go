package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type DealType string
type DayOfWeek string

const (
	DealTypeBirthday DealType = "birthday"
	DealTypeDaily    DealType = "daily"
	DealTypeSpecial  DealType = "special"
	DealTypeEveryday DealType = "everyday"
	DealTypeMultiDay DealType = "multi_day"

	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
	Sunday    DayOfWeek = "sunday"
)

var AllDays = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var AllDealTypes = []DealType{DealTypeBirthday, DealTypeDaily, DealTypeSpecial, DealTypeEveryday, DealTypeMultiDay}

// DayOfWeekFromTime maps a wall-clock time onto the catalog's day buckets.
func DayOfWeekFromTime(t time.Time) DayOfWeek {
	return DayOfWeek(strings.ToLower(t.Weekday().String()))
}

func IsValidDay(day DayOfWeek) bool {
	for _, d := range AllDays {
		if d == day {
			return true
		}
	}
	return false
}

func IsValidDealType(dealType DealType) bool {
	for _, t := range AllDealTypes {
		if t == dealType {
			return true
		}
	}
	return false
}

// FlexID is an identifier that upstream sources deliver inconsistently as a
// string, an integer, or a double. It always normalizes to a string form.
type FlexID string

func (f FlexID) String() string {
	return string(f)
}

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var raw interface{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		*f = FlexID(v)
	case json.Number:
		*f = FlexID(normalizeNumericID(v.String()))
	case nil:
		*f = ""
	default:
		return fmt.Errorf("unsupported id type %T", raw)
	}
	return nil
}

func (f *FlexID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}

	switch t {
	case bson.TypeString:
		*f = FlexID(rv.StringValue())
	case bson.TypeInt32:
		*f = FlexID(strconv.FormatInt(int64(rv.Int32()), 10))
	case bson.TypeInt64:
		*f = FlexID(strconv.FormatInt(rv.Int64(), 10))
	case bson.TypeDouble:
		*f = FlexID(normalizeNumericID(strconv.FormatFloat(rv.Double(), 'f', -1, 64)))
	case bson.TypeObjectID:
		*f = FlexID(rv.ObjectID().Hex())
	case bson.TypeNull:
		*f = ""
	default:
		return fmt.Errorf("unsupported id bson type %s", t)
	}
	return nil
}

func (f FlexID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	t, data, err := bson.MarshalValue(string(f))
	return t, data, err
}

// KeyCandidates returns the raw key plus its string/numeric coercions, for
// index lookups against data written by differently typed upstream sources.
func KeyCandidates(id string) []string {
	candidates := []string{id}

	if f, err := strconv.ParseFloat(id, 64); err == nil {
		if normalized := normalizeNumericID(strconv.FormatFloat(f, 'f', -1, 64)); normalized != id {
			candidates = append(candidates, normalized)
		}
		if f == float64(int64(f)) {
			if asInt := strconv.FormatInt(int64(f), 10); asInt != id {
				candidates = append(candidates, asInt)
			}
		}
	}

	return candidates
}

// normalizeNumericID strips a trailing ".0" style fraction so "12.0" and
// "12" index under the same key.
func normalizeNumericID(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	trimmed := strings.TrimRight(s, "0")
	return strings.TrimRight(trimmed, ".")
}

// Deal is a single promotional offer pulled read-only from the catalog.
// The engine indexes deals; it never mutates them.
type Deal struct {
	ID           FlexID      `json:"id" bson:"_id,omitempty"`
	VendorID     FlexID      `json:"vendor_id" bson:"vendor_id" validate:"required"`
	DealType     DealType    `json:"deal_type" bson:"deal_type" validate:"required,deal_type"`
	Day          DayOfWeek   `json:"day,omitempty" bson:"day,omitempty"`
	ActiveDays   []DayOfWeek `json:"active_days,omitempty" bson:"active_days,omitempty"`
	IsActive     *bool       `json:"is_active,omitempty" bson:"is_active,omitempty"`
	Discount     string      `json:"discount" bson:"discount"`
	Description  string      `json:"description" bson:"description"`
	Restrictions []string    `json:"restrictions,omitempty" bson:"restrictions,omitempty"`
	StartDate    *time.Time  `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate      *time.Time  `json:"end_date,omitempty" bson:"end_date,omitempty"`
	CreatedAt    time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" bson:"updated_at"`
}

// Active reports whether the deal passes the default activity predicate.
// A missing is_active flag counts as active.
func (d *Deal) Active() bool {
	return d.IsActive == nil || *d.IsActive
}

// CurrentlyActive additionally applies the special-deal date window. A
// special deal with no end date is permanently active; one whose end date
// has passed is excluded from eligibility but kept in the catalog.
func (d *Deal) CurrentlyActive(now time.Time) bool {
	if !d.Active() {
		return false
	}
	if d.DealType != DealTypeSpecial {
		return true
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}

// AppliesOn reports whether the deal belongs in the given day's bucket.
func (d *Deal) AppliesOn(day DayOfWeek) bool {
	switch d.DealType {
	case DealTypeDaily:
		return d.Day == day
	case DealTypeMultiDay:
		for _, active := range d.ActiveDays {
			if active == day {
				return true
			}
		}
		return false
	case DealTypeEveryday:
		return true
	default:
		return false
	}
}
