package travelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Service describes the travel backend consumed by the selection pages.
type Service interface {
	// Provinces lists every selectable province.
	Provinces(ctx context.Context) ([]Province, error)
	// Cities lists the cities owned by the given province.
	Cities(ctx context.Context, provinceNo No) ([]City, error)
	Themes(ctx context.Context) ([]Theme, error)
	Constraints(ctx context.Context) ([]Constraint, error)
	// TravelCourse requests a generated itinerary and returns its raw course slots.
	TravelCourse(ctx context.Context, query CourseQuery) (CourseSlots, error)
	// TotalVisits returns the display-only visit counter.
	TotalVisits(ctx context.Context) (int64, error)
}

var (
	// ErrMissingParam indicates a required request parameter was empty.
	ErrMissingParam = errors.New("travelapi: missing parameter")
	// ErrUnavailable indicates the backend is short-circuited after repeated failures.
	ErrUnavailable = errors.New("travelapi: backend unavailable")
)

// No is a backend identifier. The API emits it as a JSON number, older payloads as a string.
type No int64

// UnmarshalJSON accepts both numeric and quoted identifiers.
func (n *No) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			*n = 0
			return nil
		}
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("travelapi: invalid identifier %q", string(b))
	}
	*n = No(v)
	return nil
}

// String renders the identifier for query strings.
func (n No) String() string { return strconv.FormatInt(int64(n), 10) }

// Province is a top-level region.
type Province struct {
	No   No     `json:"no"`
	Name string `json:"name"`
}

// City is a locality owned by exactly one province.
type City struct {
	No          No     `json:"no"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ProvinceNo  No     `json:"provinceNo,omitempty"`
}

// Theme is an activity tag narrowing itinerary generation.
type Theme struct {
	No   No     `json:"no"`
	Name string `json:"name"`
}

// Constraint is a travel restriction narrowing itinerary generation.
type Constraint struct {
	No   No     `json:"no"`
	Name string `json:"name"`
}

func (p Province) Key() int64      { return int64(p.No) }
func (p Province) Label() string   { return p.Name }
func (c City) Key() int64          { return int64(c.No) }
func (c City) Label() string       { return c.Name }
func (t Theme) Key() int64         { return int64(t.No) }
func (t Theme) Label() string      { return t.Name }
func (c Constraint) Key() int64    { return int64(c.No) }
func (c Constraint) Label() string { return c.Name }

// CourseQuery identifies the full selection chain for itinerary generation.
type CourseQuery struct {
	ProvinceNo   No
	CityNo       No
	ThemeNo      No
	ConstraintNo No
}

// Validate reports ErrMissingParam when any identifier is unset.
func (q CourseQuery) Validate() error {
	var missing []string
	if q.ProvinceNo == 0 {
		missing = append(missing, "provinceNo")
	}
	if q.CityNo == 0 {
		missing = append(missing, "cityNo")
	}
	if q.ThemeNo == 0 {
		missing = append(missing, "theme")
	}
	if q.ConstraintNo == 0 {
		missing = append(missing, "constraint")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingParam, strings.Join(missing, ", "))
	}
	return nil
}

// CourseSlots holds the raw itinerary payload keyed by slot name (course1..course6).
// Each value is either a JSON object or a JSON string wrapping one.
type CourseSlots map[string]json.RawMessage

// SlotCount is the fixed number of numbered course slots in an itinerary.
const SlotCount = 6

// SlotKey returns the payload key for the 1-based slot index.
func SlotKey(i int) string { return "course" + strconv.Itoa(i) }
