package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Passbob/dopamine-travel-front/internal/travelapi"
)

// ErrMissingSelection indicates a step was entered without its prior selections.
var ErrMissingSelection = errors.New("workflow: missing prior selection")

// Step identifies a page of the selection flow.
type Step int

const (
	StepProvince Step = iota
	StepCity
	StepTheme
	StepCourse
	StepResult
)

func (s Step) String() string {
	switch s {
	case StepProvince:
		return "province"
	case StepCity:
		return "city"
	case StepTheme:
		return "theme"
	case StepCourse:
		return "course"
	case StepResult:
		return "result"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Chain is the selection accumulated across steps. A nil field has not been selected yet.
type Chain struct {
	Province   *travelapi.Province
	City       *travelapi.City
	Theme      *travelapi.Theme
	Constraint *travelapi.Constraint
}

// Missing lists the selections required to enter step that are absent.
func (c Chain) Missing(step Step) []string {
	var missing []string
	if step > StepProvince && c.Province == nil {
		missing = append(missing, "province")
	}
	if step > StepCity && c.City == nil {
		missing = append(missing, "city")
	}
	if step > StepTheme {
		if c.Theme == nil {
			missing = append(missing, "theme")
		}
		if c.Constraint == nil {
			missing = append(missing, "constraint")
		}
	}
	return missing
}

// Require reports ErrMissingSelection naming the absent selections for step.
func (c Chain) Require(step Step) error {
	if missing := c.Missing(step); len(missing) > 0 {
		return fmt.Errorf("%w: %s needs %s", ErrMissingSelection, step, strings.Join(missing, ", "))
	}
	return nil
}

// Complete reports whether every selection is present.
func (c Chain) Complete() bool {
	return len(c.Missing(StepCourse)) == 0
}

// Query builds the itinerary request for a complete chain.
func (c Chain) Query() (travelapi.CourseQuery, error) {
	if err := c.Require(StepCourse); err != nil {
		return travelapi.CourseQuery{}, err
	}
	return travelapi.CourseQuery{
		ProvinceNo:   c.Province.No,
		CityNo:       c.City.No,
		ThemeNo:      c.Theme.No,
		ConstraintNo: c.Constraint.No,
	}, nil
}
