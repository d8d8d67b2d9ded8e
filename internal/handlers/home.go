package handlers

import (
	"github.com/Passbob/dopamine-travel-front/internal/format"
	"github.com/Passbob/dopamine-travel-front/internal/selection"
)

// HomeData is the view model for the landing page body.
type HomeData struct {
	Visits  int64
	Display string
	// Counter drives the slot-style visit counter in the browser.
	Counter []selection.CounterFrame
	// CounterFailed is set when the visit count could not be fetched and 0 is shown instead.
	CounterFailed bool
	StartHref     string
}

// BuildHomeData constructs the landing page view model for a visit count.
func BuildHomeData(visits int64, failed bool, rnd selection.Rand) HomeData {
	if visits < 0 {
		visits = 0
	}
	return HomeData{
		Visits:        visits,
		Display:       format.Count(visits),
		Counter:       selection.CounterPlan(visits, rnd),
		CounterFailed: failed,
		StartHref:     "/random",
	}
}
