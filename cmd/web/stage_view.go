package main

import (
	"time"

	"github.com/Passbob/dopamine-travel-front/internal/selection"
	"github.com/Passbob/dopamine-travel-front/internal/seo"
)

// Stage states as rendered in data-state attributes.
const (
	stageIdle        = "idle"
	stageRunning     = "running"
	stageSettled     = "settled"
	stageUnavailable = "unavailable"
	stageFailed      = "failed"
)

// stageRoutes are the endpoints a stage posts to and polls.
type stageRoutes struct {
	Page    string
	Spin    string
	Reveal  string
	Frames  string
	Confirm string
}

// StageItem is one candidate drawn on the wheel, spotlight grid, reel or deck.
type StageItem struct {
	Index       int
	Label       string
	Description string
	Chosen      bool
}

// StageView is the view model of one randomized selection.
type StageView struct {
	Key   string
	Skin  string
	State string
	Items []StageItem
	// PlanJSON is the trajectory the browser animates; empty until the run starts.
	PlanJSON   string
	DurationMS int64
	ElapsedMS  int64
	Degrees    float64
	Selected   *StageItem
	Error      string
	Routes     stageRoutes
}

// Running reports whether the animation is still in flight.
func (v StageView) Running() bool { return v.State == stageRunning }

// Settled reports whether the selection is final.
func (v StageView) Settled() bool { return v.State == stageSettled }

// CanSpin reports whether the trigger is enabled.
func (v StageView) CanSpin() bool { return v.State == stageIdle }

// buildStage snapshots m for rendering. A nil machine renders as unavailable.
func buildStage[T selection.Item](key string, skin selection.Skin, m *selection.Machine[T], now time.Time, describe func(T) string, routes stageRoutes) StageView {
	view := StageView{Key: key, Skin: string(skin), Routes: routes}
	if m == nil {
		view.State = stageUnavailable
		return view
	}
	items := m.Items()
	view.Items = make([]StageItem, len(items))
	for i, it := range items {
		view.Items[i] = StageItem{Index: i, Label: it.Label()}
		if describe != nil {
			view.Items[i].Description = describe(it)
		}
	}

	switch m.State() {
	case selection.Idle:
		view.State = stageIdle
		return view
	case selection.Running:
		view.State = stageRunning
	case selection.Settled:
		view.State = stageSettled
	}
	run, ok := m.Run()
	if !ok {
		return view
	}
	view.PlanJSON = seo.JSON(run.Plan)
	view.DurationMS = run.Plan.DurationMS()
	view.ElapsedMS = run.Elapsed(now).Milliseconds()
	view.Degrees = run.Plan.Degrees
	if view.State == stageSettled {
		view.Items[run.Index].Chosen = true
		chosen := view.Items[run.Index]
		view.Selected = &chosen
	}
	return view
}

// failedStage renders a step whose candidate list could not be fetched.
func failedStage(key string, skin selection.Skin, message string, routes stageRoutes) StageView {
	return StageView{Key: key, Skin: string(skin), State: stageFailed, Error: message, Routes: routes}
}
