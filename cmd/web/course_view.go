package main

import (
	"time"

	"github.com/Passbob/dopamine-travel-front/internal/selection"
	"github.com/Passbob/dopamine-travel-front/internal/workflow"
)

// Course page states.
const (
	courseIdle      = "idle"
	courseShuffling = "shuffling"
	courseReady     = "ready"
	coursePicked    = "picked"
	courseFailed    = "failed"
)

var courseRoutes = stageRoutes{
	Page:    "/course",
	Spin:    "/course/draw",
	Reveal:  "/course/reveal",
	Frames:  "/course/frames",
	Confirm: "/course/pick",
}

// CardView is one face-down card of the draw.
type CardView struct {
	Index int
	Label string
}

// CourseView is the body of the course page.
type CourseView struct {
	Chain   workflow.Chain
	State   string
	Busy    bool
	Failure string
	Shuffle StageView
	Cards   []CardView
	Stops   int
	Routes  stageRoutes
	Result  string
}

// CanDraw reports whether the draw button is enabled.
func (v CourseView) CanDraw() bool {
	return !v.Busy && (v.State == courseIdle || v.State == courseFailed)
}

// CanPick reports whether the cards accept a pick.
func (v CourseView) CanPick() bool { return v.State == courseReady }

func buildCourseView(wf *workflow.Workflow, now time.Time) CourseView {
	c := &wf.Course
	view := CourseView{
		Chain:   wf.Chain,
		Busy:    c.Busy,
		Failure: c.Failure,
		Stops:   len(c.Steps),
		Routes:  courseRoutes,
		Result:  "/postResult",
	}
	if c.Shuffle != nil {
		view.Shuffle = buildStage("course", selection.SkinCards, c.Shuffle, now, nil, courseRoutes)
	}
	for _, card := range workflow.Deck {
		view.Cards = append(view.Cards, CardView{Index: int(card), Label: card.Label()})
	}
	switch {
	case c.HasPick():
		view.State = coursePicked
	case c.Failure != "":
		view.State = courseFailed
	case c.Ready():
		view.State = courseReady
	case c.Busy || (c.Shuffle != nil && c.Shuffle.State() == selection.Running):
		view.State = courseShuffling
	case c.Loaded:
		view.State = courseShuffling
	default:
		view.State = courseIdle
	}
	return view
}
