package workflow

import (
	"errors"
	"time"

	"github.com/Passbob/dopamine-travel-front/internal/itinerary"
	"github.com/Passbob/dopamine-travel-front/internal/observability"
	"github.com/Passbob/dopamine-travel-front/internal/selection"
	"github.com/Passbob/dopamine-travel-front/internal/travelapi"
)

var (
	// ErrBusy indicates an itinerary fetch is already in flight.
	ErrBusy = errors.New("workflow: itinerary request in flight")
	// ErrNotReady indicates the cards cannot be picked yet.
	ErrNotReady = errors.New("workflow: cards are not ready")
	// ErrAlreadyPicked indicates a card was already chosen for this itinerary.
	ErrAlreadyPicked = errors.New("workflow: card already picked")
	// ErrInvalidCard indicates the card index is outside the deck.
	ErrInvalidCard = errors.New("workflow: invalid card")
)

// Card is one of the face-down cards of the course draw.
type Card int

func (c Card) Key() int64    { return int64(c) }
func (c Card) Label() string { return string(rune('A' + int(c))) }

// Deck is the fixed set of cards offered after the shuffle.
var Deck = []Card{0, 1, 2}

// Workflow is one user's pass through the selection flow.
type Workflow struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Chain     Chain

	Province   *selection.Machine[travelapi.Province]
	City       *selection.Machine[travelapi.City]
	Theme      *selection.Machine[travelapi.Theme]
	Constraint *selection.Machine[travelapi.Constraint]

	Course Course
}

// Settle advances running machines to now and freezes any settled selection into the chain.
func (w *Workflow) Settle(now time.Time) {
	if w.Province != nil && w.Province.Advance(now) == selection.Settled && w.Chain.Province == nil {
		p, _ := w.Province.Selected()
		w.Chain.Province = &p
	}
	if w.City != nil && w.City.Advance(now) == selection.Settled && w.Chain.City == nil {
		c, _ := w.City.Selected()
		w.Chain.City = &c
	}
	if w.Theme != nil && w.Constraint != nil {
		themeDone := w.Theme.Advance(now) == selection.Settled
		constraintDone := w.Constraint.Advance(now) == selection.Settled
		if themeDone && constraintDone && w.Chain.Theme == nil {
			t, _ := w.Theme.Selected()
			c, _ := w.Constraint.Selected()
			w.Chain.Theme = &t
			w.Chain.Constraint = &c
		}
	}
	if w.Course.Shuffle != nil {
		w.Course.Shuffle.Advance(now)
	}
}

// CancelRunning aborts every animation still in flight and reports how many were cancelled.
func (w *Workflow) CancelRunning() int {
	cancelled := map[Step]bool{
		StepProvince: w.Province != nil && w.Province.Cancel(),
		StepCity:     w.City != nil && w.City.Cancel(),
		StepCourse:   w.Course.Shuffle != nil && w.Course.Shuffle.Cancel(),
	}
	theme := w.Theme != nil && w.Theme.Cancel()
	constraint := w.Constraint != nil && w.Constraint.Cancel()
	cancelled[StepTheme] = theme || constraint

	n := 0
	for step, ok := range cancelled {
		if ok {
			observability.SelectionCancels.WithLabelValues(step.String()).Inc()
			n++
		}
	}
	return n
}

// Course tracks the itinerary draw of a complete chain.
type Course struct {
	Busy    bool
	Loaded  bool
	Steps   []itinerary.Step
	Failure string
	Shuffle *selection.Machine[Card]
	Picked  int
	hasPick bool
}

// BeginDraw marks the itinerary fetch as in flight. It reports ErrBusy while one is running.
func (c *Course) BeginDraw() error {
	if c.Busy {
		return ErrBusy
	}
	c.Busy = true
	c.Failure = ""
	return nil
}

// FinishDraw records the result of the itinerary fetch.
func (c *Course) FinishDraw(steps []itinerary.Step, failure string) {
	c.Busy = false
	if failure != "" {
		c.Failure = failure
		c.Loaded = false
		c.Steps = nil
		return
	}
	c.Loaded = true
	c.Steps = steps
	c.hasPick = false
	c.Picked = 0
}

// Ready reports whether the itinerary is loaded and the shuffle has finished.
func (c *Course) Ready() bool {
	return c.Loaded && len(c.Steps) > 0 && c.Shuffle != nil && c.Shuffle.State() == selection.Settled
}

// Pick chooses a face-down card. The first pick is final.
func (c *Course) Pick(card int) error {
	if !c.Ready() {
		return ErrNotReady
	}
	if c.hasPick {
		return ErrAlreadyPicked
	}
	if card < 0 || card >= len(Deck) {
		return ErrInvalidCard
	}
	c.Picked = card
	c.hasPick = true
	return nil
}

// HasPick reports whether a card was chosen.
func (c *Course) HasPick() bool { return c.hasPick }

// StepFor maps a card to the itinerary step it reveals. The shuffle offsets the deck.
func (c *Course) StepFor(card int) int {
	if len(c.Steps) == 0 {
		return -1
	}
	offset := 0
	if c.Shuffle != nil {
		if top, err := c.Shuffle.Selected(); err == nil {
			offset = int(top)
		}
	}
	return (card + offset) % len(c.Steps)
}

// Result is the itinerary with the picked card's step promoted to the front.
func (c *Course) Result() []itinerary.Step {
	if !c.hasPick {
		return itinerary.Promote(c.Steps, -1)
	}
	return itinerary.Promote(c.Steps, c.StepFor(c.Picked))
}
