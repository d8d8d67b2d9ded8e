package selection

import (
	"errors"
	"math/rand/v2"
	"time"
)

// Item is a selectable candidate with a stable identifier and a display name.
type Item interface {
	Key() int64
	Label() string
}

// State is the lifecycle position of a Machine.
type State int

const (
	Idle State = iota
	Running
	Settled
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Settled:
		return "settled"
	default:
		return "idle"
	}
}

var (
	// ErrUnavailable indicates there is nothing to select from.
	ErrUnavailable = errors.New("selection: no candidates available")
	// ErrNotSettled indicates the selection has not been revealed yet.
	ErrNotSettled = errors.New("selection: not settled")
)

// Rand is the random source used to pick indexes and shape trajectories.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Run describes an in-flight or completed selection.
type Run struct {
	Index     int
	Plan      Plan
	StartedAt time.Time
	RevealAt  time.Time
}

// Elapsed reports how far into the animation now is, clamped to the plan duration.
func (r Run) Elapsed(now time.Time) time.Duration {
	d := now.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	if d > r.Plan.Duration {
		return r.Plan.Duration
	}
	return d
}

// Option customises a Machine.
type Option func(*config)

type config struct {
	style Style
	rand  Rand
}

// WithStyle selects the animation style used to build plans.
func WithStyle(style Style) Option {
	return func(c *config) {
		c.style = style
	}
}

// WithRand overrides the random source. Defaults to the unseeded math/rand/v2 generator.
func WithRand(r Rand) Option {
	return func(c *config) {
		if r != nil {
			c.rand = r
		}
	}
}

// Machine picks exactly one item from a fixed candidate list.
// The index is chosen when the run starts; the plan only decides how long the reveal takes.
// A Machine is not safe for concurrent use; callers serialise access.
type Machine[T Item] struct {
	items []T
	cfg   config
	state State
	run   Run
}

// NewMachine returns an idle machine over items. An empty list yields ErrUnavailable.
func NewMachine[T Item](items []T, opts ...Option) (*Machine[T], error) {
	if len(items) == 0 {
		return nil, ErrUnavailable
	}
	cfg := config{style: Spotlight, rand: globalRand{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Machine[T]{
		items: append([]T(nil), items...),
		cfg:   cfg,
	}, nil
}

// Items returns a copy of the candidate list.
func (m *Machine[T]) Items() []T {
	return append([]T(nil), m.items...)
}

func (m *Machine[T]) Len() int { return len(m.items) }

func (m *Machine[T]) State() State { return m.state }

// Start begins a run from Idle. While Running or Settled it returns the existing run unchanged.
func (m *Machine[T]) Start(now time.Time) Run {
	if m.state != Idle {
		return m.run
	}
	index := m.cfg.rand.IntN(len(m.items))
	plan := m.cfg.style.Build(len(m.items), index, m.cfg.rand)
	m.run = Run{
		Index:     index,
		Plan:      plan,
		StartedAt: now,
		RevealAt:  now.Add(plan.Duration),
	}
	m.state = Running
	return m.run
}

// Advance settles a running machine once the reveal time has passed and returns the resulting state.
func (m *Machine[T]) Advance(now time.Time) State {
	if m.state == Running && !now.Before(m.run.RevealAt) {
		m.state = Settled
	}
	return m.state
}

// Run returns the current run, if any.
func (m *Machine[T]) Run() (Run, bool) {
	if m.state == Idle {
		return Run{}, false
	}
	return m.run, true
}

// Selected returns the chosen item once the machine has settled.
func (m *Machine[T]) Selected() (T, error) {
	var zero T
	if m.state != Settled {
		return zero, ErrNotSettled
	}
	return m.items[m.run.Index], nil
}

// Cancel aborts a running animation and returns the machine to Idle.
// Settled selections are frozen and cannot be cancelled.
func (m *Machine[T]) Cancel() bool {
	if m.state != Running {
		return false
	}
	m.state = Idle
	m.run = Run{}
	return true
}
