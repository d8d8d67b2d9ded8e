package selection

import (
	"context"
	"time"
)

// Clock abstracts time for players and tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Player replays plan frames in real time.
type Player struct {
	clock Clock
}

// NewPlayer constructs a Player. A nil clock uses the wall clock.
func NewPlayer(clock Clock) *Player {
	if clock == nil {
		clock = SystemClock()
	}
	return &Player{clock: clock}
}

// Play emits every frame at or after elapsed, waiting between frames, and returns
// ctx.Err() as soon as the context is cancelled. The final frame is always emitted.
func (p *Player) Play(ctx context.Context, plan Plan, elapsed time.Duration, emit func(Frame) error) error {
	cursor := elapsed
	last := len(plan.Frames) - 1
	for i, frame := range plan.Frames {
		if frame.At < elapsed && i != last {
			continue
		}
		if wait := frame.At - cursor; wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-p.clock.After(wait):
			}
			cursor = frame.At
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(frame); err != nil {
			return err
		}
	}
	return nil
}
