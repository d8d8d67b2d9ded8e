package selection

import (
	"encoding/json"
	"math"
	"time"
)

// Skin names the presentational animation the browser renders for a plan.
type Skin string

const (
	SkinWheel     Skin = "wheel"
	SkinSpotlight Skin = "spotlight"
	SkinSlot      Skin = "slot"
	SkinCards     Skin = "cards"
)

// SlotInterval is the tick length of slot reels.
const SlotInterval = 100 * time.Millisecond

// Style parameterises how a plan is shaped for a skin.
type Style struct {
	Skin     Skin
	Duration time.Duration
	// Rounds is the number of full passes over the list before landing (wheel, spotlight).
	Rounds int
	// MinTicks and MaxTicks bound the reel length for slot skins.
	MinTicks int
	MaxTicks int
}

var (
	Wheel          = Style{Skin: SkinWheel, Duration: 5 * time.Second, Rounds: 5}
	Spotlight      = Style{Skin: SkinSpotlight, Duration: 3 * time.Second, Rounds: 3}
	ThemeReel      = Style{Skin: SkinSlot, MinTicks: 30, MaxTicks: 45}
	ConstraintReel = Style{Skin: SkinSlot, MinTicks: 25, MaxTicks: 40}
	Cards          = Style{Skin: SkinCards, Duration: 1500 * time.Millisecond, Rounds: 3}
)

// Frame highlights candidate Index at offset At from the start of the animation.
type Frame struct {
	At    time.Duration
	Index int
}

// MarshalJSON renders the offset in milliseconds for the browser.
func (f Frame) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		At    int64 `json:"at"`
		Index int   `json:"index"`
	}{At: f.At.Milliseconds(), Index: f.Index})
}

// Plan is the visual trajectory of one run. The last frame is always the chosen index.
type Plan struct {
	Skin     Skin          `json:"skin"`
	Duration time.Duration `json:"-"`
	Frames   []Frame       `json:"frames"`
	// Degrees is the final wheel rotation that puts the chosen segment under the pointer.
	Degrees float64 `json:"degrees,omitempty"`
}

// DurationMS is the reveal delay in milliseconds.
func (p Plan) DurationMS() int64 { return p.Duration.Milliseconds() }

// Final returns the index the plan lands on.
func (p Plan) Final() int {
	if len(p.Frames) == 0 {
		return -1
	}
	return p.Frames[len(p.Frames)-1].Index
}

// Build shapes a trajectory over n candidates that ends on index.
func (s Style) Build(n, index int, rnd Rand) Plan {
	if rnd == nil {
		rnd = globalRand{}
	}
	switch s.Skin {
	case SkinSlot:
		return s.slot(n, index, rnd)
	case SkinCards:
		return s.cards(n, index)
	case SkinWheel:
		rounds := s.Rounds + rnd.IntN(3)
		p := s.decelerate(n, index, rounds)
		// segment i spans [i, i+1) * 360/n clockwise from the pointer at the top
		segment := 360 / float64(n)
		p.Degrees = float64(rounds)*360 + 360 - (float64(index)+0.5)*segment
		return p
	default:
		return s.decelerate(n, index, s.Rounds)
	}
}

// decelerate walks the list rounds times and then up to index with an ease-out cubic schedule.
func (s Style) decelerate(n, index, rounds int) Plan {
	if rounds < 1 {
		rounds = 1
	}
	steps := rounds*n + index
	frames := make([]Frame, 0, steps+1)
	for k := 0; k <= steps; k++ {
		progress := 1.0
		if steps > 0 {
			progress = float64(k) / float64(steps)
		}
		at := time.Duration(float64(s.Duration) * (1 - math.Cbrt(1-progress)))
		frames = append(frames, Frame{At: at, Index: k % n})
	}
	frames[len(frames)-1] = Frame{At: s.Duration, Index: index}
	return Plan{Skin: s.Skin, Duration: s.Duration, Frames: frames}
}

// slot ticks through the reel at a fixed interval for a random number of ticks.
func (s Style) slot(n, index int, rnd Rand) Plan {
	ticks := s.MinTicks
	if span := s.MaxTicks - s.MinTicks; span > 0 {
		ticks += rnd.IntN(span + 1)
	}
	if ticks < 1 {
		ticks = 1
	}
	start := ((index-ticks)%n + n) % n
	frames := make([]Frame, 0, ticks)
	for k := 1; k <= ticks; k++ {
		frames = append(frames, Frame{At: time.Duration(k) * SlotInterval, Index: (start + k) % n})
	}
	return Plan{Skin: s.Skin, Duration: time.Duration(ticks) * SlotInterval, Frames: frames}
}

// cards shuffles face-down cards at an even pace before resting on index.
func (s Style) cards(n, index int) Plan {
	rounds := s.Rounds
	if rounds < 1 {
		rounds = 1
	}
	shuffles := rounds * n
	step := s.Duration / time.Duration(shuffles+1)
	frames := make([]Frame, 0, shuffles+1)
	for k := 0; k < shuffles; k++ {
		frames = append(frames, Frame{At: time.Duration(k) * step, Index: k % n})
	}
	frames = append(frames, Frame{At: s.Duration, Index: index})
	return Plan{Skin: s.Skin, Duration: s.Duration, Frames: frames}
}
