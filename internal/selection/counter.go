package selection

import "time"

const (
	counterDuration = 2 * time.Second
	counterTick     = 50 * time.Millisecond
	counterSettle   = 0.8
)

// CounterFrame is one displayed value of the visit counter animation.
type CounterFrame struct {
	At    int64 `json:"at"`
	Value int64 `json:"value"`
}

// CounterPlan scrambles the counter with random values for the first 80% of the
// animation and then climbs to value. A zero value is shown without animation.
func CounterPlan(value int64, rnd Rand) []CounterFrame {
	if value <= 0 {
		return []CounterFrame{{At: 0, Value: max(value, 0)}}
	}
	if rnd == nil {
		rnd = globalRand{}
	}
	ceiling := max(value*5, 999)
	ticks := int(counterDuration / counterTick)
	frames := make([]CounterFrame, 0, ticks+1)
	for k := 0; k < ticks; k++ {
		progress := float64(k) / float64(ticks)
		at := (time.Duration(k) * counterTick).Milliseconds()
		if progress < counterSettle {
			frames = append(frames, CounterFrame{At: at, Value: int64(rnd.IntN(int(min(ceiling, 1<<31-1))))})
			continue
		}
		remaining := 1 - (progress-counterSettle)/(1-counterSettle)
		frames = append(frames, CounterFrame{At: at, Value: value - int64(float64(value)*remaining)})
	}
	return append(frames, CounterFrame{At: counterDuration.Milliseconds(), Value: value})
}
