package nav

// StepStatus is the progress state of one page in the selection flow.
type StepStatus string

const (
	StepDone    StepStatus = "done"
	StepCurrent StepStatus = "current"
	StepLocked  StepStatus = "locked"
)

// Step is a progress-indicator entry.
type Step struct {
	Href     string
	LabelKey string
	Status   StepStatus
}

// Flow lists the selection pages in order.
var Flow = []Item{
	{Path: "/random", LabelKey: "step.province"},
	{Path: "/random/city", LabelKey: "step.city"},
	{Path: "/random/theme", LabelKey: "step.theme"},
	{Path: "/course", LabelKey: "step.course"},
	{Path: "/postResult", LabelKey: "step.result"},
}

// Progress marks pages before current as done and later ones as locked.
// Completed pages stay linkable; locked ones have no href.
func Progress(current int) []Step {
	steps := make([]Step, 0, len(Flow))
	for i, it := range Flow {
		st := Step{LabelKey: it.LabelKey}
		switch {
		case i < current:
			st.Status = StepDone
			st.Href = it.Path
		case i == current:
			st.Status = StepCurrent
			st.Href = it.Path
		default:
			st.Status = StepLocked
		}
		steps = append(steps, st)
	}
	return steps
}
