package itinerary

import (
	"strconv"
	"strings"
)

// Labels are the localized fixed phrases of the text export.
type Labels struct {
	Course     string
	Theme      string
	Constraint string
}

// Summary is the finalized itinerary together with the selection chain it was generated for.
type Summary struct {
	Province   string
	City       string
	Theme      string
	Constraint string
	Steps      []Step
}

// Title is the heading line shared by the result page and the export.
func (s Summary) Title(l Labels) string {
	return strings.TrimSpace(s.Province + " " + s.City + " " + l.Course)
}

// Text renders the plain-text rendition copied to the clipboard.
func (s Summary) Text(l Labels) string {
	var b strings.Builder
	b.WriteString(s.Title(l))
	b.WriteString("\n")
	b.WriteString(l.Theme + ": " + s.Theme + " / " + l.Constraint + ": " + s.Constraint)
	b.WriteString("\n\n")
	for i, step := range s.Steps {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(step.Name)
		b.WriteString("\n")
		b.WriteString(step.Description)
		b.WriteString("\n\n")
	}
	return b.String()
}
