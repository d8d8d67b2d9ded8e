package itinerary

import (
	"encoding/json"
	"strings"

	"github.com/Passbob/dopamine-travel-front/internal/travelapi"
)

// Step is one stop of a normalized itinerary.
type Step struct {
	Order       int    `json:"order"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Slot is the 1-based backend slot the step was decoded from.
	Slot int `json:"-"`
}

type slotPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Decode normalizes backend course slots into an ordered itinerary.
// Slots are read in index order; absent, undecodable and nameless slots are skipped,
// and the remaining steps are numbered densely from 1. Text is kept verbatim apart
// from surrounding whitespace; html/template escapes it on output.
func Decode(slots travelapi.CourseSlots) []Step {
	steps := make([]Step, 0, travelapi.SlotCount)
	for i := 1; i <= travelapi.SlotCount; i++ {
		raw, ok := slots[travelapi.SlotKey(i)]
		if !ok {
			continue
		}
		payload, ok := decodeSlot(raw)
		if !ok {
			continue
		}
		steps = append(steps, Step{
			Order:       len(steps) + 1,
			Name:        payload.Name,
			Description: payload.Description,
			Slot:        i,
		})
	}
	return steps
}

// decodeSlot accepts either an object or a JSON string wrapping one.
func decodeSlot(raw json.RawMessage) (slotPayload, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return slotPayload{}, false
	}
	data := []byte(trimmed)
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return slotPayload{}, false
		}
		data = []byte(inner)
	}
	var payload slotPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return slotPayload{}, false
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Description = strings.TrimSpace(payload.Description)
	if payload.Name == "" {
		return slotPayload{}, false
	}
	return payload, true
}

// Promote moves steps[i] to the front and renumbers densely. Out of range indexes
// return a renumbered copy in the original order.
func Promote(steps []Step, i int) []Step {
	out := make([]Step, 0, len(steps))
	if i >= 0 && i < len(steps) {
		out = append(out, steps[i])
		out = append(out, steps[:i]...)
		out = append(out, steps[i+1:]...)
	} else {
		out = append(out, steps...)
	}
	for k := range out {
		out[k].Order = k + 1
	}
	return out
}
