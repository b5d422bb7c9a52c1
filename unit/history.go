package unit

import "sort"

// TransitionLabelInitial renders the absent from-status of an initial event.
const TransitionLabelInitial = "initial"

// SortedDescending returns the history ordered most-recent first: date
// descending, created_at descending on equal dates, insertion order on
// full ties. The input slice is not modified.
func SortedDescending(history []StatusEvent) []StatusEvent {
	out := make([]StatusEvent, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// TransitionLabel returns the displayable (from, to) pair for an event.
// Initial entries report TransitionLabelInitial instead of a from-status.
func TransitionLabel(ev StatusEvent) (string, string) {
	from := TransitionLabelInitial
	if ev.FromStatus != nil {
		from = string(*ev.FromStatus)
	}
	return from, string(ev.ToStatus)
}

// ManualCount tallies a history by entry origin.
type ManualCount struct {
	Manual    int `json:"manual"`
	Automatic int `json:"automatic"`
}

// CountByManual counts user-authored versus system-generated entries.
func CountByManual(history []StatusEvent) ManualCount {
	var c ManualCount
	for _, ev := range history {
		if ev.IsManual {
			c.Manual++
		} else {
			c.Automatic++
		}
	}
	return c
}
