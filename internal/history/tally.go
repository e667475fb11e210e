package history

import "github.com/vzahanych/emotion-stream/internal/emotion"

// Count is the number of occurrences of one label
type Count struct {
	Label emotion.Label `json:"label"`
	Count int           `json:"count"`
}

// Tally holds per-label counts in the order labels were first seen
type Tally []Count

// NewTally counts labels, keeping first-seen order
func NewTally(labels []emotion.Label) Tally {
	index := make(map[emotion.Label]int)
	tally := Tally{}
	for _, l := range labels {
		i, ok := index[l]
		if !ok {
			i = len(tally)
			index[l] = i
			tally = append(tally, Count{Label: l})
		}
		tally[i].Count++
	}
	return tally
}

// Total returns the sum of all counts
func (t Tally) Total() int {
	total := 0
	for _, c := range t {
		total += c.Count
	}
	return total
}

// Max returns the largest single count
func (t Tally) Max() int {
	max := 0
	for _, c := range t {
		if c.Count > max {
			max = c.Count
		}
	}
	return max
}

// Get returns the count for a label
func (t Tally) Get(label emotion.Label) int {
	for _, c := range t {
		if c.Label == label {
			return c.Count
		}
	}
	return 0
}
