// Package classify turns noisy recognized text into categorical answers
// using ordered rules.
package classify

import "sort"

// Rule labels text when Match accepts it. Higher priorities are checked first.
type Rule[L any] struct {
	Priority int
	Match    func(text string) bool
	Label    L
}

type Classifier[L any] struct {
	rules []Rule[L]
}

// New orders rules by descending priority; rules sharing a priority keep
// their declared order.
func New[L any](rules ...Rule[L]) *Classifier[L] {
	sorted := make([]Rule[L], len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return &Classifier[L]{rules: sorted}
}

// Classify returns the label of the first matching rule.
func (c *Classifier[L]) Classify(text string) (L, bool) {
	for _, r := range c.rules {
		if r.Match(text) {
			return r.Label, true
		}
	}
	var zero L
	return zero, false
}
