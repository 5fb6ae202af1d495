package stats

import "sort"

// counter tallies labels and remembers the order they were first seen, so
// ties rank by first appearance.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(label string) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

// ranked returns labels by descending count, ties in first-seen order.
func (c *counter) ranked() []LabelCount {
	out := c.ordered()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// ordered returns labels in first-seen order.
func (c *counter) ordered() []LabelCount {
	out := make([]LabelCount, 0, len(c.order))
	for _, label := range c.order {
		out = append(out, LabelCount{Label: label, Count: c.counts[label]})
	}
	return out
}
