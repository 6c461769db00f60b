package model

import "sort"

// CountTable maps class identifiers to annotation counts.
// It is rebuilt from scratch on every analysis and never persisted on its own.
type CountTable map[ClassID]int

// NewCountTable returns a table with a zero entry for every class.
func NewCountTable(classes ClassTable) CountTable {
	counts := make(CountTable, len(classes))
	for _, c := range classes {
		counts[c.ID] = 0
	}
	return counts
}

// Add increments the count for id by n.
func (c CountTable) Add(id ClassID, n int) {
	c[id] += n
}

// Merge adds every entry of other into c.
func (c CountTable) Merge(other CountTable) {
	for id, n := range other {
		c[id] += n
	}
}

// Total returns the sum of all counts.
func (c CountTable) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// IDs returns the identifiers present in the table in ascending order.
func (c CountTable) IDs() []ClassID {
	ids := make([]ClassID, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns a copy of the table.
func (c CountTable) Clone() CountTable {
	out := make(CountTable, len(c))
	for id, n := range c {
		out[id] = n
	}
	return out
}

// Percentage returns the share of id in the table, in percent.
// An empty table yields zero.
func (c CountTable) Percentage(id ClassID) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c[id]) / float64(total) * 100
}
