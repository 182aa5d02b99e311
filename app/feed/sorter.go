package feed

import (
	"slices"
)

// Sorter orders items newest first. Items with equal timestamps, including
// any two without one, keep their relative order.
type Sorter struct{}

func NewSorter() *Sorter {
	return &Sorter{}
}

func (s *Sorter) Run(items []*Item) []*Item {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b *Item) int {
		return b.Published.Compare(a.Published)
	})
	return sorted
}
