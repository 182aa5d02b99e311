package feed

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newDatedItem(id int, date string) *Item {
	item := &Item{ID: id, Element: &Node{Kind: ElementNode}}
	if date != "" {
		t, err := time.Parse(DefaultDateLayout, date)
		if err != nil {
			panic(err)
		}
		item.Published = Timestamp{Time: t, Present: true}
	}
	return item
}

func itemIDs(items []*Item) []int {
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func TestSorterNewestFirst(t *testing.T) {
	items := []*Item{
		newDatedItem(1, jan05),
		newDatedItem(2, ""),
		newDatedItem(3, jan15),
		newDatedItem(4, jan01),
		newDatedItem(5, ""),
		newDatedItem(6, jan10),
	}

	sorted := NewSorter().Run(items)

	if diff := cmp.Diff([]int{3, 6, 1, 4, 2, 5}, itemIDs(sorted)); diff != "" {
		t.Errorf("Sorted order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5, 6}, itemIDs(items)); diff != "" {
		t.Errorf("Input slice was reordered (-want +got):\n%s", diff)
	}
}

func TestSorterKeepsTiesInOrder(t *testing.T) {
	items := []*Item{
		newDatedItem(1, jan05),
		newDatedItem(2, jan10),
		newDatedItem(3, jan05),
		newDatedItem(4, jan10),
	}

	sorted := NewSorter().Run(items)

	if diff := cmp.Diff([]int{2, 4, 1, 3}, itemIDs(sorted)); diff != "" {
		t.Errorf("Tie order mismatch (-want +got):\n%s", diff)
	}
}

func TestSorterComparesInstants(t *testing.T) {
	utc := newDatedItem(1, "Wed, 10 Jan 2024 12:00:00 +0000")
	// 11:00 UTC, written with an eastern offset
	earlier := newDatedItem(2, "Wed, 10 Jan 2024 14:00:00 +0300")

	sorted := NewSorter().Run([]*Item{earlier, utc})

	if sorted[0].ID != 1 {
		t.Errorf("Expected item 1 first, got %v", itemIDs(sorted))
	}
}

func TestSorterEmpty(t *testing.T) {
	if sorted := NewSorter().Run(nil); len(sorted) != 0 {
		t.Errorf("Expected empty result, got %d items", len(sorted))
	}
}

func TestTimestampCompare(t *testing.T) {
	early := newDatedItem(0, jan01).Published
	late := newDatedItem(0, jan10).Published

	tests := []struct {
		name string
		a, b Timestamp
		want int
	}{
		{"both missing", MissingTimestamp, MissingTimestamp, 0},
		{"missing before present", MissingTimestamp, early, -1},
		{"present after missing", early, MissingTimestamp, 1},
		{"earlier", early, late, -1},
		{"later", late, early, 1},
		{"equal", late, late, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}
