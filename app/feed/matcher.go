package feed

// Matcher finds the items that share a channel key with a source item.
type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Run returns the positions in items whose channel key equals key, in order.
// It scans linearly and keeps no state between calls, so every lookup sees
// the list exactly as it is at that moment.
func (m *Matcher) Run(items []*Item, key ChannelKey) []int {
	var positions []int
	for i, item := range items {
		if item.Channel == key {
			positions = append(positions, i)
		}
	}
	return positions
}

// Index groups item IDs by channel key.
func (m *Matcher) Index(items []*Item) map[ChannelKey][]int {
	index := make(map[ChannelKey][]int)
	for _, item := range items {
		index[item.Channel] = append(index[item.Channel], item.ID)
	}
	return index
}
