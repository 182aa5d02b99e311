package feed

import (
	"encoding/xml"
	"log/slog"
	"slices"
	"sort"
)

type MergeResult struct {
	Items []*Item

	Replaced   int // target items discarded in favour of a source copy
	Added      int // source items that matched nothing
	Duplicated int // extra copies made because a key matched more than once
}

// Merger reconciles source items into a target document by channel key.
type Merger struct {
	matcher *Matcher
}

func NewMerger(matcher *Matcher) *Merger {
	return &Merger{matcher: matcher}
}

// Run builds the merged item list. The source document is never modified;
// every item taken from it is an independent copy owned by target.
//
// Each source item is matched against the list as it stands after the
// previous source items were applied. Every match is removed and replaced by
// its own copy of the source item, appended at the end. A key that occurs N
// times in the target therefore yields N copies.
func (m *Merger) Run(target, source *Document) *MergeResult {
	for key, ids := range m.matcher.Index(target.Items) {
		if len(ids) > 1 {
			slog.Warn("Target has several items for one channel, merge will duplicate the source item",
				"channel", key.String(), "count", len(ids))
		}
	}

	result := &MergeResult{}
	current := slices.Clone(target.Items)

	for _, src := range source.Items {
		matches := m.matcher.Run(current, src.Channel)

		if len(matches) == 0 {
			slog.Debug("No matching item found, adding new item", "channel", src.Channel.String())
			current = append(current, target.adopt(src))
			result.Added++
			continue
		}

		slog.Debug("Replacing items", "channel", src.Channel.String(), "matches", len(matches))

		current = removeAt(current, matches)
		for range matches {
			current = append(current, target.adopt(src))
		}

		result.Replaced += len(matches)
		result.Duplicated += len(matches) - 1
	}

	result.Items = current

	return result
}

func removeAt(items []*Item, positions []int) []*Item {
	kept := make([]*Item, 0, len(items)-len(positions))
	next := 0
	for i, item := range items {
		if next < len(positions) && positions[next] == i {
			next++
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// adopt copies an item from another document into d. Prefixes the copy
// relies on that d's channel scope binds differently (or not at all) are
// declared on the copied <item> element.
func (d *Document) adopt(it *Item) *Item {
	c := it.Clone(d.newID())

	missing := make(map[string]string)
	collectUnbound(c.Element, nil, it.scope, d.scope, missing)

	prefixes := make([]string, 0, len(missing))
	for prefix := range missing {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	for _, prefix := range prefixes {
		name := xml.Name{Space: "xmlns", Local: prefix}
		if prefix == "" {
			name = xml.Name{Local: "xmlns"}
		}
		c.Element.Attrs = append(c.Element.Attrs, xml.Attr{Name: name, Value: missing[prefix]})
	}

	c.scope = d.scope
	return c
}

func collectUnbound(n *Node, declared map[string]bool, from, to map[string]string, missing map[string]string) {
	if n.Kind != ElementNode {
		return
	}

	local := declared
	copied := false
	for _, attr := range n.Attrs {
		prefix, ok := declaredPrefix(attr)
		if !ok {
			continue
		}
		if !copied {
			local = make(map[string]bool, len(declared)+1)
			for k := range declared {
				local[k] = true
			}
			copied = true
		}
		local[prefix] = true
	}

	check := func(prefix string) {
		if local[prefix] || prefix == "xml" || prefix == "xmlns" {
			return
		}
		src, srcBound := from[prefix]
		dst := to[prefix]
		if prefix != "" && !srcBound {
			return
		}
		if src != dst {
			missing[prefix] = src
		}
	}

	check(n.Name.Space)
	for _, attr := range n.Attrs {
		if _, ok := declaredPrefix(attr); ok || attr.Name.Space == "" {
			continue
		}
		check(attr.Name.Space)
	}

	for _, child := range n.Children {
		collectUnbound(child, local, from, to, missing)
	}
}

func declaredPrefix(attr xml.Attr) (string, bool) {
	switch {
	case attr.Name.Space == "xmlns":
		return attr.Name.Local, true
	case attr.Name.Space == "" && attr.Name.Local == "xmlns":
		return "", true
	}
	return "", false
}
