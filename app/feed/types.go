package feed

import (
	"encoding/xml"
	"strings"
	"time"
)

type NodeKind int

const (
	ElementNode NodeKind = iota
	TextNode
	CDATANode
	CommentNode
	ProcInstNode
	DirectiveNode
	// PayloadNode holds raw release notes. It is written as CDATA and never
	// goes through the text escaper.
	PayloadNode
)

// Node is one piece of a loaded document. Element names and attributes keep
// the prefixes they were written with; NS holds the namespace URI the prefix
// resolved to at load time and is never serialized.
type Node struct {
	Kind     NodeKind
	Name     xml.Name // Space is the raw prefix
	NS       string
	Attrs    []xml.Attr
	Children []*Node
	Data     []byte // text, CDATA, payload, comment, directive or PI instruction
	Target   string // PI target
}

func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	c := &Node{
		Kind:   n.Kind,
		Name:   n.Name,
		NS:     n.NS,
		Target: n.Target,
	}
	if n.Attrs != nil {
		c.Attrs = make([]xml.Attr, len(n.Attrs))
		copy(c.Attrs, n.Attrs)
	}
	if n.Data != nil {
		c.Data = append([]byte(nil), n.Data...)
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// QName returns the element name as written, e.g. "sparkle:channel".
func (n *Node) QName() string {
	if n.Name.Space == "" {
		return n.Name.Local
	}
	return n.Name.Space + ":" + n.Name.Local
}

func (n *Node) Is(ns, local string) bool {
	return n.Kind == ElementNode && n.NS == ns && n.Name.Local == local
}

// Text concatenates the character data of the node's direct children.
func (n *Node) Text() string {
	var sb strings.Builder
	for _, child := range n.Children {
		if child.Kind == TextNode || child.Kind == CDATANode {
			sb.Write(child.Data)
		}
	}
	return sb.String()
}

func (n *Node) hasElementChildren() bool {
	for _, child := range n.Children {
		if child.Kind == ElementNode {
			return true
		}
	}
	return false
}

// ChannelKey identifies the release track of an item. The zero value is
// NoChannel, which never equals a present key, not even the empty string.
type ChannelKey struct {
	Value   string
	Present bool
}

var NoChannel = ChannelKey{}

func NewChannelKey(value string) ChannelKey {
	return ChannelKey{Value: strings.TrimSpace(value), Present: true}
}

func (k ChannelKey) String() string {
	if !k.Present {
		return "<no channel>"
	}
	return k.Value
}

// Timestamp is an item's publish date. A missing date sorts as older than
// every present one.
type Timestamp struct {
	Time    time.Time
	Present bool
}

var MissingTimestamp = Timestamp{}

// Compare returns -1, 0 or +1 like time.Time.Compare, with missing dates
// ordered before all present dates.
func (t Timestamp) Compare(o Timestamp) int {
	switch {
	case !t.Present && !o.Present:
		return 0
	case !t.Present:
		return -1
	case !o.Present:
		return 1
	}
	return t.Time.Compare(o.Time)
}

// Item is one release entry. Element holds the full <item> subtree with the
// release notes captured into a PayloadNode.
type Item struct {
	ID        int
	Element   *Node
	Channel   ChannelKey
	Published Timestamp

	// prefix -> namespace URI bindings inherited from the item's ancestors
	scope map[string]string
}

// Clone returns an independent deep copy with the given arena ID.
func (it *Item) Clone(id int) *Item {
	return &Item{
		ID:        id,
		Element:   it.Element.Clone(),
		Channel:   it.Channel,
		Published: it.Published,
		scope:     it.scope,
	}
}

// Notes returns the captured release-notes payload, if any.
func (it *Item) Notes() ([]byte, bool) {
	for _, child := range it.Element.Children {
		if child.Kind != ElementNode {
			continue
		}
		if len(child.Children) == 1 && child.Children[0].Kind == PayloadNode {
			return child.Children[0].Data, true
		}
	}
	return nil, false
}

// Document is a loaded appcast. Items are detached from the channel
// element; Channel.Children holds only the feed-level metadata.
type Document struct {
	Path    string
	Prolog  []*Node
	Root    *Node
	Channel *Node
	Items   []*Item
	Epilog  []*Node

	// bindings in scope at the channel element
	scope  map[string]string
	nextID int
}

func (d *Document) newID() int {
	d.nextID++
	return d.nextID
}
