package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"

	apperrors "github.com/lysyi3m/appcast-comb/app/errors"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

var (
	utf8BOM         = []byte{0xEF, 0xBB, 0xBF}
	cdataOpen       = []byte("<![CDATA[")
	declEncodingRe  = regexp.MustCompile(`^\s*<\?xml[^>]*?\sencoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)
	passthroughUTF8 = func(label string, input io.Reader) (io.Reader, error) { return input, nil }
)

// Parser loads appcast documents into the node model. It resolves the
// channel, date and release-notes elements of every item using its Profile.
type Parser struct {
	profile Profile
}

func NewParser(profile Profile) *Parser {
	return &Parser{profile: profile}
}

// LoadFile reads and parses the document at path.
func (p *Parser) LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewNotFoundError("", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := p.parse(path, data)
	if err != nil {
		return nil, err
	}

	slog.Debug("Document loaded", "path", path, "items", len(doc.Items), "bytes", len(data))

	return doc, nil
}

// Run parses an in-memory document.
func (p *Parser) Run(data []byte) (*Document, error) {
	return p.parse("", data)
}

func (p *Parser) parse(path string, data []byte) (*Document, error) {
	data, err := toUTF8(data)
	if err != nil {
		return nil, apperrors.NewParseError(path, 0, err)
	}

	if err := checkWellFormed(data); err != nil {
		return nil, apperrors.NewParseError(path, syntaxLine(err), err)
	}

	b := &treeBuilder{data: data, namespace: p.profile.Namespace}
	if err := b.build(); err != nil {
		return nil, apperrors.NewParseError(path, syntaxLine(err), err)
	}

	doc := &Document{
		Path:   path,
		Prolog: b.prolog,
		Root:   b.root,
		Epilog: b.epilog,
	}

	if doc.Root.QName() != "rss" {
		return nil, apperrors.NewStructureError(path, fmt.Sprintf("root element <rss>, found <%s>", doc.Root.QName()))
	}

	for _, child := range doc.Root.Children {
		if child.Kind == ElementNode && child.QName() == "channel" {
			doc.Channel = child
			break
		}
	}
	if doc.Channel == nil {
		return nil, apperrors.NewStructureError(path, "<channel> element under <rss>")
	}

	if !b.namespaceBound {
		return nil, apperrors.NewStructureError(path, fmt.Sprintf("namespace binding for %s", p.profile.Namespace))
	}

	doc.scope = b.scopes[doc.Channel]

	metadata := make([]*Node, 0, len(doc.Channel.Children))
	for _, child := range doc.Channel.Children {
		if child.Kind != ElementNode || child.QName() != "item" {
			metadata = append(metadata, child)
			continue
		}

		item, err := p.newItem(doc, child)
		if err != nil {
			return nil, apperrors.NewParseError(path, 0, err)
		}
		doc.Items = append(doc.Items, item)
	}
	doc.Channel.Children = metadata

	return doc, nil
}

func (p *Parser) newItem(doc *Document, el *Node) (*Item, error) {
	item := &Item{
		ID:      doc.newID(),
		Element: el,
		scope:   doc.scope,
	}

	var channelSeen, dateSeen, notesSeen bool
	for _, child := range el.Children {
		switch {
		case !channelSeen && child.Is(p.profile.Namespace, p.profile.ChannelElement):
			channelSeen = true
			item.Channel = NewChannelKey(child.Text())

		case !dateSeen && child.Is(p.profile.DateNamespace, p.profile.DateElement):
			dateSeen = true
			ts, err := p.parseTimestamp(child.Text())
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", item.ID, err)
			}
			item.Published = ts

		case !notesSeen && child.Is(p.profile.Namespace, p.profile.NotesElement):
			notesSeen = true
			capturePayload(child)
		}
	}

	return item, nil
}

func (p *Parser) parseTimestamp(text string) (Timestamp, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return MissingTimestamp, nil
	}

	t, err := time.Parse(p.profile.DateLayout, text)
	if err != nil {
		return MissingTimestamp, fmt.Errorf("invalid %s %q: %w", p.profile.DateElement, text, err)
	}

	return Timestamp{Time: t, Present: true}, nil
}

// capturePayload replaces the character data of a release-notes element with
// a single PayloadNode. Blank text around CDATA sections is layout and is
// dropped unless it holds a carriage return; everything else is kept byte
// for byte. Elements with child
// elements are left untouched.
func capturePayload(el *Node) {
	if el.hasElementChildren() {
		return
	}

	hasCDATA := false
	for _, child := range el.Children {
		if child.Kind == CDATANode {
			hasCDATA = true
			break
		}
	}

	var buf bytes.Buffer
	for _, child := range el.Children {
		switch child.Kind {
		case CDATANode:
			buf.Write(child.Data)
		case TextNode:
			// A raw CR never survives end-of-line handling, so one here
			// came from a character reference and is content.
			if hasCDATA && isBlank(child.Data) && !bytes.ContainsRune(child.Data, '\r') {
				continue
			}
			buf.Write(child.Data)
		}
	}

	if buf.Len() == 0 {
		el.Children = nil
		return
	}

	el.Children = []*Node{{Kind: PayloadNode, Data: buf.Bytes()}}
}

// toUTF8 converts documents that declare a non-UTF-8 encoding. The
// declaration itself is left alone; the decoder is told to pass input through.
func toUTF8(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	m := declEncodingRe.FindSubmatch(data)
	if m == nil {
		return data, nil
	}

	label := strings.ToLower(string(m[1]))
	if label == "utf-8" || label == "utf8" {
		return data, nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}

	converted, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s document: %w", label, err)
	}

	return converted, nil
}

func newDecoder(data []byte) *xml.Decoder {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = true
	d.CharsetReader = passthroughUTF8
	return d
}

// checkWellFormed runs the namespace-aware tokenizer over the whole document,
// which verifies tag nesting that RawToken does not.
func checkWellFormed(data []byte) error {
	d := newDecoder(data)
	for {
		_, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func syntaxLine(err error) int {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Line
	}
	return 0
}

type treeBuilder struct {
	data      []byte
	namespace string

	prolog []*Node
	root   *Node
	epilog []*Node

	scopes         map[*Node]map[string]string
	namespaceBound bool
}

type openElement struct {
	node  *Node
	scope map[string]string
}

func (b *treeBuilder) build() error {
	d := newDecoder(b.data)
	b.scopes = make(map[*Node]map[string]string)

	var stack []openElement
	rootScope := map[string]string{"xml": xmlNamespace}

	for {
		start := d.InputOffset()
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		end := d.InputOffset()

		var node *Node
		switch t := tok.(type) {
		case xml.StartElement:
			parentScope := rootScope
			if len(stack) > 0 {
				parentScope = stack[len(stack)-1].scope
			}
			scope := b.declare(parentScope, t.Attr)
			if err := checkPrefixes(t, scope); err != nil {
				return &xml.SyntaxError{Msg: err.Error(), Line: lineAt(b.data, start)}
			}

			el := &Node{
				Kind:  ElementNode,
				Name:  t.Name,
				NS:    scope[t.Name.Space],
				Attrs: append([]xml.Attr(nil), t.Attr...),
			}
			b.scopes[el] = scope

			if len(stack) == 0 {
				if b.root != nil {
					return fmt.Errorf("multiple root elements: <%s> after <%s>", el.QName(), b.root.QName())
				}
				b.root = el
			} else {
				parent := stack[len(stack)-1].node
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, openElement{node: el, scope: scope})
			continue

		case xml.EndElement:
			if len(stack) == 0 {
				return fmt.Errorf("unexpected </%s>", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
			continue

		case xml.CharData:
			kind := TextNode
			if end > start && bytes.HasPrefix(b.data[start:end], cdataOpen) {
				kind = CDATANode
			}
			if len(stack) == 0 {
				if kind == CDATANode || !isBlank(t) {
					return fmt.Errorf("character data outside the root element")
				}
				continue
			}
			node = &Node{Kind: kind, Data: t.Copy()}

		case xml.Comment:
			node = &Node{Kind: CommentNode, Data: t.Copy()}

		case xml.ProcInst:
			if t.Target == "xml" {
				continue
			}
			node = &Node{Kind: ProcInstNode, Target: t.Target, Data: t.Copy().Inst}

		case xml.Directive:
			node = &Node{Kind: DirectiveNode, Data: t.Copy()}

		default:
			continue
		}

		switch {
		case len(stack) > 0:
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, node)
		case b.root == nil:
			b.prolog = append(b.prolog, node)
		default:
			b.epilog = append(b.epilog, node)
		}
	}

	if b.root == nil {
		return fmt.Errorf("document has no root element")
	}

	return nil
}

// declare returns the scope for an element, copying the parent scope only
// when the element declares namespaces of its own.
func (b *treeBuilder) declare(parent map[string]string, attrs []xml.Attr) map[string]string {
	scope := parent
	copied := false

	for _, attr := range attrs {
		var prefix string
		switch {
		case attr.Name.Space == "xmlns":
			prefix = attr.Name.Local
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			prefix = ""
		default:
			continue
		}

		if !copied {
			scope = make(map[string]string, len(parent)+1)
			for k, v := range parent {
				scope[k] = v
			}
			copied = true
		}
		scope[prefix] = attr.Value

		if attr.Value == b.namespace {
			b.namespaceBound = true
		}
	}

	return scope
}

// checkPrefixes rejects element and attribute prefixes that no enclosing
// element declares.
func checkPrefixes(t xml.StartElement, scope map[string]string) error {
	if t.Name.Space != "" {
		if _, ok := scope[t.Name.Space]; !ok {
			return fmt.Errorf("undeclared namespace prefix %q on <%s:%s>", t.Name.Space, t.Name.Space, t.Name.Local)
		}
	}
	for _, attr := range t.Attr {
		if _, ok := declaredPrefix(attr); ok || attr.Name.Space == "" {
			continue
		}
		if _, ok := scope[attr.Name.Space]; !ok {
			return fmt.Errorf("undeclared namespace prefix %q on attribute %s:%s", attr.Name.Space, attr.Name.Space, attr.Name.Local)
		}
	}
	return nil
}

func lineAt(data []byte, offset int64) int {
	return bytes.Count(data[:offset], []byte("\n")) + 1
}

func isBlank(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}
