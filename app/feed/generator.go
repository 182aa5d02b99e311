package feed

import (
	"bytes"
	"fmt"
	"strings"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\r", "&#xD;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\n", "&#xA;",
		"\r", "&#xD;",
		"\t", "&#x9;",
	)
	cdataClose      = []byte("]]>")
	cdataCloseSplit = []byte("]]]]><![CDATA[>")
	cdataCR         = []byte("\r")
	cdataCRSplit    = []byte("]]>&#xD;<![CDATA[")
)

// Generator writes a Document as the published appcast. It emits the final
// layout directly: one indent unit per level, no blank lines, and release
// notes as an indented CDATA block.
type Generator struct {
	indent string
}

func NewGenerator(profile Profile) *Generator {
	return &Generator{indent: profile.Indent}
}

func (g *Generator) Run(doc *Document) ([]byte, error) {
	if doc.Root == nil || doc.Channel == nil {
		return nil, fmt.Errorf("document has no rss channel to write")
	}

	w := &docWriter{indent: g.indent, doc: doc}

	w.buf.WriteString(xmlDeclaration)
	w.buf.WriteByte('\n')

	for _, n := range doc.Prolog {
		w.writeNode(n, 0)
	}
	w.writeBlock(doc.Root, 0)
	for _, n := range doc.Epilog {
		w.writeNode(n, 0)
	}

	return bytes.TrimSuffix(w.buf.Bytes(), []byte("\n")), nil
}

type docWriter struct {
	buf    bytes.Buffer
	indent string
	doc    *Document
}

func (w *docWriter) pad(depth int) {
	for i := 0; i < depth; i++ {
		w.buf.WriteString(w.indent)
	}
}

func (w *docWriter) writeNode(n *Node, depth int) {
	switch n.Kind {
	case ElementNode:
		switch {
		case n == w.doc.Channel:
			w.writeBlock(n, depth)
		case len(n.Children) == 0:
			w.pad(depth)
			w.openTag(n, true)
			w.buf.WriteByte('\n')
		case len(n.Children) == 1 && n.Children[0].Kind == PayloadNode:
			w.writePayloadBlock(n, depth)
		case isInline(n):
			w.pad(depth)
			w.writeInline(n)
			w.buf.WriteByte('\n')
		default:
			w.writeBlock(n, depth)
		}

	case TextNode:
		// Surrounding whitespace is layout in block context.
		text := bytes.TrimSpace(n.Data)
		if len(text) == 0 {
			return
		}
		w.pad(depth)
		w.buf.WriteString(textEscaper.Replace(string(text)))
		w.buf.WriteByte('\n')

	default:
		w.pad(depth)
		w.writeInline(n)
		w.buf.WriteByte('\n')
	}
}

// writeBlock puts every child on its own indented line. The channel element
// is followed by the document's items.
func (w *docWriter) writeBlock(n *Node, depth int) {
	w.pad(depth)
	w.openTag(n, false)
	w.buf.WriteByte('\n')

	for _, child := range n.Children {
		w.writeNode(child, depth+1)
	}
	if n == w.doc.Channel {
		for _, item := range w.doc.Items {
			w.writeBlock(item.Element, depth+1)
		}
	}

	w.pad(depth)
	w.closeTag(n)
	w.buf.WriteByte('\n')
}

func (w *docWriter) writePayloadBlock(n *Node, depth int) {
	w.pad(depth)
	w.openTag(n, false)
	w.buf.WriteByte('\n')

	w.pad(depth + 1)
	writeCDATA(&w.buf, n.Children[0].Data)
	w.buf.WriteByte('\n')

	w.pad(depth)
	w.closeTag(n)
	w.buf.WriteByte('\n')
}

// writeInline writes a node exactly as loaded, without layout.
func (w *docWriter) writeInline(n *Node) {
	switch n.Kind {
	case ElementNode:
		if len(n.Children) == 0 {
			w.openTag(n, true)
			return
		}
		w.openTag(n, false)
		for _, child := range n.Children {
			w.writeInline(child)
		}
		w.closeTag(n)
	case TextNode:
		w.buf.WriteString(textEscaper.Replace(string(n.Data)))
	case CDATANode, PayloadNode:
		writeCDATA(&w.buf, n.Data)
	case CommentNode:
		w.buf.WriteString("<!--")
		w.buf.Write(n.Data)
		w.buf.WriteString("-->")
	case ProcInstNode:
		w.buf.WriteString("<?")
		w.buf.WriteString(n.Target)
		if len(n.Data) > 0 {
			w.buf.WriteByte(' ')
			w.buf.Write(n.Data)
		}
		w.buf.WriteString("?>")
	case DirectiveNode:
		w.buf.WriteString("<!")
		w.buf.Write(n.Data)
		w.buf.WriteString(">")
	}
}

func (w *docWriter) openTag(n *Node, selfClose bool) {
	w.buf.WriteByte('<')
	w.buf.WriteString(n.QName())
	for _, attr := range n.Attrs {
		w.buf.WriteByte(' ')
		if attr.Name.Space != "" {
			w.buf.WriteString(attr.Name.Space)
			w.buf.WriteByte(':')
		}
		w.buf.WriteString(attr.Name.Local)
		w.buf.WriteString(`="`)
		w.buf.WriteString(attrEscaper.Replace(attr.Value))
		w.buf.WriteByte('"')
	}
	if selfClose {
		w.buf.WriteString("/>")
		return
	}
	w.buf.WriteByte('>')
}

func (w *docWriter) closeTag(n *Node) {
	w.buf.WriteString("</")
	w.buf.WriteString(n.QName())
	w.buf.WriteByte('>')
}

// writeCDATA never escapes data. A "]]>" inside it is split across two
// sections, and a carriage return is written as a character reference
// between sections, since end-of-line handling would turn a raw one into a
// line feed. The concatenated content reads back unchanged.
func writeCDATA(buf *bytes.Buffer, data []byte) {
	data = bytes.ReplaceAll(data, cdataClose, cdataCloseSplit)
	data = bytes.ReplaceAll(data, cdataCR, cdataCRSplit)

	buf.WriteString("<![CDATA[")
	buf.Write(data)
	buf.WriteString("]]>")
}

// isInline reports whether an element must be written as a single run:
// it has text content, alone or mixed with child elements.
func isInline(n *Node) bool {
	structural := false
	for _, child := range n.Children {
		switch child.Kind {
		case CDATANode, PayloadNode:
			return true
		case TextNode:
			if !isBlank(child.Data) {
				return true
			}
		default:
			structural = true
		}
	}
	return !structural
}
