package xmltree

import (
	"bytes"
	"strconv"
)

// MarshalCanonical serializes a canonical tree to a deterministic byte
// form. Equal canonical trees always marshal to identical bytes, so the
// output doubles as a content key for set-mode comparison and as stable
// golden-file material.
//
// The format is compact and unambiguous, not XML:
//
//	{uri}local[{uri}name="value",...](child child ...)
//
// Attribute lists and child lists are omitted when empty; text nodes are
// Go-quoted strings. Attributes are already sorted in a canonical tree, so
// no ordering work happens here.
func MarshalCanonical(n *Node) []byte {
	var buf bytes.Buffer
	marshalNode(&buf, n)
	return buf.Bytes()
}

func marshalNode(buf *bytes.Buffer, n *Node) {
	if n.IsText() {
		buf.WriteString(strconv.Quote(n.Text))
		return
	}

	buf.WriteString(n.Name.String())

	if len(n.Attrs) > 0 {
		buf.WriteByte('[')
		for i, a := range n.Attrs {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(a.Name.String())
			buf.WriteByte('=')
			buf.WriteString(strconv.Quote(a.Value))
		}
		buf.WriteByte(']')
	}

	if len(n.Children) > 0 {
		buf.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				buf.WriteByte(' ')
			}
			marshalNode(buf, c)
		}
		buf.WriteByte(')')
	}
}

// Equal reports whether two canonical trees are identical.
// Both inputs must already be canonicalized.
func Equal(a, b *Node) bool {
	return bytes.Equal(MarshalCanonical(a), MarshalCanonical(b))
}
