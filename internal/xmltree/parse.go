package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedXML indicates an entry claimed to be XML but failed to parse.
var ErrMalformedXML = errors.New("malformed xml")

// MalformedError wraps a parse failure with the underlying decoder error.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed xml: %v", e.Err)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformedXML
}

// Parse decodes one XML document into a node tree.
//
// Namespace prefixes are resolved during decoding: every element and
// attribute Name carries the namespace URI, never the prefix spelling.
// Namespace declaration attributes (xmlns, xmlns:*) are dropped - they are
// serialization plumbing, not content.
//
// Comments, processing instructions, and directives are discarded.
// Returns a MalformedError (unwrapping to ErrMalformedXML) if the document
// is not well-formed or has no root element.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &MalformedError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{
				Name:  Name{Space: t.Name.Space, Local: t.Name.Local},
				Attrs: resolveAttrs(t.Attr),
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, &MalformedError{Err: fmt.Errorf("multiple root elements")}
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, &MalformedError{Err: fmt.Errorf("unexpected end element %s", t.Name.Local)}
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue // whitespace outside the root element
			}
			parent := stack[len(stack)-1]
			// Merge adjacent character data (entity boundaries, CDATA).
			if n := len(parent.Children); n > 0 && parent.Children[n-1].IsText() {
				parent.Children[n-1].Text += string(t)
			} else {
				parent.Children = append(parent.Children, &Node{Text: string(t)})
			}
		}
	}

	if len(stack) != 0 {
		return nil, &MalformedError{Err: fmt.Errorf("unclosed element %s", stack[len(stack)-1].Name.Local)}
	}
	if root == nil {
		return nil, &MalformedError{Err: fmt.Errorf("no root element")}
	}
	return root, nil
}

// resolveAttrs converts decoder attributes, dropping namespace declarations.
//
// encoding/xml reports xmlns:foo="uri" with Space "xmlns" and a bare
// xmlns="uri" with Local "xmlns". Both only affect prefix resolution, which
// the decoder has already applied.
func resolveAttrs(attrs []xml.Attr) []Attr {
	var out []Attr
	for _, a := range attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		out = append(out, Attr{
			Name:  Name{Space: a.Name.Space, Local: a.Name.Local},
			Value: a.Value,
		})
	}
	return out
}
