package xmltree

import "strings"

// Name is a namespace-resolved qualified name.
// Space is the namespace URI (not the prefix), empty for unqualified names.
type Name struct {
	Space string
	Local string
}

// String renders the name as "{uri}local", or just "local" when unqualified.
func (n Name) String() string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// Less orders names by (space, local). Used for deterministic attribute
// ordering in canonical trees.
func (n Name) Less(other Name) bool {
	if n.Space != other.Space {
		return n.Space < other.Space
	}
	return n.Local < other.Local
}

// Attr is one resolved attribute.
type Attr struct {
	Name  Name
	Value string
}

// Node is one node in a parsed XML tree: either an element or a text node.
//
// An element has a non-empty Name, attributes, and ordered children.
// A text node has a zero Name and carries its content in Text.
type Node struct {
	Name     Name
	Attrs    []Attr
	Children []*Node
	Text     string
}

// IsText reports whether the node is a text node.
func (n *Node) IsText() bool {
	return n.Name == Name{}
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name Name) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// TextContent returns the concatenated text of the node and all its
// descendants, in document order. For a text node this is just Text.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

// ElementChildren returns only the element children, skipping text nodes.
func (n *Node) ElementChildren() []*Node {
	var elems []*Node
	for _, c := range n.Children {
		if !c.IsText() {
			elems = append(elems, c)
		}
	}
	return elems
}
