package xmltree

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// xmlSpace is the xml:space attribute, the only prefix with a fixed URI.
var xmlSpace = Name{Space: "http://www.w3.org/XML/1998/namespace", Local: "space"}

// numericText matches decimal floating-point text. Deliberately narrower
// than strconv.ParseFloat, which also accepts "Inf", "NaN" and hex floats -
// none of which are numeric cell content.
var numericText = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Canonicalize returns a normalized copy of the tree.
//
// The input is never mutated. The result is stable: canonicalizing a
// canonical tree returns an equal tree. Child element order is preserved.
func Canonicalize(n *Node) *Node {
	return canonicalize(n, false)
}

func canonicalize(n *Node, preserveSpace bool) *Node {
	if n.IsText() {
		return &Node{Text: canonicalText(n.Text, preserveSpace)}
	}

	// xml:space scopes to the subtree until overridden.
	if v, ok := n.Attr(xmlSpace); ok {
		preserveSpace = v == "preserve"
	}

	out := &Node{Name: n.Name}

	if len(n.Attrs) > 0 {
		out.Attrs = make([]Attr, len(n.Attrs))
		for i, a := range n.Attrs {
			out.Attrs[i] = Attr{Name: a.Name, Value: norm.NFC.String(a.Value)}
		}
		sort.Slice(out.Attrs, func(i, j int) bool {
			return out.Attrs[i].Name.Less(out.Attrs[j].Name)
		})
	}

	for _, c := range n.Children {
		cc := canonicalize(c, preserveSpace)
		if cc.IsText() && cc.Text == "" {
			continue // whitespace-only text collapses to nothing
		}
		out.Children = append(out.Children, cc)
	}

	return out
}

// canonicalText normalizes one text run.
//
// NFC first, then whitespace handling, then numeric normalization. Numeric
// normalization applies even under xml:space="preserve": "1.0" and "1" are
// the same number no matter how the producer spells it.
func canonicalText(s string, preserveSpace bool) string {
	s = norm.NFC.String(s)
	if !preserveSpace {
		s = strings.Join(strings.Fields(s), " ")
	}
	if t := strings.TrimSpace(s); numericText.MatchString(t) {
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
	}
	return s
}

// CanonicalNumber reports whether both strings are canonical-equal numeric
// text within the given tolerance. A tolerance of 0 means exact equality
// after canonicalization.
func CanonicalNumber(a, b string, tolerance float64) bool {
	fa, errA := parseNumeric(a)
	fb, errB := parseNumeric(b)
	if errA != nil || errB != nil {
		return false
	}
	d := fa - fb
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

func parseNumeric(s string) (float64, error) {
	t := strings.TrimSpace(s)
	if !numericText.MatchString(t) {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(t, 64)
}
