package diff

import (
	"fmt"
	"strings"
)

// Kind categorizes one reported difference.
type Kind string

const (
	// KindMissingEntry: present in the reference only. At entry level this
	// names a whole package entry; at node level, a child element the
	// candidate lacks.
	KindMissingEntry Kind = "MISSING_ENTRY"

	// KindExtraEntry: present in the candidate only.
	KindExtraEntry Kind = "EXTRA_ENTRY"

	// KindElementMismatch: element names or node shapes diverge at a
	// position.
	KindElementMismatch Kind = "ELEMENT_MISMATCH"

	// KindAttributeMismatch: attribute sets or values diverge on an
	// element.
	KindAttributeMismatch Kind = "ATTRIBUTE_MISMATCH"

	// KindTextMismatch: text content diverges at a position.
	KindTextMismatch Kind = "TEXT_MISMATCH"

	// KindSetMembership: a record key exists on only one side of a
	// set-mode comparison.
	KindSetMembership Kind = "SET_MEMBERSHIP_MISMATCH"

	// KindMalformedXML: an entry claimed to be XML but failed to parse on
	// one side. Reported as a mismatch so one bad part does not abort the
	// rest of the comparison.
	KindMalformedXML Kind = "MALFORMED_XML"

	// KindBinaryMismatch: raw bytes of a binary asset differ.
	KindBinaryMismatch Kind = "BINARY_MISMATCH"
)

// Step is one element along a structural path: a local name plus the
// element's ordinal among its element siblings.
type Step struct {
	Name  string
	Index int
}

// Path locates an element inside an entry. The root element carries no
// index (there is only one).
type Path []Step

func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, s := range p {
		if i == 0 {
			sb.WriteString(s.Name)
			continue
		}
		fmt.Fprintf(&sb, "/%s[%d]", s.Name, s.Index)
	}
	return sb.String()
}

// child extends a path. Always copies, so sibling paths never alias.
func (p Path) child(name string, index int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = Step{Name: name, Index: index}
	return out
}

// Mismatch is one localized difference between candidate and reference.
//
// Expected holds the reference side's value, Actual the candidate's. For
// one-sided findings (missing entries, set membership) the absent side is
// empty.
type Mismatch struct {
	Entry    string `json:"entry"`
	Path     Path   `json:"-"`
	PathStr  string `json:"path,omitempty"`
	Attr     string `json:"attr,omitempty"`
	Kind     Kind   `json:"kind"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

func (m Mismatch) String() string {
	loc := m.Entry
	if len(m.Path) > 0 {
		loc += " " + m.Path.String()
	}
	if m.Attr != "" {
		loc += " @" + m.Attr
	}
	return fmt.Sprintf("%s: %s: expected %q, got %q", m.Kind, loc, m.Expected, m.Actual)
}

// withPathStr fills the serialized path for JSON output.
func (m Mismatch) withPathStr() Mismatch {
	m.PathStr = m.Path.String()
	return m
}
