package rules

import (
	"fmt"
	"path"
	"strings"

	"xlsxcmp/internal/xmltree"
)

// Action says what to do with a matched target.
type Action string

const (
	// ActionSkip removes the matched entry, element subtree, or attribute
	// from comparison entirely.
	ActionSkip Action = "skip"

	// ActionSet compares the matched element's children as a keyed set
	// instead of a positional sequence.
	ActionSet Action = "set"
)

// KeyKind selects the set-membership key extractor.
type KeyKind string

const (
	// KeyText keys a record by its normalized text content. Right for
	// shared-string entries, where the string itself is the identity.
	KeyText KeyKind = "text"

	// KeyCanonical keys a record by its full canonical serialization.
	// Right for style and relationship records, which have no natural
	// single-field identity.
	KeyCanonical KeyKind = "canonical"
)

// Rule is one declarative comparison exception.
//
// Targeting, from coarse to fine:
//   - Entry alone: the whole package entry is skipped.
//   - Entry+Element, ActionSkip: the element subtree is removed.
//   - Entry+Element, ActionSet: the element's children compare as a set.
//   - Entry+Element+Attr: the attribute is removed from that element.
//
// Entry is a glob: patterns without a slash match the entry's base name
// (so "*.rels" catches relationship parts at any depth), patterns with a
// slash match the full path, and ""/"*" match everything. Element is a
// slash-joined sequence of local names matched against the tail of the
// element path; "*" matches any one segment. Namespace URIs are not part
// of rule targeting - prefixes are producer-volatile and local names are
// unambiguous in practice for spreadsheet parts.
type Rule struct {
	Entry   string
	Element string
	Attr    string
	Action  Action
	Key     KeyKind
}

func (r Rule) validate() error {
	switch r.Action {
	case ActionSkip:
		if r.Key != "" {
			return fmt.Errorf("key %q only applies to set rules", r.Key)
		}
	case ActionSet:
		if r.Element == "" {
			return fmt.Errorf("set rule requires an element")
		}
		if r.Attr != "" {
			return fmt.Errorf("set rule cannot target an attribute")
		}
		if r.Key != KeyText && r.Key != KeyCanonical {
			return fmt.Errorf("set rule requires key %q or %q", KeyText, KeyCanonical)
		}
	default:
		return fmt.Errorf("unknown action %q", r.Action)
	}
	if r.Attr != "" && r.Element == "" {
		return fmt.Errorf("attribute rule requires an element")
	}
	return nil
}

// Mode is the comparison mode the differ should use for an element's
// children.
type Mode struct {
	// AsSet selects keyed-set comparison. False means positional sequence,
	// the default everywhere.
	AsSet bool
	Key   KeyKind
}

// KeyOf extracts the set-membership key from a canonical node.
func (m Mode) KeyOf(n *xmltree.Node) string {
	if m.Key == KeyText {
		return n.TextContent()
	}
	return string(xmltree.MarshalCanonical(n))
}

// Set is an immutable, ordered rule collection.
type Set struct {
	rules []Rule
}

// NewSet builds a rule set, validating every rule.
func NewSet(rules ...Rule) (*Set, error) {
	for i, r := range rules {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return &Set{rules: rules}, nil
}

// Merge returns a new set that consults extra rules before s's own.
// Used for per-test-case additions; s itself is never mutated.
func (s *Set) Merge(extra *Set) *Set {
	if extra == nil || len(extra.rules) == 0 {
		return s
	}
	merged := make([]Rule, 0, len(extra.rules)+len(s.rules))
	merged = append(merged, extra.rules...)
	merged = append(merged, s.rules...)
	return &Set{rules: merged}
}

// Len returns the number of rules.
func (s *Set) Len() int {
	return len(s.rules)
}

// Rules returns a copy of the rule list, for display.
func (s *Set) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// SkipEntry reports whether the whole entry is excluded from comparison.
func (s *Set) SkipEntry(entry string) bool {
	for _, r := range s.rules {
		if r.Action == ActionSkip && r.Element == "" && r.Attr == "" && matchEntry(r.Entry, entry) {
			return true
		}
	}
	return false
}

// Classify returns the comparison mode for the children of the element at
// elemPath within entry. First matching set rule wins; no match means
// sequence mode.
func (s *Set) Classify(entry string, elemPath []string) Mode {
	for _, r := range s.rules {
		if r.Action != ActionSet {
			continue
		}
		if matchEntry(r.Entry, entry) && matchElement(r.Element, elemPath) {
			return Mode{AsSet: true, Key: r.Key}
		}
	}
	return Mode{}
}

// Filter returns a copy of the canonical tree with ignored subtrees and
// attributes removed. The input tree is not mutated.
func (s *Set) Filter(entry string, root *xmltree.Node) *xmltree.Node {
	return s.filterNode(entry, root, []string{root.Name.Local})
}

func (s *Set) filterNode(entry string, n *xmltree.Node, elemPath []string) *xmltree.Node {
	out := &xmltree.Node{Name: n.Name, Text: n.Text}

	for _, a := range n.Attrs {
		if s.skipAttr(entry, elemPath, a.Name.Local) {
			continue
		}
		out.Attrs = append(out.Attrs, a)
	}

	for _, c := range n.Children {
		if c.IsText() {
			out.Children = append(out.Children, c)
			continue
		}
		childPath := make([]string, len(elemPath)+1)
		copy(childPath, elemPath)
		childPath[len(elemPath)] = c.Name.Local
		if s.skipElement(entry, childPath) {
			continue
		}
		out.Children = append(out.Children, s.filterNode(entry, c, childPath))
	}

	return out
}

func (s *Set) skipElement(entry string, elemPath []string) bool {
	for _, r := range s.rules {
		if r.Action != ActionSkip || r.Element == "" || r.Attr != "" {
			continue
		}
		if matchEntry(r.Entry, entry) && matchElement(r.Element, elemPath) {
			return true
		}
	}
	return false
}

func (s *Set) skipAttr(entry string, elemPath []string, attr string) bool {
	for _, r := range s.rules {
		if r.Action != ActionSkip || r.Attr == "" {
			continue
		}
		if r.Attr != attr {
			continue
		}
		if matchEntry(r.Entry, entry) && matchElement(r.Element, elemPath) {
			return true
		}
	}
	return false
}

// matchEntry matches an entry-path glob.
//
// Literal equality is checked before glob interpretation: OOXML entry
// names like "[Content_Types].xml" contain glob metacharacters and must
// match themselves.
func matchEntry(pattern, entry string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	if pattern == entry || pattern == path.Base(entry) {
		return true
	}
	if !strings.Contains(pattern, "/") {
		ok, err := path.Match(pattern, path.Base(entry))
		return err == nil && ok
	}
	ok, err := path.Match(pattern, entry)
	return err == nil && ok
}

// matchElement matches a slash-joined local-name pattern against the tail
// of an element path. A single-segment pattern therefore matches the
// element anywhere in the tree; a multi-segment pattern pins its ancestry.
func matchElement(pattern string, elemPath []string) bool {
	if pattern == "" {
		return false
	}
	segs := strings.Split(pattern, "/")
	if len(segs) > len(elemPath) {
		return false
	}
	tail := elemPath[len(elemPath)-len(segs):]
	for i, seg := range segs {
		if seg != "*" && seg != tail[i] {
			return false
		}
	}
	return true
}
