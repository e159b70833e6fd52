// Package diff walks two canonicalized XML trees and reports localized
// mismatches.
//
// The walk has two modes. Sequence mode (the default) compares children in
// positional lock-step: the first divergence at a node - tag, attribute
// set, or text - yields exactly one Mismatch and stops recursion into that
// subtree, but the walk continues across sibling subtrees, so one broken
// row never hides a broken cell three rows later. Set mode, selected by an
// ignore rule, matches children by an extracted key and reports membership
// differences; matched records are then compared in sequence mode.
package diff

import (
	"sort"

	"xlsxcmp/internal/rules"
	"xlsxcmp/internal/xmltree"
)

// Options configures a tree comparison.
type Options struct {
	// Classify returns the comparison mode for an element's children,
	// given the element's local-name path from the root. Nil means
	// sequence mode everywhere.
	Classify func(elemPath []string) rules.Mode

	// Tolerance is the numeric comparison window for text content.
	// Zero (the default) means exact equality after canonicalization.
	Tolerance float64
}

func (o Options) classify(elemPath []string) rules.Mode {
	if o.Classify == nil {
		return rules.Mode{}
	}
	return o.Classify(elemPath)
}

// Compare diffs two canonical trees for one entry. actual is the
// candidate's tree, expected the reference's.
func Compare(entry string, actual, expected *xmltree.Node, opts Options) []Mismatch {
	w := &walker{entry: entry, opts: opts}
	w.node(Path{{Name: expected.Name.Local}}, []string{expected.Name.Local}, actual, expected)
	return w.found
}

type walker struct {
	entry string
	opts  Options
	found []Mismatch
}

func (w *walker) report(m Mismatch) {
	m.Entry = w.entry
	w.found = append(w.found, m.withPathStr())
}

// node compares one element pair. Returns false if a mismatch was reported
// at this node, in which case the subtree below it was not descended.
func (w *walker) node(p Path, elemPath []string, actual, expected *xmltree.Node) bool {
	if actual.Name != expected.Name {
		w.report(Mismatch{
			Path:     p,
			Kind:     KindElementMismatch,
			Expected: expected.Name.String(),
			Actual:   actual.Name.String(),
		})
		return false
	}

	if ok := w.attrs(p, actual, expected); !ok {
		return false
	}

	mode := w.opts.classify(elemPath)
	if mode.AsSet {
		w.childrenAsSet(p, elemPath, actual, expected, mode)
	} else {
		w.childrenInSequence(p, elemPath, actual, expected)
	}
	return true
}

// attrs compares attribute sets. Both sides are canonically sorted, so a
// single merge walk finds the first divergence.
func (w *walker) attrs(p Path, actual, expected *xmltree.Node) bool {
	i, j := 0, 0
	for i < len(actual.Attrs) && j < len(expected.Attrs) {
		a, e := actual.Attrs[i], expected.Attrs[j]
		switch {
		case a.Name == e.Name:
			if a.Value != e.Value {
				w.report(Mismatch{
					Path:     p,
					Attr:     a.Name.String(),
					Kind:     KindAttributeMismatch,
					Expected: e.Value,
					Actual:   a.Value,
				})
				return false
			}
			i++
			j++
		case a.Name.Less(e.Name):
			w.report(Mismatch{
				Path:   p,
				Attr:   a.Name.String(),
				Kind:   KindAttributeMismatch,
				Actual: a.Value,
			})
			return false
		default:
			w.report(Mismatch{
				Path:     p,
				Attr:     e.Name.String(),
				Kind:     KindAttributeMismatch,
				Expected: e.Value,
			})
			return false
		}
	}
	if i < len(actual.Attrs) {
		a := actual.Attrs[i]
		w.report(Mismatch{Path: p, Attr: a.Name.String(), Kind: KindAttributeMismatch, Actual: a.Value})
		return false
	}
	if j < len(expected.Attrs) {
		e := expected.Attrs[j]
		w.report(Mismatch{Path: p, Attr: e.Name.String(), Kind: KindAttributeMismatch, Expected: e.Value})
		return false
	}
	return true
}

// childrenInSequence walks child nodes in positional lock-step.
//
// A mismatch at position i does not stop positions i+1..n from being
// compared; it only stops descent into position i itself.
func (w *walker) childrenInSequence(p Path, elemPath []string, actual, expected *xmltree.Node) {
	ac, ec := actual.Children, expected.Children
	min := len(ac)
	if len(ec) < min {
		min = len(ec)
	}

	elemIndex := 0
	for i := 0; i < min; i++ {
		ca, ce := ac[i], ec[i]
		switch {
		case ca.IsText() && ce.IsText():
			if ca.Text != ce.Text && !xmltree.CanonicalNumber(ca.Text, ce.Text, w.opts.Tolerance) {
				w.report(Mismatch{
					Path:     p,
					Kind:     KindTextMismatch,
					Expected: ce.Text,
					Actual:   ca.Text,
				})
			}
		case ca.IsText() != ce.IsText():
			w.report(Mismatch{
				Path:     p,
				Kind:     KindElementMismatch,
				Expected: describe(ce),
				Actual:   describe(ca),
			})
			if !ce.IsText() {
				elemIndex++
			}
		default:
			w.node(p.child(ce.Name.Local, elemIndex), childPath(elemPath, ce.Name.Local), ca, ce)
			elemIndex++
		}
	}

	switch {
	case len(ec) > min:
		w.report(Mismatch{
			Path:     p,
			Kind:     KindMissingEntry,
			Expected: describe(ec[min]),
		})
	case len(ac) > min:
		w.report(Mismatch{
			Path:   p,
			Kind:   KindExtraEntry,
			Actual: describe(ac[min]),
		})
	}
}

// childrenAsSet matches element children by extracted key.
//
// Keys on one side only become SetMembershipMismatch findings; keys on
// both sides are compared pairwise in sequence mode. The reference side's
// ordinal is used for paths so reports are stable under candidate
// reordering.
func (w *walker) childrenAsSet(p Path, elemPath []string, actual, expected *xmltree.Node, mode rules.Mode) {
	actualByKey := keyNodes(actual, mode)
	expectedByKey := keyNodes(expected, mode)

	keys := make([]string, 0, len(actualByKey)+len(expectedByKey))
	for k := range expectedByKey {
		keys = append(keys, k)
	}
	for k := range actualByKey {
		if _, ok := expectedByKey[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		a, inActual := actualByKey[k]
		e, inExpected := expectedByKey[k]
		switch {
		case inActual && inExpected:
			w.node(p.child(e.node.Name.Local, e.index), childPath(elemPath, e.node.Name.Local), a.node, e.node)
		case inExpected:
			w.report(Mismatch{
				Path:     p.child(e.node.Name.Local, e.index),
				Kind:     KindSetMembership,
				Expected: k,
			})
		default:
			w.report(Mismatch{
				Path:   p.child(a.node.Name.Local, a.index),
				Kind:   KindSetMembership,
				Actual: k,
			})
		}
	}
}

type keyed struct {
	node  *xmltree.Node
	index int
}

// keyNodes indexes element children by set key. Duplicate keys keep the
// first occurrence - producers do not emit duplicate shared strings or
// style records, and if one does, the count attributes will flag it.
func keyNodes(n *xmltree.Node, mode rules.Mode) map[string]keyed {
	out := make(map[string]keyed)
	index := 0
	for _, c := range n.Children {
		if c.IsText() {
			continue
		}
		k := mode.KeyOf(c)
		if _, dup := out[k]; !dup {
			out[k] = keyed{node: c, index: index}
		}
		index++
	}
	return out
}

func childPath(elemPath []string, name string) []string {
	out := make([]string, len(elemPath)+1)
	copy(out, elemPath)
	out[len(elemPath)] = name
	return out
}

// describe renders a node for one-sided findings.
func describe(n *xmltree.Node) string {
	if n.IsText() {
		return "text " + n.Text
	}
	return "element " + n.Name.String()
}
