// Package compare orchestrates one package-equivalence check: open both
// containers, canonicalize and filter each entry, diff, and aggregate a
// verdict.
//
// A content mismatch is a normal result, never an error. Errors are
// reserved for I/O-level problems: a missing file, a corrupt container, an
// unreadable entry. A malformed XML entry is deliberately neither - it is
// reported as a mismatch for that entry alone so one bad part cannot hide
// unrelated divergences elsewhere in the package.
package compare

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"xlsxcmp/internal/diff"
	"xlsxcmp/internal/opc"
	"xlsxcmp/internal/rules"
	"xlsxcmp/internal/xmltree"
)

// DefaultMaxMismatches bounds the report size per comparison.
const DefaultMaxMismatches = 25

// Options configures a comparison.
type Options struct {
	// Rules is the ignore-rule set. Nil selects rules.Default().
	Rules *rules.Set

	// MaxMismatches truncates the report; the remaining count is kept.
	// Zero selects DefaultMaxMismatches; negative means unlimited.
	MaxMismatches int

	// Tolerance is the numeric text comparison window. The default of 0
	// means exact equality after canonicalization.
	Tolerance float64

	// Logger receives per-entry progress at debug level. Nil discards.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Rules == nil {
		o.Rules = rules.Default()
	}
	if o.MaxMismatches == 0 {
		o.MaxMismatches = DefaultMaxMismatches
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Result is the verdict of one comparison.
type Result struct {
	Candidate string `json:"candidate"`
	Reference string `json:"reference"`

	// Equal is true when no mismatch was found.
	Equal bool `json:"equal"`

	// Mismatches is sorted by entry path, then document order within an
	// entry, and possibly truncated (see Remaining).
	Mismatches []diff.Mismatch `json:"mismatches,omitempty"`

	// Remaining counts mismatches dropped by truncation.
	Remaining int `json:"remaining,omitempty"`
}

// Compare checks the candidate package against the reference.
//
// Fatal failures (error return): either file missing or unopenable, or an
// entry that cannot be read. The error is wrapped with the failing side
// ("candidate" or "reference") and unwraps to opc.ErrNotFound or
// opc.ErrCorruptArchive where applicable. Everything else - including
// malformed XML entries - lands in the Result as mismatches.
func Compare(candidatePath, referencePath string, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	candidate, err := opc.Open(candidatePath)
	if err != nil {
		return nil, fmt.Errorf("candidate: %w", err)
	}
	defer candidate.Close()

	reference, err := opc.Open(referencePath)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	defer reference.Close()

	result := &Result{Candidate: candidatePath, Reference: referencePath}
	var all []diff.Mismatch

	for _, entry := range unionPaths(candidate, reference) {
		if opts.Rules.SkipEntry(entry) {
			opts.Logger.Debug("entry skipped by rule", "entry", entry)
			continue
		}

		ce := candidate.Entry(entry)
		re := reference.Entry(entry)

		switch {
		case ce == nil:
			all = append(all, diff.Mismatch{
				Entry:    entry,
				Kind:     diff.KindMissingEntry,
				Expected: entry,
			})
			continue
		case re == nil:
			all = append(all, diff.Mismatch{
				Entry:  entry,
				Kind:   diff.KindExtraEntry,
				Actual: entry,
			})
			continue
		}

		found, err := compareEntry(ce, re, opts)
		if err != nil {
			return nil, err
		}
		opts.Logger.Debug("entry compared", "entry", entry, "mismatches", len(found))
		all = append(all, found...)
	}

	// Entries were visited in sorted order, and the differ emits document
	// order within an entry. An explicit stable sort on entry keeps the
	// report reproducible even if entry iteration ever changes.
	sort.SliceStable(all, func(i, j int) bool { return all[i].Entry < all[j].Entry })

	if opts.MaxMismatches > 0 && len(all) > opts.MaxMismatches {
		result.Remaining = len(all) - opts.MaxMismatches
		all = all[:opts.MaxMismatches]
	}
	result.Mismatches = all
	result.Equal = len(all) == 0 && result.Remaining == 0
	return result, nil
}

// compareEntry diffs one entry present in both packages.
func compareEntry(ce, re *opc.Entry, opts Options) ([]diff.Mismatch, error) {
	cData, err := ce.Data()
	if err != nil {
		return nil, fmt.Errorf("candidate: %w", err)
	}
	rData, err := re.Data()
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}

	if ce.Kind == opc.KindBinary || re.Kind == opc.KindBinary {
		if !bytes.Equal(cData, rData) {
			return []diff.Mismatch{{
				Entry:    ce.Path,
				Kind:     diff.KindBinaryMismatch,
				Expected: digest(rData),
				Actual:   digest(cData),
			}}, nil
		}
		return nil, nil
	}

	cTree, cErr := xmltree.Parse(cData)
	rTree, rErr := xmltree.Parse(rData)
	if cErr != nil || rErr != nil {
		m := diff.Mismatch{Entry: ce.Path, Kind: diff.KindMalformedXML}
		if cErr != nil {
			m.Actual = cErr.Error()
		}
		if rErr != nil {
			m.Expected = rErr.Error()
		}
		return []diff.Mismatch{m}, nil
	}

	entry := ce.Path
	cFiltered := opts.Rules.Filter(entry, xmltree.Canonicalize(cTree))
	rFiltered := opts.Rules.Filter(entry, xmltree.Canonicalize(rTree))

	return diff.Compare(entry, cFiltered, rFiltered, diff.Options{
		Classify: func(elemPath []string) rules.Mode {
			return opts.Rules.Classify(entry, elemPath)
		},
		Tolerance: opts.Tolerance,
	}), nil
}

// unionPaths merges both packages' entry paths, sorted.
func unionPaths(a, b *opc.Package) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range a.Paths() {
		seen[p] = true
		out = append(out, p)
	}
	for _, p := range b.Paths() {
		if !seen[p] {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// digest summarizes binary content for the report. Raw bytes would be
// useless noise; size plus a short hash localizes the difference.
func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%d bytes, sha256 %x", len(data), sum[:8])
}
