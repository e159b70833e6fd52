package compare

import (
	"fmt"
	"io"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// longValue is the threshold above which a side-by-side pair also gets an
// inline character diff. Short values are easier to eyeball directly.
const longValue = 40

// Render writes a human-readable mismatch report.
//
// Each mismatch shows its location (entry, element path, attribute) and
// the two values side by side. Long values additionally get a compact
// character-level delta so the divergent span stands out inside an
// otherwise identical style record or formula string.
func Render(w io.Writer, r *Result) error {
	if r.Equal {
		_, err := fmt.Fprintf(w, "equal: %s == %s\n", r.Candidate, r.Reference)
		return err
	}

	fmt.Fprintf(w, "not equal: %s != %s\n", r.Candidate, r.Reference)
	fmt.Fprintf(w, "%d mismatch(es)", len(r.Mismatches))
	if r.Remaining > 0 {
		fmt.Fprintf(w, " (+%d not shown)", r.Remaining)
	}
	fmt.Fprintln(w)

	dmp := diffmatchpatch.New()
	for _, m := range r.Mismatches {
		fmt.Fprintf(w, "\n[%s] %s", m.Kind, m.Entry)
		if m.PathStr != "" {
			fmt.Fprintf(w, " %s", m.PathStr)
		}
		if m.Attr != "" {
			fmt.Fprintf(w, " @%s", m.Attr)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  expected: %s\n", m.Expected)
		fmt.Fprintf(w, "  actual:   %s\n", m.Actual)

		if len(m.Expected) > longValue && len(m.Actual) > longValue {
			diffs := dmp.DiffMain(m.Expected, m.Actual, false)
			patches := dmp.PatchMake(m.Expected, diffs)
			if text := dmp.PatchToText(patches); text != "" {
				fmt.Fprintf(w, "  delta:\n%s", indent(text, "    "))
			}
		}
	}
	return nil
}

func indent(s, prefix string) string {
	var out []byte
	atLineStart := true
	for i := 0; i < len(s); i++ {
		if atLineStart {
			out = append(out, prefix...)
			atLineStart = false
		}
		out = append(out, s[i])
		if s[i] == '\n' {
			atLineStart = true
		}
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return string(out)
}
