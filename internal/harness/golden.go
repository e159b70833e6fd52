package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"xlsxcmp/internal/compare"
)

// AssertReportGolden renders a comparison result and compares it against a
// golden file in testdata/golden/{name}.golden.
//
// Reports are rendered from canonical trees and sorted mismatches, so the
// bytes are deterministic and safe to pin. Regenerate with:
//
//	go test ./... -update
func AssertReportGolden(t *testing.T, name string, result *compare.Result) {
	t.Helper()

	var buf bytes.Buffer
	if err := compare.Render(&buf, result); err != nil {
		t.Fatalf("failed to render report: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
}
