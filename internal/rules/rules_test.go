package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xlsxcmp/internal/xmltree"
)

func parseTree(t *testing.T, s string) *xmltree.Node {
	t.Helper()
	n, err := xmltree.Parse([]byte(s))
	require.NoError(t, err)
	return xmltree.Canonicalize(n)
}

func TestNewSetValidation(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr string
	}{
		{"valid skip entry", Rule{Entry: "xl/calcChain.xml", Action: ActionSkip}, ""},
		{"valid skip element", Rule{Entry: "docProps/core.xml", Element: "created", Action: ActionSkip}, ""},
		{"valid skip attr", Rule{Entry: "xl/workbook.xml", Element: "calcPr", Attr: "calcId", Action: ActionSkip}, ""},
		{"valid set", Rule{Entry: "xl/sharedStrings.xml", Element: "sst", Action: ActionSet, Key: KeyText}, ""},
		{"unknown action", Rule{Entry: "a.xml", Action: "ignore"}, "unknown action"},
		{"skip with key", Rule{Entry: "a.xml", Action: ActionSkip, Key: KeyText}, "only applies to set rules"},
		{"set without element", Rule{Entry: "a.xml", Action: ActionSet, Key: KeyText}, "requires an element"},
		{"set without key", Rule{Entry: "a.xml", Element: "x", Action: ActionSet}, "requires key"},
		{"set with attr", Rule{Entry: "a.xml", Element: "x", Attr: "y", Action: ActionSet, Key: KeyText}, "cannot target an attribute"},
		{"attr without element", Rule{Entry: "a.xml", Attr: "y", Action: ActionSkip}, "requires an element"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSet(tt.rule)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMatchEntry(t *testing.T) {
	tests := []struct {
		pattern string
		entry   string
		want    bool
	}{
		{"", "anything.xml", true},
		{"*", "anything.xml", true},
		{"xl/calcChain.xml", "xl/calcChain.xml", true},
		{"xl/calcChain.xml", "xl/styles.xml", false},
		// Base-name matching for slash-free patterns.
		{"*.rels", "_rels/.rels", true},
		{"*.rels", "xl/_rels/workbook.xml.rels", true},
		{"*.rels", "xl/workbook.xml", false},
		// Literal names with glob metacharacters must match themselves.
		{"[Content_Types].xml", "[Content_Types].xml", true},
		{"[Content_Types].xml", "Content_Types.xml", false},
		// Full-path globs.
		{"xl/worksheets/*.xml", "xl/worksheets/sheet1.xml", true},
		{"xl/worksheets/*.xml", "xl/workbook.xml", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.entry, func(t *testing.T) {
			assert.Equal(t, tt.want, matchEntry(tt.pattern, tt.entry))
		})
	}
}

func TestMatchElement(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    []string
		want    bool
	}{
		{"single segment anywhere", "created", []string{"coreProperties", "created"}, true},
		{"single segment at root", "Types", []string{"Types"}, true},
		{"no match", "created", []string{"coreProperties", "modified"}, false},
		{"tail anchored", "coreProperties/created", []string{"coreProperties", "created"}, true},
		{"tail too long", "a/b/c", []string{"b", "c"}, false},
		{"wildcard segment", "*/created", []string{"coreProperties", "created"}, true},
		{"empty pattern never matches", "", []string{"x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchElement(tt.pattern, tt.path))
		})
	}
}

func TestSkipEntry(t *testing.T) {
	set, err := NewSet(
		Rule{Entry: "xl/calcChain.xml", Action: ActionSkip},
		Rule{Entry: "docProps/core.xml", Element: "created", Action: ActionSkip},
	)
	require.NoError(t, err)

	assert.True(t, set.SkipEntry("xl/calcChain.xml"))
	// An element-scoped rule never skips the whole entry.
	assert.False(t, set.SkipEntry("docProps/core.xml"))
	assert.False(t, set.SkipEntry("xl/styles.xml"))
}

func TestFilterRemovesElements(t *testing.T) {
	set, err := NewSet(
		Rule{Entry: "docProps/core.xml", Element: "created", Action: ActionSkip},
	)
	require.NoError(t, err)

	root := parseTree(t, `<coreProperties><creator>me</creator><created>2026-01-01</created></coreProperties>`)
	got := set.Filter("docProps/core.xml", root)

	require.Len(t, got.Children, 1)
	assert.Equal(t, "creator", got.Children[0].Name.Local)

	// Input untouched.
	assert.Len(t, root.Children, 2)

	// Same tree under another entry keeps everything.
	other := set.Filter("docProps/app.xml", root)
	assert.Len(t, other.Children, 2)
}

func TestFilterRemovesAttributes(t *testing.T) {
	set, err := NewSet(
		Rule{Entry: "xl/workbook.xml", Element: "calcPr", Attr: "calcId", Action: ActionSkip},
	)
	require.NoError(t, err)

	root := parseTree(t, `<workbook><calcPr calcId="181029" fullCalcOnLoad="1"/></workbook>`)
	got := set.Filter("xl/workbook.xml", root)

	require.Len(t, got.Children, 1)
	calcPr := got.Children[0]
	require.Len(t, calcPr.Attrs, 1)
	assert.Equal(t, "fullCalcOnLoad", calcPr.Attrs[0].Name.Local)
}

func TestFilterNestedSiblings(t *testing.T) {
	// Sibling subtrees must get independent element paths.
	set, err := NewSet(
		Rule{Entry: "e.xml", Element: "a/x", Action: ActionSkip},
	)
	require.NoError(t, err)

	root := parseTree(t, `<r><a><x/><y/></a><b><x/></b></r>`)
	got := set.Filter("e.xml", root)

	require.Len(t, got.Children, 2)
	a, b := got.Children[0], got.Children[1]
	require.Len(t, a.Children, 1)
	assert.Equal(t, "y", a.Children[0].Name.Local)
	// b/x does not match a/x.
	assert.Len(t, b.Children, 1)
}

func TestClassify(t *testing.T) {
	set, err := NewSet(
		Rule{Entry: "xl/sharedStrings.xml", Element: "sst", Action: ActionSet, Key: KeyText},
		Rule{Entry: "*.rels", Element: "Relationships", Action: ActionSet, Key: KeyCanonical},
	)
	require.NoError(t, err)

	m := set.Classify("xl/sharedStrings.xml", []string{"sst"})
	assert.True(t, m.AsSet)
	assert.Equal(t, KeyText, m.Key)

	m = set.Classify("xl/_rels/workbook.xml.rels", []string{"Relationships"})
	assert.True(t, m.AsSet)
	assert.Equal(t, KeyCanonical, m.Key)

	m = set.Classify("xl/worksheets/sheet1.xml", []string{"worksheet", "sheetData"})
	assert.False(t, m.AsSet)
}

func TestMergePrecedence(t *testing.T) {
	base, err := NewSet(
		Rule{Entry: "a.xml", Element: "list", Action: ActionSet, Key: KeyCanonical},
	)
	require.NoError(t, err)
	extra, err := NewSet(
		Rule{Entry: "a.xml", Element: "list", Action: ActionSet, Key: KeyText},
	)
	require.NoError(t, err)

	merged := base.Merge(extra)
	assert.Equal(t, base.Len()+extra.Len(), merged.Len())

	// Extra rules win on conflict.
	m := merged.Classify("a.xml", []string{"list"})
	assert.Equal(t, KeyText, m.Key)

	// Merging nil or empty returns the receiver unchanged.
	assert.Same(t, base, base.Merge(nil))
	empty, err := NewSet()
	require.NoError(t, err)
	assert.Same(t, base, base.Merge(empty))
}

func TestModeKeyOf(t *testing.T) {
	n := parseTree(t, `<si><t>Hello</t></si>`)

	assert.Equal(t, "Hello", Mode{AsSet: true, Key: KeyText}.KeyOf(n))
	assert.Equal(t, string(xmltree.MarshalCanonical(n)), Mode{AsSet: true, Key: KeyCanonical}.KeyOf(n))
}

func TestDefaultRules(t *testing.T) {
	set := Default()
	require.NotZero(t, set.Len())

	assert.True(t, set.SkipEntry("xl/calcChain.xml"))
	assert.False(t, set.SkipEntry("xl/workbook.xml"))

	assert.True(t, set.Classify("[Content_Types].xml", []string{"Types"}).AsSet)
	assert.True(t, set.Classify("_rels/.rels", []string{"Relationships"}).AsSet)

	m := set.Classify("xl/sharedStrings.xml", []string{"sst"})
	assert.True(t, m.AsSet)
	assert.Equal(t, KeyText, m.Key)

	// Worksheet data is order-significant and stays in sequence mode.
	assert.False(t, set.Classify("xl/worksheets/sheet1.xml", []string{"worksheet", "sheetData"}).AsSet)

	// Timestamps filtered out of core properties.
	core := parseTree(t, `<coreProperties><creator>x</creator><created>now</created><modified>now</modified></coreProperties>`)
	got := set.Filter("docProps/core.xml", core)
	require.Len(t, got.Children, 1)
	assert.Equal(t, "creator", got.Children[0].Name.Local)
}
