package xmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) *Node {
	t.Helper()
	n, err := Parse([]byte(s))
	require.NoError(t, err)
	return n
}

func canonical(t *testing.T, s string) *Node {
	t.Helper()
	return Canonicalize(mustParse(t, s))
}

func TestCanonicalizeAttributeOrder(t *testing.T) {
	a := canonical(t, `<c r="A1" s="2" t="n"/>`)
	b := canonical(t, `<c t="n" r="A1" s="2"/>`)
	assert.True(t, Equal(a, b))
}

func TestCanonicalizePrefixInvariance(t *testing.T) {
	a := canonical(t, `<x:row xmlns:x="urn:s"><x:c>1</x:c></x:row>`)
	b := canonical(t, `<q:row xmlns:q="urn:s"><q:c>1</q:c></q:row>`)
	assert.True(t, Equal(a, b))
}

func TestCanonicalizeNumericText(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"trailing zeros", `<v>1.0</v>`, `<v>1</v>`, true},
		{"more zeros", `<v>1.00</v>`, `<v>1.000</v>`, true},
		{"exponent spelling", `<v>1e3</v>`, `<v>1000</v>`, true},
		{"leading plus", `<v>+2.5</v>`, `<v>2.5</v>`, true},
		{"different values", `<v>1.0</v>`, `<v>1.1</v>`, false},
		{"text is not numeric", `<t>1.0 apples</t>`, `<t>1 apples</t>`, false},
		{"cell refs untouched", `<c r="A1"/>`, `<c r="A1.0"/>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Equal(canonical(t, tt.a), canonical(t, tt.b))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalizeAttributeValuesNotNumeric(t *testing.T) {
	// Numeric normalization applies to text content only. Attribute values
	// like sheetId="1" vs sheetId="1.0" stay distinct.
	a := canonical(t, `<sheet sheetId="1"/>`)
	b := canonical(t, `<sheet sheetId="1.0"/>`)
	assert.False(t, Equal(a, b))
}

func TestCanonicalizeWhitespace(t *testing.T) {
	a := canonical(t, "<t>hello \n  world</t>")
	b := canonical(t, `<t>hello world</t>`)
	assert.True(t, Equal(a, b))
}

func TestCanonicalizeDropsInterElementWhitespace(t *testing.T) {
	a := canonical(t, "<row>\n  <c>1</c>\n  <c>2</c>\n</row>")
	b := canonical(t, `<row><c>1</c><c>2</c></row>`)
	assert.True(t, Equal(a, b))
}

func TestCanonicalizePreserveSpace(t *testing.T) {
	pre := `<t xml:space="preserve">  two  spaces  </t>`
	a := canonical(t, pre)
	b := canonical(t, `<t xml:space="preserve">two spaces</t>`)
	assert.False(t, Equal(a, b), "preserved whitespace must stay significant")

	// And it scopes to the subtree.
	nested := canonical(t, `<r xml:space="preserve"><t> x </t></r>`)
	require.Len(t, nested.Children, 1)
	require.Len(t, nested.Children[0].Children, 1)
	assert.Equal(t, " x ", nested.Children[0].Children[0].Text)
}

func TestCanonicalizeUnicodeNFC(t *testing.T) {
	// "é" precomposed vs combining-accent spelling.
	a := canonical(t, "<t>café</t>")
	b := canonical(t, "<t>café</t>")
	assert.True(t, Equal(a, b))
}

func TestCanonicalizeIdempotent(t *testing.T) {
	doc := `<ws a="1" b="2">
  <row r="1"><c t="s"><v>0</v></c><c><v>3.50</v></c></row>
  <row r="2"><c><v>007</v></c></row>
</ws>`
	once := canonical(t, doc)
	twice := Canonicalize(once)
	assert.True(t, Equal(once, twice))
}

func TestCanonicalizeDoesNotMutateInput(t *testing.T) {
	n := mustParse(t, `<a z="1" b="2"><c>1.0</c></a>`)
	before := string(MarshalCanonical(n))
	_ = Canonicalize(n)
	assert.Equal(t, before, string(MarshalCanonical(n)))
}

func TestCanonicalizePreservesChildOrder(t *testing.T) {
	a := canonical(t, `<row><c>1</c><c>2</c></row>`)
	b := canonical(t, `<row><c>2</c><c>1</c></row>`)
	assert.False(t, Equal(a, b))
}

func TestMarshalCanonicalForm(t *testing.T) {
	n := canonical(t, `<a xmlns="urn:x" k="v"><b>7</b></a>`)
	assert.Equal(t, `{urn:x}a[k="v"]({urn:x}b("7"))`, string(MarshalCanonical(n)))
}

func TestCanonicalNumber(t *testing.T) {
	tests := []struct {
		name      string
		a, b      string
		tolerance float64
		want      bool
	}{
		{"exact", "1.0", "1", 0, true},
		{"within tolerance", "1.0001", "1.0002", 0.001, true},
		{"outside tolerance", "1.0", "1.1", 0.001, false},
		{"zero tolerance strict", "1.0000001", "1", 0, false},
		{"not numeric", "abc", "1", 1e9, false},
		{"both not numeric", "x", "y", 1e9, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalNumber(tt.a, tt.b, tt.tolerance))
		})
	}
}
