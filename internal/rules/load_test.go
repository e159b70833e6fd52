package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRuleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValid(t *testing.T) {
	path := writeRuleFile(t, `rules:
  - entry: xl/drawings/drawing1.xml
    action: skip
  - entry: xl/charts/chart1.xml
    element: plotArea
    action: skip
  - entry: xl/tables/table1.xml
    element: tableColumns
    action: set
    key: canonical
  - entry: xl/workbook.xml
    element: workbookPr
    attr: defaultThemeVersion
    action: skip
`)

	set, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, set.Len())

	assert.True(t, set.SkipEntry("xl/drawings/drawing1.xml"))
	m := set.Classify("xl/tables/table1.xml", []string{"table", "tableColumns"})
	assert.True(t, m.AsSet)
	assert.Equal(t, KeyCanonical, m.Key)
}

func TestLoadEmptyRuleList(t *testing.T) {
	set, err := Load(writeRuleFile(t, "rules: []\n"))
	require.NoError(t, err)
	assert.Zero(t, set.Len())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read rule file")
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"bad action enum",
			"rules:\n  - entry: a.xml\n    action: ignore\n",
		},
		{
			"bad key enum",
			"rules:\n  - entry: a.xml\n    element: x\n    action: set\n    key: hash\n",
		},
		{
			"wrong type for entry",
			"rules:\n  - entry: 42\n    action: skip\n",
		},
		{
			"rules not a list",
			"rules: yes\n",
		},
		{
			"unknown field typo",
			"rules:\n  - elment: x\n    action: skip\n",
		},
		{
			"not yaml",
			"{{{{\n",
		},
		{
			"cross-field: set without key",
			"rules:\n  - entry: a.xml\n    element: x\n    action: set\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeRuleFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}
