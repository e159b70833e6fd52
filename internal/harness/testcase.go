package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"xlsxcmp/internal/rules"
)

// TestCase is one functional test registration.
//
// Only Name is required; the other filenames follow the generator suite's
// convention and are derived when empty.
type TestCase struct {
	// Name uniquely identifies the case, e.g. "test_chart_bar01".
	Name string `yaml:"name"`

	// Generator is the executable to invoke. Defaults to Name.
	Generator string `yaml:"generator,omitempty"`

	// Candidate is the output filename the generator writes into the
	// working directory. Defaults to Name + ".xlsx".
	Candidate string `yaml:"candidate,omitempty"`

	// Reference is the fixture filename. Defaults to Name with a leading
	// "test_" stripped, plus ".xlsx" - so test_chart_bar52 can point at
	// chart_bar02.xlsx when it reuses another case's fixture.
	Reference string `yaml:"reference,omitempty"`

	// Requires lists capability flags the runner must have for this case
	// to be meaningful (e.g. "legend-rendering"). Unsatisfied
	// capabilities skip the case with a visible reason instead of
	// silently omitting its registration.
	Requires []string `yaml:"requires,omitempty"`

	// IgnoreEntries names whole package entries excluded for this case
	// only, ahead of the process-wide rule set.
	IgnoreEntries []string `yaml:"ignore_entries,omitempty"`

	// IgnoreElements lists per-case element/attribute exclusions.
	IgnoreElements []ElementIgnore `yaml:"ignore_elements,omitempty"`
}

// ElementIgnore is a per-case skip rule in manifest form.
type ElementIgnore struct {
	Entry   string `yaml:"entry"`
	Element string `yaml:"element"`
	Attr    string `yaml:"attr,omitempty"`
}

// GeneratorName returns the executable name, applying the convention.
func (tc TestCase) GeneratorName() string {
	if tc.Generator != "" {
		return tc.Generator
	}
	return tc.Name
}

// CandidateName returns the candidate filename, applying the convention.
func (tc TestCase) CandidateName() string {
	if tc.Candidate != "" {
		return tc.Candidate
	}
	return tc.Name + ".xlsx"
}

// ReferenceName returns the reference filename, applying the convention.
func (tc TestCase) ReferenceName() string {
	if tc.Reference != "" {
		return tc.Reference
	}
	return strings.TrimPrefix(tc.Name, "test_") + ".xlsx"
}

// ExtraRules converts the case's ignore declarations into a rule set to
// merge ahead of the process-wide rules. Returns nil when the case has no
// exclusions of its own.
func (tc TestCase) ExtraRules() (*rules.Set, error) {
	var rs []rules.Rule
	for _, entry := range tc.IgnoreEntries {
		rs = append(rs, rules.Rule{Entry: entry, Action: rules.ActionSkip})
	}
	for _, ig := range tc.IgnoreElements {
		rs = append(rs, rules.Rule{
			Entry:   ig.Entry,
			Element: ig.Element,
			Attr:    ig.Attr,
			Action:  rules.ActionSkip,
		})
	}
	if len(rs) == 0 {
		return nil, nil
	}
	set, err := rules.NewSet(rs...)
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", tc.Name, err)
	}
	return set, nil
}

// Manifest is a YAML file registering test cases.
type Manifest struct {
	Cases []TestCase `yaml:"cases"`
}

// LoadManifest reads and validates a manifest file.
// Unknown YAML fields are rejected to catch typos.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	if err := validateManifest(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

func validateManifest(m *Manifest) error {
	if len(m.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	seen := make(map[string]bool, len(m.Cases))
	for i, tc := range m.Cases {
		if tc.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[tc.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, tc.Name)
		}
		seen[tc.Name] = true
		for j, ig := range tc.IgnoreElements {
			if ig.Entry == "" {
				return fmt.Errorf("cases[%d].ignore_elements[%d]: entry is required", i, j)
			}
			if ig.Element == "" {
				return fmt.Errorf("cases[%d].ignore_elements[%d]: element is required", i, j)
			}
		}
	}
	return nil
}

// Filter returns the cases whose names match the glob pattern.
// An empty pattern matches everything.
func (m *Manifest) Filter(pattern string) ([]TestCase, error) {
	if pattern == "" {
		return m.Cases, nil
	}
	var out []TestCase
	for _, tc := range m.Cases {
		matched, err := matchGlob(pattern, tc.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			out = append(out, tc)
		}
	}
	return out, nil
}
