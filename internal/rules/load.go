package rules

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// document is the YAML shape of an external rule file.
type document struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	Entry   string `yaml:"entry,omitempty"`
	Element string `yaml:"element,omitempty"`
	Attr    string `yaml:"attr,omitempty"`
	Action  string `yaml:"action"`
	Key     string `yaml:"key,omitempty"`
}

// Load reads a YAML rule file and returns its rules as a Set.
//
// The document is validated twice: structurally against the embedded CUE
// schema (catches wrong types and misspelled enum values with positions),
// then field-by-field by NewSet (catches cross-field mistakes like a set
// rule without a key). YAML decoding is strict - unknown fields are
// rejected to catch typos like "elment:".
//
// Load does not merge the defaults; callers decide whether file rules
// extend or replace the built-in set (see Set.Merge).
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	if err := validateSchema(path, data); err != nil {
		return nil, fmt.Errorf("invalid rule file %s: %w", path, err)
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse rule file %s: %w", path, err)
	}

	converted := make([]Rule, len(doc.Rules))
	for i, spec := range doc.Rules {
		converted[i] = Rule{
			Entry:   spec.Entry,
			Element: spec.Element,
			Attr:    spec.Attr,
			Action:  Action(spec.Action),
			Key:     KeyKind(spec.Key),
		}
	}

	set, err := NewSet(converted...)
	if err != nil {
		return nil, fmt.Errorf("invalid rule file %s: %w", path, err)
	}
	return set, nil
}

// validateSchema unifies the rule document with the embedded CUE schema.
// CUE reports type and enum violations with file positions, which beats
// anything a hand-rolled validator would produce.
func validateSchema(path string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal schema error: %w", err)
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("failed to build document: %w", err)
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
