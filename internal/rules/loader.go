package rules

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/default_rules.yaml
var defaultRulesYAML []byte

// DefaultPack returns the compiled built-in rule pack embedded into the
// binary. It is loaded once at process start and reused for the process
// lifetime (or until a SIGHUP-triggered reload).
func DefaultPack() (*Pack, error) {
	return LoadPack(defaultRulesYAML)
}

// LoadPack parses and compiles a rule pack from YAML bytes. Callers wanting
// to layer a custom or organization-specific pack on top of the default one
// can load it the same way and concatenate Rules (later entries win ties
// only insofar as the Detector's first-match-wins dedup applies).
func LoadPack(data []byte) (*Pack, error) {
	var raw rawPack
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rules: parsing pack: %w", err)
	}

	pack := &Pack{Rules: make([]Rule, 0, len(raw.Rules))}
	for _, r := range raw.Rules {
		rule, err := compile(r)
		if err != nil {
			return nil, err
		}
		pack.Rules = append(pack.Rules, rule)
	}
	return pack, nil
}
