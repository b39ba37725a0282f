// Package rules loads and compiles the declarative instruction-likeness
// rule packs the Detector matches against. Rules are data, not code: they
// are loaded once at process start (or on SIGHUP) from an embedded YAML
// file, never compiled per-request.
package rules

import (
	"fmt"

	"github.com/wasilibs/go-re2"
)

// Tier controls which policy profiles a rule is active under. The active
// rule set for a profile is cumulative: strict ⊇ balanced ⊇ permissive.
type Tier string

const (
	TierPermissive Tier = "permissive"
	TierBalanced   Tier = "balanced"
	TierStrict     Tier = "strict"
)

var tierRank = map[Tier]int{
	TierPermissive: 0,
	TierBalanced:   1,
	TierStrict:     2,
}

// MatcherKind selects how a Rule's Pattern/Phrases field is interpreted.
type MatcherKind string

const (
	MatcherLiteral    MatcherKind = "literal"
	MatcherRegex      MatcherKind = "regex"
	MatcherStructural MatcherKind = "structural"
)

// rawRule is the YAML wire shape.
type rawRule struct {
	Code  string `yaml:"code"`
	Tier  Tier   `yaml:"tier"`
	Weight float64 `yaml:"weight"`
	Match struct {
		Kind    MatcherKind `yaml:"kind"`
		Phrases []string    `yaml:"phrases,omitempty"`
		Pattern string      `yaml:"pattern,omitempty"`
		ID      string      `yaml:"id,omitempty"`
	} `yaml:"match"`
}

type rawPack struct {
	Rules []rawRule `yaml:"rules"`
}

// Rule is one compiled detector rule.
type Rule struct {
	Code   string
	Tier   Tier
	Weight float64

	Kind    MatcherKind
	Phrases []string       // lowercased, for MatcherLiteral
	Regex   *re2.Regexp    // for MatcherRegex
	Struct  StructuralFunc // for MatcherStructural
}

// StructuralFunc implements a small finite structural predicate over
// normalized text, returning the matched span or false.
type StructuralFunc func(normalized string) (start, end int, ok bool)

// Pack is the full set of compiled rules, in declaration order.
type Pack struct {
	Rules []Rule
}

// ActiveRules returns the rules active for profile, in declaration order.
// permissive-tier rules run under every profile; balanced-tier rules run
// under balanced and strict; strict-tier rules run only under strict.
func (p *Pack) ActiveRules(profile Tier) []Rule {
	profileRank, ok := tierRank[profile]
	if !ok {
		profileRank = tierRank[TierBalanced]
	}
	out := make([]Rule, 0, len(p.Rules))
	for _, r := range p.Rules {
		if tierRank[r.Tier] <= profileRank {
			out = append(out, r)
		}
	}
	return out
}

func compile(raw rawRule) (Rule, error) {
	rule := Rule{Code: raw.Code, Tier: raw.Tier, Weight: raw.Weight, Kind: raw.Match.Kind}

	switch raw.Match.Kind {
	case MatcherLiteral:
		rule.Phrases = raw.Match.Phrases
	case MatcherRegex:
		re, err := re2.Compile(raw.Match.Pattern)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: compiling pattern: %w", raw.Code, err)
		}
		rule.Regex = re
	case MatcherStructural:
		fn, ok := structuralPredicates[raw.Match.ID]
		if !ok {
			return Rule{}, fmt.Errorf("rule %s: unknown structural predicate %q", raw.Code, raw.Match.ID)
		}
		rule.Struct = fn
	default:
		return Rule{}, fmt.Errorf("rule %s: unknown matcher kind %q", raw.Code, raw.Match.Kind)
	}
	return rule, nil
}
