package pipeline

import (
	"strings"

	"github.com/bridgewarden/bridgewarden/internal/rules"
)

// obfuscatedWeightFactor is applied to a literal rule's weight when it only
// matched the shadow projection (obfuscation-resistant path): shadow
// matches carry reduced weight since they rely on a lossy collapse of the
// original text.
const obfuscatedWeightFactor = 0.8

// maxFindingsPerScan truncates pathological inputs so one scan cannot run
// unbounded rule matching; beyond this cap a RULE_LIMIT_REACHED finding is
// recorded instead of continuing.
const maxFindingsPerScan = 64

// Detector matches a compiled rule pack against a ScanState's normalized
// and shadow text.
type Detector struct {
	pack *rules.Pack
}

// NewDetector builds a Detector bound to pack.
func NewDetector(pack *rules.Pack) *Detector {
	return &Detector{pack: pack}
}

// Detect runs every rule active for state.Profile against state.Normalized
// (and, for literal rules, state.Shadow), appending findings in
// declaration order with first-match dedup by code.
func (d *Detector) Detect(state *ScanState) {
	active := d.pack.ActiveRules(rules.Tier(strings.ToLower(state.Profile)))

	for _, rule := range active {
		if len(state.Findings) >= maxFindingsPerScan {
			state.AddFinding(Finding{Code: ReasonRuleLimitReached, Weight: 0})
			return
		}
		if state.HasFinding(rule.Code) {
			continue
		}

		switch rule.Kind {
		case rules.MatcherLiteral:
			d.matchLiteral(state, rule)
		case rules.MatcherRegex:
			d.matchRegex(state, rule)
		case rules.MatcherStructural:
			d.matchStructural(state, rule)
		}
	}
}

func (d *Detector) matchLiteral(state *ScanState, rule rules.Rule) {
	lowerNormalized := strings.ToLower(state.Normalized)
	for _, phrase := range rule.Phrases {
		lowerPhrase := strings.ToLower(phrase)

		if idx := strings.Index(lowerNormalized, lowerPhrase); idx >= 0 {
			runeStart := len([]rune(lowerNormalized[:idx]))
			runeEnd := runeStart + len([]rune(lowerPhrase))
			state.AddFinding(Finding{
				Code:   rule.Code,
				Span:   &Span{Start: runeStart, End: runeEnd},
				Weight: rule.Weight,
			})
			return
		}

		shadowPhrase := shadowProject(lowerPhrase)
		if shadowPhrase == "" {
			continue
		}
		if idx := strings.Index(state.Shadow, shadowPhrase); idx >= 0 {
			state.AddFinding(Finding{
				Code:   rule.Code + obfuscatedSuffix,
				Weight: rule.Weight * obfuscatedWeightFactor,
			})
			return
		}
	}
}

func (d *Detector) matchRegex(state *ScanState, rule rules.Rule) {
	loc := rule.Regex.FindStringIndex(state.Normalized)
	if loc == nil {
		return
	}
	runeStart := len([]rune(state.Normalized[:loc[0]]))
	runeEnd := runeStart + len([]rune(state.Normalized[loc[0]:loc[1]]))
	state.AddFinding(Finding{
		Code:   rule.Code,
		Span:   &Span{Start: runeStart, End: runeEnd},
		Weight: rule.Weight,
	})
}

func (d *Detector) matchStructural(state *ScanState, rule rules.Rule) {
	start, end, ok := rule.Struct(state.Normalized)
	if !ok {
		return
	}
	state.AddFinding(Finding{
		Code:   rule.Code,
		Span:   &Span{Start: start, End: end},
		Weight: rule.Weight,
	})
}

// shadowProject applies the same alphanumeric-collapse projection used by
// the Normalizer to a literal phrase, so it can be searched for inside
// state.Shadow.
func shadowProject(phrase string) string {
	var b strings.Builder
	for _, r := range phrase {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
