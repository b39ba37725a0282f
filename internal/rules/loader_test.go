package rules

import "testing"

func TestDefaultPack_Loads(t *testing.T) {
	pack, err := DefaultPack()
	if err != nil {
		t.Fatalf("DefaultPack: %v", err)
	}
	if len(pack.Rules) == 0 {
		t.Fatal("expected a non-empty default rule pack")
	}
	for _, r := range pack.Rules {
		if r.Code == "" {
			t.Error("rule with empty code")
		}
		if r.Weight <= 0 || r.Weight > 1 {
			t.Errorf("rule %s has out-of-range weight %v", r.Code, r.Weight)
		}
	}
}

func TestActiveRules_TierComposition(t *testing.T) {
	pack, err := DefaultPack()
	if err != nil {
		t.Fatalf("DefaultPack: %v", err)
	}

	permissive := pack.ActiveRules(TierPermissive)
	balanced := pack.ActiveRules(TierBalanced)
	strict := pack.ActiveRules(TierStrict)

	if len(permissive) > len(balanced) {
		t.Errorf("permissive set (%d) should not exceed balanced set (%d)", len(permissive), len(balanced))
	}
	if len(balanced) > len(strict) {
		t.Errorf("balanced set (%d) should not exceed strict set (%d)", len(balanced), len(strict))
	}

	// Every rule active under permissive must also be active under
	// balanced and strict (permissive ⊂ balanced ⊂ strict).
	balancedCodes := make(map[string]int)
	for _, r := range balanced {
		balancedCodes[r.Code]++
	}
	for _, r := range permissive {
		if balancedCodes[r.Code] == 0 {
			t.Errorf("rule %s active under permissive but not under balanced", r.Code)
		}
	}
}

func TestLoadPack_RejectsUnknownMatcherKind(t *testing.T) {
	_, err := LoadPack([]byte(`
rules:
  - code: X
    tier: strict
    weight: 0.5
    match:
      kind: telepathy
`))
	if err == nil {
		t.Fatal("expected an error for an unknown matcher kind")
	}
}

func TestLoadPack_RejectsBadRegex(t *testing.T) {
	_, err := LoadPack([]byte(`
rules:
  - code: X
    tier: strict
    weight: 0.5
    match:
      kind: regex
      pattern: "(unterminated"
`))
	if err == nil {
		t.Fatal("expected an error for an invalid regex pattern")
	}
}
