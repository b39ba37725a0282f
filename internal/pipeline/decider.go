package pipeline

import "sort"

// thresholds holds the ALLOW/WARN/BLOCK score boundaries for one profile.
// A score below warnAt is ALLOW; from warnAt up to (exclusive) blockAt is
// WARN; blockAt and above is BLOCK.
type thresholds struct {
	warnAt  float64
	blockAt float64
}

var profileThresholds = map[string]thresholds{
	"strict":     {warnAt: 0.20, blockAt: 0.40},
	"balanced":   {warnAt: 0.35, blockAt: 0.65},
	"permissive": {warnAt: 0.55, blockAt: 0.80},
}

// Decide sets state.Decision from state.RiskScore and state.Findings. A
// hard_block reason forces BLOCK regardless of score; ENCODING_INVALID is
// a hard_block reason only under the strict profile.
func Decide(state *ScanState) {
	reasons := state.ReasonCodes()
	sort.Strings(reasons)

	if isHardBlocked(state.Profile, reasons) {
		state.Decision = DecisionBlock
		return
	}

	t, ok := profileThresholds[state.Profile]
	if !ok {
		t = profileThresholds["balanced"]
	}

	switch {
	case state.RiskScore >= t.blockAt:
		state.Decision = DecisionBlock
	case state.RiskScore >= t.warnAt:
		state.Decision = DecisionWarn
	default:
		state.Decision = DecisionAllow
	}
}

func isHardBlocked(profile string, reasons []string) bool {
	for _, code := range reasons {
		if hardBlockReasons[code] {
			return true
		}
		if profile == "strict" && code == ReasonEncodingInvalid {
			return true
		}
	}
	return false
}
