package pipeline

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/bridgewarden/bridgewarden/internal/rules"
)

// secretExfilWeight scores the compound signal of an EXFIL_REQUEST
// instruction co-occurring with an actual secret in the same document —
// stronger evidence than either finding alone, and the trigger for
// suppressing sanitized_text from the result entirely.
const secretExfilWeight = 0.9

// Engine runs the full inspection pipeline against one document.
type Engine struct {
	detector *Detector
}

// NewEngine builds an Engine backed by pack.
func NewEngine(pack *rules.Pack) *Engine {
	return &Engine{detector: NewDetector(pack)}
}

// Scan runs Normalize, Sanitize, Detect, Redact, Score, and Decide over
// original in order, and returns the client-visible GuardResult. A panic
// anywhere in the pipeline is recovered and converted to a fail-closed
// BLOCK with reason INTERNAL_ERROR.
func (e *Engine) Scan(original []byte, source SourceDescriptor, profile, policyVersion string) (result GuardResult) {
	hash := sha256.Sum256(original)
	contentHash := hex.EncodeToString(hash[:])

	state := &ScanState{
		Original: original,
		Source:   source,
		Profile:  profile,
	}

	defer func() {
		if r := recover(); r != nil {
			result = GuardResult{
				Decision:      DecisionBlock,
				RiskScore:     1,
				Reasons:       []string{ReasonInternalError},
				Source:        source,
				ContentHash:   contentHash,
				SanitizedText: "",
				Redactions:    nil,
				CacheHit:      false,
				PolicyVersion: policyVersion,
			}
		}
	}()

	Normalize(state)
	Sanitize(state)
	e.detector.Detect(state)
	Redact(state)
	e.correlateSecretExfil(state)
	Score(state)
	Decide(state)

	sanitized := state.Sanitized
	if state.Decision == DecisionBlock && anyHideSanitized(state.ReasonCodes()) {
		sanitized = ""
	}

	return GuardResult{
		Decision:      state.Decision,
		RiskScore:     state.RiskScore,
		Reasons:       state.ReasonCodes(),
		Source:        source,
		ContentHash:   contentHash,
		SanitizedText: sanitized,
		Redactions:    state.Redactions,
		CacheHit:      false,
		PolicyVersion: policyVersion,
	}
}

// correlateSecretExfil promotes the combination of an exfiltration-style
// instruction and an actual discovered secret into a dedicated SECRET_EXFIL
// finding, since neither EXFIL_REQUEST nor SECRET_FOUND alone implies the
// document both asks for and carries a secret to leak.
func (e *Engine) correlateSecretExfil(state *ScanState) {
	if state.HasFinding(ReasonExfilRequest) && state.HasFinding(ReasonSecretFound) {
		state.AddFinding(Finding{Code: ReasonSecretExfil, Weight: secretExfilWeight})
	}
}

func anyHideSanitized(reasons []string) bool {
	for _, r := range reasons {
		if hideSanitizedReasons[r] {
			return true
		}
	}
	return false
}
