package pipeline

// Baseline reason codes attached to findings and decisions.
const (
	ReasonRoleImpersonation       = "ROLE_IMPERSONATION"
	ReasonPersonaShift            = "PERSONA_SHIFT"
	ReasonStealthInstruction      = "STEALTH_INSTRUCTION"
	ReasonPolicyOverride          = "POLICY_OVERRIDE"
	ReasonProcessSabotage         = "PROCESS_SABOTAGE"
	ReasonCodeTamperingCoercion   = "CODE_TAMPERING_COERCION"
	ReasonToolCoercion            = "TOOL_COERCION"
	ReasonExfilRequest            = "EXFIL_REQUEST"
	ReasonBidiControl             = "BIDI_CONTROL"
	ReasonZeroWidth               = "ZERO_WIDTH"
	ReasonTagChars                = "TAG_CHARS"
	ReasonPrivateUseRun           = "PRIVATE_USE_RUN"
	ReasonNewSourceRequiresApproval = "NEW_SOURCE_REQUIRES_APPROVAL"
	ReasonSSRFBlocked             = "SSRF_BLOCKED"
	ReasonEncodingInvalid         = "ENCODING_INVALID"
	ReasonSizeExceeded            = "SIZE_EXCEEDED"
	ReasonSecretFound             = "SECRET_FOUND"
	ReasonSecretExfil             = "SECRET_EXFIL"
	ReasonRuleLimitReached        = "RULE_LIMIT_REACHED"
	ReasonFetchFailed             = "FETCH_FAILED"
	ReasonInternalError           = "INTERNAL_ERROR"

	obfuscatedSuffix = "_OBFUSCATED"
)

// hazardWeights are the fixed scoring weights for Normalizer hazards.
var hazardWeights = map[string]float64{
	ReasonBidiControl:   0.6,
	ReasonZeroWidth:     0.4,
	ReasonTagChars:      0.7,
	ReasonPrivateUseRun: 0.3,
}

// hideSanitizedReasons: if any of these reasons triggered, sanitized_text
// is suppressed entirely.
var hideSanitizedReasons = map[string]bool{
	ReasonSecretExfil: true,
	ReasonSSRFBlocked: true,
}

// hardBlockReasons force BLOCK regardless of score.
// ENCODING_INVALID is hard-block only under the strict profile.
var hardBlockReasons = map[string]bool{
	ReasonSSRFBlocked:               true,
	ReasonNewSourceRequiresApproval: true,
	ReasonTagChars:                  true,
	ReasonSizeExceeded:              true,
}
