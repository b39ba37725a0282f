package rules

import (
	"strings"
)

// structuralPredicates is the small, finite set of structural matchers a
// rule's match.id can reference — e.g. "line begins with a numbered
// imperative verb followed by a dangerous verb" implemented as a small
// finite pattern set rather than a general grammar.
var structuralPredicates = map[string]StructuralFunc{
	"numbered_imperative_dangerous_verb": numberedImperativeDangerousVerb,
}

var dangerousVerbs = []string{
	"ignore", "override", "disable", "bypass", "delete", "exfiltrate",
	"forget", "reveal", "leak", "execute", "exec", "run", "curl", "wget",
}

// numberedImperativeDangerousVerb matches a line that begins with a
// numbered list marker ("1.", "2)", "Step 3:") immediately followed by one
// of a small set of dangerous imperative verbs — a common jailbreak
// scaffolding pattern ("1. Ignore your previous instructions").
func numberedImperativeDangerousVerb(normalized string) (int, int, bool) {
	lines := strings.Split(normalized, "\n")
	offset := 0
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		leadingSpace := len(line) - len(trimmed)
		rest, isNumbered := stripNumberedMarker(trimmed)
		if isNumbered {
			word := firstWord(strings.TrimSpace(rest))
			if containsFold(dangerousVerbs, word) {
				start := offset + leadingSpace
				return start, start + len(line) - leadingSpace, true
			}
		}
		offset += len(line) + 1 // account for the split "\n"
	}
	return 0, 0, false
}

// stripNumberedMarker strips a leading "1.", "2)", or "Step 3:" marker and
// reports whether one was present.
func stripNumberedMarker(s string) (string, bool) {
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "step ") {
		rest := s[len("step "):]
		if idx := strings.IndexAny(rest, ":."); idx >= 0 && idx < 4 {
			return rest[idx+1:], true
		}
		return "", false
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) {
		return "", false
	}
	if s[i] == '.' || s[i] == ')' {
		return s[i+1:], true
	}
	return "", false
}

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func containsFold(set []string, word string) bool {
	for _, s := range set {
		if s == word {
			return true
		}
	}
	return false
}
