package pipeline

import (
	"fmt"

	re2 "github.com/wasilibs/go-re2"

	"github.com/bridgewarden/bridgewarden/internal/security"
)

// secretPattern is one compiled secret-matching rule. Order matters: more
// specific formats are listed before generic catch-alls, mirroring the
// ordering convention of a log-redaction pattern table.
type secretPattern struct {
	kind string
	re   *re2.Regexp
}

// secretPatterns are the baseline secret shapes Redact looks for: generic
// API keys, AWS-style access key IDs, PEM private-key blocks, JWTs, and
// bearer/basic auth headers.
var secretPatterns = []secretPattern{
	{"PRIVATE_KEY", re2.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`)},
	{"AWS_ACCESS_KEY", re2.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"JWT", re2.MustCompile(`\bey[A-Za-z0-9_-]{10,}\.ey[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\b`)},
	{"BEARER_TOKEN", re2.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._~+/=-]{12,}`)},
	{"BASIC_AUTH", re2.MustCompile(`(?i)\bBasic\s+[A-Za-z0-9+/=]{12,}`)},
	{"API_KEY", re2.MustCompile(`(?i)\b(api[_-]?key|apikey|access[_-]?token)["'\s:=]{1,4}[A-Za-z0-9_\-]{16,}`)},
}

// Redact replaces recognized secret shapes in state.Sanitized with
// «REDACTED:KIND» placeholders. It runs strictly after the Detector and
// never touches state.Original, so content_hash (derived from Original)
// is unaffected by redaction. Matched bytes are zeroed in the working
// buffer as soon as their placeholder is derived, so the plaintext secret
// does not linger in process memory past this stage.
func Redact(state *ScanState) {
	data := []byte(state.Sanitized)
	counts := make(map[string]int)

	for _, p := range secretPatterns {
		data = replaceAndScrub(data, p, counts)
	}

	state.Sanitized = string(data)

	if len(counts) == 0 {
		return
	}

	strongest := 0.0
	for _, p := range secretPatterns {
		if n := counts[p.kind]; n > 0 {
			state.Redactions = append(state.Redactions, Redaction{Kind: p.kind, Count: n})
			if w := secretKindWeights[p.kind]; w > strongest {
				strongest = w
			}
		}
	}
	state.AddFinding(Finding{Code: ReasonSecretFound, Weight: strongest})
}

// replaceAndScrub rewrites every match of p in data to its «REDACTED:KIND»
// placeholder, zeroing each matched byte range in place before it is
// dropped from the rebuilt buffer.
func replaceAndScrub(data []byte, p secretPattern, counts map[string]int) []byte {
	locs := p.re.FindAllIndex(data, -1)
	if len(locs) == 0 {
		return data
	}

	placeholder := []byte(fmt.Sprintf("«REDACTED:%s»", p.kind))
	out := make([]byte, 0, len(data))
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		out = append(out, data[last:start]...)
		out = append(out, placeholder...)
		security.ZeroBytes(data[start:end])
		counts[p.kind]++
		last = end
	}
	out = append(out, data[last:]...)
	return out
}

// secretKindWeights scores SECRET_FOUND proportional to the strongest
// secret kind encountered in a scan: a leaked private key is far more
// severe than a loosely-shaped API key match.
var secretKindWeights = map[string]float64{
	"PRIVATE_KEY":    0.95,
	"AWS_ACCESS_KEY": 0.85,
	"JWT":            0.80,
	"BEARER_TOKEN":   0.75,
	"BASIC_AUTH":     0.70,
	"API_KEY":        0.60,
}
