// Package pipeline implements the inspection pipeline that every byte of
// untrusted retrieved text passes through: Normalizer, Sanitizer, Detector,
// Redactor, Scorer, Decider. See Scan for the stage composition.
package pipeline

// Span marks a half-open byte range [Start, End) in normalized text that a
// finding or redaction applies to, so a reviewer can locate it later.
type Span struct {
	Start int
	End   int
}

// Finding is one triggered rule or structural hazard.
type Finding struct {
	Code   string  `json:"code"`
	Span   *Span   `json:"span,omitempty"`
	Weight float64 `json:"weight"`
}

// Redaction summarizes how many secrets of a given kind were masked.
type Redaction struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// SourceDescriptor identifies where the scanned bytes came from.
type SourceDescriptor struct {
	Kind      string `json:"kind"` // "file", "web", "repo"
	URL       string `json:"url,omitempty"`
	Path      string `json:"path,omitempty"`
	Domain    string `json:"domain,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ScanState carries the evolving text and bookkeeping through one scan.
// Mutated only by pipeline stages, strictly in order.
type ScanState struct {
	Original   []byte
	Normalized string
	Shadow     string
	ShadowMap  []int // shadow byte-rune index -> index into Normalized runes
	Sanitized  string

	Findings   []Finding
	Redactions []Redaction

	// HazardOccurrences records every structural-hazard span the Normalizer
	// saw, independent of Findings dedup, so the Sanitizer can mask each
	// run rather than only the one that produced the first Finding.
	HazardOccurrences []HazardOccurrence

	Source  SourceDescriptor
	Profile string

	// RiskScore and Decision are set by the Scorer/Decider stages.
	RiskScore float64
	Decision  string
}

// HazardOccurrence marks one structural-hazard run the Normalizer saw, by
// code and span, regardless of whether that code has already produced a
// Finding elsewhere in the text.
type HazardOccurrence struct {
	Code string
	Span Span
}

// RecordHazard appends one hazard occurrence. Unlike AddFinding this never
// dedups by code — collapseHazards needs every run's span, not just the
// first.
func (s *ScanState) RecordHazard(code string, span Span) {
	s.HazardOccurrences = append(s.HazardOccurrences, HazardOccurrence{Code: code, Span: span})
}

// AddFinding appends a finding unless its code has already fired in this
// scan (declaration-order dedup).
func (s *ScanState) AddFinding(f Finding) {
	for _, existing := range s.Findings {
		if existing.Code == f.Code {
			return
		}
	}
	s.Findings = append(s.Findings, f)
}

// HasFinding reports whether code has already fired in this scan.
func (s *ScanState) HasFinding(code string) bool {
	for _, f := range s.Findings {
		if f.Code == code {
			return true
		}
	}
	return false
}

// ReasonCodes returns the deterministic, duplicate-free list of finding
// codes in declaration/first-match order.
func (s *ScanState) ReasonCodes() []string {
	codes := make([]string, 0, len(s.Findings))
	for _, f := range s.Findings {
		codes = append(codes, f.Code)
	}
	return codes
}
