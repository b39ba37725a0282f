package gateway

import (
	"time"

	"github.com/bridgewarden/bridgewarden/internal/approvals"
	"github.com/bridgewarden/bridgewarden/internal/pipeline"
	"github.com/bridgewarden/bridgewarden/internal/quarantine"
)

// SourceApprovalStatus is the client-visible view of an approvals.Record.
type SourceApprovalStatus struct {
	ApprovalID string     `json:"approval_id"`
	Kind       string     `json:"kind"`
	Target     string     `json:"target"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	DecidedBy  string     `json:"decided_by,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

func statusFrom(rec approvals.Record) SourceApprovalStatus {
	return SourceApprovalStatus{
		ApprovalID: rec.ApprovalID,
		Kind:       rec.Kind,
		Target:     rec.Target,
		Status:     rec.Status,
		CreatedAt:  rec.CreatedAt,
		DecidedAt:  rec.DecidedAt,
		DecidedBy:  rec.DecidedBy,
		Notes:      rec.Notes,
	}
}

// QuarantineView is the redacted, bounded record bw_quarantine_get returns.
type QuarantineView struct {
	OriginalExcerpt string                       `json:"original_excerpt"`
	SanitizedText   string                       `json:"sanitized_text"`
	Reasons         []string                     `json:"reasons"`
	RiskScore       float64                      `json:"risk_score"`
	Metadata        pipeline.SourceDescriptor    `json:"metadata"`
	Redactions      []pipeline.Redaction         `json:"redactions"`
	PolicyVersion   string                       `json:"policy_version"`
}

func viewFrom(excerpt quarantine.Excerpt) QuarantineView {
	return QuarantineView{
		OriginalExcerpt: excerpt.OriginalExcerpt,
		SanitizedText:   excerpt.SanitizedText,
		Reasons:         excerpt.Reasons,
		RiskScore:       excerpt.RiskScore,
		Metadata:        excerpt.Source,
		Redactions:      excerpt.Redactions,
		PolicyVersion:   excerpt.PolicyVersion,
	}
}

// RepoFetchSummary totals the outcomes across one bw_fetch_repo call.
type RepoFetchSummary struct {
	Totals   int `json:"totals"`
	Warnings int `json:"warnings"`
	Blocks   int `json:"blocks"`
	CacheHits int `json:"cache_hits"`
}

// RepoFetchResult is the return shape of bw_fetch_repo.
type RepoFetchResult struct {
	RepoID        string             `json:"repo_id"`
	NewRevision   string             `json:"new_revision"`
	ChangedFiles  []string           `json:"changed_files"`
	Summary       RepoFetchSummary   `json:"summary"`
	Findings      []pipeline.GuardResult `json:"findings"`
	QuarantineIDs []string           `json:"quarantine_ids"`
}
