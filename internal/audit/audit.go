// Package audit implements the append-only JSONL audit trail every scan
// decision is recorded to. Original text is never logged — only the
// content hash, decision, and bookkeeping metadata.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bridgewarden/bridgewarden/internal/pipeline"
)

// Entry is one audit record, written as a single JSON line.
type Entry struct {
	Timestamp     time.Time            `json:"ts"`
	Source        pipeline.SourceDescriptor `json:"source"`
	ContentHash   string               `json:"content_hash"`
	RiskScore     float64              `json:"risk_score"`
	Decision      string               `json:"decision"`
	Reasons       []string             `json:"reasons"`
	PolicyVersion string               `json:"policy_version"`
	CacheHit      bool                 `json:"cache_hit"`
	QuarantineID  string               `json:"quarantine_id,omitempty"`
	Redactions    []pipeline.Redaction `json:"redactions_summary,omitempty"`
}

// Log appends entries to a JSONL file. Each Append is a single os.File
// Write call so concurrent writers sharing the O_APPEND file descriptor
// never interleave partial lines, as long as the write stays within
// PIPE_BUF.
type Log struct {
	path string
}

// NewLog returns a Log that appends to path. The parent directory must
// already exist (see internal/datadir.Dir.EnsureAll).
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Append writes one Entry as a single JSON line. If the marshaled line
// would exceed pipeBufBytes, the write still happens as one os.File.Write
// call; atomicity against concurrent writers on POSIX systems is only
// guaranteed up to PIPE_BUF, so callers running many concurrent gateway
// processes against the same log file should additionally serialize via
// an external lock for entries long enough to cross that boundary.
func (l *Log) Append(entry Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshaling entry: %w", err)
	}
	line = append(line, '\n')

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("audit: opening log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(line); err != nil {
		return fmt.Errorf("audit: writing entry: %w", err)
	}
	return nil
}

// Rotate renames the current log file to a timestamped sibling (so the
// next Append starts a fresh file) and returns the rotated path. A
// missing log file is not an error — there was nothing to rotate.
// Invoked by the retention sweep, never by scan handling itself.
func (l *Log) Rotate(now time.Time) (string, error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("audit: checking log before rotation: %w", err)
	}

	rotated := fmt.Sprintf("%s.%s", l.path, now.UTC().Format("20060102T150405Z"))
	if err := os.Rename(l.path, rotated); err != nil {
		return "", fmt.Errorf("audit: rotating log: %w", err)
	}
	return rotated, nil
}

// pipeBufBytes is the conservative cross-platform assumption for atomic
// pipe/file append writes (POSIX guarantees at least this much on
// PIPE_BUF-bearing systems; Linux's default is larger).
const pipeBufBytes = 512

// EntryFrom builds an Entry from a GuardResult, ready to hand to Append.
func EntryFrom(result pipeline.GuardResult, now time.Time) Entry {
	return Entry{
		Timestamp:     now,
		Source:        result.Source,
		ContentHash:   result.ContentHash,
		RiskScore:     result.RiskScore,
		Decision:      result.Decision,
		Reasons:       result.Reasons,
		PolicyVersion: result.PolicyVersion,
		CacheHit:      result.CacheHit,
		QuarantineID:  result.QuarantineID,
		Redactions:    result.Redactions,
	}
}
