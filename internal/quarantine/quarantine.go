// Package quarantine implements content-addressed storage of BLOCKed and
// WARNed documents. Records are keyed by content_hash, deduplicated (a
// second BLOCK on identical bytes is a cache hit against the existing
// record), and written atomically via temp-file + rename.
package quarantine

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bridgewarden/bridgewarden/internal/pipeline"
)

// DefaultExcerptBytes is the default size of the original-bytes excerpt
// returned by Get.
const DefaultExcerptBytes = 4096

// Record is the persisted quarantine entry for one piece of content.
type Record struct {
	QuarantineID  string               `json:"quarantine_id"`
	ContentHash   string               `json:"content_hash"`
	Original      []byte               `json:"original"`
	SanitizedText string               `json:"sanitized_text"`
	Reasons       []string             `json:"reasons"`
	RiskScore     float64              `json:"risk_score"`
	Redactions    []pipeline.Redaction `json:"redactions"`
	Source        pipeline.SourceDescriptor `json:"source"`
	PolicyVersion string               `json:"policy_version"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Excerpt is the redacted, bounded view of a quarantined record returned
// to a caller inspecting it — never the raw, unredacted original.
type Excerpt struct {
	OriginalExcerpt string               `json:"original_excerpt"`
	SanitizedText   string               `json:"sanitized_text"`
	Reasons         []string             `json:"reasons"`
	RiskScore       float64              `json:"risk_score"`
	Redactions      []pipeline.Redaction `json:"redactions"`
	Source          pipeline.SourceDescriptor `json:"source"`
	PolicyVersion   string               `json:"policy_version"`
}

// Store persists quarantine records under a directory, one JSON file per
// content hash.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The caller is responsible for
// ensuring dir exists (see internal/datadir.Dir.EnsureAll).
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// IDFor derives the quarantine_id for a content hash:
// "q_" + the first 16 hex characters of content_hash.
func IDFor(contentHash string) string {
	if len(contentHash) < 16 {
		return "q_" + contentHash
	}
	return "q_" + contentHash[:16]
}

func (s *Store) pathFor(contentHash string) string {
	return filepath.Join(s.dir, IDFor(contentHash)+".json")
}

// Put writes rec to disk atomically (temp file + fsync + rename) and
// returns (cacheHit=true, nil) if a record for the same content hash
// already existed — in which case the existing record is left untouched,
// preserving the original CreatedAt and any human annotations a future
// reviewer might have added out of band.
func (s *Store) Put(rec Record) (cacheHit bool, err error) {
	path := s.pathFor(rec.ContentHash)

	if _, statErr := os.Stat(path); statErr == nil {
		return true, nil
	} else if !os.IsNotExist(statErr) {
		return false, fmt.Errorf("quarantine: checking existing record: %w", statErr)
	}

	rec.QuarantineID = IDFor(rec.ContentHash)

	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("quarantine: marshaling record: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return false, fmt.Errorf("quarantine: creating temp file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return false, fmt.Errorf("quarantine: writing temp file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return false, fmt.Errorf("quarantine: syncing temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return false, fmt.Errorf("quarantine: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return false, fmt.Errorf("quarantine: renaming into place: %w", err)
	}

	return false, nil
}

// Get loads the record for quarantineID and returns the bounded, redacted
// Excerpt a caller may see. excerptBytes <= 0 uses DefaultExcerptBytes.
// It never returns the full raw original.
func (s *Store) Get(quarantineID string, excerptBytes int) (Excerpt, error) {
	if excerptBytes <= 0 {
		excerptBytes = DefaultExcerptBytes
	}

	rec, err := s.load(quarantineID)
	if err != nil {
		return Excerpt{}, err
	}

	original := rec.Original
	if len(original) > excerptBytes {
		original = original[:excerptBytes]
	}

	return Excerpt{
		OriginalExcerpt: string(original),
		SanitizedText:   rec.SanitizedText,
		Reasons:         rec.Reasons,
		RiskScore:       rec.RiskScore,
		Redactions:      rec.Redactions,
		Source:          rec.Source,
		PolicyVersion:   rec.PolicyVersion,
	}, nil
}

func (s *Store) load(quarantineID string) (Record, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, quarantineID+"*.json"))
	if err != nil {
		return Record{}, fmt.Errorf("quarantine: scanning for %s: %w", quarantineID, err)
	}
	if len(matches) == 0 {
		return Record{}, fmt.Errorf("quarantine: no record for %s", quarantineID)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return Record{}, fmt.Errorf("quarantine: reading record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("quarantine: parsing record: %w", err)
	}
	return rec, nil
}

// RecordFrom builds a Record from a GuardResult and the bytes it was
// computed over, ready to hand to Put.
func RecordFrom(result pipeline.GuardResult, original []byte, now time.Time) Record {
	return Record{
		QuarantineID:  IDFor(result.ContentHash),
		ContentHash:   result.ContentHash,
		Original:      original,
		SanitizedText: result.SanitizedText,
		Reasons:       result.Reasons,
		RiskScore:     result.RiskScore,
		Redactions:    result.Redactions,
		Source:        result.Source,
		PolicyVersion: result.PolicyVersion,
		CreatedAt:     now,
	}
}

// DeleteExpired removes every record whose CreatedAt is strictly before
// cutoff and returns the count removed. This is the only operation
// allowed to delete quarantine records outside of Put's overwrite-free
// dedup path — invoked solely by the retention sweep.
func (s *Store) DeleteExpired(cutoff time.Time) (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "q_*.json"))
	if err != nil {
		return 0, fmt.Errorf("quarantine: scanning for expired records: %w", err)
	}

	removed := 0
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		if rec.CreatedAt.Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("quarantine: removing expired record %s: %w", rec.QuarantineID, err)
			}
			removed++
		}
	}
	return removed, nil
}

// ValidateContentHash reports whether hash looks like a well-formed
// lowercase-hex SHA-256 digest, so callers can fail fast on corrupt input
// before touching disk.
func ValidateContentHash(hash string) error {
	if len(hash) != 64 {
		return fmt.Errorf("quarantine: content hash must be 64 hex characters, got %d", len(hash))
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return fmt.Errorf("quarantine: content hash is not valid hex: %w", err)
	}
	return nil
}
