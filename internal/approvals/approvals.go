// Package approvals implements the human-in-the-loop source approval
// store: one JSON file per approval request, guarded by an exclusive
// advisory file lock for read-modify-write, with directory scan +
// in-memory sort for listing.
package approvals

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sys/unix"
)

// Status values an ApprovalRecord can hold.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusDenied   = "DENIED"
)

// Kind values identifying what an approval request is for.
const (
	KindWebDomain = "web_domain"
	KindRepoURL   = "repo_url"
)

// Record is one persisted approval request.
type Record struct {
	ApprovalID string     `json:"approval_id"`
	Kind       string     `json:"kind"`
	Target     string     `json:"target"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	DecidedBy  string     `json:"decided_by,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// Store is a directory of per-approval JSON files.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir, which must already exist (see
// internal/datadir.Dir.EnsureAll).
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) pathFor(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Create persists a new PENDING approval request and returns it.
func (s *Store) Create(id, kind, target string, now time.Time) (Record, error) {
	rec := Record{
		ApprovalID: id,
		Kind:       kind,
		Target:     target,
		Status:     StatusPending,
		CreatedAt:  now,
	}
	if err := s.writeLocked(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Get loads one approval record by id.
func (s *Store) Get(id string) (Record, error) {
	return s.readLocked(id)
}

// Decide loads the approval, applies decision ("APPROVED" or "DENIED")
// and notes, and persists the result under the same exclusive lock used
// for the read, so two concurrent decisions on the same request cannot
// race.
func (s *Store) Decide(id, decision, decidedBy, notes string, now time.Time) (Record, error) {
	path := s.pathFor(id)

	lockFile, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return Record{}, fmt.Errorf("approvals: opening %s: %w", id, err)
	}
	defer lockFile.Close()

	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX); err != nil {
		return Record{}, fmt.Errorf("approvals: locking %s: %w", id, err)
	}
	defer unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)

	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("approvals: reading %s: %w", id, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("approvals: parsing %s: %w", id, err)
	}

	rec.Status = decision
	rec.DecidedAt = &now
	rec.DecidedBy = decidedBy
	rec.Notes = notes

	out, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("approvals: marshaling %s: %w", id, err)
	}
	if err := lockFile.Truncate(0); err != nil {
		return Record{}, fmt.Errorf("approvals: truncating %s: %w", id, err)
	}
	if _, err := lockFile.WriteAt(out, 0); err != nil {
		return Record{}, fmt.Errorf("approvals: writing %s: %w", id, err)
	}
	if err := lockFile.Sync(); err != nil {
		return Record{}, fmt.Errorf("approvals: syncing %s: %w", id, err)
	}

	return rec, nil
}

// List scans the store directory and returns records matching the
// (optional) status and kind filters, sorted by CreatedAt descending.
func (s *Store) List(status, kind string, limit int) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("approvals: listing %s: %w", s.dir, err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := entry.Name()[:len(entry.Name())-len(".json")]
		rec, err := s.readLocked(id)
		if err != nil {
			continue
		}
		if status != "" && rec.Status != status {
			continue
		}
		if kind != "" && rec.Kind != kind {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// FindByTarget returns the most recent approval record for (kind, target),
// if one exists, used to check whether a source already has a decided or
// pending approval before synthesizing a new request.
func (s *Store) FindByTarget(kind, target string) (Record, bool, error) {
	records, err := s.List("", kind, 0)
	if err != nil {
		return Record{}, false, err
	}
	for _, rec := range records {
		if rec.Target == target {
			return rec, true, nil
		}
	}
	return Record{}, false, nil
}

func (s *Store) readLocked(id string) (Record, error) {
	path := s.pathFor(id)
	file, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("approvals: opening %s: %w", id, err)
	}
	defer file.Close()

	if err := unix.Flock(int(file.Fd()), unix.LOCK_SH); err != nil {
		return Record{}, fmt.Errorf("approvals: locking %s: %w", id, err)
	}
	defer unix.Flock(int(file.Fd()), unix.LOCK_UN)

	var rec Record
	if err := json.NewDecoder(file).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("approvals: parsing %s: %w", id, err)
	}
	return rec, nil
}

func (s *Store) writeLocked(rec Record) error {
	path := s.pathFor(rec.ApprovalID)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("approvals: creating %s: %w", rec.ApprovalID, err)
	}
	defer file.Close()

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("approvals: locking %s: %w", rec.ApprovalID, err)
	}
	defer unix.Flock(int(file.Fd()), unix.LOCK_UN)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("approvals: marshaling %s: %w", rec.ApprovalID, err)
	}
	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("approvals: truncating %s: %w", rec.ApprovalID, err)
	}
	if _, err := file.WriteAt(data, 0); err != nil {
		return fmt.Errorf("approvals: writing %s: %w", rec.ApprovalID, err)
	}
	return file.Sync()
}
