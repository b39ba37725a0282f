package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bridgewarden/bridgewarden/internal/pipeline"
)

func TestAppend_WritesOneJSONLinePerEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log := NewLog(path)

	e1 := EntryFrom(pipeline.GuardResult{
		Decision:      pipeline.DecisionAllow,
		RiskScore:     0,
		ContentHash:   "aaa",
		PolicyVersion: "v1",
	}, time.Unix(1000, 0))
	e2 := EntryFrom(pipeline.GuardResult{
		Decision:      pipeline.DecisionBlock,
		RiskScore:     0.9,
		Reasons:       []string{"POLICY_OVERRIDE"},
		ContentHash:   "bbb",
		PolicyVersion: "v1",
	}, time.Unix(2000, 0))

	if err := log.Append(e1); err != nil {
		t.Fatalf("Append e1: %v", err)
	}
	if err := log.Append(e2); err != nil {
		t.Fatalf("Append e2: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening audit log: %v", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var decoded Entry
	if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
		t.Fatalf("decoding second line: %v", err)
	}
	if decoded.ContentHash != "bbb" || decoded.Decision != pipeline.DecisionBlock {
		t.Errorf("unexpected second entry: %+v", decoded)
	}
}

func TestRotate_RenamesExistingLogAndStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log := NewLog(path)

	if err := log.Append(EntryFrom(pipeline.GuardResult{Decision: pipeline.DecisionAllow}, time.Unix(0, 0))); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rotated, err := log.Rotate(time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if rotated == "" {
		t.Fatal("expected a non-empty rotated path")
	}
	if _, err := os.Stat(rotated); err != nil {
		t.Errorf("expected rotated file to exist: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected original log path to no longer exist after rotation")
	}

	if err := log.Append(EntryFrom(pipeline.GuardResult{Decision: pipeline.DecisionWarn}, time.Unix(2000, 0))); err != nil {
		t.Fatalf("Append after rotate: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected a fresh log file after rotation: %v", err)
	}
}

func TestRotate_NoOpWhenLogDoesNotExist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never-written.jsonl")
	log := NewLog(path)

	rotated, err := log.Rotate(time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if rotated != "" {
		t.Errorf("expected an empty rotated path when there is nothing to rotate, got %q", rotated)
	}
}

func TestAppend_CreatesFileIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "does-not-exist-yet.jsonl")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	log := NewLog(path)

	if err := log.Append(EntryFrom(pipeline.GuardResult{Decision: pipeline.DecisionAllow}, time.Unix(0, 0))); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected audit log to be created: %v", err)
	}
}
