package quarantine

import (
	"testing"
	"time"

	"github.com/bridgewarden/bridgewarden/internal/pipeline"
)

func TestIDFor_UsesFirst16HexChars(t *testing.T) {
	hash := "abcdef0123456789abcdef0123456789abcdef0123456789abcdef01234567"
	id := IDFor(hash)
	if id != "q_abcdef0123456789" {
		t.Errorf("got %s", id)
	}
}

func testRecord(contentHash string) Record {
	return Record{
		ContentHash:   contentHash,
		Original:      []byte("some blocked content"),
		SanitizedText: "some blocked content",
		Reasons:       []string{"POLICY_OVERRIDE"},
		RiskScore:     0.8,
		Source:        pipeline.SourceDescriptor{Kind: "web", URL: "https://example.com"},
		PolicyVersion: "v1",
		CreatedAt:     time.Unix(0, 0),
	}
}

func TestPut_FirstWriteIsNotACacheHit(t *testing.T) {
	store := NewStore(t.TempDir())
	hash := "11112222333344445555666677778888999900001111222233334444aaaa"
	hit, err := store.Put(testRecord(hash))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if hit {
		t.Error("expected cacheHit=false on first write")
	}
}

func TestPut_SecondWriteSameHashIsACacheHit(t *testing.T) {
	store := NewStore(t.TempDir())
	hash := "22223333444455556666777788889999000011112222333344445555bbbb"

	_, err := store.Put(testRecord(hash))
	if err != nil {
		t.Fatalf("first Put: %v", err)
	}

	hit, err := store.Put(testRecord(hash))
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if !hit {
		t.Error("expected cacheHit=true on duplicate content hash")
	}
}

func TestGet_ReturnsExcerptNotFullOriginal(t *testing.T) {
	store := NewStore(t.TempDir())
	hash := "33334444555566667777888899990000111122223333444455556666cccc"
	rec := testRecord(hash)
	rec.Original = make([]byte, 10000)
	for i := range rec.Original {
		rec.Original[i] = 'x'
	}

	if _, err := store.Put(rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	excerpt, err := store.Get(IDFor(hash), 100)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(excerpt.OriginalExcerpt) != 100 {
		t.Errorf("expected excerpt bounded to 100 bytes, got %d", len(excerpt.OriginalExcerpt))
	}
}

func TestGet_UnknownIDErrors(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, err := store.Get("q_doesnotexist0000", 0); err == nil {
		t.Error("expected an error for an unknown quarantine id")
	}
}

func TestDeleteExpired_RemovesOnlyRecordsOlderThanCutoff(t *testing.T) {
	store := NewStore(t.TempDir())

	old := testRecord("44445555666677778888999900001111222233334444555566667777dddd")
	old.CreatedAt = time.Unix(0, 0)
	if _, err := store.Put(old); err != nil {
		t.Fatalf("Put old: %v", err)
	}

	fresh := testRecord("55556666777788889999000011112222333344445555666677778888eeee")
	fresh.CreatedAt = time.Now()
	if _, err := store.Put(fresh); err != nil {
		t.Fatalf("Put fresh: %v", err)
	}

	removed, err := store.DeleteExpired(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 record removed, got %d", removed)
	}

	if _, err := store.Get(IDFor(old.ContentHash), 0); err == nil {
		t.Error("expected the expired record to be gone")
	}
	if _, err := store.Get(IDFor(fresh.ContentHash), 0); err != nil {
		t.Errorf("expected the fresh record to survive, got error: %v", err)
	}
}

func TestValidateContentHash(t *testing.T) {
	good := "abcdef0123456789abcdef0123456789abcdef0123456789abcdef01234567"
	if err := ValidateContentHash(good); err != nil {
		t.Errorf("expected valid hash to pass, got %v", err)
	}
	if err := ValidateContentHash("tooshort"); err == nil {
		t.Error("expected error for short hash")
	}
	if err := ValidateContentHash("zz" + good[2:]); err == nil {
		t.Error("expected error for non-hex hash")
	}
}
