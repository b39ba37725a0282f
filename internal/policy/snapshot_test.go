package policy

import "testing"

func TestNewStoreLoadsDefaultPack(t *testing.T) {
	store, err := NewStore("balanced")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	snapshot := store.Current()
	if snapshot == nil {
		t.Fatal("Current returned a nil snapshot")
	}
	if snapshot.Profile != "balanced" {
		t.Errorf("expected profile balanced, got %s", snapshot.Profile)
	}
	if snapshot.Pack == nil || len(snapshot.Pack.Rules) == 0 {
		t.Fatal("expected a non-empty rule pack")
	}
	if snapshot.Version == "" {
		t.Error("expected a non-empty policy version")
	}
}

func TestVersionForIsDeterministicAcrossIdenticalStores(t *testing.T) {
	a, err := NewStore("strict")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	b, err := NewStore("strict")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if a.Current().Version != b.Current().Version {
		t.Errorf("expected identical pack+profile to produce the same version, got %s and %s",
			a.Current().Version, b.Current().Version)
	}
}

func TestVersionForDiffersAcrossProfiles(t *testing.T) {
	strict, err := NewStore("strict")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	permissive, err := NewStore("permissive")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if strict.Current().Version == permissive.Current().Version {
		t.Error("expected different profiles to produce different policy versions")
	}
}

func TestReloadSwapsSnapshotWithoutDisturbingAHeldReference(t *testing.T) {
	store, err := NewStore("balanced")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	held := store.Current()

	if err := store.Reload("strict"); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if held.Profile != "balanced" {
		t.Errorf("a reference taken before Reload must keep its original profile, got %s", held.Profile)
	}

	current := store.Current()
	if current.Profile != "strict" {
		t.Errorf("expected Current to reflect the reload, got profile %s", current.Profile)
	}
	if current == held {
		t.Error("expected Reload to install a new Snapshot instance, not mutate the old one")
	}
}
