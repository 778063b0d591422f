package store

import "testing"

func TestArtistCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	as := NewArtistStore(db)

	a, err := as.Create("Maria", "Ink Haven", "maria@inkhaven.test", "token-hash-1")
	if err != nil {
		t.Fatalf("create artist: %v", err)
	}
	if a.ID == "" {
		t.Error("expected non-empty id")
	}
	if a.DisplayName() != "Ink Haven" {
		t.Errorf("display name = %q, want Ink Haven", a.DisplayName())
	}

	got, err := as.GetByTokenHash("token-hash-1")
	if err != nil {
		t.Fatalf("get by token hash: %v", err)
	}
	if got == nil || got.ID != a.ID {
		t.Errorf("got = %+v, want artist %s", got, a.ID)
	}

	if missing, _ := as.GetByTokenHash("nope"); missing != nil {
		t.Errorf("expected nil for unknown token hash, got %+v", missing)
	}
}

func TestArtistDisplayNameFallbacks(t *testing.T) {
	db := setupTestDB(t)
	as := NewArtistStore(db)

	noStudio, _ := as.Create("Solo", "", "solo@test.test", "hash-a")
	if noStudio.DisplayName() != "Solo" {
		t.Errorf("display name = %q, want Solo", noStudio.DisplayName())
	}

	anon, _ := as.Create("", "", "anon@test.test", "hash-b")
	if anon.DisplayName() != "Your Artist" {
		t.Errorf("display name = %q, want generic placeholder", anon.DisplayName())
	}
}
