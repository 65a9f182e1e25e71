package apikey

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oshaani/workspace-employee/internal/db/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.AutoMigrate(&models.ApiKey{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(database)
}

func TestGenerateAndLookup(t *testing.T) {
	store := newTestStore(t)

	raw, err := store.Generate("user@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(raw, "ge_") {
		t.Errorf("key %q missing ge_ prefix", raw)
	}

	userID, ok := store.Lookup(raw)
	if !ok || userID != "user@example.com" {
		t.Fatalf("Lookup = (%q, %v)", userID, ok)
	}
}

func TestLookupRejectsUnknownAndEmpty(t *testing.T) {
	store := newTestStore(t)

	if _, ok := store.Lookup("ge_never-issued"); ok {
		t.Error("unknown key resolved")
	}
	if _, ok := store.Lookup(""); ok {
		t.Error("empty key resolved")
	}
}

func TestOnlyHashIsStored(t *testing.T) {
	store := newTestStore(t)
	raw, err := store.Generate("user@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var recs []models.ApiKey
	if err := store.db.Find(&recs).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Hash == raw {
		t.Error("raw key persisted instead of hash")
	}
	if recs[0].Hash != HashKey(raw) {
		t.Error("stored hash does not match key")
	}
}

func TestMultipleKeysPerUser(t *testing.T) {
	store := newTestStore(t)

	k1, _ := store.Generate("user@example.com")
	k2, _ := store.Generate("user@example.com")
	if k1 == k2 {
		t.Fatal("two generated keys are identical")
	}
	for _, k := range []string{k1, k2} {
		if userID, ok := store.Lookup(k); !ok || userID != "user@example.com" {
			t.Errorf("Lookup(%q) = (%q, %v)", k, userID, ok)
		}
	}
}

func TestRevoke(t *testing.T) {
	store := newTestStore(t)
	k1, _ := store.Generate("a@example.com")
	store.Generate("a@example.com")
	k3, _ := store.Generate("b@example.com")

	revoked, err := store.Revoke("a@example.com")
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked != 2 {
		t.Errorf("revoked = %d, want 2", revoked)
	}
	if _, ok := store.Lookup(k1); ok {
		t.Error("revoked key still resolves")
	}
	if _, ok := store.Lookup(k3); !ok {
		t.Error("other user's key was revoked")
	}

	revoked, err = store.Revoke("a@example.com")
	if err != nil || revoked != 0 {
		t.Errorf("second revoke = (%d, %v), want (0, nil)", revoked, err)
	}
}
