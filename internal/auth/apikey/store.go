// Package apikey issues and resolves per-user API keys for programmatic
// access. Only the SHA-256 hash of a key is persisted; the raw key is shown
// once at generation time.
package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/oshaani/workspace-employee/internal/db/models"
	"gorm.io/gorm"
)

// Store is the hash → user_id index backed by SQLite.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// HashKey returns the hex SHA-256 of a raw key.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Generate issues a new key for a user and returns the raw key. A user may
// hold multiple keys; keys never expire.
func (s *Store) Generate(userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	raw := "ge_" + base64.RawURLEncoding.EncodeToString(buf)

	rec := models.ApiKey{Hash: HashKey(raw), UserID: userID}
	if err := s.db.Create(&rec).Error; err != nil {
		return "", fmt.Errorf("store api key: %w", err)
	}
	return raw, nil
}

// Lookup resolves a raw key to its user. Returns false for any key that was
// never issued, including the empty string.
func (s *Store) Lookup(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	var rec models.ApiKey
	if err := s.db.Where("hash = ?", HashKey(raw)).First(&rec).Error; err != nil {
		return "", false
	}
	return rec.UserID, true
}

// Revoke removes every key issued to a user and returns how many were
// removed. Revoking a user with no keys is not an error.
func (s *Store) Revoke(userID string) (int64, error) {
	res := s.db.Where("user_id = ?", userID).Delete(&models.ApiKey{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
