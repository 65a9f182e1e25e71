package models

import "time"

// ApiKey maps the SHA-256 hash of an issued API key to its user. Raw keys
// are never stored.
type ApiKey struct {
	Hash      string `gorm:"primaryKey"` // sha256 hex of the raw key
	UserID    string `gorm:"index"`
	CreatedAt time.Time
}
