package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// AccessToken represents an opaque bearer credential bound to a user.
// Only a SHA-256 hash of the token secret is stored; the plaintext form
// "<id>|<secret>" is shown once at issuance.
type AccessToken struct {
	ID uint64 `gorm:"primaryKey" json:"id"`
	// UserID is the owning account.
	UserID uint64 `gorm:"index;not null" json:"user_id"`
	// Name labels the token (e.g. "auth_token").
	Name string `gorm:"size:100;not null" json:"name"`
	// Hash is the hex encoded SHA-256 hash of the token secret.
	Hash string `gorm:"uniqueIndex;size:64;not null" json:"-"`
	// LastUsedAt is updated on every successful verification.
	LastUsedAt *time.Time `json:"last_used_at"`
	// CreatedAt is the timestamp when the token was issued (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
}

// HashTokenSecret returns the hex encoded SHA-256 hash of a token secret.
func HashTokenSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
