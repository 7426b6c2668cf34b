package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// Role represents the role assigned to a user account.
type Role string

const (
	// RoleUser is a regular user account.
	RoleUser Role = "user"
	// RoleSuperAdmin is an administrator with access to the admin area.
	RoleSuperAdmin Role = "super-admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleSuperAdmin
}

// User represents a user account in the system.
// Accounts authenticate with email and password and carry optional
// two-factor and profile data.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Name is the user's display name.
	Name string `gorm:"size:255;not null" json:"name"`
	// Email is the user's unique email address (stored normalized, lowercase).
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	// Password is the Argon2id hashed password. Never serialized.
	Password string `gorm:"size:255" json:"-"`
	// Role is the account role (user or super-admin).
	Role Role `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	// EmailVerifiedAt is set once the user verified their email address.
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	// TwoFactorEnabled indicates a two-factor setup was started.
	TwoFactorEnabled bool `json:"two_factor_enabled"`
	// TwoFactorSecret is the TOTP shared secret. Never serialized.
	TwoFactorSecret string `gorm:"size:255" json:"-"`
	// TwoFactorConfirmedAt is set once the user confirmed a TOTP code.
	TwoFactorConfirmedAt *time.Time `json:"two_factor_confirmed_at"`
	// Phone is an optional contact number.
	Phone string `gorm:"size:20" json:"phone"`
	// Bio is an optional free-form profile text.
	Bio string `gorm:"size:1000" json:"bio"`
	// ProfileImage is the storage path of the profile image, managed externally.
	ProfileImage string `gorm:"size:255" json:"profile_image"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating user passwords.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}

// HasVerifiedEmail reports whether the user's email address was verified.
func (u *User) HasVerifiedEmail() bool {
	return u.EmailVerifiedAt != nil
}

// HasTwoFactorEnabled reports whether two-factor auth is fully set up.
// A started but unconfirmed setup does not count.
func (u *User) HasTwoFactorEnabled() bool {
	return u.TwoFactorEnabled && u.TwoFactorConfirmedAt != nil
}
