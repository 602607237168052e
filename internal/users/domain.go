// Package users implements the account lifecycle: registration, login,
// profile management, and password recovery.
package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocklist-app/stocklist/internal/auth"
)

// DefaultPhotoURL is assigned to accounts registered without a photo.
const DefaultPhotoURL = "https://res.cloudinary.com/radu-project/image/upload/v1675414792/userNew_xn25rp.png"

// User is the identity record. PasswordHash is never serialized; clients
// only ever see the Profile projection.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Photo        string
	Phone        string
	Bio          string
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SetPassword unconditionally computes and stores a fresh hash. There is
// no dirty-field tracking: callers invoke this exactly when the plaintext
// password changes.
func (u *User) SetPassword(plaintext string, hasher *auth.PasswordHasher) error {
	hash, err := hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// Profile is the sanitized user projection sent to clients.
type Profile struct {
	ID    uuid.UUID `json:"_id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Photo string    `json:"photo"`
	Phone string    `json:"phone"`
	Bio   string    `json:"bio"`
}

// Profile strips the credential fields for transmission.
func (u *User) Profile() Profile {
	return Profile{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Photo: u.Photo,
		Phone: u.Phone,
		Bio:   u.Bio,
	}
}

// ResetToken is the ephemeral credential-recovery record. Only the sha256
// of the mailed secret is persisted.
type ResetToken struct {
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}
