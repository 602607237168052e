// Package auth implements the credential and token lifecycle: password
// hashing, signed session tokens, and one-time reset secrets.
package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher applies a salted one-way transform to plaintext passwords.
// The bcrypt output embeds salt and cost, so no separate salt storage is
// needed.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher constructs a hasher with the fixed work factor used
// for every stored credential.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: 10}
}

// Hash derives a fresh hash from plaintext. The random salt makes repeated
// calls on the same input produce different outputs.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. Malformed
// stored hashes verify as false.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
