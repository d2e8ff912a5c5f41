// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"

	"typeit/config"
	"typeit/internal/domain/service"
)

// maxBcryptInput is the number of bytes bcrypt reads from its input.
const maxBcryptInput = 72

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost int
}

// NewBcryptHasher is the constructor for bcryptHasher.
// It returns the implementation as a service.PasswordHasher interface.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	cost := bcrypt.DefaultCost
	if cfg.Auth != nil && cfg.Auth.BcryptCost != 0 {
		cost = cfg.Auth.BcryptCost
	}

	return NewBcryptHasherWithCost(cost)
}

// NewBcryptHasherWithCost creates a hasher with an explicit cost factor.
// Costs outside bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewBcryptHasherWithCost(cost int) service.PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &bcryptHasher{cost: cost}
}

// Hash generates a salted hash from a plaintext secret using bcrypt.
// bcrypt automatically handles salt generation.
func (h *bcryptHasher) Hash(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(prepare(secret), h.cost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

// Check compares a plaintext secret with a bcrypt hash.
func (h *bcryptHasher) Check(secret, hash string) bool {
	// err is nil if the secret and hash match.
	return bcrypt.CompareHashAndPassword([]byte(hash), prepare(secret)) == nil
}

// prepare condenses secrets longer than bcrypt's input limit into a SHA-256 digest,
// so that long secrets differing only after byte 72 still hash differently.
func prepare(secret string) []byte {
	if len(secret) <= maxBcryptInput {
		return []byte(secret)
	}

	sum := sha256.Sum256([]byte(secret))

	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
