package service

import "context"

// CredentialCache holds the hash of a temporary reset credential per email.
// Entries expire after a fixed lifetime that starts when they are put.
type CredentialCache interface {
	// Put stores hash for email, replacing any previous entry and restarting its lifetime.
	Put(ctx context.Context, email, hash string) error

	// Get returns the stored hash, or found=false when there is no live entry.
	Get(ctx context.Context, email string) (hash string, found bool, err error)

	// Remove deletes the entry for email. Removing a missing entry is not an error.
	Remove(ctx context.Context, email string) error
}
