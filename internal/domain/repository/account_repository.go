// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"typeit/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrAccountNotFound is returned by lookups that match no stored account.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository defines the standard operations for account persistence.
type AccountRepository interface {
	// FindByID retrieves a single account by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)

	// FindByEmail retrieves a single account by its email address.
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)

	// Create persists a new account.
	Create(ctx context.Context, account *entity.Account) error

	// The update methods below write only their own columns, so concurrent updates of
	// different fields never overwrite each other. A missing account yields ErrAccountNotFound.

	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error

	// UpdateStats replaces the usage statistics columns.
	UpdateStats(ctx context.Context, id uuid.UUID, stats entity.UsageStats) error

	// UpdateProfile replaces the display names.
	UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName, userName string) error

	// Activate marks the account as Active.
	Activate(ctx context.Context, id uuid.UUID) error

	// Delete removes the account. Deleting a missing account returns ErrAccountNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
}
