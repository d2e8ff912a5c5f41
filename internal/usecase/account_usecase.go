// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"typeit/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to create a provisional account.
type RegisterInput struct {
	FirstName string
	LastName  string
	UserName  string
	Email     string
	Password  string
}

// LoginInput defines the data required for an account to log in.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateStatsInput replaces the aggregate statistics of an account.
type UpdateStatsInput struct {
	AccountID uuid.UUID
	Stats     entity.UsageStats
}

// UpdateProfileInput replaces the display names of an account.
type UpdateProfileInput struct {
	AccountID uuid.UUID
	FirstName string
	LastName  string
	UserName  string
}

// ChangePasswordInput defines the data required to rotate a password.
type ChangePasswordInput struct {
	AccountID       uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// DeleteAccountInput confirms an account deletion with the current password.
type DeleteAccountInput struct {
	AccountID       uuid.UUID
	CurrentPassword string
}

// --- Output DTOs ---

// LoginOutput returns the session token after a successful login.
type LoginOutput struct {
	SessionToken string
	Account      *entity.Account
}

// AccountUsecase defines the interface for account-related business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AccountUsecase interface {
	// Register creates a provisional account and sends the verification email.
	Register(ctx context.Context, input *RegisterInput) error

	// Login resolves a password or a pending temporary credential into a session token.
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)

	GetAccount(ctx context.Context, accountID uuid.UUID) (*entity.Account, error)
	UpdateStats(ctx context.Context, input *UpdateStatsInput) error
	UpdateProfile(ctx context.Context, input *UpdateProfileInput) error

	// ChangePassword rotates the password and discards any pending temporary credential.
	ChangePassword(ctx context.Context, input *ChangePasswordInput) error

	// VerifyEmail activates the account named by a verification token. Already active accounts are left as is.
	VerifyEmail(ctx context.Context, token string) error

	// DeleteAccount removes the account together with its test records.
	DeleteAccount(ctx context.Context, input *DeleteAccountInput) error

	// RequestPasswordReset issues a temporary credential and mails it to the account owner.
	RequestPasswordReset(ctx context.Context, email string) error
}
