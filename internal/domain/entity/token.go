package entity

import "github.com/google/uuid"

// TokenPurpose discriminates the claim shapes signed with the shared secret.
type TokenPurpose string

const (
	// PurposeSession marks a token that asserts an authenticated account identity.
	PurposeSession TokenPurpose = "session"
	// PurposeEmailVerification marks a token that asserts control of an email address.
	PurposeEmailVerification TokenPurpose = "email_verification"
)

// String returns the string representation of the TokenPurpose.
func (p TokenPurpose) String() string {
	return string(p)
}

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	AccountID uuid.UUID
}

// VerificationClaims is the payload of an email verification token.
// Proof is a one-way hash of Email that is re-checked when the link is consumed.
type VerificationClaims struct {
	Email string
	Proof string
}
