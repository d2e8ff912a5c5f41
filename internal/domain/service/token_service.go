package service

import (
	"typeit/internal/domain/entity"

	"github.com/google/uuid"
)

// TokenService issues and parses the signed tokens used by the account flows.
// Each token carries a purpose; parsing a token of the wrong purpose fails.
type TokenService interface {
	// IssueSessionToken creates a bearer token identifying the account.
	IssueSessionToken(accountID uuid.UUID) (string, error)

	// IssueVerificationToken creates the token embedded in an email verification link.
	IssueVerificationToken(email, proof string) (string, error)

	// ParseSessionToken validates a session token and returns its claims.
	ParseSessionToken(token string) (*entity.SessionClaims, error)

	// ParseVerificationToken validates a verification token and returns its claims.
	ParseVerificationToken(token string) (*entity.VerificationClaims, error)
}
