// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus tracks whether an account has proven ownership of its email address.
type VerificationStatus int

const (
	// StatusProvisional is the initial state after registration. Provisional accounts cannot log in.
	StatusProvisional VerificationStatus = 0
	// StatusActive is reached by consuming a verification link. It is terminal.
	StatusActive VerificationStatus = 1
)

// String returns the string representation of the VerificationStatus.
func (s VerificationStatus) String() string {
	switch s {
	case StatusProvisional:
		return "provisional"
	case StatusActive:
		return "active"
	default:
		return "unknown"
	}
}

// IsActive reports whether the account may authenticate.
func (s VerificationStatus) IsActive() bool {
	return s == StatusActive
}

// Account is the core entity in the system, representing a registered typist.
type Account struct {
	ID           uuid.UUID          // Stable identifier assigned at creation.
	Email        string             // Unique among active accounts; also the login identifier.
	FirstName    string             // Display first name.
	LastName     string             // Display last name, optional.
	UserName     string             // Public handle.
	PasswordHash string             // bcrypt hash, never the raw secret and never empty.
	Status       VerificationStatus // Drives login eligibility.
	Stats        UsageStats         // Aggregates maintained by the reporting path.
	CreatedAt    time.Time          // Timestamp of when this account was created.
	UpdatedAt    time.Time          // Timestamp of the last modification.
}

// UsageStats holds aggregate typing-test statistics for an account.
type UsageStats struct {
	NumberOfTestsGiven int
	TotalTimeSpent     float64
	BestSpeed          float64
	AverageSpeed       float64
	BestAccuracy       float64
	AverageAccuracy    float64
}

// Activate moves the account into the Active state. Activating an active account is a no-op.
func (a *Account) Activate() bool {
	if a.Status.IsActive() {
		return false
	}
	a.Status = StatusActive

	return true
}
