package entity

import (
	"time"

	"github.com/google/uuid"
)

// TestRecord is a single typing test taken by an account.
// The credential core only removes these when the owning account is deleted.
type TestRecord struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	Language   string
	TestTime   float64 // Duration of the test in seconds.
	TimeOfTest time.Time
	Speed      float64
	Accuracy   float64
}
