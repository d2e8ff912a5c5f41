package repository

import (
	"context"

	"typeit/internal/domain/entity"

	"github.com/google/uuid"
)

// TestRecordRepository persists typing test results owned by an account.
type TestRecordRepository interface {
	ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entity.TestRecord, error)

	// DeleteByAccountID removes every record of the account and reports how many were removed.
	DeleteByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
}
