package postgres

import (
	"context"

	"typeit/internal/domain/entity"
	domainerrors "typeit/internal/domain/errors"
	"typeit/internal/domain/repository"
	"typeit/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type testRecordRepository struct {
	db *gorm.DB
}

// NewTestRecordRepository is the constructor for testRecordRepository.
func NewTestRecordRepository(db *gorm.DB) repository.TestRecordRepository {
	return &testRecordRepository{db: db}
}

// ListByAccountID returns the account's records, newest first.
func (repo *testRecordRepository) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entity.TestRecord, error) {
	var records []model.TestRecordModel
	if err := repo.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("time_of_test DESC").
		Find(&records).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list test records")
	}

	out := make([]*entity.TestRecord, 0, len(records))
	for i := range records {
		out = append(out, toTestRecordDomain(&records[i]))
	}

	return out, nil
}

// DeleteByAccountID removes every record owned by the account.
func (repo *testRecordRepository) DeleteByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	result := repo.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&model.TestRecordModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete test records")
	}

	return result.RowsAffected, nil
}

func toTestRecordDomain(data *model.TestRecordModel) *entity.TestRecord {
	return &entity.TestRecord{
		ID:         data.ID,
		AccountID:  data.AccountID,
		Language:   data.Language,
		TestTime:   data.TestTime,
		TimeOfTest: data.TimeOfTest,
		Speed:      data.Speed,
		Accuracy:   data.Accuracy,
	}
}
