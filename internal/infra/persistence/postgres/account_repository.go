package postgres

import (
	"context"
	"time"

	"typeit/internal/domain/entity"
	domainerrors "typeit/internal/domain/errors"
	"typeit/internal/domain/repository"
	"typeit/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// accountRepository implements the domain.AccountRepository interface using GORM.
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository is the constructor for accountRepository.
// It returns the repository as a domain.AccountRepository interface, adhering to dependency inversion.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

// FindByID retrieves a single account by its unique ID.
func (repo *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var accountM model.AccountModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&accountM).Error; err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find account by id")
	}

	// Map the persistence model back to a pure domain entity before returning.
	return toAccountDomain(&accountM), nil
}

// FindByEmail retrieves a single account by its email address.
func (repo *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var accountM model.AccountModel
	if err := repo.db.WithContext(ctx).Where("email = ?", email).First(&accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find account by email")
	}

	return toAccountDomain(&accountM), nil
}

// Create persists a new account. A missing ID is generated here.
func (repo *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	if account.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return errors.Wrap(err, "failed to generate account id")
		}
		account.ID = id
	}

	// Map the pure domain entity to a GORM persistence model.
	accountM := fromAccountDomain(account)

	if err := repo.db.WithContext(ctx).Create(accountM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrEmailAlreadyRegistered.WrapMessage("email already exists")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required account information")
		}
		// For other database errors, return a generic database error
		return domainerrors.NewDatabaseExecuteError(err, "failed to create account")
	}

	// Update the entity with the stored timestamps
	account.CreatedAt = accountM.CreatedAt
	account.UpdatedAt = accountM.UpdatedAt

	return nil
}

// UpdatePasswordHash replaces the stored password hash.
func (repo *accountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return repo.updateColumns(ctx, id, map[string]any{"password_hash": passwordHash}, "failed to update password hash")
}

// UpdateStats replaces the usage statistics columns.
func (repo *accountRepository) UpdateStats(ctx context.Context, id uuid.UUID, stats entity.UsageStats) error {
	return repo.updateColumns(ctx, id, statsColumns(stats), "failed to update usage statistics")
}

// UpdateProfile replaces the display names.
func (repo *accountRepository) UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName, userName string) error {
	return repo.updateColumns(ctx, id, profileColumns(firstName, lastName, userName), "failed to update profile")
}

// Activate marks the account as Active.
func (repo *accountRepository) Activate(ctx context.Context, id uuid.UUID) error {
	return repo.updateColumns(ctx, id, map[string]any{"status": int16(entity.StatusActive)}, "failed to activate account")
}

// updateColumns writes only the given columns of one account, plus updated_at.
// A map is used so zero values (reset stats, empty last name) are written too.
func (repo *accountRepository) updateColumns(ctx context.Context, id uuid.UUID, columns map[string]any, msg string) error {
	columns["updated_at"] = time.Now()

	result := repo.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("id = ?", id).
		Updates(columns)
	if err := result.Error; err != nil {
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required account information")
		}

		return domainerrors.NewDatabaseExecuteError(err, msg)
	}
	if result.RowsAffected == 0 {
		return repository.ErrAccountNotFound
	}

	return nil
}

// Delete removes the account row. Test records are removed by the foreign key cascade as well.
func (repo *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&model.AccountModel{})
	if err := result.Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "account still owns test records")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to delete account")
	}
	if result.RowsAffected == 0 {
		return repository.ErrAccountNotFound
	}

	return nil
}

// --- Mapper Functions ---
// These helpers convert between domain entities and persistence models.

// toAccountDomain converts a GORM AccountModel to a domain Account entity.
func toAccountDomain(data *model.AccountModel) *entity.Account {
	if data == nil {
		return nil
	}

	return &entity.Account{
		ID:           data.ID,
		Email:        data.Email,
		FirstName:    data.FirstName,
		LastName:     data.LastName,
		UserName:     data.UserName,
		PasswordHash: data.PasswordHash,
		Status:       entity.VerificationStatus(data.Status),
		Stats: entity.UsageStats{
			NumberOfTestsGiven: data.NumberOfTestsGiven,
			TotalTimeSpent:     data.TotalTimeSpent,
			BestSpeed:          data.BestSpeed,
			AverageSpeed:       data.AverageSpeed,
			BestAccuracy:       data.BestAccuracy,
			AverageAccuracy:    data.AverageAccuracy,
		},
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

// statsColumns maps usage statistics onto their columns.
func statsColumns(stats entity.UsageStats) map[string]any {
	return map[string]any{
		"number_of_tests_given": stats.NumberOfTestsGiven,
		"total_time_spent":      stats.TotalTimeSpent,
		"best_speed":            stats.BestSpeed,
		"average_speed":         stats.AverageSpeed,
		"best_accuracy":         stats.BestAccuracy,
		"average_accuracy":      stats.AverageAccuracy,
	}
}

func profileColumns(firstName, lastName, userName string) map[string]any {
	return map[string]any{
		"first_name": firstName,
		"last_name":  lastName,
		"user_name":  userName,
	}
}

// fromAccountDomain converts a domain Account entity to a GORM AccountModel for persistence.
func fromAccountDomain(data *entity.Account) *model.AccountModel {
	if data == nil {
		return nil
	}

	return &model.AccountModel{
		ID:                 data.ID,
		Email:              data.Email,
		FirstName:          data.FirstName,
		LastName:           data.LastName,
		UserName:           data.UserName,
		PasswordHash:       data.PasswordHash,
		Status:             int16(data.Status),
		NumberOfTestsGiven: data.Stats.NumberOfTestsGiven,
		TotalTimeSpent:     data.Stats.TotalTimeSpent,
		BestSpeed:          data.Stats.BestSpeed,
		AverageSpeed:       data.Stats.AverageSpeed,
		BestAccuracy:       data.Stats.BestAccuracy,
		AverageAccuracy:    data.Stats.AverageAccuracy,
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
	}
}
