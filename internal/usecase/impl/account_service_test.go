package impl

import (
	"context"
	"testing"
	"time"

	"typeit/internal/domain/entity"
	domainerrors "typeit/internal/domain/errors"
	"typeit/internal/domain/repository"
	"typeit/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "correct-horse"
)

func registerInput(email, password string) *usecase.RegisterInput {
	return &usecase.RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		UserName:  "ada",
		Email:     email,
		Password:  password,
	}
}

func TestAccountService_Register(t *testing.T) {
	tests := []struct {
		name      string
		seed      *entity.VerificationStatus
		expectErr error
	}{
		{name: "fresh email"},
		{name: "replaces provisional account", seed: ptr(entity.StatusProvisional)},
		{name: "active account blocks", seed: ptr(entity.StatusActive), expectErr: domainerrors.ErrEmailAlreadyRegistered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createTestAccountService(t)
			ctx := context.Background()

			var seeded *entity.Account
			if tt.seed != nil {
				seeded = f.seedAccount(t, testEmail, "old-password", *tt.seed)
				f.store.addRecords(seeded.ID, 2)
			}

			err := f.service.Register(ctx, registerInput(testEmail, testPassword))

			accounts := f.store.accountsWithEmail(testEmail)
			require.Len(t, accounts, 1)

			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Equal(t, seeded.ID, accounts[0].ID)
				assert.Empty(t, f.dispatcher.verifications)

				return
			}

			require.NoError(t, err)
			account := accounts[0]
			assert.Equal(t, entity.StatusProvisional, account.Status)
			assert.True(t, f.hasher.Check(testPassword, account.PasswordHash))
			assert.NotEqual(t, testPassword, account.PasswordHash)
			assert.Equal(t, []string{testEmail}, f.dispatcher.verifications)

			if seeded != nil {
				assert.NotEqual(t, seeded.ID, account.ID)
				records, err := f.records.ListByAccountID(ctx, seeded.ID)
				require.NoError(t, err)
				assert.Empty(t, records)
			}
		})
	}
}

func TestAccountService_Register_HashFailureLeavesNothing(t *testing.T) {
	hasher := new(mockPasswordHasher)
	hasher.On("Hash", testPassword).Return("", errors.New("entropy exhausted")).Once()

	f := createTestAccountService(t, withHasher(hasher))

	err := f.service.Register(context.Background(), registerInput(testEmail, testPassword))

	require.ErrorIs(t, err, domainerrors.ErrPasswordHashFailed)
	assert.Empty(t, f.store.accountsWithEmail(testEmail))
	assert.Empty(t, f.dispatcher.verifications)
	hasher.AssertExpectations(t)
}

func TestAccountService_Register_MailFailureStillSucceeds(t *testing.T) {
	f := createTestAccountService(t)
	f.dispatcher.result = usecase.DeliveryFailed

	err := f.service.Register(context.Background(), registerInput(testEmail, testPassword))

	require.NoError(t, err)
	assert.Len(t, f.store.accountsWithEmail(testEmail), 1)
}

func TestAccountService_RegisterThenLoginRequiresVerification(t *testing.T) {
	f := createTestAccountService(t)
	ctx := context.Background()

	require.NoError(t, f.service.Register(ctx, registerInput(testEmail, testPassword)))

	_, err := f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: testPassword})
	require.ErrorIs(t, err, domainerrors.ErrAccountNotVerified)
	// One mail from registration and one re-sent by the refused login.
	assert.Len(t, f.dispatcher.verifications, 2)

	require.NoError(t, f.service.VerifyEmail(ctx, f.verificationTokenFor(t, testEmail)))

	out, err := f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, testEmail, out.Account.Email)

	claims, err := f.tokens.ParseSessionToken(out.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, out.Account.ID, claims.AccountID)
}

func TestAccountService_Login(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		expectErr error
	}{
		{name: "correct password", email: testEmail, password: testPassword},
		{name: "wrong password", email: testEmail, password: "nope-nope", expectErr: domainerrors.ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: testPassword, expectErr: domainerrors.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createTestAccountService(t)
			f.seedAccount(t, testEmail, testPassword, entity.StatusActive)

			out, err := f.service.Login(context.Background(), &usecase.LoginInput{Email: tt.email, Password: tt.password})

			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Nil(t, out)

				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, out.SessionToken)
		})
	}
}

func TestAccountService_Login_CacheErrorIsInternal(t *testing.T) {
	cache := new(mockCredentialCache)
	cache.On("Get", mock.Anything, testEmail).Return("", false, errors.New("connection refused")).Once()

	f := createTestAccountService(t, withCredentialCache(cache))
	f.seedAccount(t, testEmail, testPassword, entity.StatusActive)

	_, err := f.service.Login(context.Background(), &usecase.LoginInput{Email: testEmail, Password: "wrong-one"})

	require.ErrorIs(t, err, domainerrors.ErrInternalError)
	cache.AssertExpectations(t)
}

func TestAccountService_PasswordResetFlow(t *testing.T) {
	f := createTestAccountService(t)
	ctx := context.Background()
	account := f.seedAccount(t, testEmail, testPassword, entity.StatusActive)

	require.NoError(t, f.service.RequestPasswordReset(ctx, testEmail))
	assert.True(t, f.cache.has(testEmail))

	temporary := f.dispatcher.lastResetPassword(t)
	assert.Len(t, temporary, 14)

	// The old password keeps working until the temporary one is used.
	_, err := f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: testPassword})
	require.NoError(t, err)

	_, err = f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: temporary})
	require.NoError(t, err)

	stored := f.reload(t, account.ID)
	assert.True(t, f.hasher.Check(temporary, stored.PasswordHash))

	_, err = f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: testPassword})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	// Promotion leaves the entry to expire on its own.
	assert.True(t, f.cache.has(testEmail))
}

func TestAccountService_PasswordResetExpires(t *testing.T) {
	f := createTestAccountService(t)
	ctx := context.Background()
	account := f.seedAccount(t, testEmail, testPassword, entity.StatusActive)

	require.NoError(t, f.service.RequestPasswordReset(ctx, testEmail))
	temporary := f.dispatcher.lastResetPassword(t)

	f.cache.Advance(f.cfg.Auth.TempCredentialTTL + time.Second)

	_, err := f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: temporary})
	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	stored := f.reload(t, account.ID)
	assert.True(t, f.hasher.Check(testPassword, stored.PasswordHash))
}

func TestAccountService_PasswordResetReplacesPreviousOne(t *testing.T) {
	f := createTestAccountService(t)
	ctx := context.Background()
	f.seedAccount(t, testEmail, testPassword, entity.StatusActive)

	require.NoError(t, f.service.RequestPasswordReset(ctx, testEmail))
	first := f.dispatcher.lastResetPassword(t)
	require.NoError(t, f.service.RequestPasswordReset(ctx, testEmail))
	second := f.dispatcher.lastResetPassword(t)

	_, err := f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: first})
	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: second})
	require.NoError(t, err)
}

func TestAccountService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	t.Run("reports invalid credentials", func(t *testing.T) {
		f := createTestAccountService(t)

		err := f.service.RequestPasswordReset(context.Background(), "ghost@example.com")

		require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
		assert.Empty(t, f.dispatcher.resets)
	})

	t.Run("uniform response", func(t *testing.T) {
		f := createTestAccountService(t, withUniformResetResponse())

		err := f.service.RequestPasswordReset(context.Background(), "ghost@example.com")

		require.NoError(t, err)
		assert.Empty(t, f.dispatcher.resets)
		assert.False(t, f.cache.has("ghost@example.com"))
	})
}

func TestAccountService_RequestPasswordReset_MailFailureStillSucceeds(t *testing.T) {
	f := createTestAccountService(t)
	f.dispatcher.result = usecase.DeliveryFailed
	f.seedAccount(t, testEmail, testPassword, entity.StatusActive)

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), testEmail))
	assert.True(t, f.cache.has(testEmail))
}

func TestAccountService_ChangePassword(t *testing.T) {
	f := createTestAccountService(t)
	ctx := context.Background()
	account := f.seedAccount(t, testEmail, testPassword, entity.StatusActive)

	require.NoError(t, f.service.RequestPasswordReset(ctx, testEmail))
	temporary := f.dispatcher.lastResetPassword(t)

	err := f.service.ChangePassword(ctx, &usecase.ChangePasswordInput{
		AccountID:       account.ID,
		CurrentPassword: "not-my-password",
		NewPassword:     "brand-new",
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	assert.True(t, f.cache.has(testEmail), "a refused change keeps the temporary credential")

	err = f.service.ChangePassword(ctx, &usecase.ChangePasswordInput{
		AccountID:       account.ID,
		CurrentPassword: testPassword,
		NewPassword:     "brand-new",
	})
	require.NoError(t, err)
	assert.False(t, f.cache.has(testEmail))

	_, err = f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: "brand-new"})
	require.NoError(t, err)

	_, err = f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: temporary})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: testPassword})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAccountService_ChangePassword_CacheFailureKeepsPassword(t *testing.T) {
	cache := new(mockCredentialCache)
	cache.On("Remove", mock.Anything, testEmail).Return(errors.New("connection refused")).Once()

	f := createTestAccountService(t, withCredentialCache(cache))
	account := f.seedAccount(t, testEmail, testPassword, entity.StatusActive)

	err := f.service.ChangePassword(context.Background(), &usecase.ChangePasswordInput{
		AccountID:       account.ID,
		CurrentPassword: testPassword,
		NewPassword:     "brand-new",
	})

	require.ErrorIs(t, err, domainerrors.ErrInternalError)
	assert.True(t, f.hasher.Check(testPassword, f.reload(t, account.ID).PasswordHash))
	cache.AssertExpectations(t)
}

func TestAccountService_VerifyEmail(t *testing.T) {
	t.Run("activates and is idempotent", func(t *testing.T) {
		f := createTestAccountService(t)
		ctx := context.Background()
		account := f.seedAccount(t, testEmail, testPassword, entity.StatusProvisional)
		token := f.verificationTokenFor(t, testEmail)

		require.NoError(t, f.service.VerifyEmail(ctx, token))
		assert.Equal(t, entity.StatusActive, f.reload(t, account.ID).Status)

		require.NoError(t, f.service.VerifyEmail(ctx, token))
		assert.Equal(t, entity.StatusActive, f.reload(t, account.ID).Status)
	})

	t.Run("malformed token", func(t *testing.T) {
		f := createTestAccountService(t)

		err := f.service.VerifyEmail(context.Background(), "not-a-token")

		assert.ErrorIs(t, err, domainerrors.ErrInvalidToken)
	})

	t.Run("session token is not a verification token", func(t *testing.T) {
		f := createTestAccountService(t)
		account := f.seedAccount(t, testEmail, testPassword, entity.StatusProvisional)
		token, err := f.tokens.IssueSessionToken(account.ID)
		require.NoError(t, err)

		err = f.service.VerifyEmail(context.Background(), token)

		assert.ErrorIs(t, err, domainerrors.ErrInvalidToken)
		assert.Equal(t, entity.StatusProvisional, f.reload(t, account.ID).Status)
	})

	t.Run("proof bound to another email", func(t *testing.T) {
		f := createTestAccountService(t)
		account := f.seedAccount(t, testEmail, testPassword, entity.StatusProvisional)
		proof, err := f.hasher.Hash("mallory@example.com")
		require.NoError(t, err)
		token, err := f.tokens.IssueVerificationToken(testEmail, proof)
		require.NoError(t, err)

		err = f.service.VerifyEmail(context.Background(), token)

		assert.ErrorIs(t, err, domainerrors.ErrInvalidToken)
		assert.Equal(t, entity.StatusProvisional, f.reload(t, account.ID).Status)
	})

	t.Run("account no longer exists", func(t *testing.T) {
		f := createTestAccountService(t)

		err := f.service.VerifyEmail(context.Background(), f.verificationTokenFor(t, testEmail))

		assert.ErrorIs(t, err, domainerrors.ErrInvalidToken)
	})
}

func TestAccountService_DeleteAccount(t *testing.T) {
	f := createTestAccountService(t)
	ctx := context.Background()
	account := f.seedAccount(t, testEmail, testPassword, entity.StatusActive)
	f.store.addRecords(account.ID, 3)
	require.NoError(t, f.service.RequestPasswordReset(ctx, testEmail))

	err := f.service.DeleteAccount(ctx, &usecase.DeleteAccountInput{AccountID: account.ID, CurrentPassword: "wrong-pass"})
	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	_, err = f.service.GetAccount(ctx, account.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteAccount(ctx, &usecase.DeleteAccountInput{AccountID: account.ID, CurrentPassword: testPassword}))

	_, err = f.service.GetAccount(ctx, account.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccountNotFound)

	records, err := f.records.ListByAccountID(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.False(t, f.cache.has(testEmail))

	_, err = f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: testPassword})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAccountService_GetAccount_NotFound(t *testing.T) {
	f := createTestAccountService(t)

	_, err := f.service.GetAccount(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domainerrors.ErrAccountNotFound)
}

func TestAccountService_UpdateStats(t *testing.T) {
	f := createTestAccountService(t)
	account := f.seedAccount(t, testEmail, testPassword, entity.StatusActive)
	stats := entity.UsageStats{
		NumberOfTestsGiven: 12,
		TotalTimeSpent:     720,
		BestSpeed:          98,
		AverageSpeed:       74.5,
		BestAccuracy:       100,
		AverageAccuracy:    96.2,
	}

	err := f.service.UpdateStats(context.Background(), &usecase.UpdateStatsInput{AccountID: account.ID, Stats: stats})

	require.NoError(t, err)
	stored := f.reload(t, account.ID)
	assert.Equal(t, stats, stored.Stats)
	assert.Equal(t, account.PasswordHash, stored.PasswordHash)
}

func TestAccountService_UpdateProfile(t *testing.T) {
	f := createTestAccountService(t)
	account := f.seedAccount(t, testEmail, testPassword, entity.StatusActive)

	err := f.service.UpdateProfile(context.Background(), &usecase.UpdateProfileInput{
		AccountID: account.ID,
		FirstName: "Grace",
		LastName:  "Hopper",
		UserName:  "amazing-grace",
	})

	require.NoError(t, err)
	stored := f.reload(t, account.ID)
	assert.Equal(t, "Grace", stored.FirstName)
	assert.Equal(t, "Hopper", stored.LastName)
	assert.Equal(t, "amazing-grace", stored.UserName)
	assert.Equal(t, testEmail, stored.Email)
}

func TestAccountService_UpdateStats_NotFound(t *testing.T) {
	f := createTestAccountService(t)

	err := f.service.UpdateStats(context.Background(), &usecase.UpdateStatsInput{AccountID: uuid.New()})

	assert.ErrorIs(t, err, domainerrors.ErrAccountNotFound)
}

func TestAccountService_StatsUpdateDoesNotRevertPasswordChange(t *testing.T) {
	repo := &interleavingAccountRepository{before: "UpdateStats"}
	f := createTestAccountService(t, withAccountRepository(func(inner repository.AccountRepository) repository.AccountRepository {
		repo.AccountRepository = inner

		return repo
	}))
	account := f.seedAccount(t, testEmail, testPassword, entity.StatusActive)
	ctx := context.Background()

	repo.hook = func() {
		require.NoError(t, f.service.ChangePassword(ctx, &usecase.ChangePasswordInput{
			AccountID:       account.ID,
			CurrentPassword: testPassword,
			NewPassword:     "brand-new",
		}))
	}

	stats := entity.UsageStats{NumberOfTestsGiven: 3, BestSpeed: 81}
	require.NoError(t, f.service.UpdateStats(ctx, &usecase.UpdateStatsInput{AccountID: account.ID, Stats: stats}))

	_, err := f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: "brand-new"})
	require.NoError(t, err)
	_, err = f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: testPassword})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	assert.Equal(t, stats, f.reload(t, account.ID).Stats)
}

func TestAccountService_TemporaryCredentialPromotionKeepsConcurrentProfileUpdate(t *testing.T) {
	repo := &interleavingAccountRepository{before: "UpdatePasswordHash"}
	f := createTestAccountService(t, withAccountRepository(func(inner repository.AccountRepository) repository.AccountRepository {
		repo.AccountRepository = inner

		return repo
	}))
	account := f.seedAccount(t, testEmail, testPassword, entity.StatusActive)
	ctx := context.Background()

	require.NoError(t, f.service.RequestPasswordReset(ctx, testEmail))
	temporary := f.dispatcher.lastResetPassword(t)

	repo.hook = func() {
		require.NoError(t, f.service.UpdateProfile(ctx, &usecase.UpdateProfileInput{
			AccountID: account.ID,
			FirstName: "Grace",
			LastName:  "Hopper",
			UserName:  "grace",
		}))
	}

	_, err := f.service.Login(ctx, &usecase.LoginInput{Email: testEmail, Password: temporary})
	require.NoError(t, err)

	stored := f.reload(t, account.ID)
	assert.Equal(t, "Grace", stored.FirstName)
	assert.Equal(t, "grace", stored.UserName)
	assert.True(t, f.hasher.Check(temporary, stored.PasswordHash))
}

func ptr[T any](v T) *T {
	return &v
}
