// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	"typeit/config"
	deliverycontext "typeit/internal/delivery/context"
	"typeit/internal/domain/entity"
	domainerrors "typeit/internal/domain/errors"
	"typeit/internal/domain/repository"
	"typeit/internal/domain/service"
	"typeit/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// accountService implements the AccountUsecase interface.
type accountService struct {
	txManager            repository.TransactionManager
	accountRepo          repository.AccountRepository
	hasher               service.PasswordHasher
	tokenService         service.TokenService
	credentialCache      service.CredentialCache
	passwordGenerator    service.PasswordGenerator
	dispatcher           usecase.DispatchUsecase
	uniformResetResponse bool
	logger               *slog.Logger
}

// AccountServiceParams holds dependencies for AccountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	TxManager         repository.TransactionManager
	AccountRepo       repository.AccountRepository
	Hasher            service.PasswordHasher
	TokenService      service.TokenService
	CredentialCache   service.CredentialCache
	PasswordGenerator service.PasswordGenerator
	Dispatcher        usecase.DispatchUsecase
	Config            *config.Config
	Logger            *slog.Logger
}

// NewAccountService is the constructor for accountService. It receives all dependencies as interfaces.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	uniformResetResponse := false
	if params.Config != nil && params.Config.Auth != nil {
		uniformResetResponse = params.Config.Auth.UniformResetResponse
	}

	return &accountService{
		txManager:            params.TxManager,
		accountRepo:          params.AccountRepo,
		hasher:               params.Hasher,
		tokenService:         params.TokenService,
		credentialCache:      params.CredentialCache,
		passwordGenerator:    params.PasswordGenerator,
		dispatcher:           params.Dispatcher,
		uniformResetResponse: uniformResetResponse,
		logger:               params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a provisional account. A provisional record left behind by an abandoned
// signup with the same email is deleted first; an active one blocks the registration.
func (srv *accountService) Register(ctx context.Context, input *usecase.RegisterInput) error {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	// Hash before touching storage so a hashing failure leaves nothing behind.
	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	account := &entity.Account{
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		UserName:     input.UserName,
		PasswordHash: passwordHash,
		Status:       entity.StatusProvisional,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.NewAccountRepository()

		existing, err := accountRepo.FindByEmail(ctx, input.Email)
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			// Fresh email.
		case err != nil:
			return errors.Wrap(err, "failed to look up account by email")
		case existing.Status.IsActive():
			return domainerrors.ErrEmailAlreadyRegistered.WrapMessage("email is bound to an active account")
		default:
			srv.log(ctx).Info("Replacing abandoned provisional account", slog.String("accountID", existing.ID.String()))
			if err := srv.purgeAccount(ctx, repoFactory, existing.ID); err != nil {
				return err
			}
		}

		return accountRepo.Create(ctx, account)
	})
	if err != nil {
		return err
	}

	result := srv.dispatcher.SendVerification(ctx, account.Email)
	srv.log(ctx).Info("Registration completed",
		slog.String("accountID", account.ID.String()),
		slog.String("verificationEmail", result.String()),
	)

	return nil
}

// Login authenticates with the stored password, falling back to a pending temporary credential.
// A matching temporary credential becomes the stored password.
func (srv *accountService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	account, err := srv.accountRepo.FindByEmail(ctx, input.Email)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("no account for email")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find account by email")
	}

	if !account.Status.IsActive() {
		result := srv.dispatcher.SendVerification(ctx, account.Email)
		srv.log(ctx).Info("Login attempt on unverified account",
			slog.String("accountID", account.ID.String()),
			slog.String("verificationEmail", result.String()),
		)

		return nil, domainerrors.ErrAccountNotVerified.WrapMessage("account is provisional")
	}

	if !srv.hasher.Check(input.Password, account.PasswordHash) {
		if err := srv.promoteTemporaryCredential(ctx, account, input.Password); err != nil {
			return nil, err
		}
	}

	token, err := srv.tokenService.IssueSessionToken(account.ID)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrInternalError, "failed to issue session token: "+err.Error())
	}

	srv.log(ctx).Info("Login succeeded", slog.String("accountID", account.ID.String()))

	return &usecase.LoginOutput{
		SessionToken: token,
		Account:      account,
	}, nil
}

// promoteTemporaryCredential replaces the stored password with the cached temporary
// credential when the supplied secret matches it. The cache entry is left to expire.
func (srv *accountService) promoteTemporaryCredential(ctx context.Context, account *entity.Account, secret string) error {
	cachedHash, found, err := srv.credentialCache.Get(ctx, account.Email)
	if err != nil {
		return errors.Wrap(domainerrors.ErrInternalError, "failed to read temporary credential: "+err.Error())
	}
	if !found || !srv.hasher.Check(secret, cachedHash) {
		return domainerrors.ErrInvalidCredentials.WrapMessage("password mismatch")
	}

	if err := srv.accountRepo.UpdatePasswordHash(ctx, account.ID, cachedHash); err != nil {
		return errors.Wrap(err, "failed to promote temporary credential")
	}
	account.PasswordHash = cachedHash

	srv.log(ctx).Info("Temporary credential promoted to password", slog.String("accountID", account.ID.String()))

	return nil
}

// GetAccount returns the account identified by the session.
func (srv *accountService) GetAccount(ctx context.Context, accountID uuid.UUID) (*entity.Account, error) {
	return srv.findAccount(ctx, accountID)
}

// UpdateStats overwrites the usage statistics of the account.
func (srv *accountService) UpdateStats(ctx context.Context, input *usecase.UpdateStatsInput) error {
	err := srv.accountRepo.UpdateStats(ctx, input.AccountID, input.Stats)

	return accountUpdateError(err, input.AccountID, "failed to update usage statistics")
}

// UpdateProfile overwrites the display names of the account.
func (srv *accountService) UpdateProfile(ctx context.Context, input *usecase.UpdateProfileInput) error {
	err := srv.accountRepo.UpdateProfile(ctx, input.AccountID, input.FirstName, input.LastName, input.UserName)

	return accountUpdateError(err, input.AccountID, "failed to update profile")
}

// ChangePassword verifies the current password, stores the new one and discards any pending
// temporary credential for the account's email.
func (srv *accountService) ChangePassword(ctx context.Context, input *usecase.ChangePasswordInput) error {
	account, err := srv.findAccount(ctx, input.AccountID)
	if err != nil {
		return err
	}

	if !srv.hasher.Check(input.CurrentPassword, account.PasswordHash) {
		return domainerrors.ErrInvalidCredentials.WrapMessage("current password mismatch")
	}

	newHash, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	// Drop the temporary credential first: if this fails nothing has changed yet.
	if err := srv.credentialCache.Remove(ctx, account.Email); err != nil {
		return errors.Wrap(domainerrors.ErrInternalError, "failed to discard temporary credential: "+err.Error())
	}

	if err := srv.accountRepo.UpdatePasswordHash(ctx, account.ID, newHash); err != nil {
		return accountUpdateError(err, account.ID, "failed to store new password")
	}

	srv.log(ctx).Info("Password changed", slog.String("accountID", account.ID.String()))

	return nil
}

// VerifyEmail activates the account bound to the token's email.
func (srv *accountService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := srv.tokenService.ParseVerificationToken(token)
	if err != nil {
		return err
	}

	if !srv.hasher.Check(claims.Email, claims.Proof) {
		return domainerrors.ErrInvalidToken.WrapMessage("verification proof does not match email")
	}

	account, err := srv.accountRepo.FindByEmail(ctx, claims.Email)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return domainerrors.ErrInvalidToken.WrapMessage("no account for verified email")
	}
	if err != nil {
		return errors.Wrap(err, "failed to find account by email")
	}

	if !account.Activate() {
		srv.log(ctx).Debug("Account already active", slog.String("accountID", account.ID.String()))

		return nil
	}

	if err := srv.accountRepo.Activate(ctx, account.ID); err != nil {
		return errors.Wrap(err, "failed to activate account")
	}

	srv.log(ctx).Info("Account activated", slog.String("accountID", account.ID.String()))

	return nil
}

// DeleteAccount verifies the password and removes the account with its test records in one transaction.
func (srv *accountService) DeleteAccount(ctx context.Context, input *usecase.DeleteAccountInput) error {
	account, err := srv.findAccount(ctx, input.AccountID)
	if err != nil {
		return err
	}

	if !srv.hasher.Check(input.CurrentPassword, account.PasswordHash) {
		return domainerrors.ErrInvalidCredentials.WrapMessage("current password mismatch")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return srv.purgeAccount(ctx, repoFactory, account.ID)
	})
	if err != nil {
		return err
	}

	if err := srv.credentialCache.Remove(ctx, account.Email); err != nil {
		srv.log(ctx).Warn("Failed to discard temporary credential of deleted account", slog.Any("error", err))
	}

	srv.log(ctx).Info("Account deleted", slog.String("accountID", account.ID.String()))

	return nil
}

// RequestPasswordReset stores the hash of a freshly generated password as a temporary credential
// and mails the password. Delivery failures do not fail the request.
func (srv *accountService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := srv.accountRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrAccountNotFound) {
		if srv.uniformResetResponse {
			srv.log(ctx).Info("Password reset requested for unknown email")

			return nil
		}

		return domainerrors.ErrInvalidCredentials.WrapMessage("no account for email")
	}
	if err != nil {
		return errors.Wrap(err, "failed to find account by email")
	}

	password, err := srv.passwordGenerator.Generate()
	if err != nil {
		return errors.Wrap(domainerrors.ErrInternalError, "failed to generate temporary password: "+err.Error())
	}

	passwordHash, err := srv.hasher.Hash(password)
	if err != nil {
		return errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	if err := srv.credentialCache.Put(ctx, account.Email, passwordHash); err != nil {
		return errors.Wrap(domainerrors.ErrInternalError, "failed to store temporary credential: "+err.Error())
	}

	result := srv.dispatcher.SendReset(ctx, account.Email, password)
	srv.log(ctx).Info("Password reset issued",
		slog.String("accountID", account.ID.String()),
		slog.String("resetEmail", result.String()),
	)

	return nil
}

func (srv *accountService) findAccount(ctx context.Context, accountID uuid.UUID) (*entity.Account, error) {
	account, err := srv.accountRepo.FindByID(ctx, accountID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, domainerrors.ErrAccountNotFound.WrapMessage(accountID.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find account by id")
	}

	return account, nil
}

// accountUpdateError maps a missing row to ErrAccountNotFound and wraps anything else.
func accountUpdateError(err error, accountID uuid.UUID, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrAccountNotFound) {
		return domainerrors.ErrAccountNotFound.WrapMessage(accountID.String())
	}

	return errors.Wrap(err, msg)
}

// purgeAccount deletes the account's test records and then the account itself.
func (srv *accountService) purgeAccount(ctx context.Context, repoFactory repository.RepositoryFactory, accountID uuid.UUID) error {
	removed, err := repoFactory.NewTestRecordRepository().DeleteByAccountID(ctx, accountID)
	if err != nil {
		return errors.Wrap(err, "failed to delete test records")
	}

	if err := repoFactory.NewAccountRepository().Delete(ctx, accountID); err != nil {
		return errors.Wrap(err, "failed to delete account")
	}

	srv.log(ctx).Debug("Account purged", slog.String("accountID", accountID.String()), slog.Int64("testRecords", removed))

	return nil
}
