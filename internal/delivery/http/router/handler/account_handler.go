// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	deliverycontext "typeit/internal/delivery/context"
	"typeit/internal/delivery/http/middleware"
	"typeit/internal/delivery/http/response"
	"typeit/internal/domain/entity"
	domainerrors "typeit/internal/domain/errors"
	"typeit/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Plaintext bodies of the verification link endpoint, opened directly in a browser.
const (
	verifyEmailSucceeded = "Your email has been verified, you can now login"
	verifyEmailInvalid   = "This verification link is invalid"
	verifyEmailFailed    = "Some error occurred, please try again after some time"
)

// AccountHandlerParams holds dependencies for AccountHandler, injected by Fx.
type AccountHandlerParams struct {
	fx.In

	AccountUC usecase.AccountUsecase
	Logger    *slog.Logger
}

// AccountHandler holds dependencies for account-related handlers.
type AccountHandler struct {
	accountUC usecase.AccountUsecase
	logger    *slog.Logger
}

// NewAccountHandler is the constructor for AccountHandler.
func NewAccountHandler(params AccountHandlerParams) *AccountHandler {
	return &AccountHandler{
		accountUC: params.AccountUC,
		logger:    params.Logger,
	}
}

// RegisterRequest represents the request body for creating an account.
type RegisterRequest struct {
	FirstName string `json:"fName" validate:"required,min=3,max=20"`
	LastName  string `json:"lName" validate:"max=20"`
	UserName  string `json:"userName" validate:"required,min=3,max=15"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=5,max=20"`
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateStatsRequest represents the request body for replacing usage statistics.
type UpdateStatsRequest struct {
	NumberOfTestsGiven int     `json:"numberOfTestsGiven" validate:"gte=0"`
	TotalTimeSpent     float64 `json:"totalTimeSpent" validate:"gte=0"`
	BestSpeed          float64 `json:"bestSpeed" validate:"gte=0"`
	AverageSpeed       float64 `json:"averageSpeed" validate:"gte=0"`
	BestAccuracy       float64 `json:"bestAccuracy" validate:"gte=0"`
	AverageAccuracy    float64 `json:"averageAccuracy" validate:"gte=0"`
}

// UpdateProfileRequest represents the request body for renaming an account.
type UpdateProfileRequest struct {
	UserName  string `json:"userName" validate:"required,min=3,max=15"`
	FirstName string `json:"fName" validate:"required,min=3,max=20"`
	LastName  string `json:"lName" validate:"max=20"`
}

// ChangePasswordRequest represents the request body for changing the password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currPassword" validate:"required,min=5,max=20"`
	UpdatedPassword string `json:"updatedPassword" validate:"required,min=5,max=20"`
}

// DeleteAccountRequest represents the request body for deleting the account.
type DeleteAccountRequest struct {
	CurrentPassword string `json:"currPassword" validate:"required,min=5,max=20"`
}

// ForgotPasswordRequest represents the request body for a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AccountResponse is the public view of an account. It never carries the password hash.
type AccountResponse struct {
	ID        uuid.UUID          `json:"id"`
	Email     string             `json:"email"`
	FirstName string             `json:"fName"`
	LastName  string             `json:"lName"`
	UserName  string             `json:"userName"`
	Verified  bool               `json:"verified"`
	Stats     UpdateStatsRequest `json:"stats"`
	CreatedAt time.Time          `json:"createdAt"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	SessionToken string           `json:"sessionToken"`
	Account      *AccountResponse `json:"account"`
}

func toAccountResponse(a *entity.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		UserName:  a.UserName,
		Verified:  a.Status.IsActive(),
		Stats: UpdateStatsRequest{
			NumberOfTestsGiven: a.Stats.NumberOfTestsGiven,
			TotalTimeSpent:     a.Stats.TotalTimeSpent,
			BestSpeed:          a.Stats.BestSpeed,
			AverageSpeed:       a.Stats.AverageSpeed,
			BestAccuracy:       a.Stats.BestAccuracy,
			AverageAccuracy:    a.Stats.AverageAccuracy,
		},
		CreatedAt: a.CreatedAt,
	}
}

// bind decodes and validates the request body into req.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errors.Wrap(domainerrors.ErrValidationFailed.WithDetails("malformed request body"), err.Error())
	}

	return c.Validate(req)
}

// Register handles account creation.
func (h *AccountHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err := h.accountUC.Register(c.Request().Context(), &usecase.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserName:  req.UserName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, nil, "Account created, check your email to verify it")
}

// Login handles password login.
func (h *AccountHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	output, err := h.accountUC.Login(c.Request().Context(), &usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, &LoginResponse{
		SessionToken: output.SessionToken,
		Account:      toAccountResponse(output.Account),
	}, "Login successful")
}

// GetAccount returns the authenticated account.
func (h *AccountHandler) GetAccount(c echo.Context) error {
	accountID, err := authenticatedAccount(c)
	if err != nil {
		return err
	}

	account, err := h.accountUC.GetAccount(c.Request().Context(), accountID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{"account": toAccountResponse(account)}, "")
}

// UpdateStats replaces the usage statistics of the authenticated account.
func (h *AccountHandler) UpdateStats(c echo.Context) error {
	accountID, err := authenticatedAccount(c)
	if err != nil {
		return err
	}

	var req UpdateStatsRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err = h.accountUC.UpdateStats(c.Request().Context(), &usecase.UpdateStatsInput{
		AccountID: accountID,
		Stats: entity.UsageStats{
			NumberOfTestsGiven: req.NumberOfTestsGiven,
			TotalTimeSpent:     req.TotalTimeSpent,
			BestSpeed:          req.BestSpeed,
			AverageSpeed:       req.AverageSpeed,
			BestAccuracy:       req.BestAccuracy,
			AverageAccuracy:    req.AverageAccuracy,
		},
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Statistics updated")
}

// UpdateProfile replaces the display names of the authenticated account.
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	accountID, err := authenticatedAccount(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err = h.accountUC.UpdateProfile(c.Request().Context(), &usecase.UpdateProfileInput{
		AccountID: accountID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserName:  req.UserName,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Profile updated")
}

// ChangePassword rotates the password of the authenticated account.
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	accountID, err := authenticatedAccount(c)
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err = h.accountUC.ChangePassword(c.Request().Context(), &usecase.ChangePasswordInput{
		AccountID:       accountID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.UpdatedPassword,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password updated")
}

// DeleteAccount removes the authenticated account after checking its password.
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	accountID, err := authenticatedAccount(c)
	if err != nil {
		return err
	}

	var req DeleteAccountRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err = h.accountUC.DeleteAccount(c.Request().Context(), &usecase.DeleteAccountInput{
		AccountID:       accountID,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Account deleted")
}

// ForgotPassword mails a temporary password to the account's email.
func (h *AccountHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.accountUC.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "A temporary password has been sent to your email")
}

// VerifyEmail consumes a verification link. It answers in plaintext.
func (h *AccountHandler) VerifyEmail(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.accountUC.VerifyEmail(ctx, c.Param("token"))
	switch {
	case err == nil:
		return c.String(http.StatusOK, verifyEmailSucceeded)
	case errors.Is(err, domainerrors.ErrInvalidToken):
		return c.String(http.StatusBadRequest, verifyEmailInvalid)
	default:
		deliverycontext.GetLoggerOrDefault(ctx, h.logger).Error("Email verification failed", slog.Any("error", err))

		return c.String(http.StatusInternalServerError, verifyEmailFailed)
	}
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}

func authenticatedAccount(c echo.Context) (uuid.UUID, error) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		return uuid.Nil, domainerrors.ErrInvalidToken.WrapMessage("no authenticated account on request")
	}

	return accountID, nil
}
