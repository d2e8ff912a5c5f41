package middleware

import (
	"strings"

	domainerrors "typeit/internal/domain/errors"
	"typeit/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const (
	// HeaderAuthToken is the bare-token header sent by the legacy web client.
	HeaderAuthToken = "auth-token"

	accountIDKey = "accountID"
)

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	TokenService service.TokenService
}

// AuthMiddleware resolves the session token of a request to an account ID.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: params.TokenService}
}

// Authenticate rejects requests without a valid session token with INVALID_TOKEN.
// The token is read from "Authorization: Bearer" first and from the auth-token header otherwise.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := sessionToken(c)
		if tokenString == "" {
			return domainerrors.ErrInvalidToken.WrapMessage("session token is missing")
		}

		claims, err := m.tokenSvc.ParseSessionToken(tokenString)
		if err != nil {
			return err
		}

		c.Set(accountIDKey, claims.AccountID)

		return next(c)
	}
}

// GetAccountID returns the account authenticated by Authenticate.
func GetAccountID(c echo.Context) (uuid.UUID, bool) {
	accountID, ok := c.Get(accountIDKey).(uuid.UUID)

	return accountID, ok
}

func sessionToken(c echo.Context) string {
	header := c.Request().Header
	if authHeader := header.Get(echo.HeaderAuthorization); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	return strings.TrimSpace(header.Get(HeaderAuthToken))
}
