package auth

import (
	"time"

	"typeit/config"
	"typeit/internal/domain/entity"
	domainerrors "typeit/internal/domain/errors"
	"typeit/internal/domain/service"
	"typeit/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenClaims is the wire shape of every token signed by jwtService.
// Purpose selects which of the optional fields are meaningful.
type tokenClaims struct {
	Purpose entity.TokenPurpose `json:"purpose"`
	Email   string              `json:"email,omitempty"`
	Proof   string              `json:"proof,omitempty"`
	jwt.RegisteredClaims
}

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	secret          []byte        // Secret key shared by all token purposes.
	sessionTTL      time.Duration // Zero disables expiry.
	verificationTTL time.Duration // Zero disables expiry.
	now             func() time.Time
}

// NewJWTService is the constructor for jwtService.
// It takes configuration values to create a new token service instance.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Signing == "" {
		return nil, errors.New("jwt signing secret must be provided")
	}

	svc := &jwtService{
		secret: []byte(cfg.SecretKey.Signing),
		now:    time.Now,
	}
	if cfg.Auth != nil {
		svc.sessionTTL = cfg.Auth.SessionTTL
		svc.verificationTTL = cfg.Auth.VerificationTTL
	}

	return svc, nil
}

// IssueSessionToken creates a signed token identifying the account.
func (s *jwtService) IssueSessionToken(accountID uuid.UUID) (string, error) {
	return s.sign(tokenClaims{
		Purpose:          entity.PurposeSession,
		RegisteredClaims: jwt.RegisteredClaims{Subject: accountID.String()},
	}, s.sessionTTL)
}

// IssueVerificationToken creates the signed token carried by an email verification link.
func (s *jwtService) IssueVerificationToken(email, proof string) (string, error) {
	return s.sign(tokenClaims{
		Purpose: entity.PurposeEmailVerification,
		Email:   email,
		Proof:   proof,
	}, s.verificationTTL)
}

// ParseSessionToken validates a session token and extracts the account ID.
func (s *jwtService) ParseSessionToken(token string) (*entity.SessionClaims, error) {
	claims, err := s.parse(token, entity.PurposeSession)
	if err != nil {
		return nil, err
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrInvalidToken, "session token subject is not an account id")
	}

	return &entity.SessionClaims{AccountID: accountID}, nil
}

// ParseVerificationToken validates a verification token and extracts the email and its proof.
func (s *jwtService) ParseVerificationToken(token string) (*entity.VerificationClaims, error) {
	claims, err := s.parse(token, entity.PurposeEmailVerification)
	if err != nil {
		return nil, err
	}
	if claims.Email == "" || claims.Proof == "" {
		return nil, errors.Wrap(domainerrors.ErrInvalidToken, "verification token is missing email or proof")
	}

	return &entity.VerificationClaims{Email: claims.Email, Proof: claims.Proof}, nil
}

func (s *jwtService) sign(claims tokenClaims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}

func (s *jwtService) parse(tokenString string, purpose entity.TokenPurpose) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrInvalidToken, err.Error())
	}

	if claims.Purpose != purpose {
		return nil, errors.Wrapf(domainerrors.ErrInvalidToken, "token purpose %q, want %q", claims.Purpose, purpose)
	}

	return claims, nil
}
