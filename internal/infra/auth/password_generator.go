package auth

import (
	"crypto/rand"
	"math/big"
	"strings"

	"typeit/config"
	"typeit/internal/domain/service"
	"typeit/internal/errors"
)

const (
	lowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	uppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	numberChars    = "0123456789"
	symbolChars    = "!@#$%^&*()+_-=}{[]|:;\"/?.><,`~"
	similarChars   = "ilLI|`oO0"

	// maxStrictAttempts bounds the retries needed to hit every class in strict mode.
	maxStrictAttempts = 100
)

// passwordGenerator builds random passwords from crypto/rand.
type passwordGenerator struct {
	length int
	strict bool
	pools  []string
}

// NewPasswordGenerator creates a generator shaped by auth.resetPassword.
func NewPasswordGenerator(cfg *config.Config) (service.PasswordGenerator, error) {
	opts := config.ResetPasswordConfig{Length: 14, Numbers: true, Symbols: true, ExcludeSimilar: true, Strict: true}
	if cfg.Auth != nil && cfg.Auth.ResetPassword != nil {
		opts = *cfg.Auth.ResetPassword
	}

	return newPasswordGenerator(opts)
}

func newPasswordGenerator(opts config.ResetPasswordConfig) (*passwordGenerator, error) {
	pools := []string{lowercaseChars, uppercaseChars}
	if opts.Numbers {
		pools = append(pools, numberChars)
	}
	if opts.Symbols {
		pools = append(pools, symbolChars)
	}
	if opts.ExcludeSimilar {
		for i, pool := range pools {
			pools[i] = stripChars(pool, similarChars)
		}
	}

	if opts.Length <= 0 {
		return nil, errors.Errorf("reset password length must be positive, got %d", opts.Length)
	}
	if opts.Strict && opts.Length < len(pools) {
		return nil, errors.Errorf("strict reset password needs length >= %d, got %d", len(pools), opts.Length)
	}

	return &passwordGenerator{length: opts.Length, strict: opts.Strict, pools: pools}, nil
}

// Generate returns a new random password. In strict mode every enabled class appears at least once.
func (g *passwordGenerator) Generate() (string, error) {
	charset := strings.Join(g.pools, "")

	for range maxStrictAttempts {
		candidate, err := randomString(charset, g.length)
		if err != nil {
			return "", errors.Wrap(err, "failed to read random source")
		}
		if !g.strict || g.coversAllPools(candidate) {
			return candidate, nil
		}
	}

	return "", errors.New("failed to generate a password covering every character class")
}

func (g *passwordGenerator) coversAllPools(candidate string) bool {
	for _, pool := range g.pools {
		if !strings.ContainsAny(candidate, pool) {
			return false
		}
	}

	return true
}

func randomString(charset string, length int) (string, error) {
	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(charset)))
	for range length {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(charset[n.Int64()])
	}

	return b.String(), nil
}

func stripChars(s, drop string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(drop, r) {
			return -1
		}

		return r
	}, s)
}
