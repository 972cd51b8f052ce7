// Package auth issues and validates the bearer tokens used by the
// marketplace API. Tokens are HS256 JWTs signed with a shared secret.
package auth

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer            = "rentledger"
	secretEnvVariable = "RENTLEDGER_AUTH_SECRET"

	// tokenTTL bounds how long an issued token stays valid.
	tokenTTL = 24 * time.Hour

	// clockSkew tolerates small drift between issuer and validator.
	clockSkew = 5 * time.Second
)

// ErrInvalidToken is returned for any token that fails validation.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the authenticated account address in Subject.
type Claims struct {
	jwt.RegisteredClaims
}

var (
	secretOnce sync.Once
	secret     []byte
	secretErr  error
)

func signingSecret() ([]byte, error) {
	secretOnce.Do(func() {
		raw := os.Getenv(secretEnvVariable)
		if raw == "" {
			secretErr = fmt.Errorf("%s is not set", secretEnvVariable)
			return
		}
		secret = []byte(raw)
	})
	return secret, secretErr
}

// ResetSecretForTests clears the cached secret so tests can swap the
// environment variable between cases.
func ResetSecretForTests() {
	secretOnce = sync.Once{}
	secret = nil
	secretErr = nil
}

// GenerateToken mints a signed token for the given account address.
func GenerateToken(address string) (string, error) {
	key, err := signingSecret()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   address,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ParseAndValidate checks the signature and registered claims and returns
// the embedded claims. Any failure maps to ErrInvalidToken.
func ParseAndValidate(raw string) (*Claims, error) {
	key, err := signingSecret()
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	}, jwt.WithIssuer(issuer), jwt.WithLeeway(clockSkew))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
