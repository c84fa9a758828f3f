package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mynurseshift/backend/internal/domain"
)

// Claims is the identity token payload. Subject holds the account ID.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 identity tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue signs a token for the account.
func (tm *TokenManager) Issue(account *domain.Account) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(tm.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: account.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(account.ID, 10),
		},
	})
	ss, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return ss, expiresAt, nil
}

// Parse verifies signature, algorithm and expiry and returns the claims.
func (tm *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, domain.WrapError(domain.KindInvalidToken, domain.ErrInvalidToken.Message, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// AccountID extracts the account ID from the subject claim.
func (c *Claims) AccountID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidToken
	}
	return id, nil
}
