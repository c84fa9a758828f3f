package auth

import (
	"context"
	"errors"
	"time"

	"github.com/mynurseshift/backend/internal/domain"
)

type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Account   *domain.Account `json:"user"`
}

// Verifier checks email/password pairs and issues identity tokens.
type Verifier struct {
	accounts  AccountStore
	tokens    *TokenManager
	dummyHash string
}

func NewVerifier(accounts AccountStore, tokens *TokenManager, bcryptCost int) (*Verifier, error) {
	dummy, err := HashPassword("not-a-real-password", bcryptCost)
	if err != nil {
		return nil, err
	}
	return &Verifier{accounts: accounts, tokens: tokens, dummyHash: dummy}, nil
}

// Login never tells a missing email apart from a wrong password.
func (v *Verifier) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := v.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_, _ = ComparePassword(v.dummyHash, password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := ComparePassword(account.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	if !account.IsActive() {
		return nil, domain.ErrAccountNotActive
	}

	token, expiresAt, err := v.tokens.Issue(account)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}
