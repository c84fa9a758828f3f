package auth

import (
	"context"
	"errors"

	"github.com/mynurseshift/backend/internal/domain"
)

// Authenticator resolves an identity token to the request principal. It keeps
// no state: every call re-reads the account, so a deactivated account is
// refused even while its token is unexpired.
type Authenticator struct {
	accounts AccountStore
	tokens   *TokenManager
}

func NewAuthenticator(accounts AccountStore, tokens *TokenManager) *Authenticator {
	return &Authenticator{accounts: accounts, tokens: tokens}
}

func (a *Authenticator) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	id, err := claims.AccountID()
	if err != nil {
		return nil, err
	}

	account, err := a.accounts.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	if !account.IsActive() {
		return nil, domain.ErrAccountNotActive
	}

	return account, nil
}
