package auth

import (
	"context"
	"time"

	"github.com/mynurseshift/backend/internal/domain"
)

// AccountStore is the persistence the access-control core needs. Lookups
// return an error matching domain.ErrNotFound on a miss.
type AccountStore interface {
	GetAccountByID(ctx context.Context, id int64) (*domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) error
	UpdateAccount(ctx context.Context, account *domain.Account) error
	UpdateAccountStatus(ctx context.Context, id int64, status domain.Status) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
}

// Notifier sends account lifecycle emails.
type Notifier interface {
	Notify(ctx context.Context, msg domain.MailMessage) error
}

// ResetStore keeps pending password reset challenges.
type ResetStore interface {
	Save(ctx context.Context, email, token string, ttl time.Duration) error
	// Get returns domain.ErrNotFound when no challenge is pending.
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}
