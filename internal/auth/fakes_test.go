package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mynurseshift/backend/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testCost keeps bcrypt fast in tests.
const testCost = 4

type memoryAccounts struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*domain.Account
	// updates counts UpdateAccount calls.
	updates int
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{nextID: 1, accounts: make(map[int64]*domain.Account)}
}

func (m *memoryAccounts) put(a *domain.Account) *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == 0 {
		a.ID = m.nextID
	}
	if a.ID >= m.nextID {
		m.nextID = a.ID + 1
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return a
}

func (m *memoryAccounts) GetAccountByID(_ context.Context, id int64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.NewError(domain.KindNotFound, "account not found")
	}
	cp := *a
	return &cp, nil
}

func (m *memoryAccounts) GetAccountByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.NewError(domain.KindNotFound, "account not found")
}

func (m *memoryAccounts) CreateAccount(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if a.Email == account.Email {
			return domain.NewError(domain.KindConflict, "email is already in use")
		}
	}
	account.ID = m.nextID
	m.nextID++
	account.Version = 1
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *memoryAccounts) UpdateAccount(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.accounts[account.ID]
	if !ok {
		return domain.NewError(domain.KindNotFound, "account not found")
	}
	if current.Version != account.Version {
		return domain.NewError(domain.KindConflict, "account was modified concurrently, please retry")
	}
	account.Version++
	m.updates++
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *memoryAccounts) UpdateAccountStatus(_ context.Context, id int64, status domain.Status) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.accounts[id]
	if !ok {
		return nil, domain.NewError(domain.KindNotFound, "account not found")
	}
	current.Status = status
	current.Version++
	cp := *current
	return &cp, nil
}

func (m *memoryAccounts) DeleteAccount(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return domain.NewError(domain.KindNotFound, "account not found")
	}
	delete(m.accounts, id)
	for _, a := range m.accounts {
		if a.SupervisorID != nil && *a.SupervisorID == id {
			a.SupervisorID = nil
		}
	}
	return nil
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, msg domain.MailMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type memoryResets struct {
	tokens map[string]string
	ttls   map[string]time.Duration
}

func newMemoryResets() *memoryResets {
	return &memoryResets{tokens: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryResets) Save(_ context.Context, email, token string, ttl time.Duration) error {
	m.tokens[email] = token
	m.ttls[email] = ttl
	return nil
}

func (m *memoryResets) Get(_ context.Context, email string) (string, error) {
	token, ok := m.tokens[email]
	if !ok {
		return "", domain.ErrNotFound
	}
	return token, nil
}

func (m *memoryResets) Delete(_ context.Context, email string) error {
	delete(m.tokens, email)
	return nil
}

func int64p(v int64) *int64 {
	return &v
}

func strp(v string) *string {
	return &v
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := HashPassword(password, testCost)
	require.NoError(t, err)
	return h
}
