package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mynurseshift/backend/internal/domain"
)

// memoryStore is an in-memory Store for handler tests.
type memoryStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*domain.Account
	poles    map[int64]*domain.Pole
	services map[int64]*domain.Service

	// failPoles makes ListPoles fail with an unexpected error.
	failPoles error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		nextID:   100,
		accounts: map[int64]*domain.Account{},
		poles:    map[int64]*domain.Pole{},
		services: map[int64]*domain.Service{},
	}
}

func (s *memoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memoryStore) addAccount(a *domain.Account) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.id()
	a.Version = 1
	cp := *a
	s.accounts[a.ID] = &cp
	return a
}

func (s *memoryStore) Ping(context.Context) error {
	return nil
}

func (s *memoryStore) GetAccountByID(_ context.Context, id int64) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.NewError(domain.KindNotFound, "account not found")
	}
	cp := *a
	return &cp, nil
}

func (s *memoryStore) GetAccountByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.NewError(domain.KindNotFound, "account not found")
}

func (s *memoryStore) CreateAccount(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Email == account.Email {
			return domain.NewError(domain.KindConflict, "email is already in use")
		}
	}
	account.ID = s.id()
	account.Version = 1
	account.CreatedAt = time.Now()
	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

func (s *memoryStore) UpdateAccount(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.accounts[account.ID]
	if !ok {
		return domain.NewError(domain.KindNotFound, "account not found")
	}
	if current.Version != account.Version {
		return domain.NewError(domain.KindConflict, "account was modified concurrently, please retry")
	}
	account.Version++
	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

func (s *memoryStore) UpdateAccountStatus(_ context.Context, id int64, status domain.Status) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.NewError(domain.KindNotFound, "account not found")
	}
	a.Status = status
	a.Version++
	cp := *a
	return &cp, nil
}

func (s *memoryStore) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return domain.NewError(domain.KindNotFound, "account not found")
	}
	delete(s.accounts, id)
	return nil
}

func (s *memoryStore) ListAccounts(_ context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make([]*domain.Account, 0)
	for _, a := range s.accounts {
		if filter.ServiceID != nil && !a.InService(*filter.ServiceID) {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		cp := *a
		accounts = append(accounts, &cp)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (s *memoryStore) DashboardStats(ctx context.Context, serviceID *int64) (*domain.DashboardStats, error) {
	all, _ := s.ListAccounts(ctx, domain.AccountFilter{ServiceID: serviceID})

	stats := &domain.DashboardStats{TotalUsers: int64(len(all))}
	for _, a := range all {
		switch a.Status {
		case domain.StatusPending:
			stats.PendingUsers++
		case domain.StatusActive:
			stats.ActiveUsers++
		}
	}
	if serviceID != nil {
		stats.TotalServices, stats.TotalPoles = 1, 1
	} else {
		stats.TotalServices, stats.TotalPoles = int64(len(s.services)), int64(len(s.poles))
	}
	return stats, nil
}

func (s *memoryStore) ListPoles(context.Context) ([]*domain.Pole, error) {
	if s.failPoles != nil {
		return nil, s.failPoles
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	poles := make([]*domain.Pole, 0, len(s.poles))
	for _, p := range s.poles {
		cp := *p
		poles = append(poles, &cp)
	}
	return poles, nil
}

func (s *memoryStore) GetPoleByID(_ context.Context, id int64) (*domain.Pole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.poles[id]
	if !ok {
		return nil, domain.NewError(domain.KindNotFound, "pole not found")
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) CreatePole(_ context.Context, pole *domain.Pole) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.poles {
		if p.Code == pole.Code {
			return domain.NewError(domain.KindConflict, "pole code is already in use")
		}
	}
	pole.ID = s.id()
	pole.Services = make([]domain.ServiceRef, 0)
	cp := *pole
	s.poles[pole.ID] = &cp
	return nil
}

func (s *memoryStore) UpdatePole(_ context.Context, pole *domain.Pole) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.poles[pole.ID]; !ok {
		return domain.NewError(domain.KindNotFound, "pole not found")
	}
	cp := *pole
	s.poles[pole.ID] = &cp
	return nil
}

func (s *memoryStore) DeletePole(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.poles[id]; !ok {
		return domain.NewError(domain.KindNotFound, "pole not found")
	}
	for _, svc := range s.services {
		if svc.PoleID == id {
			return domain.NewError(domain.KindConflict, "pole still has services")
		}
	}
	delete(s.poles, id)
	return nil
}

func (s *memoryStore) ListServices(_ context.Context, poleID *int64) ([]*domain.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	services := make([]*domain.Service, 0)
	for _, svc := range s.services {
		if poleID != nil && svc.PoleID != *poleID {
			continue
		}
		cp := *svc
		services = append(services, &cp)
	}
	return services, nil
}

func (s *memoryStore) GetServiceByID(_ context.Context, id int64) (*domain.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[id]
	if !ok {
		return nil, domain.NewError(domain.KindNotFound, "service not found")
	}
	cp := *svc
	return &cp, nil
}

func (s *memoryStore) CreateService(_ context.Context, service *domain.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.poles[service.PoleID]; !ok {
		return domain.NewError(domain.KindValidationFailed, "pole does not exist")
	}
	service.ID = s.id()
	cp := *service
	s.services[service.ID] = &cp
	return nil
}

func (s *memoryStore) UpdateService(_ context.Context, service *domain.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[service.ID]; !ok {
		return domain.NewError(domain.KindNotFound, "service not found")
	}
	cp := *service
	s.services[service.ID] = &cp
	return nil
}

func (s *memoryStore) DeleteService(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[id]; !ok {
		return domain.NewError(domain.KindNotFound, "service not found")
	}
	for _, a := range s.accounts {
		if a.InService(id) {
			return domain.NewError(domain.KindConflict, "service still has accounts")
		}
	}
	delete(s.services, id)
	return nil
}
