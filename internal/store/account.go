package store

import (
	"sync"

	"github.com/efreitasn/stocktrade/internal/domain"
)

// AccountStore is a thread-safe in-memory store for accounts,
// keyed by username.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*domain.Account),
	}
}

// Create adds an account to the store. It returns
// domain.ErrAccountAlreadyExists if an account with the same
// username already exists.
func (s *AccountStore) Create(a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.UserName]; exists {
		return domain.ErrAccountAlreadyExists
	}
	s.accounts[a.UserName] = a
	return nil
}

// Get retrieves an account by username. It returns
// domain.ErrAccountNotFound if the account does not exist.
//
// The returned pointer is the live row; callers must hold the
// account's Mu for any read-modify-write.
func (s *AccountStore) Get(userName string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[userName]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a, nil
}

// Exists returns true if an account with the given username exists.
func (s *AccountStore) Exists(userName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[userName]
	return ok
}
