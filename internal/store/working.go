package store

import (
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/efreitasn/stocktrade/internal/domain"
)

// workingEntry is the B-tree item for a pending order, ordered by
// creation time so the expiry sweep reads an ordered prefix.
type workingEntry struct {
	CreatedAt time.Time
	OrderID   string
	Order     *domain.Order
}

// workingLess orders entries by created_at ascending, then order_id
// ascending as a tiebreaker. Min() is the oldest pending order.
func workingLess(a, b workingEntry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// WorkingOrderStore holds PENDING orders only. Records are short-lived:
// every transition out of PENDING removes the record here and writes a
// durable one to the SettledOrderStore. Remove doubles as the claim
// point, so a commit or trigger racing the expiry sweep resolves to
// exactly one winner.
type WorkingOrderStore struct {
	mu    sync.RWMutex
	byAge *btree.BTreeG[workingEntry]
	index map[string]workingEntry // order_id → entry
}

// NewWorkingOrderStore creates an empty WorkingOrderStore.
func NewWorkingOrderStore() *WorkingOrderStore {
	const degree = 32
	return &WorkingOrderStore{
		byAge: btree.NewG[workingEntry](degree, workingLess),
		index: make(map[string]workingEntry),
	}
}

// Create adds a pending order to the store.
func (s *WorkingOrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := workingEntry{CreatedAt: o.CreatedAt, OrderID: o.OrderID, Order: o}
	s.byAge.ReplaceOrInsert(entry)
	s.index[o.OrderID] = entry
}

// Remove claims a pending order out of the store, returning the record
// and true on success. It returns false if the order was already
// claimed by a concurrent transition.
func (s *WorkingOrderStore) Remove(orderID string) (*domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.index[orderID]
	if !ok {
		return nil, false
	}
	delete(s.index, orderID)
	s.byAge.Delete(entry)
	return entry.Order, true
}

// MostRecentByUserAndType returns a copy of the newest pending order
// for the given user and type, or domain.ErrNoSuchOrder.
func (s *WorkingOrderStore) MostRecentByUserAndType(userName string, typ domain.OrderType) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *domain.Order
	s.byAge.Descend(func(e workingEntry) bool {
		if e.Order.UserName == userName && e.Order.Type == typ {
			found = e.Order.Clone()
			return false
		}
		return true
	})
	if found == nil {
		return nil, domain.ErrNoSuchOrder
	}
	return found, nil
}

// MostRecentByUserTypeSymbol returns a copy of the newest pending order
// for the given user, type, and symbol, or domain.ErrNoSuchOrder.
func (s *WorkingOrderStore) MostRecentByUserTypeSymbol(userName string, typ domain.OrderType, symbol string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *domain.Order
	s.byAge.Descend(func(e workingEntry) bool {
		if e.Order.UserName == userName && e.Order.Type == typ && e.Order.Symbol == symbol {
			found = e.Order.Clone()
			return false
		}
		return true
	})
	if found == nil {
		return nil, domain.ErrNoSuchOrder
	}
	return found, nil
}

// OlderThan returns copies of all pending orders created strictly
// before the cutoff, oldest first.
func (s *WorkingOrderStore) OlderThan(cutoff time.Time) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stale []*domain.Order
	s.byAge.Ascend(func(e workingEntry) bool {
		if !e.CreatedAt.Before(cutoff) {
			return false
		}
		stale = append(stale, e.Order.Clone())
		return true
	})
	return stale
}

// ListByUser returns copies of the user's pending orders, newest first.
func (s *WorkingOrderStore) ListByUser(userName string) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]*domain.Order, 0)
	s.byAge.Descend(func(e workingEntry) bool {
		if e.Order.UserName == userName {
			orders = append(orders, e.Order.Clone())
		}
		return true
	})
	return orders
}

// Len returns the number of pending orders. Useful for testing.
func (s *WorkingOrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}
