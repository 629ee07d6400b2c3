package store

import (
	"sync"

	"github.com/efreitasn/stocktrade/internal/domain"
)

// SettledOrderStore is the durable order history: COMMITTED limit
// orders awaiting their fill sweep plus all terminal records. Status
// transitions happen inside the store's lock, so a fill racing a
// cancel resolves to exactly one winner.
type SettledOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	byUser map[string][]*domain.Order // username → orders (append-only)
}

// NewSettledOrderStore creates an empty SettledOrderStore.
func NewSettledOrderStore() *SettledOrderStore {
	return &SettledOrderStore{
		orders: make(map[string]*domain.Order),
		byUser: make(map[string][]*domain.Order),
	}
}

// Append writes a record moved out of the working store. The order's
// status must already be set by the caller.
func (s *SettledOrderStore) Append(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.OrderID] = o
	s.byUser[o.UserName] = append(s.byUser[o.UserName], o)
}

// Get retrieves a copy of an order by ID, or domain.ErrNoSuchOrder.
func (s *SettledOrderStore) Get(orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrNoSuchOrder
	}
	return o.Clone(), nil
}

// ByStatusAndType returns copies of all orders with the given status
// and type, in insertion order. The fill sweeps use this to collect
// COMMITTED limit orders.
func (s *SettledOrderStore) ByStatusAndType(status domain.OrderStatus, typ domain.OrderType) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Order
	for _, o := range s.orders {
		if o.Status == status && o.Type == typ {
			matched = append(matched, o.Clone())
		}
	}
	return matched
}

// MostRecentCommitted returns a copy of the newest COMMITTED order for
// the given user, type, and symbol, or domain.ErrNoSuchOrder.
func (s *SettledOrderStore) MostRecentCommitted(userName string, typ domain.OrderType, symbol string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byUser[userName]
	for i := len(all) - 1; i >= 0; i-- {
		o := all[i]
		if o.Type == typ && o.Symbol == symbol && o.Status == domain.OrderStatusCommitted {
			return o.Clone(), nil
		}
	}
	return nil, domain.ErrNoSuchOrder
}

// Fill transitions a COMMITTED order to FILLED, recording the realized
// unit price and cash amount. It returns domain.ErrAlreadyTerminal if
// the order already reached a terminal state, or domain.ErrNoSuchOrder
// if the order does not exist or is not COMMITTED.
func (s *SettledOrderStore) Fill(orderID string, unitPrice, cashAmount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return domain.ErrNoSuchOrder
	}
	if o.Status.Terminal() {
		return domain.ErrAlreadyTerminal
	}
	if o.Status != domain.OrderStatusCommitted {
		return domain.ErrNoSuchOrder
	}
	o.UnitPrice = unitPrice
	o.CashAmount = cashAmount
	o.Status = domain.OrderStatusFilled
	return nil
}

// Cancel transitions a COMMITTED order to CANCELED. Error semantics
// match Fill.
func (s *SettledOrderStore) Cancel(orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return domain.ErrNoSuchOrder
	}
	if o.Status.Terminal() {
		return domain.ErrAlreadyTerminal
	}
	if o.Status != domain.OrderStatusCommitted {
		return domain.ErrNoSuchOrder
	}
	o.Status = domain.OrderStatusCanceled
	return nil
}

// ListByUser returns copies of the user's settled orders, newest first.
func (s *SettledOrderStore) ListByUser(userName string) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byUser[userName]
	orders := make([]*domain.Order, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		orders = append(orders, all[i].Clone())
	}
	return orders
}
