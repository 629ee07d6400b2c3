package service

import (
	"regexp"

	"github.com/efreitasn/stocktrade/internal/audit"
	"github.com/efreitasn/stocktrade/internal/domain"
	"github.com/efreitasn/stocktrade/internal/ledger"
	"github.com/efreitasn/stocktrade/internal/store"
)

var userNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Summary is the per-user account overview: current ledger state plus
// open triggers and closed order history.
type Summary struct {
	UserName     string
	Balance      int64
	Portfolio    map[string]int64
	OpenOrders   []*domain.Order // PENDING plus COMMITTED limit orders
	ClosedOrders []*domain.Order // terminal records, newest first
}

// AccountService handles account registration, funding, and summaries.
type AccountService struct {
	accounts *store.AccountStore
	ledger   *ledger.Ledger
	working  *store.WorkingOrderStore
	settled  *store.SettledOrderStore
	events   *store.EventStore
	audit    *audit.Recorder
}

// NewAccountService creates an AccountService with the given dependencies.
func NewAccountService(
	accounts *store.AccountStore,
	ldg *ledger.Ledger,
	working *store.WorkingOrderStore,
	settled *store.SettledOrderStore,
	events *store.EventStore,
	rec *audit.Recorder,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		ledger:   ldg,
		working:  working,
		settled:  settled,
		events:   events,
		audit:    rec,
	}
}

// Register creates an empty account for the username.
func (s *AccountService) Register(userName string) (*domain.Account, error) {
	if !userNameRegex.MatchString(userName) {
		return nil, &domain.ValidationError{
			Message: "username must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	account := domain.NewAccount(userName)
	if err := s.accounts.Create(account); err != nil {
		return nil, err
	}
	return account, nil
}

// AddFunds credits the given dollar amount to the user's balance.
func (s *AccountService) AddFunds(userName, transactionID string, amount float64) (int64, error) {
	if amount < 0 {
		return 0, &domain.ValidationError{
			Message: "amount must be >= 0",
		}
	}
	cents, err := domain.DollarsToCents(amount)
	if err != nil {
		return 0, &domain.ValidationError{
			Message: "amount must have at most 2 decimal places",
		}
	}
	if err := s.ledger.AddFunds(userName, cents); err != nil {
		return 0, err
	}
	s.audit.Command(userName, transactionID, "ADD", "", cents)
	s.audit.AccountTransaction(userName, transactionID, "add", cents)

	balance, err := s.ledger.Balance(userName)
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// GetSummary returns the user's balance, portfolio, open triggers, and
// closed order history.
func (s *AccountService) GetSummary(userName string) (*Summary, error) {
	balance, portfolio, err := s.ledger.Snapshot(userName)
	if err != nil {
		return nil, err
	}

	open := s.working.ListByUser(userName)
	var closed []*domain.Order
	for _, o := range s.settled.ListByUser(userName) {
		if o.Status == domain.OrderStatusCommitted {
			open = append(open, o)
			continue
		}
		closed = append(closed, o)
	}

	return &Summary{
		UserName:     userName,
		Balance:      balance,
		Portfolio:    portfolio,
		OpenOrders:   open,
		ClosedOrders: closed,
	}, nil
}

// ListEvents returns the user's audit events in chronological order.
func (s *AccountService) ListEvents(userName string) ([]*domain.Event, error) {
	if !s.accounts.Exists(userName) {
		return nil, domain.ErrAccountNotFound
	}
	return s.events.ListByUser(userName), nil
}
