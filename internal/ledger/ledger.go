// Package ledger owns every mutation of an account's cash balance and
// portfolio. Each operation is a read-modify-write applied under the
// account's own lock, so two concurrent requests for the same user
// cannot interleave, and unrelated users are never serialized against
// each other. No mutation ever commits a negative balance or holding.
package ledger

import (
	"github.com/efreitasn/stocktrade/internal/domain"
	"github.com/efreitasn/stocktrade/internal/store"
)

// Ledger applies reservations, refunds, and settlements to accounts.
type Ledger struct {
	accounts *store.AccountStore
}

// New creates a Ledger backed by the given account store.
func New(accounts *store.AccountStore) *Ledger {
	return &Ledger{accounts: accounts}
}

// ReserveStock removes qty shares of symbol from the user's tradeable
// inventory. It returns domain.ErrInsufficientHoldings if the account
// does not hold enough.
func (l *Ledger) ReserveStock(userName, symbol string, qty int64) error {
	a, err := l.accounts.Get(userName)
	if err != nil {
		return err
	}
	a.Mu.Lock()
	defer a.Mu.Unlock()

	held := a.Portfolio[symbol]
	if held-qty < 0 {
		return domain.ErrInsufficientHoldings
	}
	a.Portfolio[symbol] = held - qty
	return nil
}

// ReserveCash removes amount cents from the user's spendable balance.
// It returns domain.ErrInsufficientFunds if the balance would go
// negative.
func (l *Ledger) ReserveCash(userName string, amount int64) error {
	a, err := l.accounts.Get(userName)
	if err != nil {
		return err
	}
	a.Mu.Lock()
	defer a.Mu.Unlock()

	if a.Balance-amount < 0 {
		return domain.ErrInsufficientFunds
	}
	a.Balance -= amount
	return nil
}

// RefundStock restores qty shares of symbol reserved by a hold.
func (l *Ledger) RefundStock(userName, symbol string, qty int64) error {
	a, err := l.accounts.Get(userName)
	if err != nil {
		return err
	}
	a.Mu.Lock()
	defer a.Mu.Unlock()

	a.Portfolio[symbol] += qty
	return nil
}

// RefundCash restores amount cents reserved by a hold.
func (l *Ledger) RefundCash(userName string, amount int64) error {
	a, err := l.accounts.Get(userName)
	if err != nil {
		return err
	}
	a.Mu.Lock()
	defer a.Mu.Unlock()

	a.Balance += amount
	return nil
}

// SettleBuy applies a filled buy: balance -= qty*unitPrice (skipped
// when the cash was already reserved by a prior trigger) and
// holding += qty. It returns domain.ErrInsufficientFunds rather than
// committing a negative balance.
func (l *Ledger) SettleBuy(userName, symbol string, qty, unitPrice int64, cashReserved bool) error {
	a, err := l.accounts.Get(userName)
	if err != nil {
		return err
	}
	a.Mu.Lock()
	defer a.Mu.Unlock()

	if !cashReserved {
		cost := qty * unitPrice
		if a.Balance-cost < 0 {
			return domain.ErrInsufficientFunds
		}
		a.Balance -= cost
	}
	a.Portfolio[symbol] += qty
	return nil
}

// SettleSell applies a filled sell: balance += qty*unitPrice and
// holding -= qty (skipped when the stock was already reserved at
// order creation). It returns domain.ErrInsufficientHoldings rather
// than committing a negative holding.
func (l *Ledger) SettleSell(userName, symbol string, qty, unitPrice int64, stockReserved bool) error {
	a, err := l.accounts.Get(userName)
	if err != nil {
		return err
	}
	a.Mu.Lock()
	defer a.Mu.Unlock()

	if !stockReserved {
		held := a.Portfolio[symbol]
		if held-qty < 0 {
			return domain.ErrInsufficientHoldings
		}
		a.Portfolio[symbol] = held - qty
	}
	a.Balance += qty * unitPrice
	return nil
}

// AddFunds credits amount cents to the user's balance. Negative
// amounts are rejected.
func (l *Ledger) AddFunds(userName string, amount int64) error {
	if amount < 0 {
		return &domain.ValidationError{Message: "amount must be >= 0"}
	}
	a, err := l.accounts.Get(userName)
	if err != nil {
		return err
	}
	a.Mu.Lock()
	defer a.Mu.Unlock()

	a.Balance += amount
	return nil
}

// Balance returns the user's current spendable balance in cents.
func (l *Ledger) Balance(userName string) (int64, error) {
	a, err := l.accounts.Get(userName)
	if err != nil {
		return 0, err
	}
	a.Mu.Lock()
	defer a.Mu.Unlock()

	return a.Balance, nil
}

// Holding returns the user's tradeable quantity for a symbol.
func (l *Ledger) Holding(userName, symbol string) (int64, error) {
	a, err := l.accounts.Get(userName)
	if err != nil {
		return 0, err
	}
	a.Mu.Lock()
	defer a.Mu.Unlock()

	return a.Portfolio[symbol], nil
}

// Snapshot returns the balance and a copy of the portfolio, taken
// atomically under the account lock.
func (l *Ledger) Snapshot(userName string) (int64, map[string]int64, error) {
	a, err := l.accounts.Get(userName)
	if err != nil {
		return 0, nil, err
	}
	a.Mu.Lock()
	defer a.Mu.Unlock()

	portfolio := make(map[string]int64, len(a.Portfolio))
	for symbol, qty := range a.Portfolio {
		portfolio[symbol] = qty
	}
	return a.Balance, portfolio, nil
}
