package domain

import (
	"sync"
	"time"
)

// Account holds a user's cash balance and stock portfolio. There is
// exactly one account per username, created at registration and never
// deleted during normal operation.
type Account struct {
	UserName  string
	Balance   int64            // cash in cents
	Portfolio map[string]int64 // symbol → shares held
	CreatedAt time.Time
	Mu        sync.Mutex // per-account lock for ledger mutations
}

// NewAccount creates an empty account for the given username.
func NewAccount(userName string) *Account {
	return &Account{
		UserName:  userName,
		Portfolio: make(map[string]int64),
		CreatedAt: time.Now(),
	}
}

// Holding returns the number of shares held for the given symbol,
// or 0 if the account has no position in that symbol.
func (a *Account) Holding(symbol string) int64 {
	return a.Portfolio[symbol]
}
