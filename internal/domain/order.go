package domain

import "time"

// OrderType distinguishes the four order kinds. Simple BUY/SELL orders
// settle against a live quote; BUY_AT/SELL_AT are limit orders that
// rest until triggered at a chosen price.
type OrderType string

const (
	OrderTypeBuy    OrderType = "BUY"
	OrderTypeSell   OrderType = "SELL"
	OrderTypeBuyAt  OrderType = "BUY_AT"
	OrderTypeSellAt OrderType = "SELL_AT"
)

// IsLimit reports whether the order type is a trigger-based limit order.
func (t OrderType) IsLimit() bool {
	return t == OrderTypeBuyAt || t == OrderTypeSellAt
}

// OrderStatus represents the lifecycle state of an order. An order is
// created PENDING and transitions exactly once along one of the
// documented paths; it is never resurrected from a terminal state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCommitted OrderStatus = "COMMITTED"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
	OrderStatusExpired   OrderStatus = "EXPIRED"
)

// Terminal reports whether the status is final.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusExpired:
		return true
	}
	return false
}

// Order is the transaction record moving through the lifecycle engine.
// While PENDING it lives in the working store; every transition out of
// PENDING moves it into the settled store.
type Order struct {
	OrderID       string
	TransactionID string // client-supplied correlation id
	UserName      string
	Type          OrderType
	Symbol        string
	CashAmount    int64 // cents
	StockAmount   int64 // shares
	UnitPrice     int64 // cents; 0 until a price is resolved
	Status        OrderStatus
	CreatedAt     time.Time
}

// Clone returns a shallow copy. Stores hand out clones so callers
// cannot mutate a record outside the store's lock.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}
