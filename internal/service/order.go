package service

import (
	"fmt"
	"regexp"

	"github.com/efreitasn/stocktrade/internal/domain"
	"github.com/efreitasn/stocktrade/internal/engine"
)

var (
	symbolRegex        = regexp.MustCompile(`^[A-Z]{1,10}$`)
	transactionIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
)

// CreateSimpleOrderRequest is the input for market order creation.
type CreateSimpleOrderRequest struct {
	UserName      string
	TransactionID string
	Type          domain.OrderType // BUY or SELL
	Symbol        string
	CashAmount    float64 // dollars
}

// CreateLimitOrderRequest is the input for limit order creation.
type CreateLimitOrderRequest struct {
	UserName      string
	TransactionID string
	Type          domain.OrderType // BUY_AT or SELL_AT
	Symbol        string
	StockAmount   int64
}

// OrderService validates requests and delegates lifecycle transitions
// to the engine.
type OrderService struct {
	engine *engine.Engine
}

// NewOrderService creates an OrderService driving the given engine.
func NewOrderService(eng *engine.Engine) *OrderService {
	return &OrderService{engine: eng}
}

func validateCommon(userName, transactionID, symbol string) error {
	if !userNameRegex.MatchString(userName) {
		return &domain.ValidationError{
			Message: "username must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !transactionIDRegex.MatchString(transactionID) {
		return &domain.ValidationError{
			Message: "transaction_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if symbol != "" && !symbolRegex.MatchString(symbol) {
		return &domain.ValidationError{
			Message: fmt.Sprintf("symbol must match ^[A-Z]{1,10}$, got %q", symbol),
		}
	}
	return nil
}

// GetQuote returns a current quote for the symbol.
func (s *OrderService) GetQuote(userName, transactionID, symbol string) (*domain.Quote, error) {
	if err := validateCommon(userName, transactionID, symbol); err != nil {
		return nil, err
	}
	if symbol == "" {
		return nil, &domain.ValidationError{Message: "symbol is required"}
	}
	return s.engine.GetQuote(userName, symbol, transactionID)
}

// CreateSimpleOrder validates the request and creates a PENDING market
// order.
func (s *OrderService) CreateSimpleOrder(req CreateSimpleOrderRequest) (*domain.Order, error) {
	if err := validateCommon(req.UserName, req.TransactionID, req.Symbol); err != nil {
		return nil, err
	}
	if req.Symbol == "" {
		return nil, &domain.ValidationError{Message: "symbol is required"}
	}
	if req.CashAmount <= 0 {
		return nil, &domain.ValidationError{Message: "cash_amount must be > 0"}
	}
	cents, err := domain.DollarsToCents(req.CashAmount)
	if err != nil {
		return nil, &domain.ValidationError{Message: "cash_amount must have at most 2 decimal places"}
	}

	switch req.Type {
	case domain.OrderTypeBuy:
		return s.engine.CreateSimpleBuy(req.UserName, req.TransactionID, req.Symbol, cents)
	case domain.OrderTypeSell:
		return s.engine.CreateSimpleSell(req.UserName, req.TransactionID, req.Symbol, cents)
	}
	return nil, &domain.ValidationError{
		Message: fmt.Sprintf("type must be BUY or SELL, got %q", req.Type),
	}
}

// Commit fills the user's most recent pending simple order of the type.
func (s *OrderService) Commit(userName, transactionID string, typ domain.OrderType) (*domain.Order, error) {
	if err := validateCommon(userName, transactionID, ""); err != nil {
		return nil, err
	}
	return s.engine.CommitSimple(userName, transactionID, typ)
}

// CancelSimple cancels the user's most recent pending simple order of
// the type.
func (s *OrderService) CancelSimple(userName, transactionID string, typ domain.OrderType) (*domain.Order, error) {
	if err := validateCommon(userName, transactionID, ""); err != nil {
		return nil, err
	}
	return s.engine.CancelSimple(userName, transactionID, typ)
}

// CreateLimitOrder validates the request and creates a PENDING limit
// order.
func (s *OrderService) CreateLimitOrder(req CreateLimitOrderRequest) (*domain.Order, error) {
	if err := validateCommon(req.UserName, req.TransactionID, req.Symbol); err != nil {
		return nil, err
	}
	if req.Symbol == "" {
		return nil, &domain.ValidationError{Message: "symbol is required"}
	}
	if req.StockAmount < 1 {
		return nil, &domain.ValidationError{Message: "stock_amount must be a positive integer"}
	}
	if !req.Type.IsLimit() {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("type must be BUY_AT or SELL_AT, got %q", req.Type),
		}
	}
	return s.engine.CreateLimitOrder(req.UserName, req.TransactionID, req.Type, req.Symbol, req.StockAmount)
}

// Trigger commits the user's most recent pending limit order of the
// type at the given dollar price.
func (s *OrderService) Trigger(userName, transactionID string, typ domain.OrderType, unitPrice float64) (*domain.Order, error) {
	if err := validateCommon(userName, transactionID, ""); err != nil {
		return nil, err
	}
	if unitPrice <= 0 {
		return nil, &domain.ValidationError{Message: "unit_price must be > 0"}
	}
	cents, err := domain.DollarsToCents(unitPrice)
	if err != nil {
		return nil, &domain.ValidationError{Message: "unit_price must have at most 2 decimal places"}
	}
	return s.engine.TriggerLimit(userName, transactionID, typ, cents)
}

// CancelLimit cancels the user's most recent limit order of the type
// and symbol, pending or committed.
func (s *OrderService) CancelLimit(userName, transactionID string, typ domain.OrderType, symbol string) (*domain.Order, error) {
	if err := validateCommon(userName, transactionID, symbol); err != nil {
		return nil, err
	}
	if symbol == "" {
		return nil, &domain.ValidationError{Message: "symbol is required"}
	}
	return s.engine.CancelLimit(userName, transactionID, typ, symbol)
}
