// Package engine implements the order lifecycle state machine: orders
// are created PENDING in the working store and transition exactly once
// to COMMITTED, FILLED, CANCELED, or EXPIRED in the settled store.
// Validation and business-rule failures are detected before any ledger
// mutation, so the engine never leaves a half-applied reservation.
package engine

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/stocktrade/internal/audit"
	"github.com/efreitasn/stocktrade/internal/domain"
	"github.com/efreitasn/stocktrade/internal/ledger"
	"github.com/efreitasn/stocktrade/internal/store"
)

// QuoteFetcher is the engine's view of the quote source adapter.
type QuoteFetcher interface {
	Get(userName, symbol, transactionID string) (*domain.Quote, error)
}

// Engine drives all order lifecycle transitions. It is invoked both by
// inbound requests and by the sweep scheduler; the working store's
// Remove acts as the claim point so racing transitions resolve to one
// winner.
type Engine struct {
	quotes  QuoteFetcher
	ledger  *ledger.Ledger
	working *store.WorkingOrderStore
	settled *store.SettledOrderStore
	audit   *audit.Recorder
	ttl     time.Duration // pending orders expire this long after creation
	logger  *slog.Logger
}

// New creates an Engine with the given dependencies.
func New(
	quotes QuoteFetcher,
	ldg *ledger.Ledger,
	working *store.WorkingOrderStore,
	settled *store.SettledOrderStore,
	rec *audit.Recorder,
	ttl time.Duration,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		quotes:  quotes,
		ledger:  ldg,
		working: working,
		settled: settled,
		audit:   rec,
		ttl:     ttl,
		logger:  logger,
	}
}

// GetQuote returns a current quote for the symbol, consulting the
// adapter's cache first.
func (e *Engine) GetQuote(userName, symbol, transactionID string) (*domain.Quote, error) {
	return e.quotes.Get(userName, symbol, transactionID)
}

// CreateSimpleBuy creates a PENDING market buy. The stock amount is the
// floor of cashAmount over the live quote price; the persisted cash
// amount is recomputed from the resolved quantity.
func (e *Engine) CreateSimpleBuy(userName, transactionID, symbol string, cashAmount int64) (*domain.Order, error) {
	if cashAmount <= 0 {
		return nil, domain.ErrInvalidOrder
	}
	q, err := e.quotes.Get(userName, symbol, transactionID)
	if err != nil {
		return nil, err
	}

	stockAmount := cashAmount / q.UnitPrice
	if stockAmount < 1 {
		e.audit.ErrorEvent(userName, transactionID, "BUY", symbol, "cash amount buys less than one share")
		return nil, domain.ErrInvalidOrder
	}

	balance, err := e.ledger.Balance(userName)
	if err != nil {
		return nil, err
	}
	if balance < cashAmount {
		e.audit.ErrorEvent(userName, transactionID, "BUY", symbol, "insufficient funds")
		return nil, domain.ErrInsufficientFunds
	}

	ord := e.newPending(userName, transactionID, domain.OrderTypeBuy, symbol, stockAmount, q.UnitPrice)
	e.working.Create(ord)
	e.audit.Command(userName, transactionID, "BUY", symbol, ord.CashAmount)
	return ord.Clone(), nil
}

// CreateSimpleSell creates a PENDING market sell for as many shares as
// cashAmount buys at the live quote price.
func (e *Engine) CreateSimpleSell(userName, transactionID, symbol string, cashAmount int64) (*domain.Order, error) {
	if cashAmount <= 0 {
		return nil, domain.ErrInvalidOrder
	}
	q, err := e.quotes.Get(userName, symbol, transactionID)
	if err != nil {
		return nil, err
	}

	stockAmount := cashAmount / q.UnitPrice
	if stockAmount < 1 {
		e.audit.ErrorEvent(userName, transactionID, "SELL", symbol, "cash amount sells less than one share")
		return nil, domain.ErrInvalidOrder
	}

	held, err := e.ledger.Holding(userName, symbol)
	if err != nil {
		return nil, err
	}
	if held < stockAmount {
		e.audit.ErrorEvent(userName, transactionID, "SELL", symbol, "insufficient holdings")
		return nil, domain.ErrInsufficientHoldings
	}

	ord := e.newPending(userName, transactionID, domain.OrderTypeSell, symbol, stockAmount, q.UnitPrice)
	e.working.Create(ord)
	e.audit.Command(userName, transactionID, "SELL", symbol, ord.CashAmount)
	return ord.Clone(), nil
}

func (e *Engine) newPending(userName, transactionID string, typ domain.OrderType, symbol string, stockAmount, unitPrice int64) *domain.Order {
	return &domain.Order{
		OrderID:       uuid.New().String(),
		TransactionID: transactionID,
		UserName:      userName,
		Type:          typ,
		Symbol:        symbol,
		StockAmount:   stockAmount,
		UnitPrice:     unitPrice,
		CashAmount:    stockAmount * unitPrice,
		Status:        domain.OrderStatusPending,
		CreatedAt:     time.Now(),
	}
}

// CommitSimple fills the user's most recent PENDING simple order of
// the given type and settles it against the ledger.
func (e *Engine) CommitSimple(userName, transactionID string, typ domain.OrderType) (*domain.Order, error) {
	if typ != domain.OrderTypeBuy && typ != domain.OrderTypeSell {
		return nil, domain.ErrInvalidOrder
	}
	ord, err := e.working.MostRecentByUserAndType(userName, typ)
	if err != nil {
		e.audit.ErrorEvent(userName, transactionID, commitCommand(typ), "", "no open orders to commit")
		return nil, err
	}
	claimed, ok := e.working.Remove(ord.OrderID)
	if !ok {
		return nil, domain.ErrNoSuchOrder
	}

	if typ == domain.OrderTypeBuy {
		err = e.ledger.SettleBuy(userName, claimed.Symbol, claimed.StockAmount, claimed.UnitPrice, false)
	} else {
		err = e.ledger.SettleSell(userName, claimed.Symbol, claimed.StockAmount, claimed.UnitPrice, false)
	}
	if err != nil {
		// Settlement refused, the order is still PENDING. Put it back
		// so it expires naturally if never committed again.
		e.working.Create(claimed)
		e.audit.ErrorEvent(userName, transactionID, commitCommand(typ), claimed.Symbol, err.Error())
		return nil, err
	}

	claimed.TransactionID = transactionID
	claimed.Status = domain.OrderStatusFilled
	e.settled.Append(claimed)

	action := "remove"
	if typ == domain.OrderTypeSell {
		action = "add"
	}
	e.audit.AccountTransaction(userName, transactionID, action, claimed.CashAmount)
	e.audit.Command(userName, transactionID, commitCommand(typ), claimed.Symbol, claimed.CashAmount)
	return claimed.Clone(), nil
}

// CancelSimple cancels the user's most recent PENDING simple order of
// the given type. Nothing was reserved, so no refund is applied.
func (e *Engine) CancelSimple(userName, transactionID string, typ domain.OrderType) (*domain.Order, error) {
	if typ != domain.OrderTypeBuy && typ != domain.OrderTypeSell {
		return nil, domain.ErrInvalidOrder
	}
	ord, err := e.working.MostRecentByUserAndType(userName, typ)
	if err != nil {
		e.audit.ErrorEvent(userName, transactionID, cancelCommand(typ), "", "no open orders to cancel")
		return nil, err
	}
	claimed, ok := e.working.Remove(ord.OrderID)
	if !ok {
		return nil, domain.ErrNoSuchOrder
	}

	claimed.TransactionID = transactionID
	claimed.Status = domain.OrderStatusCanceled
	e.settled.Append(claimed)
	e.audit.Command(userName, transactionID, cancelCommand(typ), claimed.Symbol, claimed.CashAmount)
	return claimed.Clone(), nil
}

// CreateLimitOrder creates a PENDING limit order for stockAmount shares
// without requiring a quote. SELL_AT immediately reserves the shares
// from the portfolio; a failed reservation aborts the whole creation.
func (e *Engine) CreateLimitOrder(userName, transactionID string, typ domain.OrderType, symbol string, stockAmount int64) (*domain.Order, error) {
	if !typ.IsLimit() || stockAmount < 1 {
		return nil, domain.ErrInvalidOrder
	}

	if typ == domain.OrderTypeSellAt {
		if err := e.ledger.ReserveStock(userName, symbol, stockAmount); err != nil {
			e.audit.ErrorEvent(userName, transactionID, setCommand(typ), symbol, err.Error())
			return nil, err
		}
	} else if !e.accountExists(userName) {
		return nil, domain.ErrAccountNotFound
	}

	ord := &domain.Order{
		OrderID:       uuid.New().String(),
		TransactionID: transactionID,
		UserName:      userName,
		Type:          typ,
		Symbol:        symbol,
		StockAmount:   stockAmount,
		Status:        domain.OrderStatusPending,
		CreatedAt:     time.Now(),
	}
	e.working.Create(ord)
	e.audit.Command(userName, transactionID, setCommand(typ), symbol, 0)
	return ord.Clone(), nil
}

func (e *Engine) accountExists(userName string) bool {
	_, err := e.ledger.Balance(userName)
	return err == nil
}

// TriggerLimit commits the user's most recent PENDING limit order of
// the given type at unitPrice. BUY_AT reserves the cash now; a failed
// reservation aborts the trigger and the order stays PENDING.
func (e *Engine) TriggerLimit(userName, transactionID string, typ domain.OrderType, unitPrice int64) (*domain.Order, error) {
	if !typ.IsLimit() || unitPrice < 1 {
		return nil, domain.ErrInvalidOrder
	}
	ord, err := e.working.MostRecentByUserAndType(userName, typ)
	if err != nil {
		e.audit.ErrorEvent(userName, transactionID, triggerCommand(typ), "", "no open triggers")
		return nil, err
	}
	claimed, ok := e.working.Remove(ord.OrderID)
	if !ok {
		return nil, domain.ErrNoSuchOrder
	}

	cash := unitPrice * claimed.StockAmount
	if typ == domain.OrderTypeBuyAt {
		if err := e.ledger.ReserveCash(userName, cash); err != nil {
			e.working.Create(claimed)
			e.audit.ErrorEvent(userName, transactionID, triggerCommand(typ), claimed.Symbol, err.Error())
			return nil, err
		}
		e.audit.AccountTransaction(userName, transactionID, "remove", cash)
	}

	claimed.TransactionID = transactionID
	claimed.UnitPrice = unitPrice
	claimed.CashAmount = cash
	claimed.Status = domain.OrderStatusCommitted
	e.settled.Append(claimed)
	e.audit.Command(userName, transactionID, triggerCommand(typ), claimed.Symbol, cash)
	return claimed.Clone(), nil
}

// CancelLimit cancels the user's most recent limit order of the given
// type and symbol, searching PENDING first, then COMMITTED. Reserved
// stock (SELL_AT) and reserved cash (COMMITTED BUY_AT) are refunded;
// a PENDING BUY_AT reserved nothing, so nothing is refunded.
func (e *Engine) CancelLimit(userName, transactionID string, typ domain.OrderType, symbol string) (*domain.Order, error) {
	if !typ.IsLimit() {
		return nil, domain.ErrInvalidOrder
	}

	// PENDING first.
	if ord, err := e.working.MostRecentByUserTypeSymbol(userName, typ, symbol); err == nil {
		if claimed, ok := e.working.Remove(ord.OrderID); ok {
			if typ == domain.OrderTypeSellAt {
				if err := e.ledger.RefundStock(userName, symbol, claimed.StockAmount); err != nil {
					e.logger.Error("stock refund failed on cancel",
						slog.String("order_id", claimed.OrderID), slog.String("error", err.Error()))
				}
			}
			claimed.TransactionID = transactionID
			claimed.Status = domain.OrderStatusCanceled
			e.settled.Append(claimed)
			e.audit.Command(userName, transactionID, cancelSetCommand(typ), symbol, claimed.CashAmount)
			return claimed.Clone(), nil
		}
	}

	// Then COMMITTED.
	ord, err := e.settled.MostRecentCommitted(userName, typ, symbol)
	if err != nil {
		e.audit.ErrorEvent(userName, transactionID, cancelSetCommand(typ), symbol, "no open triggers for "+symbol)
		return nil, err
	}
	if err := e.settled.Cancel(ord.OrderID); err != nil {
		return nil, err
	}
	switch typ {
	case domain.OrderTypeSellAt:
		if err := e.ledger.RefundStock(userName, symbol, ord.StockAmount); err != nil {
			e.logger.Error("stock refund failed on cancel",
				slog.String("order_id", ord.OrderID), slog.String("error", err.Error()))
		}
	case domain.OrderTypeBuyAt:
		if err := e.ledger.RefundCash(userName, ord.CashAmount); err != nil {
			e.logger.Error("cash refund failed on cancel",
				slog.String("order_id", ord.OrderID), slog.String("error", err.Error()))
		}
		e.audit.AccountTransaction(userName, transactionID, "add", ord.CashAmount)
	}
	ord.Status = domain.OrderStatusCanceled
	e.audit.Command(userName, transactionID, cancelSetCommand(typ), symbol, ord.CashAmount)
	return ord, nil
}

// ExpireOrders expires every order still PENDING past its TTL, moving
// the record into the settled store with status EXPIRED. SELL_AT
// expiry refunds the reserved stock exactly like a cancel. One order's
// failure never stops the batch.
func (e *Engine) ExpireOrders(now time.Time) {
	stale := e.working.OlderThan(now.Add(-e.ttl))
	for _, ord := range stale {
		claimed, ok := e.working.Remove(ord.OrderID)
		if !ok {
			continue // claimed by a racing commit/trigger/cancel
		}
		if claimed.Type == domain.OrderTypeSellAt {
			if err := e.ledger.RefundStock(claimed.UserName, claimed.Symbol, claimed.StockAmount); err != nil {
				e.logger.Error("stock refund failed on expiry",
					slog.String("order_id", claimed.OrderID), slog.String("error", err.Error()))
			}
		}
		claimed.Status = domain.OrderStatusExpired
		e.settled.Append(claimed)
		e.audit.SystemEvent(claimed.UserName, claimed.TransactionID, expireCommand(claimed.Type), claimed.Symbol, claimed.CashAmount)
	}
}

// FillSellLimitOrders fills every COMMITTED SELL_AT order whose limit
// the market has crossed, realizing max(limit, quoted) per share. A
// failed quote fetch skips only that order.
func (e *Engine) FillSellLimitOrders() {
	for _, ord := range e.settled.ByStatusAndType(domain.OrderStatusCommitted, domain.OrderTypeSellAt) {
		q, err := e.quotes.Get(ord.UserName, ord.Symbol, ord.TransactionID)
		if err != nil {
			e.logger.Warn("fill sweep quote fetch failed",
				slog.String("order_id", ord.OrderID), slog.String("symbol", ord.Symbol), slog.String("error", err.Error()))
			continue
		}
		if q.UnitPrice < ord.UnitPrice {
			continue // re-evaluated next tick
		}
		realized := ord.UnitPrice
		if q.UnitPrice > realized {
			realized = q.UnitPrice
		}
		cash := realized * ord.StockAmount
		if err := e.settled.Fill(ord.OrderID, realized, cash); err != nil {
			continue // lost to a racing cancel
		}
		if err := e.ledger.SettleSell(ord.UserName, ord.Symbol, ord.StockAmount, realized, true); err != nil {
			e.logger.Error("sell settlement failed",
				slog.String("order_id", ord.OrderID), slog.String("error", err.Error()))
			continue
		}
		e.audit.AccountTransaction(ord.UserName, ord.TransactionID, "add", cash)
		e.audit.SystemEvent(ord.UserName, ord.TransactionID, "COMMIT_SELL", ord.Symbol, cash)
	}
}

// FillBuyLimitOrders fills every COMMITTED BUY_AT order whose limit the
// market has crossed, realizing min(limit, quoted) per share. When the
// realized price beats the limit, the difference between the reserved
// and realized cash is refunded: the buyer never pays more than
// reserved but recovers savings from a better fill.
func (e *Engine) FillBuyLimitOrders() {
	for _, ord := range e.settled.ByStatusAndType(domain.OrderStatusCommitted, domain.OrderTypeBuyAt) {
		q, err := e.quotes.Get(ord.UserName, ord.Symbol, ord.TransactionID)
		if err != nil {
			e.logger.Warn("fill sweep quote fetch failed",
				slog.String("order_id", ord.OrderID), slog.String("symbol", ord.Symbol), slog.String("error", err.Error()))
			continue
		}
		if q.UnitPrice > ord.UnitPrice {
			continue
		}
		realized := ord.UnitPrice
		if q.UnitPrice < realized {
			realized = q.UnitPrice
		}
		cash := realized * ord.StockAmount
		if err := e.settled.Fill(ord.OrderID, realized, cash); err != nil {
			continue
		}
		if refund := ord.CashAmount - cash; refund > 0 {
			if err := e.ledger.RefundCash(ord.UserName, refund); err != nil {
				e.logger.Error("price-protection refund failed",
					slog.String("order_id", ord.OrderID), slog.String("error", err.Error()))
			}
			e.audit.AccountTransaction(ord.UserName, ord.TransactionID, "add", refund)
		}
		if err := e.ledger.SettleBuy(ord.UserName, ord.Symbol, ord.StockAmount, realized, true); err != nil {
			e.logger.Error("buy settlement failed",
				slog.String("order_id", ord.OrderID), slog.String("error", err.Error()))
			continue
		}
		e.audit.SystemEvent(ord.UserName, ord.TransactionID, "COMMIT_BUY", ord.Symbol, cash)
	}
}

func commitCommand(typ domain.OrderType) string {
	if typ == domain.OrderTypeBuy {
		return "COMMIT_BUY"
	}
	return "COMMIT_SELL"
}

func cancelCommand(typ domain.OrderType) string {
	if typ == domain.OrderTypeBuy {
		return "CANCEL_BUY"
	}
	return "CANCEL_SELL"
}

func setCommand(typ domain.OrderType) string {
	if typ == domain.OrderTypeBuyAt {
		return "SET_BUY_AMOUNT"
	}
	return "SET_SELL_AMOUNT"
}

func triggerCommand(typ domain.OrderType) string {
	if typ == domain.OrderTypeBuyAt {
		return "SET_BUY_TRIGGER"
	}
	return "SET_SELL_TRIGGER"
}

func cancelSetCommand(typ domain.OrderType) string {
	if typ == domain.OrderTypeBuyAt {
		return "CANCEL_SET_BUY"
	}
	return "CANCEL_SET_SELL"
}

func expireCommand(typ domain.OrderType) string {
	switch typ {
	case domain.OrderTypeBuy, domain.OrderTypeBuyAt:
		return "CANCEL_BUY"
	default:
		return "CANCEL_SELL"
	}
}
