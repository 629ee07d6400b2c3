package engine

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/efreitasn/stocktrade/internal/audit"
	"github.com/efreitasn/stocktrade/internal/domain"
	"github.com/efreitasn/stocktrade/internal/ledger"
	"github.com/efreitasn/stocktrade/internal/store"
)

// stubQuotes is a QuoteFetcher returning a fixed price or error.
type stubQuotes struct {
	price int64
	err   error
	calls int
}

func (s *stubQuotes) Get(userName, symbol, transactionID string) (*domain.Quote, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Quote{
		Symbol:        symbol,
		UnitPrice:     s.price,
		UserName:      userName,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
		CryptoKey:     "testkey",
	}, nil
}

type testEnv struct {
	engine  *Engine
	ledger  *ledger.Ledger
	working *store.WorkingOrderStore
	settled *store.SettledOrderStore
	quotes  *stubQuotes
}

func newTestEnv(t *testing.T, price int64, balance int64, holdings map[string]int64) *testEnv {
	t.Helper()
	accounts := store.NewAccountStore()
	a := domain.NewAccount("alice")
	a.Balance = balance
	for symbol, qty := range holdings {
		a.Portfolio[symbol] = qty
	}
	if err := accounts.Create(a); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	quotes := &stubQuotes{price: price}
	ldg := ledger.New(accounts)
	working := store.NewWorkingOrderStore()
	settled := store.NewSettledOrderStore()
	rec := audit.NewRecorder(store.NewEventStore(), logger)

	return &testEnv{
		engine:  New(quotes, ldg, working, settled, rec, time.Minute, logger),
		ledger:  ldg,
		working: working,
		settled: settled,
		quotes:  quotes,
	}
}

// Scenario A: balance 1000.00, BUY for 500.00 at quote 20.00 →
// 25 shares, PENDING; commit → balance 500.00, holding 25, FILLED.
func TestSimpleBuy_CreateAndCommit(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)

	ord, err := env.engine.CreateSimpleBuy("alice", "tx1", "SYM", 50000)
	if err != nil {
		t.Fatalf("CreateSimpleBuy() unexpected error: %v", err)
	}
	if ord.StockAmount != 25 {
		t.Errorf("StockAmount = %d, want 25", ord.StockAmount)
	}
	if ord.CashAmount != 50000 {
		t.Errorf("CashAmount = %d, want 50000", ord.CashAmount)
	}
	if ord.Status != domain.OrderStatusPending {
		t.Errorf("Status = %s, want PENDING", ord.Status)
	}

	// Creation alone must not touch the ledger.
	balance, _ := env.ledger.Balance("alice")
	if balance != 100000 {
		t.Errorf("Balance after create = %d, want 100000", balance)
	}

	filled, err := env.engine.CommitSimple("alice", "tx2", domain.OrderTypeBuy)
	if err != nil {
		t.Fatalf("CommitSimple() unexpected error: %v", err)
	}
	if filled.Status != domain.OrderStatusFilled {
		t.Errorf("Status = %s, want FILLED", filled.Status)
	}

	balance, _ = env.ledger.Balance("alice")
	held, _ := env.ledger.Holding("alice", "SYM")
	if balance != 50000 {
		t.Errorf("Balance = %d, want 50000", balance)
	}
	if held != 25 {
		t.Errorf("Holding = %d, want 25", held)
	}
}

// Cash is recomputed from the resolved quantity, not the requested
// amount: 500.00 at 30.00 → 16 shares → 480.00.
func TestSimpleBuy_CashRecomputed(t *testing.T) {
	env := newTestEnv(t, 3000, 100000, nil)

	ord, err := env.engine.CreateSimpleBuy("alice", "tx1", "SYM", 50000)
	if err != nil {
		t.Fatalf("CreateSimpleBuy() unexpected error: %v", err)
	}
	if ord.StockAmount != 16 {
		t.Errorf("StockAmount = %d, want 16", ord.StockAmount)
	}
	if ord.CashAmount != 48000 {
		t.Errorf("CashAmount = %d, want 48000", ord.CashAmount)
	}
}

func TestSimpleBuy_LessThanOneShare(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)

	_, err := env.engine.CreateSimpleBuy("alice", "tx1", "SYM", 1999)
	if !errors.Is(err, domain.ErrInvalidOrder) {
		t.Errorf("CreateSimpleBuy() = %v, want ErrInvalidOrder", err)
	}
}

func TestSimpleBuy_InsufficientFunds(t *testing.T) {
	env := newTestEnv(t, 2000, 10000, nil)

	_, err := env.engine.CreateSimpleBuy("alice", "tx1", "SYM", 20000)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("CreateSimpleBuy() = %v, want ErrInsufficientFunds", err)
	}
	if env.working.Len() != 0 {
		t.Error("rejected order was persisted")
	}
}

// Scenario D: SELL with cash amount exceeding holding*quote is
// rejected and the ledger is unchanged.
func TestSimpleSell_InsufficientHoldings(t *testing.T) {
	env := newTestEnv(t, 2000, 0, map[string]int64{"SYM": 5})

	_, err := env.engine.CreateSimpleSell("alice", "tx1", "SYM", 20000)
	if !errors.Is(err, domain.ErrInsufficientHoldings) {
		t.Fatalf("CreateSimpleSell() = %v, want ErrInsufficientHoldings", err)
	}
	held, _ := env.ledger.Holding("alice", "SYM")
	if held != 5 {
		t.Errorf("Holding = %d, want 5", held)
	}
}

func TestSimpleSell_CreateAndCommit(t *testing.T) {
	env := newTestEnv(t, 2000, 0, map[string]int64{"SYM": 10})

	ord, err := env.engine.CreateSimpleSell("alice", "tx1", "SYM", 20000)
	if err != nil {
		t.Fatalf("CreateSimpleSell() unexpected error: %v", err)
	}
	if ord.StockAmount != 10 {
		t.Errorf("StockAmount = %d, want 10", ord.StockAmount)
	}

	if _, err := env.engine.CommitSimple("alice", "tx2", domain.OrderTypeSell); err != nil {
		t.Fatalf("CommitSimple() unexpected error: %v", err)
	}
	balance, _ := env.ledger.Balance("alice")
	held, _ := env.ledger.Holding("alice", "SYM")
	if balance != 20000 {
		t.Errorf("Balance = %d, want 20000", balance)
	}
	if held != 0 {
		t.Errorf("Holding = %d, want 0", held)
	}
}

// Scenario E: quote feed failure during creation leaves no order and
// no ledger change.
func TestSimpleBuy_UpstreamUnavailable(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)
	env.quotes.err = domain.ErrUpstreamUnavailable

	_, err := env.engine.CreateSimpleBuy("alice", "tx1", "SYM", 50000)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("CreateSimpleBuy() = %v, want ErrUpstreamUnavailable", err)
	}
	if env.working.Len() != 0 {
		t.Error("order was persisted despite quote failure")
	}
	balance, _ := env.ledger.Balance("alice")
	if balance != 100000 {
		t.Errorf("Balance = %d, want 100000", balance)
	}
}

func TestCommitSimple_NothingPending(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)

	_, err := env.engine.CommitSimple("alice", "tx1", domain.OrderTypeBuy)
	if !errors.Is(err, domain.ErrNoSuchOrder) {
		t.Errorf("CommitSimple() = %v, want ErrNoSuchOrder", err)
	}
}

func TestCommitSimple_MostRecentWins(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)

	if _, err := env.engine.CreateSimpleBuy("alice", "tx1", "SYM", 20000); err != nil {
		t.Fatalf("CreateSimpleBuy() unexpected error: %v", err)
	}
	time.Sleep(time.Millisecond)
	second, err := env.engine.CreateSimpleBuy("alice", "tx2", "SYM", 40000)
	if err != nil {
		t.Fatalf("CreateSimpleBuy() unexpected error: %v", err)
	}

	filled, err := env.engine.CommitSimple("alice", "tx3", domain.OrderTypeBuy)
	if err != nil {
		t.Fatalf("CommitSimple() unexpected error: %v", err)
	}
	if filled.OrderID != second.OrderID {
		t.Errorf("committed order %q, want most recent %q", filled.OrderID, second.OrderID)
	}
}

func TestCancelSimple(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)

	if _, err := env.engine.CreateSimpleBuy("alice", "tx1", "SYM", 50000); err != nil {
		t.Fatalf("CreateSimpleBuy() unexpected error: %v", err)
	}
	ord, err := env.engine.CancelSimple("alice", "tx2", domain.OrderTypeBuy)
	if err != nil {
		t.Fatalf("CancelSimple() unexpected error: %v", err)
	}
	if ord.Status != domain.OrderStatusCanceled {
		t.Errorf("Status = %s, want CANCELED", ord.Status)
	}
	balance, _ := env.ledger.Balance("alice")
	if balance != 100000 {
		t.Errorf("Balance = %d, want 100000 (no refund for simple cancel)", balance)
	}
}

// SELL_AT creation reserves the stock immediately.
func TestCreateLimitSell_ReservesStock(t *testing.T) {
	env := newTestEnv(t, 2000, 0, map[string]int64{"SYM": 10})

	ord, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeSellAt, "SYM", 10)
	if err != nil {
		t.Fatalf("CreateLimitOrder() unexpected error: %v", err)
	}
	if ord.Status != domain.OrderStatusPending {
		t.Errorf("Status = %s, want PENDING", ord.Status)
	}
	held, _ := env.ledger.Holding("alice", "SYM")
	if held != 0 {
		t.Errorf("Holding = %d, want 0 (reserved)", held)
	}
	// No quote required for limit creation.
	if env.quotes.calls != 0 {
		t.Errorf("quote feed contacted %d times, want 0", env.quotes.calls)
	}
}

func TestCreateLimitSell_InsufficientHoldings(t *testing.T) {
	env := newTestEnv(t, 2000, 0, map[string]int64{"SYM": 5})

	_, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeSellAt, "SYM", 10)
	if !errors.Is(err, domain.ErrInsufficientHoldings) {
		t.Fatalf("CreateLimitOrder() = %v, want ErrInsufficientHoldings", err)
	}
	if env.working.Len() != 0 {
		t.Error("failed creation persisted an order")
	}
}

// BUY_AT reserves nothing at creation; the cash leaves at trigger time.
func TestTriggerLimitBuy_ReservesCash(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)

	if _, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeBuyAt, "SYM", 10); err != nil {
		t.Fatalf("CreateLimitOrder() unexpected error: %v", err)
	}
	balance, _ := env.ledger.Balance("alice")
	if balance != 100000 {
		t.Errorf("Balance after create = %d, want 100000", balance)
	}

	ord, err := env.engine.TriggerLimit("alice", "tx2", domain.OrderTypeBuyAt, 5000)
	if err != nil {
		t.Fatalf("TriggerLimit() unexpected error: %v", err)
	}
	if ord.Status != domain.OrderStatusCommitted {
		t.Errorf("Status = %s, want COMMITTED", ord.Status)
	}
	if ord.CashAmount != 50000 {
		t.Errorf("CashAmount = %d, want 50000", ord.CashAmount)
	}
	balance, _ = env.ledger.Balance("alice")
	if balance != 50000 {
		t.Errorf("Balance after trigger = %d, want 50000", balance)
	}
}

func TestTriggerLimitBuy_InsufficientFundsAborts(t *testing.T) {
	env := newTestEnv(t, 2000, 10000, nil)

	if _, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeBuyAt, "SYM", 10); err != nil {
		t.Fatalf("CreateLimitOrder() unexpected error: %v", err)
	}
	_, err := env.engine.TriggerLimit("alice", "tx2", domain.OrderTypeBuyAt, 5000)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("TriggerLimit() = %v, want ErrInsufficientFunds", err)
	}
	// The order must remain PENDING after the aborted trigger.
	if env.working.Len() != 1 {
		t.Errorf("working store has %d orders, want 1", env.working.Len())
	}
	balance, _ := env.ledger.Balance("alice")
	if balance != 10000 {
		t.Errorf("Balance = %d, want 10000", balance)
	}
}

// Scenario B: SELL_AT reservation is restored on expiry.
func TestExpire_SellAtRefundsStock(t *testing.T) {
	env := newTestEnv(t, 2000, 0, map[string]int64{"SYM": 10})

	if _, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeSellAt, "SYM", 10); err != nil {
		t.Fatalf("CreateLimitOrder() unexpected error: %v", err)
	}
	held, _ := env.ledger.Holding("alice", "SYM")
	if held != 0 {
		t.Fatalf("Holding = %d, want 0 after reservation", held)
	}

	// Pretend the TTL has elapsed.
	env.engine.ExpireOrders(time.Now().Add(2 * time.Minute))

	held, _ = env.ledger.Holding("alice", "SYM")
	if held != 10 {
		t.Errorf("Holding = %d, want 10 after expiry refund", held)
	}
	if env.working.Len() != 0 {
		t.Error("expired order still in working store")
	}
	settled := env.settled.ListByUser("alice")
	if len(settled) != 1 || settled[0].Status != domain.OrderStatusExpired {
		t.Errorf("settled history = %v, want one EXPIRED record", settled)
	}
}

func TestExpire_SkipsFreshOrders(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)

	if _, err := env.engine.CreateSimpleBuy("alice", "tx1", "SYM", 50000); err != nil {
		t.Fatalf("CreateSimpleBuy() unexpected error: %v", err)
	}
	env.engine.ExpireOrders(time.Now())
	if env.working.Len() != 1 {
		t.Errorf("fresh order was expired")
	}
}

// Reservation round-trip: create then cancel restores holdings
// bit-for-bit.
func TestCancelLimit_PendingSellAtRefunds(t *testing.T) {
	env := newTestEnv(t, 2000, 0, map[string]int64{"SYM": 10})

	if _, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeSellAt, "SYM", 10); err != nil {
		t.Fatalf("CreateLimitOrder() unexpected error: %v", err)
	}
	ord, err := env.engine.CancelLimit("alice", "tx2", domain.OrderTypeSellAt, "SYM")
	if err != nil {
		t.Fatalf("CancelLimit() unexpected error: %v", err)
	}
	if ord.Status != domain.OrderStatusCanceled {
		t.Errorf("Status = %s, want CANCELED", ord.Status)
	}
	held, _ := env.ledger.Holding("alice", "SYM")
	if held != 10 {
		t.Errorf("Holding = %d, want 10", held)
	}
}

func TestCancelLimit_CommittedBuyAtRefundsCash(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)

	if _, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeBuyAt, "SYM", 10); err != nil {
		t.Fatalf("CreateLimitOrder() unexpected error: %v", err)
	}
	if _, err := env.engine.TriggerLimit("alice", "tx2", domain.OrderTypeBuyAt, 5000); err != nil {
		t.Fatalf("TriggerLimit() unexpected error: %v", err)
	}

	ord, err := env.engine.CancelLimit("alice", "tx3", domain.OrderTypeBuyAt, "SYM")
	if err != nil {
		t.Fatalf("CancelLimit() unexpected error: %v", err)
	}
	if ord.Status != domain.OrderStatusCanceled {
		t.Errorf("Status = %s, want CANCELED", ord.Status)
	}
	balance, _ := env.ledger.Balance("alice")
	if balance != 100000 {
		t.Errorf("Balance = %d, want 100000 after cash refund", balance)
	}
}

// Cancel precedence: PENDING is searched before COMMITTED.
func TestCancelLimit_PendingBeforeCommitted(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)

	if _, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeBuyAt, "SYM", 10); err != nil {
		t.Fatalf("CreateLimitOrder() unexpected error: %v", err)
	}
	if _, err := env.engine.TriggerLimit("alice", "tx2", domain.OrderTypeBuyAt, 5000); err != nil {
		t.Fatalf("TriggerLimit() unexpected error: %v", err)
	}
	// A second, still-pending BUY_AT on the same symbol.
	pending, err := env.engine.CreateLimitOrder("alice", "tx3", domain.OrderTypeBuyAt, "SYM", 5)
	if err != nil {
		t.Fatalf("CreateLimitOrder() unexpected error: %v", err)
	}

	ord, err := env.engine.CancelLimit("alice", "tx4", domain.OrderTypeBuyAt, "SYM")
	if err != nil {
		t.Fatalf("CancelLimit() unexpected error: %v", err)
	}
	if ord.OrderID != pending.OrderID {
		t.Errorf("canceled %q, want pending order %q", ord.OrderID, pending.OrderID)
	}
	// The committed order's reservation is untouched.
	balance, _ := env.ledger.Balance("alice")
	if balance != 50000 {
		t.Errorf("Balance = %d, want 50000", balance)
	}
}

func TestCancelLimit_NoSuchOrder(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)

	_, err := env.engine.CancelLimit("alice", "tx1", domain.OrderTypeSellAt, "SYM")
	if !errors.Is(err, domain.ErrNoSuchOrder) {
		t.Errorf("CancelLimit() = %v, want ErrNoSuchOrder", err)
	}
}

func TestFillSell_AtOrAboveLimit(t *testing.T) {
	env := newTestEnv(t, 2000, 0, map[string]int64{"SYM": 10})

	if _, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeSellAt, "SYM", 10); err != nil {
		t.Fatalf("CreateLimitOrder() unexpected error: %v", err)
	}
	if _, err := env.engine.TriggerLimit("alice", "tx2", domain.OrderTypeSellAt, 5000); err != nil {
		t.Fatalf("TriggerLimit() unexpected error: %v", err)
	}

	// Market below the limit: stays COMMITTED.
	env.quotes.price = 4900
	env.engine.FillSellLimitOrders()
	if got := env.settled.ByStatusAndType(domain.OrderStatusCommitted, domain.OrderTypeSellAt); len(got) != 1 {
		t.Fatalf("order filled below limit")
	}

	// Market above the limit: fills at the quoted (higher) price.
	env.quotes.price = 5500
	env.engine.FillSellLimitOrders()

	balance, _ := env.ledger.Balance("alice")
	if balance != 55000 {
		t.Errorf("Balance = %d, want 55000 (filled at max(limit, quote))", balance)
	}
	settled := env.settled.ListByUser("alice")
	if len(settled) != 1 || settled[0].Status != domain.OrderStatusFilled {
		t.Fatalf("want one FILLED record, got %v", settled)
	}
	if settled[0].UnitPrice != 5500 {
		t.Errorf("realized UnitPrice = %d, want 5500", settled[0].UnitPrice)
	}
}

// Scenario C: BUY_AT triggered at 50.00 for 10 shares, market at
// 45.00 → realized 45.00, refund 50.00, net balance down 450.00.
func TestFillBuy_PriceProtectionRefund(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)

	if _, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeBuyAt, "SYM", 10); err != nil {
		t.Fatalf("CreateLimitOrder() unexpected error: %v", err)
	}
	if _, err := env.engine.TriggerLimit("alice", "tx2", domain.OrderTypeBuyAt, 5000); err != nil {
		t.Fatalf("TriggerLimit() unexpected error: %v", err)
	}
	balance, _ := env.ledger.Balance("alice")
	if balance != 50000 {
		t.Fatalf("Balance after trigger = %d, want 50000", balance)
	}

	// Market above the limit: stays COMMITTED.
	env.quotes.price = 5100
	env.engine.FillBuyLimitOrders()
	if got := env.settled.ByStatusAndType(domain.OrderStatusCommitted, domain.OrderTypeBuyAt); len(got) != 1 {
		t.Fatalf("order filled above limit")
	}

	env.quotes.price = 4500
	env.engine.FillBuyLimitOrders()

	balance, _ = env.ledger.Balance("alice")
	held, _ := env.ledger.Holding("alice", "SYM")
	if balance != 55000 {
		t.Errorf("Balance = %d, want 55000 (refund of 10 × (50.00 − 45.00))", balance)
	}
	if held != 10 {
		t.Errorf("Holding = %d, want 10", held)
	}
	settled := env.settled.ListByUser("alice")
	if len(settled) != 1 || settled[0].Status != domain.OrderStatusFilled {
		t.Fatalf("want one FILLED record, got %v", settled)
	}
	if settled[0].UnitPrice != 4500 {
		t.Errorf("realized UnitPrice = %d, want 4500", settled[0].UnitPrice)
	}
	if settled[0].CashAmount != 45000 {
		t.Errorf("realized CashAmount = %d, want 45000", settled[0].CashAmount)
	}
}

func TestFillBuy_AtLimitNoRefund(t *testing.T) {
	env := newTestEnv(t, 5000, 100000, nil)

	if _, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeBuyAt, "SYM", 10); err != nil {
		t.Fatalf("CreateLimitOrder() unexpected error: %v", err)
	}
	if _, err := env.engine.TriggerLimit("alice", "tx2", domain.OrderTypeBuyAt, 5000); err != nil {
		t.Fatalf("TriggerLimit() unexpected error: %v", err)
	}
	env.engine.FillBuyLimitOrders()

	balance, _ := env.ledger.Balance("alice")
	if balance != 50000 {
		t.Errorf("Balance = %d, want 50000 (no refund at exact limit)", balance)
	}
}

// One order's quote failure must not stop the rest of the batch.
func TestFillSweep_FailureIsolation(t *testing.T) {
	env := newTestEnv(t, 2000, 0, map[string]int64{"SYM": 20})

	for _, tx := range []string{"tx1", "tx2"} {
		if _, err := env.engine.CreateLimitOrder("alice", tx, domain.OrderTypeSellAt, "SYM", 10); err != nil {
			t.Fatalf("CreateLimitOrder() unexpected error: %v", err)
		}
		if _, err := env.engine.TriggerLimit("alice", tx, domain.OrderTypeSellAt, 1000); err != nil {
			t.Fatalf("TriggerLimit() unexpected error: %v", err)
		}
	}

	env.quotes.err = domain.ErrUpstreamUnavailable
	env.engine.FillSellLimitOrders()
	if got := env.settled.ByStatusAndType(domain.OrderStatusCommitted, domain.OrderTypeSellAt); len(got) != 2 {
		t.Fatalf("orders transitioned despite quote failures: %d committed", len(got))
	}

	env.quotes.err = nil
	env.quotes.price = 2000
	env.engine.FillSellLimitOrders()
	if got := env.settled.ByStatusAndType(domain.OrderStatusCommitted, domain.OrderTypeSellAt); len(got) != 0 {
		t.Errorf("%d orders still committed after recovery", len(got))
	}
}

// Trigger idempotence boundary: once FILLED, nothing changes the order
// or the ledger.
func TestFilledOrder_IsTerminal(t *testing.T) {
	env := newTestEnv(t, 5500, 0, map[string]int64{"SYM": 10})

	if _, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeSellAt, "SYM", 10); err != nil {
		t.Fatalf("CreateLimitOrder() unexpected error: %v", err)
	}
	if _, err := env.engine.TriggerLimit("alice", "tx2", domain.OrderTypeSellAt, 5000); err != nil {
		t.Fatalf("TriggerLimit() unexpected error: %v", err)
	}
	env.engine.FillSellLimitOrders()

	balance, _ := env.ledger.Balance("alice")
	if balance != 55000 {
		t.Fatalf("Balance = %d, want 55000", balance)
	}

	// Cancel after fill: no state or ledger change.
	if _, err := env.engine.CancelLimit("alice", "tx3", domain.OrderTypeSellAt, "SYM"); !errors.Is(err, domain.ErrNoSuchOrder) {
		t.Errorf("CancelLimit() after fill = %v, want ErrNoSuchOrder", err)
	}
	// Re-running the sweep must not double-settle.
	env.engine.FillSellLimitOrders()
	balance, _ = env.ledger.Balance("alice")
	if balance != 55000 {
		t.Errorf("Balance after re-sweep = %d, want 55000", balance)
	}
}

func TestTriggerLimit_NothingPending(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)

	_, err := env.engine.TriggerLimit("alice", "tx1", domain.OrderTypeBuyAt, 5000)
	if !errors.Is(err, domain.ErrNoSuchOrder) {
		t.Errorf("TriggerLimit() = %v, want ErrNoSuchOrder", err)
	}
}

func TestCreateLimitOrder_InvalidInput(t *testing.T) {
	env := newTestEnv(t, 2000, 100000, nil)

	if _, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeBuy, "SYM", 10); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Errorf("CreateLimitOrder(BUY) = %v, want ErrInvalidOrder", err)
	}
	if _, err := env.engine.CreateLimitOrder("alice", "tx1", domain.OrderTypeBuyAt, "SYM", 0); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Errorf("CreateLimitOrder(qty 0) = %v, want ErrInvalidOrder", err)
	}
}
