// Package audit records one structured event per significant lifecycle
// transition. Recording is fire-and-forget: no method returns an error,
// so a failing sink can never abort a transition already applied to
// the ledger.
package audit

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/stocktrade/internal/domain"
	"github.com/efreitasn/stocktrade/internal/store"
)

// Recorder writes audit events to the event store and mirrors them to
// the structured log.
type Recorder struct {
	events *store.EventStore
	logger *slog.Logger
}

// NewRecorder creates a Recorder backed by the given store and logger.
func NewRecorder(events *store.EventStore, logger *slog.Logger) *Recorder {
	return &Recorder{events: events, logger: logger}
}

func (r *Recorder) record(kind domain.EventKind, userName, transactionID, command, symbol string, funds int64, message string) {
	e := &domain.Event{
		EventID:       uuid.New().String(),
		Kind:          kind,
		UserName:      userName,
		TransactionID: transactionID,
		Command:       command,
		Symbol:        symbol,
		Funds:         funds,
		Message:       message,
		At:            time.Now(),
	}
	r.events.Append(e)
	r.logger.Debug("audit event",
		slog.String("kind", string(kind)),
		slog.String("user", userName),
		slog.String("transaction_id", transactionID),
		slog.String("command", command),
		slog.String("symbol", symbol),
		slog.Int64("funds", funds),
		slog.String("message", message),
	)
}

// Command records a user-initiated operation.
func (r *Recorder) Command(userName, transactionID, command, symbol string, funds int64) {
	r.record(domain.EventKindCommand, userName, transactionID, command, symbol, funds, "")
}

// QuoteServer records a fresh quote obtained from the upstream feed.
func (r *Recorder) QuoteServer(q *domain.Quote) {
	r.record(domain.EventKindQuoteServer, q.UserName, q.TransactionID, "QUOTE", q.Symbol, q.UnitPrice, q.CryptoKey)
}

// AccountTransaction records money entering or leaving an account.
// action is "add" or "remove".
func (r *Recorder) AccountTransaction(userName, transactionID, action string, funds int64) {
	r.record(domain.EventKindAccountTransaction, userName, transactionID, action, "", funds, "")
}

// SystemEvent records a transition driven by the system rather than a
// user call, e.g. a sweep expiring or filling an order.
func (r *Recorder) SystemEvent(userName, transactionID, command, symbol string, funds int64) {
	r.record(domain.EventKindSystem, userName, transactionID, command, symbol, funds, "")
}

// ErrorEvent records a failed operation with a human-readable message.
func (r *Recorder) ErrorEvent(userName, transactionID, command, symbol, message string) {
	r.record(domain.EventKindError, userName, transactionID, command, symbol, 0, message)
}
