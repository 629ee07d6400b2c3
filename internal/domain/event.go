package domain

import "time"

// EventKind classifies audit events, one per significant lifecycle
// transition or failure.
type EventKind string

const (
	EventKindCommand            EventKind = "command"
	EventKindQuoteServer        EventKind = "quote_server"
	EventKindAccountTransaction EventKind = "account_transaction"
	EventKindSystem             EventKind = "system_event"
	EventKindError              EventKind = "error_event"
)

// Event is a single structured audit record. Events are append-only
// and recording one must never abort a transition already applied to
// the ledger.
type Event struct {
	EventID       string
	Kind          EventKind
	UserName      string
	TransactionID string
	Command       string // e.g. BUY, COMMIT_SELL, SET_BUY_TRIGGER
	Symbol        string
	Funds         int64 // cents; 0 when no money moved
	Message       string
	At            time.Time
}
