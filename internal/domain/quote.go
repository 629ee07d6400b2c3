package domain

import "time"

// Quote is a single price observation from the external quote feed.
// Immutable once issued; cached by symbol with a bounded TTL.
type Quote struct {
	Symbol        string
	UnitPrice     int64 // cents
	UserName      string // user the feed issued the quote for
	TransactionID string // correlation id of the requesting call
	Timestamp     time.Time
	CryptoKey     string // opaque integrity token from the feed
}
