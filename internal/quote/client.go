// Package quote talks to the external quote feed: a TCP text protocol
// where the request line is "SYMBOL,USER" and the response line is
// "price,symbol,user,epochMillis,cryptoKey". The feed tolerates only
// one in-flight connection, so connection setup is serialized behind a
// mutex; the wait for the response happens after the mutex is released
// so callers are not serialized on full round-trip latency.
package quote

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/efreitasn/stocktrade/internal/audit"
	"github.com/efreitasn/stocktrade/internal/domain"
)

const (
	// The feed responds slowly right after startup. Start the
	// inter-request delay high and geometrically decay it to a floor.
	startDelay = 50 * time.Millisecond
	floorDelay = 8 * time.Millisecond
	delayDecay = 0.99
)

// Client fetches quotes from the upstream feed, consulting the cache
// first. All failures surface as domain.ErrUpstreamUnavailable.
type Client struct {
	addr    string
	timeout time.Duration
	cache   *Cache
	audit   *audit.Recorder

	mu    sync.Mutex // single in-flight upstream connection
	delay time.Duration
}

// NewClient creates a Client for the feed at addr. timeout bounds both
// the dial and the read of the response line.
func NewClient(addr string, timeout time.Duration, cache *Cache, rec *audit.Recorder) *Client {
	return &Client{
		addr:    addr,
		timeout: timeout,
		cache:   cache,
		audit:   rec,
		delay:   startDelay,
	}
}

// Get returns a quote for the symbol. A cache hit returns immediately
// without contacting the feed. On a miss the feed is queried and the
// cache populated. The order of operations on a miss:
//
//  1. acquire the connection mutex, dial, send the request line
//  2. advance the adaptive delay and release the mutex
//  3. sleep the delay, then read the response under a deadline
func (c *Client) Get(userName, symbol, transactionID string) (*domain.Quote, error) {
	if cached, ok := c.cache.Get(symbol); ok {
		c.audit.SystemEvent(userName, transactionID, "QUOTE", symbol, cached.UnitPrice)
		return cached, nil
	}

	c.mu.Lock()
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		c.mu.Unlock()
		c.audit.ErrorEvent(userName, transactionID, "QUOTE", symbol, "dial failed: "+err.Error())
		return nil, fmt.Errorf("dial quote feed: %w", domain.ErrUpstreamUnavailable)
	}
	deadline := time.Now().Add(c.timeout)
	_ = conn.SetDeadline(deadline)

	// Strip CR/LF so the request stays one line.
	if _, err := fmt.Fprintf(conn, "%s,%s\n", sanitize(symbol), sanitize(userName)); err != nil {
		c.mu.Unlock()
		conn.Close()
		c.audit.ErrorEvent(userName, transactionID, "QUOTE", symbol, "send failed: "+err.Error())
		return nil, fmt.Errorf("send quote request: %w", domain.ErrUpstreamUnavailable)
	}

	if c.delay > floorDelay {
		c.delay = time.Duration(float64(c.delay) * delayDecay)
	} else {
		c.delay = floorDelay
	}
	wait := c.delay
	c.mu.Unlock()

	time.Sleep(wait)

	line, err := bufio.NewReader(conn).ReadString('\n')
	conn.Close()
	if err != nil && line == "" {
		c.audit.ErrorEvent(userName, transactionID, "QUOTE", symbol, "read failed: "+err.Error())
		return nil, fmt.Errorf("read quote response: %w", domain.ErrUpstreamUnavailable)
	}

	q, err := parseResponse(line, userName, transactionID)
	if err != nil {
		c.audit.ErrorEvent(userName, transactionID, "QUOTE", symbol, err.Error())
		return nil, fmt.Errorf("%v: %w", err, domain.ErrUpstreamUnavailable)
	}

	c.audit.QuoteServer(q)
	c.cache.Put(q)
	return q, nil
}

// parseResponse parses a "price,symbol,user,epochMillis,cryptoKey"
// response line into a Quote.
func parseResponse(line, userName, transactionID string) (*domain.Quote, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 5 {
		return nil, fmt.Errorf("malformed quote response: want 5 fields, got %d", len(parts))
	}

	price, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("malformed quote price %q", parts[0])
	}
	priceCents, err := domain.DollarsToCents(price)
	if err != nil || priceCents <= 0 {
		return nil, fmt.Errorf("malformed quote price %q", parts[0])
	}

	epochMillis, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed quote timestamp %q", parts[3])
	}

	return &domain.Quote{
		Symbol:        parts[1],
		UnitPrice:     priceCents,
		UserName:      userName,
		TransactionID: transactionID,
		Timestamp:     time.UnixMilli(epochMillis),
		CryptoKey:     parts[4],
	}, nil
}

var lineSanitizer = strings.NewReplacer("\n", "", "\r", "")

func sanitize(s string) string {
	return lineSanitizer.Replace(s)
}
