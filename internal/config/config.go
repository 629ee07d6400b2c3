package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the trading backend.
type Config struct {
	Port            int
	LogLevel        string
	QuoteAddr       string        // host:port of the external quote feed
	QuoteTimeout    time.Duration // bounds dial and response read
	QuoteCacheTTL   time.Duration // quotes go stale after this window
	OrderTTL        time.Duration // pending orders expire after this
	ExpireInterval  time.Duration // expiry sweep tick
	FillInterval    time.Duration // limit-fill sweep tick
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	quoteAddr := getStr("QUOTE_ADDR", "127.0.0.1:4442")

	quoteTimeout, err := getDuration("QUOTE_TIMEOUT", 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTE_TIMEOUT: %w", err)
	}

	quoteCacheTTL, err := getDuration("QUOTE_CACHE_TTL", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTE_CACHE_TTL: %w", err)
	}

	orderTTL, err := getDuration("ORDER_TTL", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid ORDER_TTL: %w", err)
	}

	expireInterval, err := getDuration("EXPIRE_INTERVAL", 1*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid EXPIRE_INTERVAL: %w", err)
	}

	fillInterval, err := getDuration("FILL_INTERVAL", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid FILL_INTERVAL: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		QuoteAddr:       quoteAddr,
		QuoteTimeout:    quoteTimeout,
		QuoteCacheTTL:   quoteCacheTTL,
		OrderTTL:        orderTTL,
		ExpireInterval:  expireInterval,
		FillInterval:    fillInterval,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
