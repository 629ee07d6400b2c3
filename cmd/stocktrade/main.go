package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/efreitasn/stocktrade/internal/audit"
	"github.com/efreitasn/stocktrade/internal/config"
	"github.com/efreitasn/stocktrade/internal/engine"
	"github.com/efreitasn/stocktrade/internal/handler"
	"github.com/efreitasn/stocktrade/internal/ledger"
	"github.com/efreitasn/stocktrade/internal/quote"
	"github.com/efreitasn/stocktrade/internal/service"
	"github.com/efreitasn/stocktrade/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load .env if present, then configuration from the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Instantiate stores.
	accountStore := store.NewAccountStore()
	workingStore := store.NewWorkingOrderStore()
	settledStore := store.NewSettledOrderStore()
	eventStore := store.NewEventStore()

	// Audit sink and ledger.
	recorder := audit.NewRecorder(eventStore, logger)
	ldg := ledger.New(accountStore)

	// Quote source adapter.
	quoteCache := quote.NewCache(cfg.QuoteCacheTTL)
	quoteClient := quote.NewClient(cfg.QuoteAddr, cfg.QuoteTimeout, quoteCache, recorder)

	// Order lifecycle engine and sweep scheduler.
	eng := engine.New(quoteClient, ldg, workingStore, settledStore, recorder, cfg.OrderTTL, logger)
	sweeper := engine.NewSweeper(eng, cfg.ExpireInterval, cfg.FillInterval, logger)

	// Services.
	accountSvc := service.NewAccountService(accountStore, ldg, workingStore, settledStore, eventStore, recorder)
	orderSvc := service.NewOrderService(eng)

	// Router.
	router := handler.NewRouter(accountSvc, orderSvc, logger)

	// Start sweep goroutines with cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops sweeps).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
