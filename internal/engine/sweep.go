package engine

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically drives the engine's expiry and limit-fill
// sweeps. It owns no state of its own: one goroutine per sweep kind
// runs the tick body inline, so a sweep is never re-entered while a
// previous run is still executing. A panicking tick is recovered and
// logged; the next scheduled tick proceeds normally.
type Sweeper struct {
	engine         *Engine
	expireInterval time.Duration
	fillInterval   time.Duration
	logger         *slog.Logger
}

// NewSweeper creates a Sweeper ticking expiry at expireInterval and
// both fill sweeps at fillInterval.
func NewSweeper(engine *Engine, expireInterval, fillInterval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		engine:         engine,
		expireInterval: expireInterval,
		fillInterval:   fillInterval,
		logger:         logger,
	}
}

// Start launches the sweep goroutines. They stop when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx, "expire", s.expireInterval, func() { s.engine.ExpireOrders(time.Now()) })
	go s.run(ctx, "fill_sell", s.fillInterval, s.engine.FillSellLimitOrders)
	go s.run(ctx, "fill_buy", s.fillInterval, s.engine.FillBuyLimitOrders)
}

func (s *Sweeper) run(ctx context.Context, name string, interval time.Duration, tick func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.safeTick(name, tick)
		}
	}
}

func (s *Sweeper) safeTick(name string, tick func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sweep tick panicked",
				slog.String("sweep", name),
				slog.Any("panic", r),
			)
		}
	}()
	tick()
}
