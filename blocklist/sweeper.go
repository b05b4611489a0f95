package blocklist

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically removes expired blocks and stale failure counters from
// a Store. Lazy expiry on the read paths keeps results correct without it;
// the sweep only bounds memory growth.
type Sweeper struct {
	store    Store
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewSweeper creates a sweeper over the given store.
func NewSweeper(store Store, logger *slog.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the periodic sweep until Stop is called or ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on startup
	s.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-s.stopCh:
			s.logger.Info("block sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("block sweeper context cancelled")
			return
		}
	}
}

// Stop signals the sweep loop to exit.
func (s *Sweeper) Stop() {
	close(s.stopCh)
}

func (s *Sweeper) runSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	removed, err := s.store.Sweep(sweepCtx)
	if err != nil {
		s.logger.Error("failed to sweep expired blocks", slog.Any("error", err))
		return
	}
	if removed > 0 {
		s.logger.Info("swept expired entries", slog.Int("removed", removed))
	}
}
