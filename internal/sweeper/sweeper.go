package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes expired records and reports how many were removed.
type Pruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically prunes expired sessions from a store that does not
// expire them on its own.
type Sweeper struct {
	store    Pruner
	interval time.Duration
}

// New creates a new Sweeper.
func New(store Pruner, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
	}
}

// Start begins the sweep loop. It blocks until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	slog.Info("session sweeper started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.store.PruneExpired(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("sweeper: failed to prune expired sessions", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("sweeper: pruned expired sessions", "count", removed)
	}
}
