package game

import (
	"context"
	"errors"

	"blackjack-service/pkg/logger"

	"go.uber.org/zap"
)

// Start launches the turn-timeout sweep. The sweep wakes on the
// configured interval and force-stands the turn hand on every table
// idle past the timeout; it stops when ctx is canceled.
func (s *Service) Start(ctx context.Context) error {
	s.startOnce.Do(func() {
		waiter := s.clock.TickerFunc(ctx, s.cfg.SweepInterval, s.sweepTimedOutTables, "turn-sweep")
		go func() {
			if err := waiter.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.Error("turn sweep stopped", zap.Error(err))
			}
		}()
	})
	return nil
}

// sweepTimedOutTables walks a registry snapshot so no registry lock is
// held while table locks are taken. A table removed mid-sweep is safe:
// its closed flag makes ForceStand a no-op.
func (s *Service) sweepTimedOutTables() error {
	now := s.clock.Now()
	for _, rt := range s.registry.snapshot() {
		rt.ForceStand(now, s.cfg.TurnTimeout)
	}
	return nil
}
