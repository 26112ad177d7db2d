package background

import (
	"context"
	"log/slog"
	"time"
)

// Sweepable is the revoked-token set the sweeper prunes
type Sweepable interface {
	Sweep(now time.Time) int
}

// SweepManager periodically removes blocklist entries whose tokens have
// expired on their own; signature validation already rejects those tokens,
// so the entries only cost memory.
type SweepManager struct {
	blocklist Sweepable
	logger    *slog.Logger
	interval  time.Duration
	stopCh    chan struct{}
}

// NewSweepManager creates a new sweep manager
func NewSweepManager(blocklist Sweepable, logger *slog.Logger, interval time.Duration) *SweepManager {
	return &SweepManager{
		blocklist: blocklist,
		logger:    logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic sweep task
func (sm *SweepManager) Start(ctx context.Context) {
	ticker := time.NewTicker(sm.interval)
	defer ticker.Stop()

	sm.runSweep()

	for {
		select {
		case <-ticker.C:
			sm.runSweep()
		case <-sm.stopCh:
			sm.logger.Info("blocklist sweeper stopped")
			return
		case <-ctx.Done():
			sm.logger.Info("blocklist sweeper context cancelled")
			return
		}
	}
}

func (sm *SweepManager) runSweep() {
	removed := sm.blocklist.Sweep(time.Now())
	if removed > 0 {
		sm.logger.Info("blocklist sweep completed", slog.Int("entries_removed", removed))
	}
}

// Stop signals the sweep manager to stop
func (sm *SweepManager) Stop() {
	close(sm.stopCh)
}
