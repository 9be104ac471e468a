package workers

import (
	"bbs-lab/contract"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*ReaperWorker)(nil)

// Evictor is the slice of the relay the reaper needs.
type Evictor interface {
	EvictIdle(timeout time.Duration) int
}

// ReaperWorker sweeps the session table on a fixed period and evicts
// sessions idle for at least the timeout. One shared sweep instead of a
// timer per connection; the sweep interval is tuned well below the
// timeout to bound worst-case eviction latency, and both are
// configuration knobs.
type ReaperWorker struct {
	relay         Evictor
	idleTimeout   time.Duration
	sweepInterval time.Duration
	log           *slog.Logger
}

func NewReaperWorker(relay Evictor, idleTimeout, sweepInterval time.Duration,
	log *slog.Logger) *ReaperWorker {
	return &ReaperWorker{
		relay:         relay,
		idleTimeout:   idleTimeout,
		sweepInterval: sweepInterval,
		log:           log,
	}
}

func (w *ReaperWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case <-ticker.C:
			if evicted := w.relay.EvictIdle(w.idleTimeout); evicted > 0 {
				w.log.Info("Idle sweep complete", "evicted", evicted)
			}
		}
	}
}
