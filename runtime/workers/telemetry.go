package workers

import (
	"bbs-lab/contract"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// Counts is the slice of the relay telemetry reads.
type Counts interface {
	AgentsOnline() int
	ObserversOnline() int
}

// TelemetryWorker periodically logs live pool counts together with the
// process's own memory and CPU figures.
type TelemetryWorker struct {
	relay          Counts
	metricInterval time.Duration
	log            *slog.Logger
}

func NewTelemetryWorker(relay Counts, metricInterval time.Duration,
	log *slog.Logger) *TelemetryWorker {
	return &TelemetryWorker{
		relay:          relay,
		metricInterval: metricInterval,
		log:            log,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.log.Info("Telemetry",
				"agents_online", w.relay.AgentsOnline(),
				"observers_online", w.relay.ObserversOnline(),
				"ram_bytes", rss,
				"cpu_percent", cpu)
		}
	}
}

// selfStats retrieves memory and CPU figures for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
