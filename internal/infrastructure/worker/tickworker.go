package worker

import (
	"context"
	"time"

	"github.com/lodygens/cryptobot/internal/application"
	"go.uber.org/zap"
)

var _ application.Worker = (*TickWorker)(nil)

type ticker interface {
	Tick(ctx context.Context) application.TickReport
}

// TickWorker runs one ingestion pass immediately, then one per Interval, until
// ctx is cancelled. All pairs share the same tick.
type TickWorker struct {
	Ingestor ticker
	Interval time.Duration
	Clock    application.Clock
	Log      *zap.Logger

	// MaxTicks stops the loop after that many passes when positive.
	MaxTicks int
}

func (w *TickWorker) Start(ctx context.Context) {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	clock := w.Clock
	if clock == nil {
		clock = application.RealClock()
	}
	interval := w.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	log.Info("tick_worker_started", zap.Duration("interval", interval))
	for n := 1; ; n++ {
		started := clock.Now()
		report := w.Ingestor.Tick(ctx)
		log.Info("tick_done",
			zap.Int("tick", n),
			zap.Int("pairs", len(report.Outcomes)),
			zap.Int("notified", report.Notified()),
			zap.Duration("took", clock.Now().Sub(started)),
		)
		if w.MaxTicks > 0 && n >= w.MaxTicks {
			log.Info("tick_worker_stopped", zap.String("reason", "max_ticks"))
			return
		}
		if err := clock.Sleep(ctx, interval); err != nil {
			log.Info("tick_worker_stopped", zap.String("reason", err.Error()))
			return
		}
	}
}
