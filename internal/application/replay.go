package application

import (
	"context"
	"fmt"
	"time"

	"github.com/lodygens/cryptobot/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultChunkSize   = 100
	DefaultReplayDelay = 100 * time.Millisecond
)

// Replayer re-sends stored history, grouped by pair in configuration order.
type Replayer struct {
	pairs     []domain.Pair
	store     PriceStore
	notifier  Notifier
	clock     Clock
	chunkSize int
	delay     time.Duration
	log       *zap.Logger
}

type ReplayOption func(*Replayer)

func WithChunkSize(n int) ReplayOption            { return func(r *Replayer) { r.chunkSize = n } }
func WithDelay(d time.Duration) ReplayOption      { return func(r *Replayer) { r.delay = d } }
func WithClock(c Clock) ReplayOption              { return func(r *Replayer) { r.clock = c } }
func WithReplayLogger(l *zap.Logger) ReplayOption { return func(r *Replayer) { r.log = l } }

func NewReplayer(pairs []domain.Pair, store PriceStore, notifier Notifier, opts ...ReplayOption) *Replayer {
	r := &Replayer{
		pairs:     append([]domain.Pair(nil), pairs...),
		store:     store,
		notifier:  notifier,
		chunkSize: DefaultChunkSize,
		delay:     DefaultReplayDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.clock == nil {
		r.clock = realClock{}
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.chunkSize <= 0 {
		r.chunkSize = DefaultChunkSize
	}
	return r
}

type ReplayReport struct {
	Sent    int
	Skipped int
	Failed  int
	PerPair map[domain.Pair]int
}

// Run drains every pair's history. A store read error aborts the run; malformed
// entries are skipped and send failures are counted.
func (r *Replayer) Run(ctx context.Context) (ReplayReport, error) {
	report := ReplayReport{PerPair: make(map[domain.Pair]int, len(r.pairs))}
	for _, pair := range r.pairs {
		if err := r.replayPair(ctx, pair, &report); err != nil {
			return report, err
		}
	}
	r.log.Info("replay.done",
		zap.Int("sent", report.Sent),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (r *Replayer) replayPair(ctx context.Context, pair domain.Pair, report *ReplayReport) error {
	log := r.log.With(zap.String("pair", string(pair)))
	for offset := 0; ; offset += r.chunkSize {
		page, err := r.store.ReadHistoryPage(ctx, pair, offset, r.chunkSize)
		if err != nil {
			return fmt.Errorf("replay %s at offset %d: %w", pair, offset, err)
		}
		if len(page) == 0 {
			log.Info("replay.pair_done", zap.Int("sent", report.PerPair[pair]))
			return nil
		}
		for _, raw := range page {
			rec, err := domain.ParseRecord(raw)
			if err != nil {
				report.Skipped++
				log.Debug("replay.entry_skipped", zap.Error(err))
				continue
			}
			if err := r.notifier.Send(ctx, domain.HistoricalMessage(pair, rec)); err != nil {
				report.Failed++
				log.Warn("replay.notify_failed", zap.String("timestamp", rec.Timestamp), zap.Error(err))
			} else {
				report.Sent++
				report.PerPair[pair]++
			}
			if err := r.clock.Sleep(ctx, r.delay); err != nil {
				return err
			}
		}
	}
}
