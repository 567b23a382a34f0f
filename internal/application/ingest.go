package application

import (
	"context"
	"errors"

	"github.com/lodygens/cryptobot/internal/domain"
	"go.uber.org/zap"
)

// Ingestor runs one polling pass over the configured pairs.
type Ingestor struct {
	pairs    []domain.Pair
	source   QuoteSource
	store    PriceStore
	notifier Notifier
	archive  QuoteArchive
	log      *zap.Logger
}

type IngestOption func(*Ingestor)

func WithArchive(a QuoteArchive) IngestOption { return func(i *Ingestor) { i.archive = a } }
func WithIngestLogger(l *zap.Logger) IngestOption {
	return func(i *Ingestor) { i.log = l }
}

func NewIngestor(pairs []domain.Pair, source QuoteSource, store PriceStore, notifier Notifier, opts ...IngestOption) *Ingestor {
	i := &Ingestor{
		pairs:    append([]domain.Pair(nil), pairs...),
		source:   source,
		store:    store,
		notifier: notifier,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.log == nil {
		i.log = zap.NewNop()
	}
	return i
}

// PairOutcome records what happened to one pair during a tick.
type PairOutcome struct {
	Pair       domain.Pair
	Quote      domain.Quote
	FetchErr   error
	StoreErrs  []error
	ArchiveErr error
	NotifyErr  error
	Notified   bool
}

func (o PairOutcome) Fetched() bool { return o.FetchErr == nil }

type TickReport struct {
	Outcomes []PairOutcome
}

func (r TickReport) Notified() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Notified {
			n++
		}
	}
	return n
}

// Tick processes every pair once, in configuration order. Per-pair failures are
// logged and recorded in the report; they never stop the remaining pairs.
func (i *Ingestor) Tick(ctx context.Context) TickReport {
	report := TickReport{Outcomes: make([]PairOutcome, 0, len(i.pairs))}
	for _, pair := range i.pairs {
		if ctx.Err() != nil {
			i.log.Info("ingest.tick_cancelled", zap.Int("processed", len(report.Outcomes)))
			break
		}
		report.Outcomes = append(report.Outcomes, i.processPair(ctx, pair))
	}
	return report
}

func (i *Ingestor) processPair(ctx context.Context, pair domain.Pair) PairOutcome {
	out := PairOutcome{Pair: pair}
	log := i.log.With(zap.String("pair", string(pair)))

	q, err := i.source.Get(ctx, string(pair))
	if err != nil {
		out.FetchErr = err
		log.Warn("ingest.fetch_failed", zap.String("kind", string(domain.FetchErrorKind(err))), zap.Error(err))
		return out
	}
	out.Quote = q

	if err := i.store.SetLatest(ctx, q); err != nil {
		out.StoreErrs = append(out.StoreErrs, err)
		log.Error("ingest.set_latest_failed", zap.Error(err))
	}
	if err := i.store.PushHistory(ctx, q); err != nil {
		out.StoreErrs = append(out.StoreErrs, err)
		if errors.Is(err, domain.ErrHistoryTrim) {
			log.Warn("ingest.history_trim_failed", zap.Error(err))
		} else {
			log.Error("ingest.push_history_failed", zap.Error(err))
		}
	}
	if i.archive != nil {
		if err := i.archive.Append(ctx, q); err != nil {
			out.ArchiveErr = err
			log.Warn("ingest.archive_failed", zap.Error(err))
		}
	}

	if err := i.notifier.Send(ctx, domain.LiveMessage(q)); err != nil {
		out.NotifyErr = err
		log.Warn("ingest.notify_failed", zap.Error(err))
		return out
	}
	out.Notified = true
	log.Info("ingest.pair_done", zap.String("price", q.Price), zap.Time("observed_at", q.ObservedAt))
	return out
}
