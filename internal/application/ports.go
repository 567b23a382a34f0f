package application

import (
	"context"

	"github.com/lodygens/cryptobot/internal/domain"
)

type QuoteSource interface {
	Get(ctx context.Context, pair string) (domain.Quote, error)
}

type PriceStore interface {
	SetLatest(ctx context.Context, q domain.Quote) error
	// PushHistory inserts at the head of the pair's history and trims it to the cap.
	PushHistory(ctx context.Context, q domain.Quote) error
	// ReadHistoryPage returns raw stored entries, newest first. An empty page means offset is past the end.
	ReadHistoryPage(ctx context.Context, pair domain.Pair, offset, count int) ([]string, error)
}

type Notifier interface {
	Send(ctx context.Context, text string) error
}

// QuoteArchive keeps an unbounded copy of every stored quote.
type QuoteArchive interface {
	Append(ctx context.Context, q domain.Quote) error
}
