package pg

import (
	"context"
	"fmt"

	"github.com/lodygens/cryptobot/internal/application"
	"github.com/lodygens/cryptobot/internal/domain"
	"github.com/lodygens/cryptobot/internal/infrastructure/logx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const archiveSource = "kraken"

// ArchiveRepo appends every ingested quote to quote_archive. Sentinel prices
// keep their raw text and a NULL numeric price.
type ArchiveRepo struct {
	db     *DB
	source string
}

var _ application.QuoteArchive = (*ArchiveRepo)(nil)

func NewArchiveRepo(db *DB) *ArchiveRepo { return &ArchiveRepo{db: db, source: archiveSource} }

func (r *ArchiveRepo) Append(ctx context.Context, q domain.Quote) error {
	const ins = `
        INSERT INTO quote_archive(pair, raw_price, price, observed_at, source)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (pair, observed_at, source) DO NOTHING`
	var price *decimal.Decimal
	if d, ok := q.Decimal(); ok {
		price = &d
	}
	tag, err := r.db.Pool.Exec(ctx, ins, string(q.Pair), q.Price, price, q.ObservedAt, r.source)
	if err != nil {
		return fmt.Errorf("archive %s: %w", q.Pair, err)
	}
	logx.L().Debug("archive.appended",
		zap.String("pair", string(q.Pair)),
		zap.Int64("rows_affected", tag.RowsAffected()),
	)
	return nil
}

// Recent returns up to limit archived quotes for pair, newest first.
func (r *ArchiveRepo) Recent(ctx context.Context, pair domain.Pair, limit int) ([]domain.ArchivedQuote, error) {
	const q = `
        SELECT raw_price, price::text, observed_at
        FROM quote_archive
        WHERE pair = $1
        ORDER BY observed_at DESC
        LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, string(pair), limit)
	if err != nil {
		return nil, fmt.Errorf("archive recent %s: %w", pair, err)
	}
	defer rows.Close()
	var out []domain.ArchivedQuote
	for rows.Next() {
		var (
			item    domain.ArchivedQuote
			numeric *string
		)
		item.Quote.Pair = pair
		if err := rows.Scan(&item.Quote.Price, &numeric, &item.Quote.ObservedAt); err != nil {
			return nil, err
		}
		item.Quote.ObservedAt = item.Quote.ObservedAt.UTC()
		if numeric != nil {
			d, err := decimal.NewFromString(*numeric)
			if err != nil {
				return nil, fmt.Errorf("archive recent %s: parse %q: %w", pair, *numeric, err)
			}
			item.Numeric = &d
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
