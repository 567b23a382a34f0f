package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/lodygens/cryptobot/internal/application"
	"github.com/lodygens/cryptobot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// HistoryCap is the number of entries kept per pair history list.
const HistoryCap = 24

type Store struct {
	Client *redis.Client
	Cap    int
}

var _ application.PriceStore = (*Store)(nil)

func New(client *redis.Client) *Store {
	return &Store{Client: client, Cap: HistoryCap}
}

func (s *Store) cap() int64 {
	if s.Cap <= 0 {
		return HistoryCap
	}
	return int64(s.Cap)
}

func storeErr(op string, pair domain.Pair, err error) error {
	return fmt.Errorf("%w: %s %s: %w", domain.ErrStore, op, pair, err)
}

func (s *Store) SetLatest(ctx context.Context, q domain.Quote) error {
	raw, err := domain.RecordFromQuote(q).Marshal()
	if err != nil {
		return storeErr("encode", q.Pair, err)
	}
	if err := s.Client.Set(ctx, q.Pair.LatestKey(), raw, 0).Err(); err != nil {
		return storeErr("set", q.Pair, err)
	}
	return nil
}

// PushHistory runs LPUSH then LTRIM as two separate commands. A failed trim
// leaves the list longer than the cap until the next successful push.
func (s *Store) PushHistory(ctx context.Context, q domain.Quote) error {
	raw, err := domain.RecordFromQuote(q).Marshal()
	if err != nil {
		return storeErr("encode", q.Pair, err)
	}
	key := q.Pair.HistoryKey()
	if err := s.Client.LPush(ctx, key, raw).Err(); err != nil {
		return storeErr("lpush", q.Pair, err)
	}
	if err := s.Client.LTrim(ctx, key, 0, s.cap()-1).Err(); err != nil {
		return fmt.Errorf("%w: ltrim %s: %w", domain.ErrHistoryTrim, q.Pair, err)
	}
	return nil
}

func (s *Store) ReadHistoryPage(ctx context.Context, pair domain.Pair, offset, count int) ([]string, error) {
	if offset < 0 || count <= 0 {
		return nil, fmt.Errorf("%w: invalid page offset=%d count=%d", domain.ErrStore, offset, count)
	}
	out, err := s.Client.LRange(ctx, pair.HistoryKey(), int64(offset), int64(offset+count-1)).Result()
	if err != nil {
		return nil, storeErr("lrange", pair, err)
	}
	return out, nil
}

func (s *Store) Latest(ctx context.Context, pair domain.Pair) (domain.Quote, error) {
	raw, err := s.Client.Get(ctx, pair.LatestKey()).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Quote{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Quote{}, storeErr("get", pair, err)
	}
	rec, err := domain.ParseRecord(raw)
	if err != nil {
		return domain.Quote{}, err
	}
	return rec.Quote(pair)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %w", domain.ErrStore, err)
	}
	return nil
}
