package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lodygens/cryptobot/internal/domain"
)

var (
	errStoreDown  = errors.New("store down")
	errNotifyDown = errors.New("notify down")
)

type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	f.t = f.t.Add(d)
	return ctx.Err()
}

type fakeSource struct {
	quotes map[string]domain.Quote
	errs   map[string]error
	calls  []string
}

func (f *fakeSource) Get(_ context.Context, pair string) (domain.Quote, error) {
	f.calls = append(f.calls, pair)
	if err, ok := f.errs[pair]; ok {
		return domain.Quote{}, err
	}
	return f.quotes[pair], nil
}

const historyCap = 24

type fakeStore struct {
	mu        sync.Mutex
	latest    map[domain.Pair]domain.Quote
	history   map[domain.Pair][]string
	setErr    error
	pushErr   error
	readErr   error
	pageCalls []int
}

func newFakeStore() *fakeStore {
	return &fakeStore{latest: map[domain.Pair]domain.Quote{}, history: map[domain.Pair][]string{}}
}

func (f *fakeStore) SetLatest(_ context.Context, q domain.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.latest[q.Pair] = q
	return nil
}

func (f *fakeStore) PushHistory(_ context.Context, q domain.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	raw, _ := domain.RecordFromQuote(q).Marshal()
	h := append([]string{raw}, f.history[q.Pair]...)
	if len(h) > historyCap {
		h = h[:historyCap]
	}
	f.history[q.Pair] = h
	return nil
}

func (f *fakeStore) ReadHistoryPage(_ context.Context, pair domain.Pair, offset, count int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls = append(f.pageCalls, offset)
	if f.readErr != nil {
		return nil, f.readErr
	}
	h := f.history[pair]
	if offset >= len(h) {
		return nil, nil
	}
	end := offset + count
	if end > len(h) {
		end = len(h)
	}
	return append([]string(nil), h[offset:end]...), nil
}

type fakeNotifier struct {
	sent   []string
	failOn map[int]bool
	err    error
	calls  int
}

func (f *fakeNotifier) Send(_ context.Context, text string) error {
	idx := f.calls
	f.calls++
	if f.err != nil || f.failOn[idx] {
		return errNotifyDown
	}
	f.sent = append(f.sent, text)
	return nil
}

type fakeArchive struct {
	quotes []domain.Quote
	err    error
}

func (f *fakeArchive) Append(_ context.Context, q domain.Quote) error {
	if f.err != nil {
		return f.err
	}
	f.quotes = append(f.quotes, q)
	return nil
}

func quoteAt(pair, price string, at time.Time) domain.Quote {
	return domain.NewQuote(domain.Pair(pair), price, at)
}

// seedHistory stores n entries oldest first, so index 0 of the list is the newest.
func seedHistory(s *fakeStore, pair string, n int, start time.Time) {
	for i := 0; i < n; i++ {
		raw, _ := domain.RecordFromQuote(quoteAt(pair, "1", start.Add(time.Duration(i)*time.Minute))).Marshal()
		s.history[domain.Pair(pair)] = append([]string{raw}, s.history[domain.Pair(pair)]...)
	}
}
