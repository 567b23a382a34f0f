package application

import (
	"context"
	"testing"
	"time"

	"github.com/lodygens/cryptobot/internal/domain"
	"github.com/stretchr/testify/require"
)

func newTestReplayer(store *fakeStore, n *fakeNotifier, clk *fakeClock, pairs ...domain.Pair) *Replayer {
	return NewReplayer(pairs, store, n, WithClock(clk))
}

func TestReplay_SendsStoredOrderPerPair(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	seedHistory(store, "XBTUSD", 3, t0)
	n := &fakeNotifier{}
	clk := &fakeClock{t: t0}

	report, err := newTestReplayer(store, n, clk, "XBTUSD", "EMPTY").Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, report.Sent)
	require.Equal(t, 3, report.PerPair["XBTUSD"])
	require.Zero(t, report.PerPair["EMPTY"])
	require.Len(t, n.sent, 3)
	require.Contains(t, n.sent[0], "Time: 2024-01-02 03:06:05 UTC")
	require.Contains(t, n.sent[2], "Time: 2024-01-02 03:04:05 UTC")
	require.Equal(t, "🔄 Historical Price\n\nPair: XBTUSD\nPrice: $1\nTime: 2024-01-02 03:06:05 UTC", n.sent[0])
	require.Equal(t, []time.Duration{DefaultReplayDelay, DefaultReplayDelay, DefaultReplayDelay}, clk.sleeps)
}

func TestReplay_GroupedByPairNotGloballyOrdered(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	seedHistory(store, "OLD", 2, t0)
	seedHistory(store, "NEW", 2, t0.Add(24*time.Hour))
	n := &fakeNotifier{}

	_, err := newTestReplayer(store, n, &fakeClock{}, "NEW", "OLD").Run(context.Background())
	require.NoError(t, err)
	require.Len(t, n.sent, 4)
	require.Contains(t, n.sent[0], "Pair: NEW")
	require.Contains(t, n.sent[1], "Pair: NEW")
	require.Contains(t, n.sent[2], "Pair: OLD")
	require.Contains(t, n.sent[3], "Pair: OLD")
}

func TestReplay_PageBoundaries(t *testing.T) {
	t.Parallel()
	cases := []struct {
		entries int
		offsets []int
	}{
		{entries: 0, offsets: []int{0}},
		{entries: 100, offsets: []int{0, 100}},
		{entries: 101, offsets: []int{0, 100, 200}},
	}
	for _, tc := range cases {
		store := newFakeStore()
		seedHistory(store, "A", tc.entries, t0)
		n := &fakeNotifier{}
		report, err := newTestReplayer(store, n, &fakeClock{}, "A").Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, tc.entries, report.Sent)
		require.Equal(t, tc.offsets, store.pageCalls)
	}
}

func TestReplay_SkipsMalformedEntries(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	seedHistory(store, "A", 2, t0)
	store.history["A"] = append([]string{`{"price":"1","timest`}, store.history["A"]...)
	store.history["A"] = append(store.history["A"], `not json`)
	seedHistory(store, "B", 1, t0)
	n := &fakeNotifier{}
	clk := &fakeClock{}

	report, err := newTestReplayer(store, n, clk, "A", "B").Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, report.Sent)
	require.Equal(t, 2, report.Skipped)
	require.Len(t, clk.sleeps, 3)
}

func TestReplay_SendsWellFormedEntriesVerbatim(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.history["A"] = []string{
		`{"price":"","timestamp":"2024-01-02 03:04:05 UTC"}`,
		`{"price":"1","timestamp":"2024-01-02T03:04:05Z"}`,
		`{"price":"1","timestamp":"2024-01-02 03:04:05 UTC","extra":1}`,
	}
	n := &fakeNotifier{}

	report, err := newTestReplayer(store, n, &fakeClock{}, "A").Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, report.Sent)
	require.Zero(t, report.Skipped)
	require.Equal(t, "🔄 Historical Price\n\nPair: A\nPrice: $\nTime: 2024-01-02 03:04:05 UTC", n.sent[0])
	require.Contains(t, n.sent[1], "Time: 2024-01-02T03:04:05Z")
}

func TestReplay_NotifyFailureContinues(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	seedHistory(store, "A", 3, t0)
	n := &fakeNotifier{failOn: map[int]bool{1: true}}

	report, err := newTestReplayer(store, n, &fakeClock{}, "A").Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Sent)
	require.Equal(t, 1, report.Failed)
}

func TestReplay_StoreErrorAborts(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.readErr = errStoreDown
	n := &fakeNotifier{}

	_, err := newTestReplayer(store, n, &fakeClock{}, "A", "B").Run(context.Background())
	require.ErrorIs(t, err, errStoreDown)
	require.Equal(t, []int{0}, store.pageCalls)
	require.Empty(t, n.sent)
}

func TestReplay_CustomChunkAndDelay(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	seedHistory(store, "A", 5, t0)
	clk := &fakeClock{}
	r := NewReplayer([]domain.Pair{"A"}, store, &fakeNotifier{}, WithClock(clk), WithChunkSize(2), WithDelay(time.Second))

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, report.Sent)
	require.Equal(t, []int{0, 2, 4, 6}, store.pageCalls)
	require.Equal(t, time.Second, clk.sleeps[0])
}

func TestReplay_CancelledDuringDelay(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	seedHistory(store, "A", 3, t0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := &fakeNotifier{}

	_, err := newTestReplayer(store, n, &fakeClock{}, "A").Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, n.sent, 1)
}

func TestRealClock_SleepHonoursContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, RealClock().Sleep(ctx, time.Hour), context.Canceled)
	require.NoError(t, RealClock().Sleep(context.Background(), time.Millisecond))
}
