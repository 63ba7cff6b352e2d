package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lazy-geeek/liqui-api/application/services/orchestrator"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache/breaker"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache/keys"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache/memory"
	"github.com/lazy-geeek/liqui-api/internal/types"
	"github.com/lazy-geeek/liqui-api/internal/types/liquidation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type aggCall struct {
	symbol               string
	timeframeMs, startMs int64
	endMs                int64
}

type fakeRepo struct {
	mu         sync.Mutex
	rows       map[string][]liquidation.AggregatedRow
	symbols    []string
	orders     []liquidation.Order
	aggCalls   []aggCall
	symCalls   int
	orderCalls int
	err        error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rows: map[string][]liquidation.AggregatedRow{
			"btcusdt": {
				{BucketStartMs: 0, Side: liquidation.SideBuy, CumulativeUSD: decimal.NewFromInt(200)},
				{BucketStartMs: 60000, Side: liquidation.SideSell, CumulativeUSD: decimal.NewFromInt(100)},
			},
			"ethusdt": {
				{BucketStartMs: 0, Side: liquidation.SideSell, CumulativeUSD: decimal.NewFromInt(5)},
			},
		},
		symbols: []string{"btcusdt", "ethusdt"},
		orders:  []liquidation.Order{{Symbol: "btcusdt", Side: "buy"}},
	}
}

func (r *fakeRepo) Aggregated(_ context.Context, symbol string, tf, start, end int64) ([]liquidation.AggregatedRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggCalls = append(r.aggCalls, aggCall{symbol, tf, start, end})
	if r.err != nil {
		return nil, r.err
	}
	return r.rows[symbol], nil
}

func (r *fakeRepo) Symbols(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.symCalls++
	return r.symbols, r.err
}

func (r *fakeRepo) LatestOrders(_ context.Context, symbol string, limit int) ([]liquidation.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orderCalls++
	if symbol != "btcusdt" {
		return nil, nil
	}
	return r.orders, nil
}

func (r *fakeRepo) OrdersPage(_ context.Context, symbol string, _, _ int64, page, pageSize int) (liquidation.OrdersResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orderCalls++
	return liquidation.OrdersResult{
		Orders:     r.orders,
		Pagination: &liquidation.Pagination{Page: page, PageSize: pageSize, TotalReturned: len(r.orders)},
	}, nil
}

func (r *fakeRepo) StreamOrders(_ context.Context, _ string, _, _ int64, _ int, fn func([]liquidation.Order) error) error {
	return fn(r.orders)
}

func (r *fakeRepo) aggCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.aggCalls)
}

type countingStore struct {
	cache.Store
	mu   sync.Mutex
	fail bool
	gets int
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	s.gets++
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return nil, cache.ErrUnavailable
	}
	return s.Store.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return cache.ErrUnavailable
	}
	return s.Store.Set(ctx, key, value, ttl)
}

type fixture struct {
	orch  *orchestrator.Orchestrator
	repo  *fakeRepo
	store *countingStore
	br    *breaker.Breaker
	raw   *memory.Store
}

func newFixture(t *testing.T, opts ...orchestrator.Option) *fixture {
	t.Helper()
	raw := memory.NewStore(0)
	store := &countingStore{Store: raw}
	br := breaker.New(breaker.Settings{FailureThreshold: 3, Window: time.Minute, Cooldown: time.Hour})
	repo := newFakeRepo()
	settings := orchestrator.Settings{
		TTLLiquidations: 5 * time.Minute,
		TTLSymbols:      time.Hour,
		TTLOrders:       5 * time.Minute,
		Warm: orchestrator.WarmSettings{
			Symbols:     []string{"btcusdt", "ethusdt", "xrpusdt"},
			Timeframes:  []string{"5m", "1h"},
			Window:      24 * time.Hour,
			Concurrency: 2,
			Timeout:     time.Minute,
		},
	}
	orch := orchestrator.New(cache.NewGuarded(store, br), br, keys.NewCodec(0), repo, settings, opts...)
	t.Cleanup(orch.Stop)
	return &fixture{orch: orch, repo: repo, store: store, br: br, raw: raw}
}

func liqParams(symbol, tf string, start, end int64) liquidation.QueryParameters {
	return liquidation.QueryParameters{Symbol: symbol, Timeframe: tf, Start: &start, End: &end}
}

func TestLiquidations_SecondReadServedFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.orch.Liquidations(ctx, liqParams("BTCUSDT", "1m", 0, 120000))
	require.NoError(t, err)
	second, err := f.orch.Liquidations(ctx, liqParams("btcusdt", "1m", 0, 120000))
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.aggCount())
	require.Len(t, second, 2)
	assert.Equal(t, first[0].BucketStartMs, second[0].BucketStartMs)
	assert.True(t, first[0].CumulativeUSD.Equal(second[0].CumulativeUSD))

	stats := f.orch.Stats(ctx)
	assert.Equal(t, int64(1), stats.HitCount)
	assert.Equal(t, int64(1), stats.MissCount)
	assert.Equal(t, 50.0, stats.HitRate)
	assert.True(t, stats.BackendAvailable)
	assert.Equal(t, "closed", stats.BreakerState)
}

func TestLiquidations_EquivalentTimeframesShareKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.Liquidations(ctx, liqParams("btcusdt", "60m", 0, 120000))
	require.NoError(t, err)
	_, err = f.orch.Liquidations(ctx, liqParams("btcusdt", "1h", 0, 120000))
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.aggCount())
}

func TestLiquidations_EmptyResultIsNotFoundAndNotCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.orch.Liquidations(ctx, liqParams("dogeusdt", "1m", 0, 60000))
		assert.ErrorIs(t, err, orchestrator.ErrNotFound)
	}
	assert.Equal(t, 2, f.repo.aggCount())
}

func TestLiquidations_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.Liquidations(ctx, liqParams("btcusdt", "0m", 0, 1))
	assert.Error(t, err)

	_, err = f.orch.Liquidations(ctx, liqParams("btcusdt", "1m", 10, 5))
	assert.ErrorIs(t, err, liquidation.ErrInvalidParameters)

	assert.Equal(t, 0, f.repo.aggCount())
}

func TestLiquidations_RepositoryErrorPropagates(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("backend query failed")
	f.repo.err = boom

	_, err := f.orch.Liquidations(context.Background(), liqParams("btcusdt", "1m", 0, 60000))
	assert.ErrorIs(t, err, boom)
}

func TestInvalidateSymbol_ForcesRequery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.Liquidations(ctx, liqParams("btcusdt", "1m", 0, 120000))
	require.NoError(t, err)
	_, err = f.orch.Liquidations(ctx, liqParams("ethusdt", "1m", 0, 120000))
	require.NoError(t, err)
	_, err = f.orch.Orders(ctx, liquidation.QueryParameters{Symbol: "btcusdt", Limit: 10})
	require.NoError(t, err)

	n, err := f.orch.InvalidateSymbol(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.orch.Liquidations(ctx, liqParams("btcusdt", "1m", 0, 120000))
	require.NoError(t, err)
	_, err = f.orch.Liquidations(ctx, liqParams("ethusdt", "1m", 0, 120000))
	require.NoError(t, err)

	// btcusdt перечитан, ethusdt остался в кеше
	assert.Equal(t, 3, f.repo.aggCount())
}

func TestInvalidateSymbol_LongSymbolIsRequeried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	long := strings.Repeat("a", 100)
	f.repo.rows[long] = []liquidation.AggregatedRow{
		{BucketStartMs: 0, Side: liquidation.SideBuy, CumulativeUSD: decimal.NewFromInt(1)},
	}

	_, err := f.orch.Liquidations(ctx, liqParams(long, "1m", 0, 120000))
	require.NoError(t, err)
	_, err = f.orch.Liquidations(ctx, liqParams(long, "1m", 0, 120000))
	require.NoError(t, err)
	require.Equal(t, 1, f.repo.aggCount())

	n, err := f.orch.InvalidateSymbol(ctx, strings.ToUpper(long))
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	_, err = f.orch.Liquidations(ctx, liqParams(long, "1m", 0, 120000))
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.aggCount())
}

func TestInvalidateSymbols_ForcesSymbolsRequery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.Symbols(ctx)
	require.NoError(t, err)
	_, err = f.orch.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.symCalls)

	require.NoError(t, f.orch.InvalidateSymbols(ctx))
	_, err = f.orch.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.symCalls)
}

func TestSymbols_EmptyListIsCached(t *testing.T) {
	f := newFixture(t)
	f.repo.symbols = []string{}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := f.orch.Symbols(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, 1, f.repo.symCalls)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.Symbols(ctx)
	require.NoError(t, err)
	_, err = f.orch.Liquidations(ctx, liqParams("btcusdt", "1m", 0, 120000))
	require.NoError(t, err)

	n, err := f.orch.Clear(ctx, "liq:*")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.orch.Clear(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpenBreakerBypassesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.fail = true

	for i := 0; i < 5; i++ {
		rows, err := f.orch.Liquidations(ctx, liqParams("btcusdt", "1m", 0, 120000))
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	}

	assert.Equal(t, breaker.StateOpen, f.br.State())
	// Get и Set первого чтения плюс Get второго открыли предохранитель
	assert.Equal(t, 2, f.store.gets)
	assert.Equal(t, 5, f.repo.aggCount())

	stats := f.orch.Stats(ctx)
	assert.False(t, stats.BackendAvailable)
	assert.Equal(t, "open", stats.BreakerState)

	_, err := f.orch.Clear(ctx, "*")
	assert.ErrorIs(t, err, cache.ErrUnavailable)
}

func TestCorruptEntryIsMiss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.raw.Set(ctx, keys.NewCodec(0).Symbols(), []byte("{not json"), time.Hour))

	got, err := f.orch.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"btcusdt", "ethusdt"}, got)
	assert.Equal(t, 1, f.repo.symCalls)

	_, err = f.orch.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.symCalls, "corrupt entry must be overwritten")
}

func TestOrders_LimitAndPageModes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	latest, err := f.orch.Orders(ctx, liquidation.QueryParameters{Symbol: "btcusdt", Limit: 10})
	require.NoError(t, err)
	assert.Nil(t, latest.Pagination)
	assert.Len(t, latest.Orders, 1)

	start, end := int64(0), int64(1000)
	page, err := f.orch.Orders(ctx, liquidation.QueryParameters{Symbol: "btcusdt", Start: &start, End: &end})
	require.NoError(t, err)
	require.NotNil(t, page.Pagination)
	assert.Equal(t, liquidation.DefaultPage, page.Pagination.Page)
	assert.Equal(t, liquidation.DefaultPageSize, page.Pagination.PageSize)

	_, err = f.orch.Orders(ctx, liquidation.QueryParameters{Symbol: "btcusdt", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.orderCalls)

	_, err = f.orch.Orders(ctx, liquidation.QueryParameters{Symbol: "solusdt", Limit: 10})
	assert.ErrorIs(t, err, orchestrator.ErrNotFound)

	_, err = f.orch.Orders(ctx, liquidation.QueryParameters{Symbol: "btcusdt", Limit: 10, Start: &start, End: &end})
	assert.ErrorIs(t, err, liquidation.ErrInvalidParameters)
}

func TestStreamOrders(t *testing.T) {
	f := newFixture(t)
	start, end := int64(0), int64(1000)

	var got []liquidation.Order
	err := f.orch.StreamOrders(context.Background(),
		liquidation.QueryParameters{Symbol: "btcusdt", Start: &start, End: &end}, 100,
		func(batch []liquidation.Order) error {
			got = append(got, batch...)
			return nil
		})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	err = f.orch.StreamOrders(context.Background(), liquidation.QueryParameters{Symbol: "btcusdt"}, 100,
		func([]liquidation.Order) error { return nil })
	assert.ErrorIs(t, err, liquidation.ErrInvalidParameters)
}

func TestWarm(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	f := newFixture(t, orchestrator.WithClock(func() time.Time { return now }))

	report, err := f.orch.Warm(context.Background())
	require.NoError(t, err)

	wantEnd := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, wantEnd, report.EndMs)
	assert.Equal(t, wantEnd-24*time.Hour.Milliseconds(), report.StartMs)
	assert.True(t, report.SymbolsWarmed)
	assert.Equal(t, int64(4), report.Warmed)
	assert.Equal(t, int64(2), report.Empty)
	assert.Equal(t, int64(0), report.Failed)
	assert.NotEmpty(t, report.RunID)

	for _, c := range f.repo.aggCalls {
		assert.Equal(t, wantEnd, c.endMs)
	}

	// прогретые записи обслуживают обычные запросы
	_, err = f.orch.Liquidations(context.Background(), liqParams("btcusdt", "5m", report.StartMs, report.EndMs))
	require.NoError(t, err)
	assert.Equal(t, 6, f.repo.aggCount())
}

func TestStartWarmRunsInBackground(t *testing.T) {
	f := newFixture(t)

	runID, started := f.orch.StartWarm()
	require.True(t, started)
	assert.NotEmpty(t, runID)

	require.Eventually(t, func() bool {
		r := f.orch.LastWarm()
		return r != nil && r.RunID == runID
	}, 2*time.Second, 10*time.Millisecond)

	f.orch.Stop()
	_, started = f.orch.StartWarm()
	assert.False(t, started)
}

func TestStopRacingStartWarm(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t)

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f.orch.StartWarm()
			}()
		}
		f.orch.Stop()
		wg.Wait()

		_, started := f.orch.StartWarm()
		assert.False(t, started)
	}
}

func TestInvalidationSubscriber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.orch.InvalidationSubscriber()

	_, err := f.orch.Liquidations(ctx, liqParams("btcusdt", "1m", 0, 120000))
	require.NoError(t, err)
	_, err = f.orch.Symbols(ctx)
	require.NoError(t, err)

	require.NoError(t, sub.HandleEvent(types.Event{
		Type: types.EventLiquidationsIngested,
		Data: types.IngestNotice{Symbol: "btcusdt", NewSymbol: true},
	}))

	_, err = f.orch.Liquidations(ctx, liqParams("btcusdt", "1m", 0, 120000))
	require.NoError(t, err)
	_, err = f.orch.Symbols(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, f.repo.aggCount())
	assert.Equal(t, 2, f.repo.symCalls)

	assert.Error(t, sub.HandleEvent(types.Event{Type: types.EventLiquidationsIngested, Data: "btcusdt"}))
}

type recordingBus struct {
	mu     sync.Mutex
	events []types.Event
}

func (b *recordingBus) Publish(e types.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

func (b *recordingBus) PublishSync(e types.Event) error { return b.Publish(e) }

func (b *recordingBus) Subscribe(types.EventType, types.EventSubscriber)   {}
func (b *recordingBus) Unsubscribe(types.EventType, types.EventSubscriber) {}

func TestWarmPublishesReport(t *testing.T) {
	bus := &recordingBus{}
	f := newFixture(t, orchestrator.WithEventBus(bus))

	report, err := f.orch.Warm(context.Background())
	require.NoError(t, err)

	require.Len(t, bus.events, 1)
	assert.Equal(t, types.EventCacheWarmed, bus.events[0].Type)
	assert.Equal(t, report, bus.events[0].Data)
}
