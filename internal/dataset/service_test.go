package dataset_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/soundscape-data/internal/dataset"
	"github.com/couchcryptid/soundscape-data/internal/domain"
	"github.com/couchcryptid/soundscape-data/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mb01Month = "mb01/month_level_summary.csv"
	mb01Day   = "mb01/day_level_summary.csv"
	mb01Hour  = "mb01/hour_level_summary.csv"
	mb02Month = "mb02/month_level_summary.csv"
	mb02Day   = "mb02/day_level_summary.csv"
	mb02Hour  = "mb02/hour_level_summary.csv"
)

const monthCSV = `time,ships,bluewhale
2020-01-01T00:00:00Z,10,
2020-02-01T00:00:00Z,0,3
`

const dayCSV = `time,ships,bluewhale
2020-01-31T00:00:00Z,1,
2020-02-01T00:00:00Z,2,0
2020-02-02T00:00:00Z,3,1
2020-02-02T06:00:00Z,30,10
2020-03-01T00:00:00Z,4,
2021-02-01T00:00:00Z,5,
`

const hourCSV = `time,ships
2020-02-03T05:00:00Z,5
2020-02-03T01:00:00Z,1
2020-02-03T03:00:00Z,3
2020-02-04T00:00:00Z,9
`

// --- mocks ---

// memStore is an in-memory AssetStore that counts fetches per key.
type memStore struct {
	mu      sync.Mutex
	assets  map[string]string
	fail    map[string]error
	gate    chan struct{}
	fetches map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		assets: map[string]string{
			mb01Month: monthCSV,
			mb01Day:   dayCSV,
			mb01Hour:  hourCSV,
			mb02Month: "time,ships\n2019-06-01T00:00:00Z,42\n",
			mb02Day:   "time,ships\n2019-06-01T00:00:00Z,42\n",
			mb02Hour:  "time,ships\n2019-06-01T00:00:00Z,42\n",
		},
		fail:    map[string]error{},
		fetches: map[string]int{},
	}
}

func (m *memStore) Fetch(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	m.fetches[key]++
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err, ok := m.fail[key]; ok {
		return nil, err
	}
	raw, ok := m.assets[key]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return []byte(raw), nil
}

func (m *memStore) fetchCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[key]
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.LoadEvent
	err    error
}

func (n *recordingNotifier) NotifyLoaded(_ context.Context, e domain.LoadEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func (n *recordingNotifier) snapshot() []domain.LoadEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.LoadEvent(nil), n.events...)
}

func newTestService(store domain.AssetStore, opts ...dataset.Option) (*dataset.Service, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return dataset.New(store, observability.DiscardLogger(), metrics, opts...), metrics
}

// --- tests ---

func TestMonthSummary_LoadsOnce(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	first := svc.MonthSummary(ctx, "sensor-01")
	second := svc.MonthSummary(ctx, "sensor-01")

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Same(t, &first[0], &second[0], "callers share one backing array")
	assert.Equal(t, 1, store.fetchCount(mb01Month))

	ships, ok := first[1].Values.Get(domain.MetricShips)
	assert.True(t, ok)
	assert.Equal(t, 0.0, ships)
	_, ok = first[0].Values.Get(domain.MetricBlueWhale)
	assert.False(t, ok)
}

func TestMonthSummary_ConcurrentCallersDedup(t *testing.T) {
	store := newMemStore()
	store.gate = make(chan struct{})
	svc, _ := newTestService(store)

	const n = 25
	results := make([][]domain.MonthSummaryEntry, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = svc.MonthSummary(context.Background(), "sensor-01")
		}()
	}

	require.Eventually(t, func() bool { return store.fetchCount(mb01Month) == 1 }, time.Second, time.Millisecond)
	close(store.gate)
	wg.Wait()

	assert.Equal(t, 1, store.fetchCount(mb01Month))
	for _, r := range results {
		assert.Len(t, r, 2)
	}
}

func TestDaySummary_CalendarMonthMapping(t *testing.T) {
	svc, _ := newTestService(newMemStore())
	ctx := context.Background()

	feb := svc.DaySummary(ctx, "sensor-01", time.February)
	require.Len(t, feb, 3)
	for _, e := range feb {
		assert.Equal(t, time.February, e.Date.Month())
		assert.Equal(t, 2020, e.Date.Year())
	}

	jan := svc.DaySummary(ctx, "sensor-01", time.January)
	require.Len(t, jan, 1)
	assert.Equal(t, "2020-01-31", jan[0].ISODay)

	feb2021 := svc.DaySummary(ctx, "sensor-01", time.February, dataset.WithYear(2021))
	require.Len(t, feb2021, 1)
	assert.Equal(t, "2021-02-01", feb2021[0].ISODay)

	assert.Empty(t, svc.DaySummary(ctx, "sensor-01", time.April))
	assert.NotNil(t, svc.DaySummary(ctx, "sensor-01", time.April))
	assert.Empty(t, svc.DaySummary(ctx, "sensor-01", 0))
	assert.Empty(t, svc.DaySummary(ctx, "sensor-01", 13))
}

func TestDaySummary_UnknownSensorUsesDefaultPartition(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	unknown := svc.DaySummary(ctx, "sensor-99", time.March)
	absent := svc.DaySummary(ctx, "", time.March)

	require.Len(t, unknown, 1)
	assert.Equal(t, absent, unknown)
	assert.Equal(t, 1, store.fetchCount(mb01Day))
}

func TestDaySummaryByDate(t *testing.T) {
	svc, _ := newTestService(newMemStore())
	ctx := context.Background()

	entry, ok := svc.DaySummaryByDate(ctx, "sensor-01", "2020-02-02")
	require.True(t, ok)
	ships, _ := entry.Values.Get(domain.MetricShips)
	assert.Equal(t, 3.0, ships, "first row of the day wins")

	_, ok = svc.DaySummaryByDate(ctx, "sensor-01", "2020-12-25")
	assert.False(t, ok)
}

func TestHourSummary(t *testing.T) {
	svc, _ := newTestService(newMemStore())
	ctx := context.Background()

	hours := svc.HourSummary(ctx, "sensor-01", time.Date(2020, 2, 3, 17, 45, 0, 0, time.UTC))
	require.Len(t, hours, 3)
	assert.Equal(t, []int{1, 3, 5}, []int{hours[0].Hour, hours[1].Hour, hours[2].Hour})

	// 2020-02-04T02:00+05:00 is 2020-02-03 in UTC.
	local := time.Date(2020, 2, 4, 2, 0, 0, 0, time.FixedZone("UTC+5", 5*3600))
	assert.Len(t, svc.HourSummary(ctx, "sensor-01", local), 3)

	empty := svc.HourSummary(ctx, "sensor-01", time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestPartitionsAreIsolated(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	mb02 := svc.MonthSummary(ctx, "sensor-02")
	require.Len(t, mb02, 1)
	assert.Equal(t, "2019-06-01T00:00:00.000Z", mb02[0].ISODate)

	assert.Len(t, svc.MonthSummary(ctx, "sensor-01"), 2)
	assert.Equal(t, 1, store.fetchCount(mb01Month))
	assert.Equal(t, 1, store.fetchCount(mb02Month))
}

func TestFailedAssetLoadYieldsEmptyResults(t *testing.T) {
	store := newMemStore()
	boom := errors.New("connection reset")
	store.fail[mb02Month] = boom
	store.fail[mb02Day] = boom
	store.fail[mb02Hour] = boom
	svc, metrics := newTestService(store)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		assert.Empty(t, svc.MonthSummary(ctx, "sensor-02"))
		assert.Empty(t, svc.DaySummary(ctx, "sensor-02", time.June, dataset.WithYear(2019)))
		_, ok := svc.DaySummaryByDate(ctx, "sensor-02", "2019-06-01")
		assert.False(t, ok)
		assert.Empty(t, svc.HourSummary(ctx, "sensor-02", time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)))
	})

	// No retry against the failing source.
	assert.Empty(t, svc.MonthSummary(ctx, "sensor-02"))
	assert.Equal(t, 1, store.fetchCount(mb02Month))
	assert.Equal(t, 1, store.fetchCount(mb02Day))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DatasetLoads.WithLabelValues("month", "failure")))

	// Other partitions are unaffected.
	assert.Len(t, svc.MonthSummary(ctx, "sensor-01"), 2)
}

func TestMissingAndMalformedAssets(t *testing.T) {
	store := newMemStore()
	delete(store.assets, mb01Hour)
	store.assets[mb01Day] = "time,ships\n\"2020-01-01,1\n"
	svc, _ := newTestService(store)
	ctx := context.Background()

	assert.Empty(t, svc.HourSummary(ctx, "sensor-01", time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC)))
	assert.Empty(t, svc.DaySummary(ctx, "sensor-01", time.January))
}

func TestWarm_LoadsEverythingAndMarksReady(t *testing.T) {
	store := newMemStore() // mb03 has no assets
	svc, metrics := newTestService(store)
	ctx := context.Background()

	require.Error(t, svc.CheckReadiness(ctx))
	select {
	case <-svc.WarmDone():
		t.Fatal("warm-up signalled before Warm ran")
	default:
	}

	require.NoError(t, svc.Warm(ctx))
	require.NoError(t, svc.CheckReadiness(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Ready))

	select {
	case <-svc.WarmDone():
	default:
		t.Fatal("WarmDone not closed")
	}

	for _, p := range domain.Partitions() {
		for _, r := range domain.Resolutions {
			key, err := domain.AssetKey(p, r)
			require.NoError(t, err)
			assert.Equal(t, 1, store.fetchCount(key), key)
		}
	}

	// Accessors after warm-up hit the cache.
	svc.MonthSummary(ctx, "sensor-01")
	assert.Equal(t, 1, store.fetchCount(mb01Month))

	byKey := map[string]dataset.LoadStatus{}
	for _, st := range svc.Status() {
		byKey[string(st.Partition)+"/"+string(st.Resolution)] = st
	}
	require.Len(t, byKey, 9)
	assert.True(t, byKey["mb01/day"].Loaded)
	assert.Equal(t, 6, byKey["mb01/day"].Entries)
	assert.True(t, byKey["mb03/day"].Failed)
	assert.Contains(t, byKey["mb03/day"].Error, "asset not found")
}

func TestWarm_CancelledContext(t *testing.T) {
	store := newMemStore()
	store.gate = make(chan struct{})
	t.Cleanup(func() { close(store.gate) })
	svc, _ := newTestService(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, svc.Warm(ctx), context.Canceled)
	assert.Error(t, svc.CheckReadiness(context.Background()))
}

func TestNotifier_ReceivesLoadEvents(t *testing.T) {
	store := newMemStore()
	store.fail[mb02Hour] = errors.New("timeout")
	notifier := &recordingNotifier{}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC))
	svc, _ := newTestService(store, dataset.WithNotifier(notifier), dataset.WithClock(clock))
	ctx := context.Background()

	svc.DaySummary(ctx, "sensor-01", time.February)
	svc.HourSummary(ctx, "sensor-02", time.Now())

	require.Eventually(t, func() bool { return len(notifier.snapshot()) == 2 }, time.Second, time.Millisecond)

	events := map[string]domain.LoadEvent{}
	for _, e := range notifier.snapshot() {
		events[e.Partition+"/"+e.Resolution] = e
	}

	day := events["mb01/day"]
	assert.Equal(t, "success", day.Outcome())
	assert.Equal(t, 6, day.Entries)
	assert.Equal(t, clock.Now(), day.LoadedAt)
	assert.NotEmpty(t, day.ID)

	hour := events["mb02/hour"]
	assert.True(t, hour.Failed)
	assert.Contains(t, hour.Error, "timeout")
}

func TestNotifier_FailureIsCounted(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("broker down")}
	svc, metrics := newTestService(newMemStore(), dataset.WithNotifier(notifier))

	assert.Len(t, svc.MonthSummary(context.Background(), "sensor-01"), 2)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.NotificationsFailed) == 1
	}, time.Second, time.Millisecond)
}

func TestNew_NilLoggerAndMetrics(t *testing.T) {
	store := newMemStore()
	store.fail[mb02Day] = errors.New("disk unavailable")
	notifier := &recordingNotifier{err: errors.New("broker down")}
	svc := dataset.New(store, nil, nil, dataset.WithNotifier(notifier))

	require.Len(t, svc.MonthSummary(context.Background(), "sensor-01"), 2)
	assert.Empty(t, svc.DaySummary(context.Background(), "sensor-02", time.June, dataset.WithYear(2019)))
	require.NoError(t, svc.Warm(context.Background()))
	require.NoError(t, svc.CheckReadiness(context.Background()))

	// Every (partition, resolution) pair reaches its completion hook.
	assert.Eventually(t, func() bool { return len(notifier.snapshot()) == 9 }, time.Second, time.Millisecond)
}
