package querycache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type record struct {
	ID   string
	Name string
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingFetch struct {
	calls atomic.Int32
	mu    sync.Mutex
	rows  []record
	err   error
}

func (f *countingFetch) set(rows []record, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = rows
	f.err = err
}

func (f *countingFetch) fetch(context.Context) ([]record, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return slices.Clone(f.rows), nil
}

func byID(id string) Predicate[record] {
	return func(r record) bool { return r.ID == id }
}

func ids(rows []record) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ID)
	}
	return out
}

func newPrimedCache(t *testing.T, rows ...record) (*Cache[record], *countingFetch) {
	t.Helper()

	source := &countingFetch{rows: rows}
	cache, err := New(time.Minute, source.fetch, WithName("records"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	return cache, source
}

func TestNewRejectsNegativeTTL(t *testing.T) {
	source := &countingFetch{}
	if _, err := New(-time.Millisecond, source.fetch); !errors.Is(err, ErrNegativeTTL) {
		t.Fatalf("New() error = %v, want ErrNegativeTTL", err)
	}
	if _, err := New[record](time.Second, nil); !errors.Is(err, ErrFetchRequired) {
		t.Fatalf("New() error = %v, want ErrFetchRequired", err)
	}
	if _, err := New(0, source.fetch); err != nil {
		t.Fatalf("New(0) error = %v", err)
	}
}

func TestGetCoalescesConcurrentFetches(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	cache, err := New(time.Hour, func(context.Context) ([]record, error) {
		calls.Add(1)
		<-release
		return []record{{ID: "a"}, {ID: "b"}}, nil
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const readers = 32
	results := make([][]record, readers)
	errsOut := make([]error, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errsOut[i] = cache.Get(context.Background())
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("fetch calls = %d, want 1", got)
	}
	for i := 0; i < readers; i++ {
		if errsOut[i] != nil {
			t.Fatalf("Get()[%d] error = %v", i, errsOut[i])
		}
		if !slices.Equal(ids(results[i]), []string{"a", "b"}) {
			t.Fatalf("Get()[%d] = %v", i, ids(results[i]))
		}
		if &results[i][0] != &results[0][0] {
			t.Fatalf("Get()[%d] returned a different slice", i)
		}
	}
}

func TestGetRespectsTTL(t *testing.T) {
	clock := newFakeClock()
	source := &countingFetch{rows: []record{{ID: "a"}}}
	cache, err := New(100*time.Millisecond, source.fetch, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := source.calls.Load(); got != 1 {
		t.Fatalf("fetch calls after first Get = %d, want 1", got)
	}

	clock.Advance(99 * time.Millisecond)
	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := source.calls.Load(); got != 1 {
		t.Fatalf("fetch calls within ttl = %d, want 1", got)
	}

	clock.Advance(2 * time.Millisecond)
	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := source.calls.Load(); got != 2 {
		t.Fatalf("fetch calls after ttl = %d, want 2", got)
	}

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 2 || stats.Fetches != 2 {
		t.Fatalf("Stats() = %+v", stats)
	}
}

func TestZeroTTLAlwaysFetches(t *testing.T) {
	source := &countingFetch{rows: []record{{ID: "a"}}}
	cache, err := New(0, source.fetch)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := cache.Get(context.Background()); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
	}
	if got := source.calls.Load(); got != 3 {
		t.Fatalf("fetch calls = %d, want 3", got)
	}
}

func TestForceAdd(t *testing.T) {
	cache, source := newPrimedCache(t, record{ID: "a"}, record{ID: "b"})
	before, _ := cache.Peek()

	cache.ForceAdd(record{ID: "r"})

	got, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !slices.Equal(ids(got), []string{"a", "b", "r"}) {
		t.Fatalf("snapshot = %v", ids(got))
	}
	if !slices.Equal(ids(before), []string{"a", "b"}) {
		t.Fatalf("previously returned slice changed to %v", ids(before))
	}
	if calls := source.calls.Load(); calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", calls)
	}
}

func TestForceAddWithoutSnapshotIsNoop(t *testing.T) {
	source := &countingFetch{rows: []record{{ID: "a"}}}
	cache, err := New(time.Minute, source.fetch)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cache.ForceAdd(record{ID: "r"})

	if _, ok := cache.Peek(); ok {
		t.Fatalf("Peek() ok = true, want absent snapshot")
	}
	if calls := source.calls.Load(); calls != 0 {
		t.Fatalf("fetch calls = %d, want 0", calls)
	}
}

func TestForceRemove(t *testing.T) {
	testCases := []struct {
		name  string
		match Predicate[record]
		want  []string
	}{
		{name: "middle", match: byID("b"), want: []string{"a", "c"}},
		{name: "none", match: byID("z"), want: []string{"a", "b", "c"}},
		{name: "all", match: func(record) bool { return true }, want: []string{}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			cache, _ := newPrimedCache(t, record{ID: "a"}, record{ID: "b"}, record{ID: "c"})

			cache.ForceRemove(testCase.match)

			got, _ := cache.Peek()
			if !slices.Equal(ids(got), testCase.want) {
				t.Fatalf("snapshot = %v, want %v", ids(got), testCase.want)
			}
		})
	}
}

func TestRefetchOneReplacesInPlace(t *testing.T) {
	cache, source := newPrimedCache(t, record{ID: "a"}, record{ID: "b", Name: "old"}, record{ID: "c"})

	var lookups int
	err := cache.RefetchOne(context.Background(), byID("b"), func(_ context.Context, current record) (record, error) {
		lookups++
		return record{ID: current.ID, Name: "new"}, nil
	})
	if err != nil {
		t.Fatalf("RefetchOne() error = %v", err)
	}

	got, _ := cache.Peek()
	if !slices.Equal(ids(got), []string{"a", "b", "c"}) {
		t.Fatalf("snapshot = %v", ids(got))
	}
	if got[1].Name != "new" {
		t.Fatalf("snapshot[1].Name = %q, want new", got[1].Name)
	}
	if lookups != 1 {
		t.Fatalf("lookups = %d, want 1", lookups)
	}
	if calls := source.calls.Load(); calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", calls)
	}
}

func TestRefetchOneLookupFailureLeavesSnapshot(t *testing.T) {
	cache, _ := newPrimedCache(t, record{ID: "a"}, record{ID: "b", Name: "old"}, record{ID: "c"})
	lookupErr := errors.New("row vanished")

	err := cache.RefetchOne(context.Background(), byID("b"), func(context.Context, record) (record, error) {
		return record{}, lookupErr
	})
	if !errors.Is(err, lookupErr) {
		t.Fatalf("RefetchOne() error = %v, want %v", err, lookupErr)
	}

	got, _ := cache.Peek()
	if !slices.Equal(ids(got), []string{"a", "b", "c"}) || got[1].Name != "old" {
		t.Fatalf("snapshot = %+v", got)
	}
}

func TestRefetchOneMultipleMatchesAllOrNothing(t *testing.T) {
	cache, _ := newPrimedCache(t, record{ID: "a", Name: "x"}, record{ID: "b"}, record{ID: "c", Name: "x"})
	isX := func(r record) bool { return r.Name == "x" }

	err := cache.RefetchOne(context.Background(), isX, func(_ context.Context, current record) (record, error) {
		if current.ID == "c" {
			return record{}, errors.New("lookup failed")
		}
		return record{ID: current.ID, Name: "y"}, nil
	})
	if err == nil {
		t.Fatalf("RefetchOne() expected error")
	}
	got, _ := cache.Peek()
	if got[0].Name != "x" || got[2].Name != "x" {
		t.Fatalf("partial overwrite: %+v", got)
	}

	err = cache.RefetchOne(context.Background(), isX, func(_ context.Context, current record) (record, error) {
		return record{ID: current.ID, Name: "y"}, nil
	})
	if err != nil {
		t.Fatalf("RefetchOne() error = %v", err)
	}
	got, _ = cache.Peek()
	if got[0].Name != "y" || got[1].Name != "" || got[2].Name != "y" {
		t.Fatalf("snapshot = %+v", got)
	}
}

func TestRefetchOneNoSnapshotOrNoMatchIsNoop(t *testing.T) {
	source := &countingFetch{rows: []record{{ID: "a"}}}
	cache, err := New(time.Minute, source.fetch)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	lookup := func(context.Context, record) (record, error) {
		t.Fatalf("lookup should not be called")
		return record{}, nil
	}

	if err := cache.RefetchOne(context.Background(), byID("a"), lookup); err != nil {
		t.Fatalf("RefetchOne() on absent snapshot error = %v", err)
	}
	if _, ok := cache.Peek(); ok {
		t.Fatalf("RefetchOne() populated the snapshot")
	}

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := cache.RefetchOne(context.Background(), byID("zzz"), lookup); err != nil {
		t.Fatalf("RefetchOne() without match error = %v", err)
	}
}

func TestFetchFailureWithoutSnapshotRetries(t *testing.T) {
	source := &countingFetch{}
	fetchErr := errors.New("database offline")
	source.set(nil, fetchErr)

	cache, err := New(time.Minute, source.fetch)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := cache.Get(context.Background()); !errors.Is(err, fetchErr) {
		t.Fatalf("Get() error = %v, want %v", err, fetchErr)
	}

	source.set([]record{{ID: "a"}}, nil)
	got, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() after recovery error = %v", err)
	}
	if !slices.Equal(ids(got), []string{"a"}) {
		t.Fatalf("Get() = %v", ids(got))
	}
	if calls := source.calls.Load(); calls != 2 {
		t.Fatalf("fetch calls = %d, want 2", calls)
	}
	if stats := cache.Stats(); stats.FetchErrors != 1 {
		t.Fatalf("Stats().FetchErrors = %d, want 1", stats.FetchErrors)
	}
}

func TestCoalescedFetchFailureReachesEveryWaiter(t *testing.T) {
	release := make(chan struct{})
	fetchErr := errors.New("database offline")
	var calls atomic.Int32
	var failing atomic.Bool
	failing.Store(true)
	cache, err := New(time.Hour, func(context.Context) ([]record, error) {
		calls.Add(1)
		if failing.Load() {
			<-release
			return nil, fetchErr
		}
		return []record{{ID: "a"}}, nil
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const readers = 16
	errsOut := make([]error, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errsOut[i] = cache.Get(context.Background())
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("fetch calls = %d, want 1", got)
	}
	for i, err := range errsOut {
		if !errors.Is(err, fetchErr) {
			t.Fatalf("Get()[%d] error = %v, want %v", i, err, fetchErr)
		}
	}
	if _, ok := cache.Peek(); ok {
		t.Fatalf("Peek() reported a snapshot after failed fetch")
	}

	failing.Store(false)
	got, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() after failure error = %v", err)
	}
	if !slices.Equal(ids(got), []string{"a"}) {
		t.Fatalf("Get() = %v", ids(got))
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("fetch calls = %d, want 2", got)
	}
}

func TestFetchFailureKeepsPreviousSnapshot(t *testing.T) {
	clock := newFakeClock()
	source := &countingFetch{rows: []record{{ID: "a"}, {ID: "b"}}}
	cache, err := New(time.Second, source.fetch, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	clock.Advance(2 * time.Second)
	source.set(nil, errors.New("timeout"))
	if _, err := cache.Get(ctx); err == nil {
		t.Fatalf("Get() expected fetch error")
	}

	previous, ok := cache.Peek()
	if !ok || !slices.Equal(ids(previous), []string{"a", "b"}) {
		t.Fatalf("Peek() = %v, %v", ids(previous), ok)
	}

	source.set([]record{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil)
	got, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get() after recovery error = %v", err)
	}
	if !slices.Equal(ids(got), []string{"a", "b", "c"}) {
		t.Fatalf("Get() = %v", ids(got))
	}
}

func TestGetCallerCancellationDoesNotAbortSharedFetch(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	cache, err := New(time.Hour, func(ctx context.Context) ([]record, error) {
		calls.Add(1)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []record{{ID: "a"}}, nil
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cache.Get(ctx)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Get() error = %v, want context.Canceled", err)
	}

	close(release)
	got, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !slices.Equal(ids(got), []string{"a"}) {
		t.Fatalf("Get() = %v", ids(got))
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("fetch calls = %d, want 1", n)
	}
}

func TestInvalidateForcesFetch(t *testing.T) {
	cache, source := newPrimedCache(t, record{ID: "a"})

	cache.Invalidate()
	if _, ok := cache.Peek(); ok {
		t.Fatalf("Peek() ok = true after Invalidate")
	}
	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if calls := source.calls.Load(); calls != 2 {
		t.Fatalf("fetch calls = %d, want 2", calls)
	}
}

type recordingObserver struct {
	hits, misses, fetches, failures int
}

func (o *recordingObserver) Hit()  { o.hits++ }
func (o *recordingObserver) Miss() { o.misses++ }
func (o *recordingObserver) Fetched(_ time.Duration, err error) {
	o.fetches++
	if err != nil {
		o.failures++
	}
}

func TestObserverReceivesEvents(t *testing.T) {
	observer := &recordingObserver{}
	source := &countingFetch{rows: []record{{ID: "a"}}}
	cache, err := New(time.Minute, source.fetch, WithObserver(observer))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := cache.Get(context.Background()); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
	}

	if observer.misses != 1 || observer.hits != 2 || observer.fetches != 1 || observer.failures != 0 {
		t.Fatalf("observer = %+v", observer)
	}
}
