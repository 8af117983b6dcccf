package neows

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/impact-sim/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.October, 4, 12, 0, 0, 0, time.UTC)

// --- mock for cache tests ---

type countingFeed struct {
	calls int
	feed  Feed
	err   error
}

func (m *countingFeed) Feed(_ context.Context, _, _ string) (Feed, error) {
	m.calls++
	return m.feed, m.err
}

// gatedFeed blocks every call until release is closed.
type gatedFeed struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (g *gatedFeed) Feed(_ context.Context, _, _ string) (Feed, error) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
	}
	<-g.release
	return feedWith("2099942"), nil
}

// ctxFeed blocks until release is closed or the request context ends.
type ctxFeed struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (f *ctxFeed) Feed(ctx context.Context, _, _ string) (Feed, error) {
	if f.calls.Add(1) == 1 {
		close(f.entered)
	}
	select {
	case <-f.release:
		return feedWith("2099942"), nil
	case <-ctx.Done():
		return Feed{}, ctx.Err()
	}
}

func feedWith(id string) Feed {
	return Feed{NearEarthObjects: map[string][]NearEarthObject{
		"2025-10-04": {{ID: id, Name: id}},
	}}
}

// --- CachedFeed tests ---

func TestCachedFeed_Hit(t *testing.T) {
	inner := &countingFeed{feed: feedWith("2000433")}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedFeed(inner, 4, 5*time.Minute, clockwork.NewFakeClockAt(testNow), metrics)

	f1, err := cached.Feed(context.Background(), "2025-10-04", "2025-10-05")
	require.NoError(t, err)
	f2, err := cached.Feed(context.Background(), "2025-10-04", "2025-10-05")
	require.NoError(t, err)

	assert.Equal(t, f1, f2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.FeedCache.WithLabelValues("hit")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.FeedCache.WithLabelValues("miss")), 1e-9)
}

func TestCachedFeed_ExpiresAfterTTL(t *testing.T) {
	inner := &countingFeed{feed: feedWith("2000433")}
	clock := clockwork.NewFakeClockAt(testNow)
	cached := NewCachedFeed(inner, 4, 5*time.Minute, clock, observability.NewMetricsForTesting())

	_, _ = cached.Feed(context.Background(), "2025-10-04", "2025-10-05")
	clock.Advance(4 * time.Minute)
	_, _ = cached.Feed(context.Background(), "2025-10-04", "2025-10-05")
	assert.Equal(t, 1, inner.calls)

	clock.Advance(time.Minute)
	_, _ = cached.Feed(context.Background(), "2025-10-04", "2025-10-05")
	assert.Equal(t, 2, inner.calls, "entry older than the TTL is refetched")
}

func TestCachedFeed_DifferentWindowsMiss(t *testing.T) {
	inner := &countingFeed{feed: feedWith("2000433")}
	cached := NewCachedFeed(inner, 4, time.Minute, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting())

	_, _ = cached.Feed(context.Background(), "2025-10-04", "2025-10-05")
	_, _ = cached.Feed(context.Background(), "2025-10-05", "2025-10-06")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedFeed_ErrorsNotCached(t *testing.T) {
	inner := &countingFeed{err: errors.New("rate limited")}
	cached := NewCachedFeed(inner, 4, time.Minute, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting())

	_, err := cached.Feed(context.Background(), "2025-10-04", "2025-10-05")
	require.Error(t, err)

	inner.err = nil
	inner.feed = feedWith("2000433")
	_, err = cached.Feed(context.Background(), "2025-10-04", "2025-10-05")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedFeed_ConcurrentMissesShareRequest(t *testing.T) {
	inner := &gatedFeed{entered: make(chan struct{}), release: make(chan struct{})}
	cached := NewCachedFeed(inner, 4, time.Minute, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting())

	var wg sync.WaitGroup
	results := make([]Feed, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = cached.Feed(context.Background(), "2025-10-04", "2025-10-05")
	}()
	<-inner.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = cached.Feed(context.Background(), "2025-10-04", "2025-10-05")
	}()
	// Give the second caller time to join the in-flight request.
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Equal(t, results[0], results[1])
}

func TestCachedFeed_CanceledCallerDoesNotFailOthers(t *testing.T) {
	inner := &ctxFeed{entered: make(chan struct{}), release: make(chan struct{})}
	cached := NewCachedFeed(inner, 4, time.Minute, clockwork.NewFakeClockAt(testNow), observability.NewMetricsForTesting())

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := cached.Feed(ctxA, "2025-10-04", "2025-10-05")
		errA <- err
	}()
	<-inner.entered

	type result struct {
		feed Feed
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		f, err := cached.Feed(context.Background(), "2025-10-04", "2025-10-05")
		resB <- result{f, err}
	}()
	// Give the second caller time to join the in-flight request.
	time.Sleep(50 * time.Millisecond)

	cancelA()
	require.ErrorIs(t, <-errA, context.Canceled)

	close(inner.release)
	got := <-resB
	require.NoError(t, got.err)
	assert.Equal(t, feedWith("2099942"), got.feed)
	assert.Equal(t, int32(1), inner.calls.Load())

	cachedFeed, err := cached.Feed(context.Background(), "2025-10-04", "2025-10-05")
	require.NoError(t, err)
	assert.Equal(t, feedWith("2099942"), cachedFeed)
	assert.Equal(t, int32(1), inner.calls.Load(), "the shared result is cached")
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3, time.Hour, clockwork.NewFakeClockAt(testNow))

	c.put("a", feedWith("A"))
	c.put("b", feedWith("B"))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, feedWith("A"), result)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2, time.Hour, clockwork.NewFakeClockAt(testNow))

	c.put("a", feedWith("A"))
	c.put("b", feedWith("B"))
	c.put("c", feedWith("C")) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	_, ok = c.get("b")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2, time.Hour, clockwork.NewFakeClockAt(testNow))

	c.put("a", feedWith("A"))
	c.put("b", feedWith("B"))

	c.get("a")

	// "b" is now least recently used.
	c.put("c", feedWith("C"))

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateRefreshesExpiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	c := newLRUCache(2, time.Minute, clock)

	c.put("a", feedWith("A1"))
	clock.Advance(50 * time.Second)
	c.put("a", feedWith("A2"))
	clock.Advance(50 * time.Second)

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, feedWith("A2"), result)
}
