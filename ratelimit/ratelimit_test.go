// SPDX-License-Identifier: ice License 1.0

package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	stdlibtime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storage "github.com/ice-blockchain/warden/connectors/storage/v3"
	"github.com/ice-blockchain/warden/connectors/storage/v3/fixture"
	"github.com/ice-blockchain/warden/terror"
	wardentesting "github.com/ice-blockchain/warden/testing"
)

const testApplicationYAMLKey = "self"

func newTestLimiter(tb testing.TB, limit int, window stdlibtime.Duration) (Limiter, *wardentesting.Clock) {
	tb.Helper()
	clock := wardentesting.NewClock(stdlibtime.Date(2026, 1, 1, 0, 0, 0, 0, stdlibtime.UTC))
	lim := NewInMemory(limit, window, clock.Now)
	tb.Cleanup(func() { require.NoError(tb, lim.Close()) })

	return lim, clock
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()
	lim := New(t.Context(), testApplicationYAMLKey)
	defer func() { require.NoError(t, lim.Close()) }()

	md, err := lim.Check(t.Context(), t.Name())
	require.NoError(t, err)
	assert.Equal(t, &Metadata{Limit: DefaultLimit, WindowSeconds: 60, Remaining: DefaultLimit - 1, ResetSeconds: 60}, md)
}

func TestAllow(t *testing.T) {
	t.Parallel()
	lim, clock := newTestLimiter(t, 5, stdlibtime.Minute)
	for range 5 {
		allowed, err := lim.Allow(t.Context(), "ip")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := lim.Allow(t.Context(), "ip")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = lim.Allow(t.Context(), "other-ip")
	require.NoError(t, err)
	assert.True(t, allowed)

	clock.Advance(stdlibtime.Minute)
	allowed, err = lim.Allow(t.Context(), "ip")
	require.NoError(t, err)
	assert.False(t, allowed, "window resets only after more than its length elapsed")

	clock.Advance(stdlibtime.Millisecond)
	allowed, err = lim.Allow(t.Context(), "ip")
	require.NoError(t, err)
	assert.True(t, allowed)
	remaining, err := lim.Remaining(t.Context(), "ip")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestRemainingAndResetIn(t *testing.T) {
	t.Parallel()
	lim, clock := newTestLimiter(t, 3, stdlibtime.Minute)

	remaining, err := lim.Remaining(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
	resetIn, err := lim.ResetIn(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, 60, resetIn)

	for range 5 {
		_, err = lim.Allow(t.Context(), "k")
		require.NoError(t, err)
	}
	remaining, err = lim.Remaining(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
	remaining, err = lim.Remaining(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining, "peeking does not count")

	clock.Advance(20*stdlibtime.Second + 500*stdlibtime.Millisecond)
	resetIn, err = lim.ResetIn(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, 39, resetIn)

	clock.Advance(40 * stdlibtime.Second)
	remaining, err = lim.Remaining(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
	resetIn, err = lim.ResetIn(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, 60, resetIn)
}

func TestCheck(t *testing.T) {
	t.Parallel()
	lim, _ := newTestLimiter(t, 2, 30*stdlibtime.Second)
	md, err := lim.Check(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, &Metadata{Limit: 2, WindowSeconds: 30, Remaining: 1, ResetSeconds: 30}, md)
	md, err = lim.Check(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, 0, md.Remaining)

	md, err = lim.Check(t.Context(), "k")
	require.ErrorIs(t, err, ErrRateLimited)
	require.NotNil(t, md)
	assert.Equal(t, map[string]any{"limit": 2, "windowSeconds": 30, "remaining": 0, "resetSeconds": 30}, terror.DataOf(err))
}

func TestAllowConcurrently(t *testing.T) {
	t.Parallel()
	lim, _ := newTestLimiter(t, 50, stdlibtime.Minute)
	testAllowConcurrently(t, lim)
}

func testAllowConcurrently(t *testing.T, lim Limiter) {
	t.Helper()
	const workers, keys = 200, 4
	var (
		wg      sync.WaitGroup
		allowed [keys]atomic.Int64
	)
	wg.Add(workers)
	for i := range workers {
		go func() {
			defer wg.Done()
			ok, err := lim.Allow(t.Context(), fmt.Sprint("concurrent-", i%keys))
			assert.NoError(t, err)
			if ok {
				allowed[i%keys].Add(1)
			}
		}()
	}
	wg.Wait()
	for i := range keys {
		assert.EqualValues(t, 50, allowed[i].Load())
	}
}

func TestMemoryEntryReplacedWhileWaitingForIt(t *testing.T) {
	t.Parallel()
	counter := newMemoryCounter(stdlibtime.Minute)
	t.Cleanup(func() { require.NoError(t, counter.Close()) })
	ctx, now := context.Background(), stdlibtime.Now()
	const key = "127.0.0.1/v1/auth/login"
	_, err := counter.incr(ctx, key, now, stdlibtime.Minute)
	require.NoError(t, err)

	evicted := counter.shard(key).Get(key).Value()
	evicted.mx.Lock()
	waiting := make(chan *window)
	go func() {
		win, iErr := counter.incr(ctx, key, now, stdlibtime.Minute)
		assert.NoError(t, iErr)
		waiting <- win
	}()
	stdlibtime.Sleep(50 * stdlibtime.Millisecond)
	counter.shard(key).Delete(key)
	replacement, err := counter.incr(ctx, key, now, stdlibtime.Minute)
	require.NoError(t, err)
	evicted.mx.Unlock()

	assert.ElementsMatch(t, []int64{1, 2}, []int64{replacement.count, (<-waiting).count})
	current, err := counter.peek(ctx, key, now, stdlibtime.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), current.count)
}

func TestMemoryKeysAreSpreadOverShards(t *testing.T) {
	t.Parallel()
	counter := newMemoryCounter(stdlibtime.Minute)
	t.Cleanup(func() { require.NoError(t, counter.Close()) })
	used := make(map[any]struct{}, memoryShards)
	for i := range 1000 {
		used[counter.shard(fmt.Sprintf("10.0.%v.%v/v1/auth/login", i/256, i%256))] = struct{}{}
	}
	assert.Len(t, used, memoryShards)
}

func TestRedis(t *testing.T) {
	t.Parallel()
	db := storage.MustConnectWithConfig(t.Context(), t.Name(), &storage.Config{URL: fixture.MustStartRedis(t)})
	defer func() { require.NoError(t, db.Close()) }()
	lim := NewRedis(db, 5, stdlibtime.Minute)
	defer func() { require.NoError(t, lim.Close()) }()

	remaining, err := lim.Remaining(t.Context(), "ip")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)
	for range 5 {
		allowed, aErr := lim.Allow(t.Context(), "ip")
		require.NoError(t, aErr)
		assert.True(t, allowed)
	}
	md, err := lim.Check(t.Context(), "ip")
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 0, md.Remaining)
	assert.InDelta(t, 60, md.ResetSeconds, 1)
	resetIn, err := lim.ResetIn(t.Context(), "ip")
	require.NoError(t, err)
	assert.InDelta(t, 60, resetIn, 1)

	short := NewRedis(db, 50, 300*stdlibtime.Millisecond)
	allowed, err := short.Allow(t.Context(), "short")
	require.NoError(t, err)
	assert.True(t, allowed)
	require.Eventually(t, func() bool {
		rem, rErr := short.Remaining(t.Context(), "short")

		return rErr == nil && rem == 50
	}, 5*stdlibtime.Second, 50*stdlibtime.Millisecond)

	testAllowConcurrently(t, NewRedis(db, 50, stdlibtime.Minute))
}
