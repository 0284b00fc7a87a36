// SPDX-License-Identifier: ice License 1.0

package twofactor

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storage "github.com/ice-blockchain/warden/connectors/storage/v2"
	"github.com/ice-blockchain/warden/connectors/storage/v2/fixture"
)

func TestInMemoryLocker(t *testing.T) {
	t.Parallel()
	testLocker(t, NewInMemoryLocker())
}

func TestAdvisoryLocker(t *testing.T) {
	t.Parallel()
	container := fixture.MustStart(t)
	url, drop := container.MustTempDB(t.Context())
	t.Cleanup(drop)
	db := storage.MustConnectWithConfig(t.Context(), "", &storage.Config{PrimaryURL: url})
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	testLocker(t, NewAdvisoryLocker(db))
}

func testLocker(t *testing.T, locker Locker) {
	t.Helper()
	const workers = 10
	var (
		wg                sync.WaitGroup
		inside, maxInside atomic.Int64
	)
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(t.Context(), testUserID)
			if !assert.NoError(t, err) {
				return
			}
			current := inside.Add(1)
			for {
				seen := maxInside.Load()
				if current <= seen || maxInside.CompareAndSwap(seen, current) {
					break
				}
			}
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, maxInside.Load())

	unlock, err := locker.Lock(t.Context(), testUserID)
	require.NoError(t, err)
	unlock()
}
