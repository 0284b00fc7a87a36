// SPDX-License-Identifier: ice License 1.0

package storage

import (
	"context"
	"sync"
	"testing"
	stdlibtime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ice-blockchain/warden/connectors/storage/v2/fixture"
)

const testDDL = `
CREATE TABLE IF NOT EXISTS bogus
(
    a  text not null primary key,
    b  integer not null check (b >= 0),
    c  text unique
);
----
CREATE TABLE IF NOT EXISTS bogus_child
(
    a  text not null references bogus(a)
);`

type bogus struct {
	C *string `db:"c"`
	A string  `db:"a"`
	B int     `db:"b"`
}

func mustConnectToTempDB(t *testing.T) *DB {
	t.Helper()
	container := fixture.MustStart(t)
	url, drop := container.MustTempDB(t.Context())
	db := MustConnectWithConfig(t.Context(), testDDL, &Config{PrimaryURL: url, RunDDL: true})
	t.Cleanup(func() {
		require.NoError(t, db.Close())
		drop()
	})

	return db
}

func TestAPI(t *testing.T) { //nolint:funlen // .
	t.Parallel()
	db := mustConnectToTempDB(t)
	ctx := t.Context()
	require.NoError(t, db.Ping(ctx))

	inserted, err := ExecOne[bogus](ctx, db, `INSERT INTO bogus(a,b,c) VALUES ($1,$2,$3) RETURNING *`, "a1", 1, "c1")
	require.NoError(t, err)
	c1 := "c1"
	assert.Equal(t, &bogus{A: "a1", B: 1, C: &c1}, inserted)

	affected, err := Exec(ctx, db, `INSERT INTO bogus(a,b) VALUES ($1,$2)`, "a2", 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), affected)

	got, err := Get[bogus](ctx, db, `SELECT * FROM bogus WHERE a = $1`, "a2")
	require.NoError(t, err)
	assert.Equal(t, &bogus{A: "a2", B: 2}, got)

	all, err := Select[bogus](ctx, db, `SELECT * FROM bogus ORDER BY a`)
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = Get[bogus](ctx, db, `SELECT * FROM bogus WHERE a = $1`, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = Exec(ctx, db, `INSERT INTO bogus(a,b) VALUES ($1,$2)`, "a1", 3)
	require.ErrorIs(t, err, ErrDuplicate)
	assert.True(t, IsErr(err, ErrDuplicate, "pk"))

	_, err = Exec(ctx, db, `INSERT INTO bogus(a,b,c) VALUES ($1,$2,$3)`, "a3", 3, "c1")
	assert.True(t, IsErr(err, ErrDuplicate, "c"))

	_, err = Exec(ctx, db, `INSERT INTO bogus(a,b) VALUES ($1,$2)`, "a4", -1)
	require.ErrorIs(t, err, ErrCheckFailed)

	_, err = Exec(ctx, db, `INSERT INTO bogus_child(a) VALUES ($1)`, "missing")
	assert.True(t, IsErr(err, ErrRelationNotFound, "a"))

	require.NoError(t, DoInTransaction(ctx, db, func(conn QueryExecer) error {
		_, tErr := Exec(ctx, conn, `UPDATE bogus SET b = b + 10 WHERE a = $1`, "a1")

		return tErr
	}))
	got, err = Get[bogus](ctx, db, `SELECT * FROM bogus WHERE a = $1`, "a1")
	require.NoError(t, err)
	assert.Equal(t, 11, got.B)
}

func TestMutex(t *testing.T) {
	t.Parallel()
	db := mustConnectToTempDB(t)
	ctx, cancel := context.WithTimeout(t.Context(), 30*stdlibtime.Second)
	defer cancel()

	first, second := NewMutex(db, "user:1"), NewMutex(db, "user:1")
	require.NoError(t, first.Lock(ctx))
	require.ErrorIs(t, second.TryLock(ctx), ErrMutexNotLocked)
	other := NewMutex(db, "user:2")
	require.NoError(t, other.TryLock(ctx))
	require.NoError(t, other.Unlock(ctx))

	var wg sync.WaitGroup
	acquired := make(chan struct{})
	wg.Go(func() {
		assert.NoError(t, second.Lock(ctx))
		close(acquired)
	})
	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first one is held")
	case <-stdlibtime.After(200 * stdlibtime.Millisecond):
	}
	require.NoError(t, first.Unlock(ctx))
	wg.Wait()
	<-acquired
	require.NoError(t, second.Unlock(ctx))
	require.ErrorIs(t, second.Unlock(ctx), ErrMutexNotLocked)
}
