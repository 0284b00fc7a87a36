// SPDX-License-Identifier: ice License 1.0

package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
)

func NewMutex(db *DB, lockID string) Mutex {
	return &advisoryLockMutex{db: db, id: int64(xxh3.HashString(lockID))} //nolint:gosec // Overflow is fine for a hash.
}

func (l *advisoryLockMutex) Lock(ctx context.Context) error {
	return l.lock(ctx, "SELECT true FROM pg_advisory_lock($1)")
}

func (l *advisoryLockMutex) TryLock(ctx context.Context) error {
	return l.lock(ctx, "SELECT pg_try_advisory_lock($1)")
}

func (l *advisoryLockMutex) lock(ctx context.Context, sql string) error {
	conn, err := l.db.primary().Acquire(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to acquire connection to DB")
	}
	var isLockAcquired bool
	if err = conn.QueryRow(ctx, sql, l.id).Scan(&isLockAcquired); err != nil {
		conn.Release()

		return errors.Wrapf(err, "failed to lock advisoryLockMutex %v", l.id)
	}
	if !isLockAcquired {
		conn.Release()

		return ErrMutexNotLocked
	}
	l.conn = conn

	return nil
}

func (l *advisoryLockMutex) Unlock(ctx context.Context) error {
	if l.conn == nil {
		return ErrMutexNotLocked
	}
	conn := l.conn
	l.conn = nil
	defer conn.Release()
	var released bool
	if err := conn.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", l.id).Scan(&released); err != nil {
		// Closing the session is the only other way to release its advisory locks.
		_ = conn.Conn().Close(context.WithoutCancel(ctx)) //nolint:errcheck // Best effort.

		return errors.Wrapf(err, "failed to pg_advisory_unlock for advisoryLockMutex %v", l.id)
	}
	if !released {
		return ErrMutexNotLocked
	}

	return nil
}
