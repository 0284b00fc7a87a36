// SPDX-License-Identifier: ice License 1.0

package twofactor

import (
	"context"
	"encoding/binary"
	"strconv"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"

	storage "github.com/ice-blockchain/warden/connectors/storage/v2"
	"github.com/ice-blockchain/warden/log"
)

// NewInMemoryLocker serializes users of one process. Distinct users may share a stripe.
func NewInMemoryLocker() Locker {
	return new(stripedLocker)
}

// NewAdvisoryLocker serializes users across every instance sharing the database.
func NewAdvisoryLocker(db *storage.DB) Locker {
	return &advisoryLocker{db: db}
}

func (l *stripedLocker) Lock(_ context.Context, userID int64) (func(), error) {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], uint64(userID)) //nolint:gosec // Just hashing bits.
	mx := &l.stripes[xxh3.Hash(key[:])%lockStripes]
	mx.Lock()

	return mx.Unlock, nil
}

func (l *advisoryLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	mx := storage.NewMutex(l.db, advisoryLockName+strconv.FormatInt(userID, 10))
	if err := mx.Lock(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to acquire advisory lock for user %v", userID)
	}

	return func() {
		log.Error(errors.Wrapf(mx.Unlock(context.WithoutCancel(ctx)), "failed to release advisory lock for user %v", userID))
	}, nil
}
