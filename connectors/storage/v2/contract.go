// SPDX-License-Identifier: ice License 1.0

package storage

import (
	"context"
	"io"
	stdlibtime "time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Public API.

var (
	ErrNotFound         = errors.New("not found")
	ErrRelationNotFound = errors.New("relation not found")
	ErrDuplicate        = errors.New("duplicate")
	ErrCheckFailed      = errors.New("check failed")
	ErrSerialization    = errors.New("serialization failure")
	ErrMutexNotLocked   = errors.New("mutex not locked")
)

type (
	DB struct {
		master *pgxpool.Pool
		lb     *lb
	}
	// Mutex is a session level advisory lock held on a dedicated connection.
	Mutex interface {
		// Lock blocks until the lock is acquired or ctx is done.
		Lock(ctx context.Context) error
		// TryLock fails with ErrMutexNotLocked if somebody else holds the lock.
		TryLock(ctx context.Context) error
		Unlock(ctx context.Context) error
	}
	Config struct {
		PrimaryURL        string              `yaml:"primaryURL" mapstructure:"primaryURL"`   //nolint:tagliatelle // Nope.
		ReplicaURLs       []string            `yaml:"replicaURLs" mapstructure:"replicaURLs"` //nolint:tagliatelle // Nope.
		RunDDL            bool                `yaml:"runDDL" mapstructure:"runDDL"`           //nolint:tagliatelle // Nope.
		ConnectionTimeout stdlibtime.Duration `yaml:"connectionTimeout" mapstructure:"connectionTimeout"`
	}
)

// Private API.

const (
	ddlStatementSeparator    = "----"
	defaultConnectionTimeout = 30 * stdlibtime.Second
)

var (
	_ io.Closer = (*DB)(nil)
)

type (
	lb struct {
		replicas     []*pgxpool.Pool
		currentIndex uint64
	}
	config struct {
		WardenStorage Config `yaml:"warden/connectors/storage/v2" mapstructure:"warden/connectors/storage/v2"` //nolint:tagliatelle // Nope.
	}
	advisoryLockMutex struct {
		conn *pgxpool.Conn
		db   *DB
		id   int64
	}
)
