// SPDX-License-Identifier: ice License 1.0

package users

import (
	"context"
	_ "embed"
	"io"
	"sync"

	"github.com/pkg/errors"

	storage "github.com/ice-blockchain/warden/connectors/storage/v2"
	"github.com/ice-blockchain/warden/privacy"
)

// Public API.

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrVersionConflict = errors.New("user record was modified concurrently")
	ErrDuplicate       = errors.New("user already exists")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidPassword = errors.New("invalid password")
)

type (
	Role string
	// Record is the subset of the user account the auth core reads and writes.
	// Version is incremented by every successful Save and must match the stored one.
	Record struct {
		// PasswordHash is a bcrypt hash, nil for accounts that cannot log in with a password.
		PasswordHash     *string  `db:"password_hash"`
		TwoFactorSecret  *string  `db:"two_factor_secret"`
		Email            string   `db:"email"`
		Role             Role     `db:"role"`
		BackupCodes      []string `db:"backup_codes"`
		ID               int64    `db:"id"`
		Version          int64    `db:"version"`
		TwoFactorEnabled bool     `db:"two_factor_enabled"`
	}
	Reader interface {
		Get(ctx context.Context, id int64) (*Record, error)
		GetByEmail(ctx context.Context, email string) (*Record, error)
	}
	Store interface {
		Reader
		// Save fails with ErrVersionConflict if the record changed since it was read.
		Save(ctx context.Context, rec *Record) error
	}
	Repository interface {
		Store
		io.Closer
		Create(ctx context.Context, rec *Record) error
	}
)

// Private API.

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
)

var (
	//go:embed DDL.sql
	ddl string

	_ Repository = (*memoryStore)(nil)
	_ Repository = (*postgresStore)(nil)
)

type (
	memoryStore struct {
		byID    map[int64]*Record
		byEmail map[string]int64
		mx      sync.RWMutex
	}
	postgresStore struct {
		db      *storage.DB
		secrets privacy.EncryptDecrypter
	}
)
