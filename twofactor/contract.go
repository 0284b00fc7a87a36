// SPDX-License-Identifier: ice License 1.0

package twofactor

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	storage "github.com/ice-blockchain/warden/connectors/storage/v2"
	"github.com/ice-blockchain/warden/time"
	"github.com/ice-blockchain/warden/totp"
	"github.com/ice-blockchain/warden/users"
)

// Public API.

const (
	StateUnset               State = "UNSET"
	StatePendingVerification State = "PENDING_VERIFICATION"
	StateEnabled             State = "ENABLED"

	DefaultBackupCodeHashCost = bcrypt.DefaultCost
)

var (
	ErrNotFound         = users.ErrNotFound
	ErrInvalidCode      = errors.New("invalid two factor code")
	ErrNotSetup         = errors.New("two factor authentication is not set up")
	ErrNotEnabled       = errors.New("two factor authentication is not enabled")
	ErrConcurrentUpdate = errors.New("two factor state was modified concurrently")
)

type (
	State string
	// Enrollment is the only place the secret and the plaintext backup codes are ever handed out.
	Enrollment struct {
		Secret          string   `json:"secret"`
		ProvisioningURI string   `json:"provisioningUri"`
		QRCode          []byte   `json:"qrCode"`
		BackupCodes     []string `json:"backupCodes"`
	}
	Status struct {
		State                State `json:"state"`
		Enabled              bool  `json:"enabled"`
		BackupCodesRemaining int   `json:"backupCodesRemaining"`
	}
	// Manager drives the Unset -> PendingVerification -> Enabled lifecycle of a user's second factor.
	// Mutations of the same user are serialized by a Locker and guarded by the record version,
	// a lost race fails with ErrConcurrentUpdate and is never retried.
	Manager interface {
		// Setup generates a new secret and backup codes, leaving 2FA disabled until VerifyAndEnable.
		Setup(ctx context.Context, userID int64) (*Enrollment, error)
		VerifyAndEnable(ctx context.Context, userID int64, totpCode string) error
		// Disable is idempotent.
		Disable(ctx context.Context, userID int64) error
		Status(ctx context.Context, userID int64) (*Status, error)
		// VerifyLogin checks the second factor of an enabled user.
		VerifyLogin(ctx context.Context, userID int64, totpCode string) error
		// RedeemBackupCode consumes a matching unused backup code.
		RedeemBackupCode(ctx context.Context, userID int64, backupCode string) error
		RegenerateBackupCodes(ctx context.Context, userID int64) ([]string, error)
	}
	// Locker grants exclusive access to one user's two factor state.
	Locker interface {
		Lock(ctx context.Context, userID int64) (unlock func(), err error)
	}
)

// Private API.

const (
	lockStripes      = 256
	advisoryLockName = "warden/twofactor/"
)

type (
	manager struct {
		store  users.Store
		engine totp.TOTP
		locker Locker
		now    func() *time.Time
		cost   int
	}
	stripedLocker struct {
		stripes [lockStripes]sync.Mutex
	}
	advisoryLocker struct {
		db *storage.DB
	}
	config struct {
		WardenTwoFactor struct {
			BackupCodeHashCost int `yaml:"backupCodeHashCost" mapstructure:"backupCodeHashCost"`
		} `yaml:"warden/twofactor" mapstructure:"warden/twofactor"` //nolint:tagliatelle // Nope.
	}
)
