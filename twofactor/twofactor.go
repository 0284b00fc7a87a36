// SPDX-License-Identifier: ice License 1.0

package twofactor

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	appCfg "github.com/ice-blockchain/warden/config"
	"github.com/ice-blockchain/warden/log"
	"github.com/ice-blockchain/warden/time"
	"github.com/ice-blockchain/warden/totp"
	"github.com/ice-blockchain/warden/users"
)

func New(applicationYAMLKey string, store users.Store, engine totp.TOTP, locker Locker) Manager {
	var cfg config
	appCfg.MustLoadFromKey(applicationYAMLKey, &cfg)

	return newManager(store, engine, locker, cfg.WardenTwoFactor.BackupCodeHashCost, time.Now)
}

func newManager(store users.Store, engine totp.TOTP, locker Locker, cost int, now func() *time.Time) *manager {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBackupCodeHashCost
	}
	if locker == nil {
		locker = NewInMemoryLocker()
	}

	return &manager{store: store, engine: engine, locker: locker, cost: cost, now: now}
}

func (m *manager) Setup(ctx context.Context, userID int64) (*Enrollment, error) {
	secret, err := totp.NewSecret()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate totp secret")
	}
	codes, hashes, err := m.newBackupCodes()
	if err != nil {
		return nil, err
	}
	var enrollment *Enrollment
	err = m.mutate(ctx, userID, func(rec *users.Record) error {
		uri := m.engine.GenerateURI(secret, rec.Email)
		qrCode, qErr := m.engine.GenerateQRCode(uri)
		if qErr != nil {
			return errors.Wrap(qErr, "failed to render qr code")
		}
		rec.TwoFactorSecret, rec.TwoFactorEnabled, rec.BackupCodes = &secret, false, hashes
		enrollment = &Enrollment{Secret: secret, ProvisioningURI: uri, QRCode: qrCode, BackupCodes: codes}

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to setup 2fa for user %v", userID)
	}

	return enrollment, nil
}

func (m *manager) VerifyAndEnable(ctx context.Context, userID int64, totpCode string) error {
	return errors.Wrapf(m.mutate(ctx, userID, func(rec *users.Record) error {
		if !rec.HasTwoFactorSecret() {
			return ErrNotSetup
		}
		if !m.engine.Verify(m.now(), *rec.TwoFactorSecret, totpCode) {
			return ErrInvalidCode
		}
		if rec.TwoFactorEnabled {
			return errUnchanged
		}
		rec.TwoFactorEnabled = true
		log.Info("2fa enabled", "userId", userID)

		return nil
	}), "failed to verify and enable 2fa for user %v", userID)
}

func (m *manager) Disable(ctx context.Context, userID int64) error {
	return errors.Wrapf(m.mutate(ctx, userID, func(rec *users.Record) error {
		if !rec.HasTwoFactorSecret() && !rec.TwoFactorEnabled && len(rec.BackupCodes) == 0 {
			return errUnchanged
		}
		rec.TwoFactorSecret, rec.TwoFactorEnabled, rec.BackupCodes = nil, false, nil
		log.Info("2fa disabled", "userId", userID)

		return nil
	}), "failed to disable 2fa for user %v", userID)
}

func (m *manager) Status(ctx context.Context, userID int64) (*Status, error) {
	rec, err := m.store.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get user %v", userID)
	}
	status := &Status{State: StateUnset, Enabled: rec.TwoFactorEnabled && rec.HasTwoFactorSecret()}
	switch {
	case status.Enabled:
		status.State = StateEnabled
		status.BackupCodesRemaining = len(rec.BackupCodes)
	case rec.HasTwoFactorSecret():
		status.State = StatePendingVerification
		status.BackupCodesRemaining = len(rec.BackupCodes)
	}

	return status, nil
}

func (m *manager) VerifyLogin(ctx context.Context, userID int64, totpCode string) error {
	rec, err := m.store.Get(ctx, userID)
	if err != nil {
		return errors.Wrapf(err, "failed to get user %v", userID)
	}
	if !rec.TwoFactorEnabled || !rec.HasTwoFactorSecret() {
		return errors.Wrapf(ErrNotEnabled, "user %v", userID)
	}
	if !m.engine.Verify(m.now(), *rec.TwoFactorSecret, totpCode) {
		return errors.Wrapf(ErrInvalidCode, "user %v", userID)
	}

	return nil
}

// mutate runs fn on a fresh copy of the record under the user's lock and saves the result.
// fn returning errUnchanged skips the save.
func (m *manager) mutate(ctx context.Context, userID int64, fn func(*users.Record) error) error {
	unlock, err := m.locker.Lock(ctx, userID)
	if err != nil {
		return errors.Wrapf(err, "failed to lock user %v", userID)
	}
	defer unlock()
	rec, err := m.store.Get(ctx, userID)
	if err != nil {
		return errors.Wrapf(err, "failed to get user %v", userID)
	}
	if err = fn(rec); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}

		return err
	}
	if err = m.store.Save(ctx, rec); err != nil {
		if errors.Is(err, users.ErrVersionConflict) {
			return errors.Wrapf(ErrConcurrentUpdate, "%v", err)
		}

		return errors.Wrapf(err, "failed to save user %v", userID)
	}

	return nil
}
