// SPDX-License-Identifier: ice License 1.0

package twofactor

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/ice-blockchain/warden/totp"
	"github.com/ice-blockchain/warden/users"
)

var errUnchanged = errors.New("unchanged")

func (m *manager) RedeemBackupCode(ctx context.Context, userID int64, backupCode string) error {
	return errors.Wrapf(m.mutate(ctx, userID, func(rec *users.Record) error {
		if !rec.TwoFactorEnabled || !rec.HasTwoFactorSecret() {
			return ErrNotEnabled
		}
		if !isBackupCode(backupCode) {
			return ErrInvalidCode
		}
		ix := slices.IndexFunc(rec.BackupCodes, func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte(backupCode)) == nil
		})
		if ix < 0 {
			return ErrInvalidCode
		}
		rec.BackupCodes = slices.Delete(rec.BackupCodes, ix, ix+1)

		return nil
	}), "failed to redeem backup code of user %v", userID)
}

func (m *manager) RegenerateBackupCodes(ctx context.Context, userID int64) ([]string, error) {
	codes, hashes, err := m.newBackupCodes()
	if err != nil {
		return nil, err
	}
	if err = m.mutate(ctx, userID, func(rec *users.Record) error {
		if !rec.TwoFactorEnabled || !rec.HasTwoFactorSecret() {
			return ErrNotEnabled
		}
		rec.BackupCodes = hashes

		return nil
	}); err != nil {
		return nil, errors.Wrapf(err, "failed to regenerate backup codes of user %v", userID)
	}

	return codes, nil
}

func (m *manager) newBackupCodes() (codes, hashes []string, err error) {
	if codes, err = totp.NewBackupCodes(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to generate backup codes")
	}
	hashes = make([]string, 0, len(codes))
	for _, code := range codes {
		hash, hErr := bcrypt.GenerateFromPassword([]byte(code), m.cost)
		if hErr != nil {
			return nil, nil, errors.Wrap(hErr, "failed to hash backup code")
		}
		hashes = append(hashes, string(hash))
	}

	return codes, hashes, nil
}

func isBackupCode(code string) bool {
	if len(code) != totp.BackupCodeDigits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
