// SPDX-License-Identifier: ice License 1.0

package totp

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/ice-blockchain/warden/base32"
)

// NewSecret draws SecretSize bytes from the system CSPRNG.
func NewSecret() (string, error) {
	key := make([]byte, SecretSize)
	if _, err := rand.Read(key); err != nil {
		return "", errors.Wrap(err, "failed to read random secret")
	}

	return base32.Encode(key), nil
}

// NewBackupCodes returns BackupCodesCount independently drawn, zero padded, 8 digit codes.
// Duplicates are possible and tolerated.
func NewBackupCodes() ([]string, error) {
	upperBound := big.NewInt(backupCodeUpperBound)
	codes := make([]string, 0, BackupCodesCount)
	for range BackupCodesCount {
		n, err := rand.Int(rand.Reader, upperBound)
		if err != nil {
			return nil, errors.Wrap(err, "failed to draw random backup code")
		}
		codes = append(codes, fmt.Sprintf("%0*d", BackupCodeDigits, n.Int64()))
	}

	return codes, nil
}
