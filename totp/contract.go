// SPDX-License-Identifier: ice License 1.0

package totp

import (
	"github.com/pkg/errors"

	"github.com/ice-blockchain/warden/time"
	"github.com/ice-blockchain/warden/totp/internal"
)

// Public API.

const (
	DigitsInCode      = internal.DigitsInCode
	Period            = internal.RotationDuration
	SecretSize        = 20
	BackupCodesCount  = 10
	BackupCodeDigits  = 8
	DefaultIssuer     = "Microservices Platform"
	DefaultQRCodeSize = 200
)

var ErrTimeStepOutOfRange = errors.New("time step out of range")

type (
	TOTP interface {
		Generator
		Verifier
		Provisioner
	}
	Generator interface {
		// GenerateCode returns the code of the given time step (floor(unix/30)).
		// Steps above math.MaxInt fail with ErrTimeStepOutOfRange.
		GenerateCode(userSecret string, timeStep uint64) (string, error)
	}
	Verifier interface {
		// Verify accepts codes of the previous, the current and the next time step only.
		Verify(now *time.Time, userSecret, totpCode string) bool
	}
	Provisioner interface {
		GenerateURI(userSecret, account string) string
		GenerateQRCode(uri string) ([]byte, error)
	}
)

// Private API.

const (
	backupCodeUpperBound = 100_000_000
)

type (
	totp struct {
		generator internal.Generator
		cfg       *config
	}
	config struct {
		WardenTOTP struct {
			Issuer     string `yaml:"issuer" mapstructure:"issuer"`
			QRCodeSize int    `yaml:"qrCodeSize" mapstructure:"qrCodeSize"`
		} `yaml:"warden/totp" mapstructure:"warden/totp"` //nolint:tagliatelle // .
	}
)
