// SPDX-License-Identifier: ice License 1.0

package totp

import (
	"crypto/subtle"
	"math"

	"github.com/pkg/errors"

	"github.com/ice-blockchain/warden/base32"
	appcfg "github.com/ice-blockchain/warden/config"
	"github.com/ice-blockchain/warden/time"
	googleauthentificator "github.com/ice-blockchain/warden/totp/internal/google_authentificator"
)

func New(applicationYamlKey string) TOTP {
	var cfg config
	appcfg.MustLoadFromKey(applicationYamlKey, &cfg)
	if cfg.WardenTOTP.Issuer == "" {
		cfg.WardenTOTP.Issuer = DefaultIssuer
	}
	if cfg.WardenTOTP.QRCodeSize <= 0 {
		cfg.WardenTOTP.QRCodeSize = DefaultQRCodeSize
	}

	return &totp{generator: googleauthentificator.New(), cfg: &cfg}
}

func (t *totp) GenerateCode(userSecret string, timeStep uint64) (string, error) {
	if timeStep > math.MaxInt {
		return "", errors.Wrapf(ErrTimeStepOutOfRange, "%v", timeStep)
	}
	secret, err := base32.Canonical(userSecret)
	if err != nil {
		return "", errors.Wrap(err, "invalid totp secret")
	}

	return t.generator.Create(secret).At(int(timeStep)), nil
}

func (t *totp) Verify(now *time.Time, userSecret, totpCode string) bool {
	if !isCode(totpCode) {
		return false
	}
	secret, err := base32.Canonical(userSecret)
	if err != nil {
		return false
	}
	code := t.generator.Create(secret)
	step := now.Step(Period)
	previous := step
	if step > 0 {
		previous = step - 1
	}
	var matched int
	for _, candidate := range [3]uint64{previous, step, step + 1} {
		matched |= subtle.ConstantTimeCompare([]byte(code.At(int(candidate))), []byte(totpCode)) //nolint:gosec // Steps of a wall clock.
	}

	return matched == 1
}

func isCode(code string) bool {
	if len(code) != DigitsInCode {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
