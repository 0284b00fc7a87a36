// SPDX-License-Identifier: ice License 1.0

package googleauthentificator

import (
	"github.com/xlzd/gotp"

	"github.com/ice-blockchain/warden/totp/internal"
)

func New() internal.Generator {
	return &googleGenerator{}
}

func (*googleGenerator) Create(canonicalSecret string) internal.HOTP {
	return gotp.NewHOTP(canonicalSecret, digitsInCode, nil)
}
