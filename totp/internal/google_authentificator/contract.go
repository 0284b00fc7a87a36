// SPDX-License-Identifier: ice License 1.0

package googleauthentificator

import (
	"github.com/ice-blockchain/warden/totp/internal"
)

// Private API.

const (
	digitsInCode = internal.DigitsInCode
)

type (
	googleGenerator struct{}
)
