// SPDX-License-Identifier: ice License 1.0

package internal

import (
	stdlibtime "time"
)

const (
	DigitsInCode     = 6
	RotationDuration = 30 * stdlibtime.Second
)

type (
	Generator interface {
		// Create expects a canonical (upper case, unpadded) base32 secret.
		Create(canonicalSecret string) HOTP
	}
	// HOTP renders the code of a moving factor, the TOTP time step being one.
	HOTP interface {
		At(counter int) string
	}
)
