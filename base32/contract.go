// SPDX-License-Identifier: ice License 1.0

package base32

import (
	stdlibbase32 "encoding/base32"

	"github.com/pkg/errors"
)

// Public API.

const (
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"
)

var (
	ErrDecode = errors.New("malformed base32 input")
)

// Private API.

//nolint:gochecknoglobals // Stateless and immutable.
var encoding = stdlibbase32.NewEncoding(Alphabet).WithPadding(stdlibbase32.NoPadding)
