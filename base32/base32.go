// SPDX-License-Identifier: ice License 1.0

package base32

import (
	"strings"

	"github.com/pkg/errors"
)

// Encode renders b without padding, so the output length is exactly ceil(len(b)*8/5).
func Encode(b []byte) string {
	return encoding.EncodeToString(b)
}

// Decode is case-insensitive and ignores `=` padding.
// A trailing symbol that does not complete a byte is discarded.
func Decode(s string) ([]byte, error) {
	s = strings.ToUpper(strings.TrimRight(s, "="))
	if idx := strings.IndexFunc(s, func(r rune) bool { return !strings.ContainsRune(Alphabet, r) }); idx >= 0 {
		return nil, errors.Wrapf(ErrDecode, "invalid symbol at position %v", idx)
	}
	switch len(s) % 8 { //nolint:mnd,gomnd // 8 symbols per 5 bytes.
	case 1, 3, 6:
		s = s[:len(s)-1]
	}
	b, err := encoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "%v", err)
	}

	return b, nil
}

// Canonical returns s re-encoded in upper case without padding, or ErrDecode.
func Canonical(s string) (string, error) {
	b, err := Decode(s)
	if err != nil {
		return "", err
	}

	return Encode(b), nil
}
