// SPDX-License-Identifier: ice License 1.0

package privacy

import (
	"crypto/cipher"

	"github.com/pkg/errors"
)

// Public API.

const (
	// KeySize is the length of the raw AES-256 key; configured secrets are its hex encoding.
	KeySize = 32
)

var (
	ErrHexDecodingFailed = errors.New("failed to hex decode value")
	ErrDecryptionFailed  = errors.New("failed to decrypt value")
	ErrInvalidKey        = errors.New("invalid encryption key")
)

type (
	EncryptDecrypter interface {
		Encrypt(plaintext string) (string, error)
		Decrypt(ciphertext string) (string, error)
	}
)

// Private API.

type (
	encryptDecrypter struct {
		AES256GCMSIVCipher cipher.AEAD
	}
	config struct {
		WardenPrivacy struct {
			Secret string `yaml:"secret" mapstructure:"secret"`
		} `yaml:"warden/privacy" mapstructure:"warden/privacy"` //nolint:tagliatelle // .
	}
)
