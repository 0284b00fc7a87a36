// SPDX-License-Identifier: ice License 1.0

package privacy

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/ericlagergren/siv"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	appCfg "github.com/ice-blockchain/warden/config"
	"github.com/ice-blockchain/warden/log"
)

// New loads the hex encoded key from config, falling back to `<MODULE>_PRIVACY_SECRET` and `PRIVACY_SECRET`.
func New(applicationYAMLKey string) EncryptDecrypter {
	var cfg config
	appCfg.MustLoadFromKey(applicationYAMLKey, &cfg)
	if cfg.WardenPrivacy.Secret == "" {
		cfg.WardenPrivacy.Secret = appCfg.SecretFromEnv(applicationYAMLKey, "PRIVACY_SECRET", "PRIVACY_SECRET")
	}
	ed, err := NewEncryptDecrypter(cfg.WardenPrivacy.Secret)
	log.Panic(err) //nolint:revive // That's exactly what we want.

	return ed
}

func NewEncryptDecrypter(secret string) (EncryptDecrypter, error) {
	decodedKey, err := hex.DecodeString(secret)
	if err != nil {
		return nil, multierror.Append(ErrInvalidKey, errors.Wrap(err, "failed to decode key value"))
	}
	if len(decodedKey) != KeySize {
		return nil, errors.Wrapf(ErrInvalidKey, "expected %v bytes, got %v", KeySize, len(decodedKey))
	}
	aes256gcmsiv, err := siv.NewGCM(decodedKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build aes gcm siv mode")
	}

	return &encryptDecrypter{AES256GCMSIVCipher: aes256gcmsiv}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns hex(nonce || ciphertext).
func (e *encryptDecrypter) Encrypt(plaintext string) (string, error) {
	nonceSize := e.AES256GCMSIVCipher.NonceSize()
	sealed := make([]byte, nonceSize, nonceSize+len(plaintext)+e.AES256GCMSIVCipher.Overhead())
	if _, err := rand.Read(sealed); err != nil {
		return "", errors.Wrap(err, "failed to generate nonce")
	}
	sealed = e.AES256GCMSIVCipher.Seal(sealed, sealed[:nonceSize], []byte(plaintext), nil)

	return hex.EncodeToString(sealed), nil
}

func (e *encryptDecrypter) Decrypt(val string) (string, error) {
	decoded, err := hex.DecodeString(val)
	if err != nil {
		return "", multierror.Append(ErrHexDecodingFailed, errors.Wrap(err, "failed to decode value"))
	}
	nonceSize := e.AES256GCMSIVCipher.NonceSize()
	if len(decoded) < nonceSize+e.AES256GCMSIVCipher.Overhead() {
		return "", errors.Wrapf(ErrDecryptionFailed, "ciphertext too short: %v bytes", len(decoded))
	}
	plaintext, err := e.AES256GCMSIVCipher.Open(nil, decoded[:nonceSize], decoded[nonceSize:], nil)
	if err != nil {
		return "", multierror.Append(ErrDecryptionFailed, errors.Wrap(err, "failed to Open ciphertext"))
	}

	return string(plaintext), nil
}
