// SPDX-License-Identifier: ice License 1.0

package privacy

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "2d2a6cd7a7bc4f1e9a1f7a6a3d3bd9d0c8e1f1a2b3c4d5e6f708192a3b4c5d6e"

func TestEncryptDecrypt(t *testing.T) {
	t.Parallel()
	ed := New("self")
	val := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	first, err := ed.Encrypt(val)
	require.NoError(t, err)
	second, err := ed.Encrypt(val)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, val)

	for _, encrypted := range []string{first, second} {
		decrypted, dErr := ed.Decrypt(encrypted)
		require.NoError(t, dErr)
		assert.Equal(t, val, decrypted)
	}
	empty, err := ed.Encrypt("")
	require.NoError(t, err)
	decrypted, err := ed.Decrypt(empty)
	require.NoError(t, err)
	assert.Empty(t, decrypted)
}

func TestDecryptFailures(t *testing.T) {
	t.Parallel()
	ed, err := NewEncryptDecrypter(testKey)
	require.NoError(t, err)
	encrypted, err := ed.Encrypt("bogus@foo.com")
	require.NoError(t, err)

	_, err = ed.Decrypt("not hex")
	require.ErrorIs(t, err, ErrHexDecodingFailed)
	_, err = ed.Decrypt(encrypted[:10])
	require.ErrorIs(t, err, ErrDecryptionFailed)
	tampered := []byte(encrypted)
	tampered[len(tampered)-1] = flipHex(tampered[len(tampered)-1])
	_, err = ed.Decrypt(string(tampered))
	require.ErrorIs(t, err, ErrDecryptionFailed)

	other, err := NewEncryptDecrypter(strings.Repeat("ab", KeySize))
	require.NoError(t, err)
	_, err = other.Decrypt(encrypted)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestInvalidKeys(t *testing.T) {
	t.Parallel()
	for _, key := range []string{"", "zz", testKey[:62], testKey + "00"} {
		_, err := NewEncryptDecrypter(key)
		require.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func BenchmarkEncryptDecrypt(b *testing.B) {
	ed, err := NewEncryptDecrypter(testKey)
	require.NoError(b, err)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			i++
			plaintext := strconv.Itoa(i) + "bogus@foo.com"
			encrypted, eErr := ed.Encrypt(plaintext)
			require.NoError(b, eErr)
			decrypted, dErr := ed.Decrypt(encrypted)
			require.NoError(b, dErr)
			require.Equal(b, plaintext, decrypted)
		}
	})
}

func flipHex(c byte) byte {
	if c == '0' {
		return '1'
	}

	return '0'
}
