// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"encoding/base64"
	"strings"
	stdlibtime "time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ice-blockchain/warden/log"
	"github.com/ice-blockchain/warden/time"
)

// Claims builds the payload of an access token (or of a refresh token when role is empty).
func Claims(now *time.Time, subject, role string, userID int64, validFor stdlibtime.Duration) jwt.MapClaims {
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(validFor).Unix(),
	}
	if role != "" {
		claims["role"] = role
		claims["userId"] = userID
	}

	return claims
}

// Sign signs arbitrary claims, allowing tests to forge tokens the service would never issue.
func Sign(method jwt.SigningMethod, secret any, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	log.Panic(err) //nolint:revive // Test setup.

	return token
}

// SignHS256 signs claims with the given shared secret.
func SignHS256(secret string, claims jwt.MapClaims) string {
	return Sign(jwt.SigningMethodHS256, []byte(secret), claims)
}

// Unsigned renders claims with `alg: none`.
func Unsigned(claims jwt.MapClaims) string {
	return Sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, claims)
}

// Tamper replaces the payload of a signed token, keeping its header and signature.
func Tamper(token, payloadJSON string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 { //nolint:mnd,gomnd // header.payload.signature.
		log.Panic("not a compact jws")
	}
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(payloadJSON))

	return strings.Join(parts, ".")
}
