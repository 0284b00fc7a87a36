// SPDX-License-Identifier: ice License 1.0

package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/ice-blockchain/warden/time"
)

func (a *auth) GenerateTokens(now *time.Time, subject string, role Role, userID int64) (accessToken, refreshToken string, err error) {
	if accessToken, err = a.GenerateAccessToken(now, subject, role, userID); err != nil {
		return "", "", err
	}
	refreshToken, err = a.GenerateRefreshToken(now, subject)

	return accessToken, refreshToken, err
}

func (a *auth) GenerateAccessToken(now *time.Time, subject string, role Role, userID int64) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	if !role.Valid() {
		return "", errors.Errorf("invalid role %q", role)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.WardenAuth.AccessExpirationTime)),
			IssuedAt:  jwt.NewNumericDate(*now.Time),
		},
		Role:   role,
		UserID: &userID,
	})
	tokenStr, err := token.SignedString([]byte(a.cfg.WardenAuth.JWTSecret))

	return tokenStr, errors.Wrapf(err, "failed to generate access token for userID:%v", userID)
}

func (a *auth) GenerateRefreshToken(now *time.Time, subject string) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.WardenAuth.RefreshExpirationTime)),
			IssuedAt:  jwt.NewNumericDate(*now.Time),
		},
	})
	tokenStr, err := token.SignedString([]byte(a.cfg.WardenAuth.JWTSecret))

	return tokenStr, errors.Wrapf(err, "failed to generate refresh token for %v", subject)
}
