// SPDX-License-Identifier: ice License 1.0

package auth

import (
	"context"
	stdlibtime "time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/ice-blockchain/warden/time"
	"github.com/ice-blockchain/warden/users"
)

// Public API.

const (
	RoleUser  = users.RoleUser
	RoleAdmin = users.RoleAdmin

	DefaultAccessExpirationTime  = 24 * stdlibtime.Hour
	DefaultRefreshExpirationTime = 7 * 24 * stdlibtime.Hour
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
	// ErrWrongTypeToken is an ErrInvalidToken: a refresh token where an access token is expected, or vice versa.
	ErrWrongTypeToken = errors.Wrap(ErrInvalidToken, "wrong type token")
)

type (
	Role = users.Role
	// Token holds the verified claims of an access or a refresh token.
	Token struct {
		IssuedAt  *time.Time
		ExpiresAt *time.Time
		Subject   string
		Role      Role
		UserID    int64
	}
	Client interface {
		// GenerateTokens issues an access and a refresh token for the subject (the user's email).
		GenerateTokens(now *time.Time, subject string, role Role, userID int64) (accessToken, refreshToken string, err error)
		GenerateAccessToken(now *time.Time, subject string, role Role, userID int64) (string, error)
		GenerateRefreshToken(now *time.Time, subject string) (string, error)
		// VerifyToken accepts both token types; expired tokens fail with ErrExpiredToken, anything else with ErrInvalidToken.
		VerifyToken(token string) (*Token, error)
		// VerifyAccessToken additionally rejects refresh tokens with ErrWrongTypeToken.
		VerifyAccessToken(token string) (*Token, error)
		IsValid(token, expectedSubject string) bool
		// Refresh re-reads the user behind a refresh token and rotates both tokens.
		Refresh(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, err error)
	}
)

// Private API.

type (
	claims struct {
		UserID *int64 `json:"userId,omitempty"`
		Role   Role   `json:"role,omitempty"`
		jwt.RegisteredClaims
	}
	auth struct {
		users  users.Reader
		cfg    *config
		now    func() *time.Time
		parser *jwt.Parser
	}
	config struct {
		WardenAuth struct {
			JWTSecret             string              `yaml:"jwtSecret" mapstructure:"jwtSecret"`
			PreviousJWTSecret     string              `yaml:"previousJwtSecret" mapstructure:"previousJwtSecret"`
			RefreshExpirationTime stdlibtime.Duration `yaml:"refreshExpirationTime" mapstructure:"refreshExpirationTime"`
			AccessExpirationTime  stdlibtime.Duration `yaml:"accessExpirationTime" mapstructure:"accessExpirationTime"`
		} `yaml:"warden/auth" mapstructure:"warden/auth"` //nolint:tagliatelle // Nope.
	}
)
