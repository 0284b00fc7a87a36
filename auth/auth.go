// SPDX-License-Identifier: ice License 1.0

package auth

import (
	"context"
	stdlibtime "time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	appCfg "github.com/ice-blockchain/warden/config"
	"github.com/ice-blockchain/warden/log"
	"github.com/ice-blockchain/warden/time"
	"github.com/ice-blockchain/warden/users"
)

func New(applicationYAMLKey string, usrs users.Reader) Client {
	var cfg config
	appCfg.MustLoadFromKey(applicationYAMLKey, &cfg)
	cfg.loadSecretForJWT(applicationYAMLKey)
	if cfg.WardenAuth.JWTSecret == "" {
		log.Panic(errors.Errorf("jwt secret is not configured for %v", applicationYAMLKey))
	}

	return newAuth(&cfg, usrs, time.Now)
}

func newAuth(cfg *config, usrs users.Reader, now func() *time.Time) *auth {
	if cfg.WardenAuth.AccessExpirationTime <= 0 {
		cfg.WardenAuth.AccessExpirationTime = DefaultAccessExpirationTime
	}
	if cfg.WardenAuth.RefreshExpirationTime <= 0 {
		cfg.WardenAuth.RefreshExpirationTime = DefaultRefreshExpirationTime
	}

	return &auth{
		users: usrs,
		cfg:   cfg,
		now:   now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(func() stdlibtime.Time { return *now().Time }),
		),
	}
}

func (a *auth) VerifyToken(token string) (*Token, error) {
	var cl claims
	err := a.parse(token, a.cfg.WardenAuth.JWTSecret, &cl)
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) && a.cfg.WardenAuth.PreviousJWTSecret != "" {
		cl = claims{}
		err = a.parse(token, a.cfg.WardenAuth.PreviousJWTSecret, &cl)
	}
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Wrap(ErrExpiredToken, err.Error())
		}

		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	return cl.token()
}

func (a *auth) VerifyAccessToken(token string) (*Token, error) {
	tok, err := a.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	if tok.IsRefresh() {
		return nil, errors.Wrap(ErrWrongTypeToken, "refresh token used as access token")
	}

	return tok, nil
}

func (a *auth) verifyRefreshToken(token string) (*Token, error) {
	tok, err := a.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	if !tok.IsRefresh() {
		return nil, errors.Wrap(ErrWrongTypeToken, "access token used as refresh token")
	}

	return tok, nil
}

func (a *auth) IsValid(token, expectedSubject string) bool {
	tok, err := a.VerifyToken(token)

	return err == nil && tok.Subject == expectedSubject
}

func (a *auth) Refresh(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, err error) {
	tok, err := a.verifyRefreshToken(refreshToken)
	if err != nil {
		return "", "", err
	}
	usr, err := a.users.GetByEmail(ctx, tok.Subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return "", "", errors.Wrapf(ErrInvalidToken, "user %v no longer exists", tok.Subject)
		}

		return "", "", errors.Wrapf(err, "failed to get user %v", tok.Subject)
	}

	return a.GenerateTokens(a.now(), usr.Email, usr.Role, usr.ID)
}

func (a *auth) parse(token, secret string, res *claims) error {
	_, err := a.parser.ParseWithClaims(token, res, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})

	return err //nolint:wrapcheck // Mapped by the caller.
}

func (c *claims) token() (*Token, error) {
	if c.Subject == "" || c.IssuedAt == nil {
		return nil, errors.Wrap(ErrInvalidToken, "missing sub or iat")
	}
	tok := &Token{
		Subject:   c.Subject,
		Role:      c.Role,
		IssuedAt:  time.New(c.IssuedAt.UTC()),
		ExpiresAt: time.New(c.ExpiresAt.UTC()),
	}
	switch {
	case c.Role == "" && c.UserID == nil:
	case c.Role.Valid() && c.UserID != nil:
		tok.UserID = *c.UserID
	default:
		return nil, errors.Wrapf(ErrInvalidToken, "invalid role %q or userId claims", c.Role)
	}

	return tok, nil
}

func (cfg *config) loadSecretForJWT(applicationYAMLKey string) {
	if cfg.WardenAuth.JWTSecret == "" {
		cfg.WardenAuth.JWTSecret = appCfg.SecretFromEnv(applicationYAMLKey, "JWT_SECRET", "JWT_SECRET")
	}
	if cfg.WardenAuth.PreviousJWTSecret == "" {
		cfg.WardenAuth.PreviousJWTSecret = appCfg.SecretFromEnv(applicationYAMLKey, "PREVIOUS_JWT_SECRET", "PREVIOUS_JWT_SECRET")
	}
}
