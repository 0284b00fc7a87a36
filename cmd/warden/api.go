// SPDX-License-Identifier: ice License 1.0

package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ice-blockchain/warden/auth"
	"github.com/ice-blockchain/warden/log"
	"github.com/ice-blockchain/warden/server"
	"github.com/ice-blockchain/warden/time"
	"github.com/ice-blockchain/warden/totp"
	"github.com/ice-blockchain/warden/twofactor"
	"github.com/ice-blockchain/warden/users"
)

func (s *service) RegisterRoutes(router *server.Router) {
	s.registerTokenRoutes(router)
	s.registerTwoFactorRoutes(router)
}

func (s *service) registerTokenRoutes(router *server.Router) {
	router.
		Group("/v1/auth", server.RateLimit(s.limiter)).
		POST("/login", server.RootHandler(s.Login)).
		POST("/refresh", server.RootHandler(s.Refresh))
}

func (s *service) registerTwoFactorRoutes(router *server.Router) {
	router.
		Group("/v1/auth/2fa", server.RateLimit(s.limiter)).
		POST("/setup", server.RootHandler(s.SetupTwoFactor)).
		POST("/verify", server.RootHandler(s.VerifyTwoFactor)).
		POST("/disable", server.RootHandler(s.DisableTwoFactor)).
		GET("/status/:userId", server.RootHandler(s.GetTwoFactorStatus)).
		POST("/verify-login", server.RootHandler(s.VerifyTwoFactorLogin)).
		POST("/verify-backup", server.RootHandler(s.RedeemBackupCode)).
		POST("/regenerate-backup-codes", server.RootHandler(s.RegenerateBackupCodes))
}

// Login exchanges the password, plus the second factor of accounts that enabled it, for a pair of tokens.
// Unknown emails and wrong passwords get the same answer.
func (s *service) Login(ctx context.Context, req *server.Request[LoginArg, Tokens]) (*server.Response[Tokens], *server.Response[server.ErrorResponse]) { //nolint:lll // .
	rec, err := s.users.GetByEmail(ctx, req.Data.Email)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return nil, server.Unexpected(errors.Wrap(err, "failed to get user"))
	}
	if !rec.CheckPassword(req.Data.Password) {
		return nil, server.Unauthenticated(errInvalidCredentials, "INVALID_CREDENTIALS")
	}
	if rec.TwoFactorEnabled && rec.HasTwoFactorSecret() {
		if failure := s.verifySecondFactor(ctx, rec.ID, req.Data); failure != nil {
			return nil, failure
		}
	}
	accessToken, refreshToken, err := s.auth.GenerateTokens(time.Now(), rec.Email, rec.Role, rec.ID)
	if err != nil {
		return nil, server.Unexpected(errors.Wrapf(err, "failed to generate tokens for user %v", rec.ID))
	}

	return server.OK(&Tokens{AccessToken: accessToken, RefreshToken: refreshToken}), nil
}

func (s *service) verifySecondFactor(ctx context.Context, userID int64, arg *LoginArg) *server.Response[server.ErrorResponse] {
	var err error
	switch {
	case arg.Code != "":
		err = s.twoFactor.VerifyLogin(ctx, userID, arg.Code)
	case arg.BackupCode != "":
		err = s.twoFactor.RedeemBackupCode(ctx, userID, arg.BackupCode)
	default:
		return server.Unauthenticated(errSecondFactorIsRequired, "2FA_REQUIRED")
	}
	if err != nil {
		return twoFactorError(err)
	}

	return nil
}

// Refresh rotates both tokens of the user behind a valid refresh token.
func (s *service) Refresh(ctx context.Context, req *server.Request[RefreshArg, Tokens]) (*server.Response[Tokens], *server.Response[server.ErrorResponse]) { //nolint:lll // .
	accessToken, refreshToken, err := s.auth.Refresh(ctx, req.Data.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
			return nil, server.Unauthorized(err)
		}

		return nil, server.Unexpected(errors.Wrap(err, "failed to refresh tokens"))
	}

	return server.OK(&Tokens{AccessToken: accessToken, RefreshToken: refreshToken}), nil
}

func (s *service) SetupTwoFactor(ctx context.Context, req *server.Request[UserArg, Enrollment]) (*server.Response[Enrollment], *server.Response[server.ErrorResponse]) { //nolint:lll // .
	enrollment, err := s.twoFactor.Setup(ctx, req.Data.UserID)
	if err != nil {
		return nil, twoFactorError(err)
	}

	return server.OK(&Enrollment{
		Secret:          enrollment.Secret,
		ProvisioningURI: enrollment.ProvisioningURI,
		QRCode:          totp.DataURI(enrollment.QRCode),
		BackupCodes:     enrollment.BackupCodes,
	}), nil
}

func (s *service) VerifyTwoFactor(ctx context.Context, req *server.Request[CodeArg, TwoFactorResult]) (*server.Response[TwoFactorResult], *server.Response[server.ErrorResponse]) { //nolint:lll // .
	if err := s.twoFactor.VerifyAndEnable(ctx, req.Data.UserID, req.Data.Code); err != nil {
		return nil, twoFactorError(err)
	}
	enabled := true

	return server.OK(&TwoFactorResult{Enabled: &enabled}), nil
}

func (s *service) DisableTwoFactor(ctx context.Context, req *server.Request[UserArg, TwoFactorResult]) (*server.Response[TwoFactorResult], *server.Response[server.ErrorResponse]) { //nolint:lll // .
	if err := s.twoFactor.Disable(ctx, req.Data.UserID); err != nil {
		return nil, twoFactorError(err)
	}
	if actor := server.RequestingUserID(ctx); actor != req.Data.UserID {
		log.Info("2fa disabled on behalf of user", "userId", req.Data.UserID, "actorId", actor)
	}
	enabled := false

	return server.OK(&TwoFactorResult{Enabled: &enabled}), nil
}

func (s *service) GetTwoFactorStatus(ctx context.Context, req *server.Request[UserURIArg, twofactor.Status]) (*server.Response[twofactor.Status], *server.Response[server.ErrorResponse]) { //nolint:lll // .
	status, err := s.twoFactor.Status(ctx, req.Data.UserID)
	if err != nil {
		return nil, twoFactorError(err)
	}

	return server.OK(status), nil
}

func (s *service) VerifyTwoFactorLogin(ctx context.Context, req *server.Request[CodeArg, TwoFactorResult]) (*server.Response[TwoFactorResult], *server.Response[server.ErrorResponse]) { //nolint:lll // .
	if err := s.twoFactor.VerifyLogin(ctx, req.Data.UserID, req.Data.Code); err != nil {
		return nil, twoFactorError(err)
	}
	verified := true

	return server.OK(&TwoFactorResult{Verified: &verified}), nil
}

func (s *service) RedeemBackupCode(ctx context.Context, req *server.Request[BackupCodeArg, TwoFactorResult]) (*server.Response[TwoFactorResult], *server.Response[server.ErrorResponse]) { //nolint:lll // .
	if err := s.twoFactor.RedeemBackupCode(ctx, req.Data.UserID, req.Data.BackupCode); err != nil {
		return nil, twoFactorError(err)
	}
	verified := true

	return server.OK(&TwoFactorResult{Verified: &verified}), nil
}

func (s *service) RegenerateBackupCodes(ctx context.Context, req *server.Request[UserArg, BackupCodes]) (*server.Response[BackupCodes], *server.Response[server.ErrorResponse]) { //nolint:lll // .
	codes, err := s.twoFactor.RegenerateBackupCodes(ctx, req.Data.UserID)
	if err != nil {
		return nil, twoFactorError(err)
	}

	return server.OK(&BackupCodes{BackupCodes: codes}), nil
}

func twoFactorError(err error) *server.Response[server.ErrorResponse] {
	switch {
	case errors.Is(err, twofactor.ErrNotFound):
		return server.NotFound(err, "USER_NOT_FOUND")
	case errors.Is(err, twofactor.ErrInvalidCode):
		return server.BadRequest(err, "INVALID_CODE")
	case errors.Is(err, twofactor.ErrNotSetup):
		return server.BadRequest(err, "2FA_NOT_SETUP")
	case errors.Is(err, twofactor.ErrNotEnabled):
		return server.BadRequest(err, "2FA_NOT_ENABLED")
	case errors.Is(err, twofactor.ErrConcurrentUpdate):
		return server.Conflict(err, "CONCURRENT_UPDATE")
	default:
		return server.Unexpected(err)
	}
}
