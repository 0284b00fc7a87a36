// SPDX-License-Identifier: ice License 1.0

package main

import (
	"github.com/pkg/errors"

	"github.com/ice-blockchain/warden/auth"
	"github.com/ice-blockchain/warden/ratelimit"
	"github.com/ice-blockchain/warden/twofactor"
	"github.com/ice-blockchain/warden/users"
)

// Public API.

type (
	// LoginArg carries either Code or BackupCode for accounts with two factor authentication enabled.
	LoginArg struct {
		Email      string `json:"email" required:"true" allowUnauthorized:"true"`
		Password   string `json:"password" required:"true"`
		Code       string `json:"code,omitempty"`
		BackupCode string `json:"backupCode,omitempty"`
	}
	RefreshArg struct {
		RefreshToken string `json:"refreshToken" required:"true" allowUnauthorized:"true"`
	}
	Tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	UserArg struct {
		UserID int64 `json:"userId" owner:"true" required:"true"`
	}
	UserURIArg struct {
		UserID int64 `uri:"userId" owner:"true" required:"true"`
	}
	CodeArg struct {
		Code   string `json:"code" required:"true"`
		UserID int64  `json:"userId" owner:"true" required:"true"`
	}
	BackupCodeArg struct {
		BackupCode string `json:"backupCode" required:"true"`
		UserID     int64  `json:"userId" owner:"true" required:"true"`
	}
	// Enrollment carries the QR code as a data:image/png;base64 URI.
	Enrollment struct {
		Secret          string   `json:"secret"`
		ProvisioningURI string   `json:"provisioningUri"`
		QRCode          string   `json:"qrCode"`
		BackupCodes     []string `json:"backupCodes"`
	}
	TwoFactorResult struct {
		Enabled  *bool `json:"enabled,omitempty"`
		Verified *bool `json:"verified,omitempty"`
	}
	BackupCodes struct {
		BackupCodes []string `json:"backupCodes"`
	}
)

// Private API.

const (
	applicationYAMLKey = "warden"

	storageMemory   = "memory"
	storagePostgres = "postgres"
)

var (
	errInvalidCredentials     = errors.New("invalid email or password")
	errSecondFactorIsRequired = errors.New("second factor is required")
)

type (
	// | service implements server.State and is responsible for managing the state and lifecycle of the package.
	service struct {
		users     users.Repository
		auth      auth.Client
		twoFactor twofactor.Manager
		limiter   ratelimit.Limiter
	}
	config struct {
		Storage   string `yaml:"storage" mapstructure:"storage"`
		SeedUsers []struct {
			Email    string `yaml:"email" mapstructure:"email"`
			Role     string `yaml:"role" mapstructure:"role"`
			Password string `yaml:"password" mapstructure:"password"`
			ID       int64  `yaml:"id" mapstructure:"id"`
		} `yaml:"seedUsers" mapstructure:"seedUsers"`
		PasswordHashCost int `yaml:"passwordHashCost" mapstructure:"passwordHashCost"`
	}
)
