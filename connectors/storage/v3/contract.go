// SPDX-License-Identifier: ice License 1.0

package storage

import (
	"context"
	"io"
	stdlibtime "time"

	"github.com/redis/go-redis/v9"
)

// Public API.

type (
	DB interface {
		redis.Cmdable
		io.Closer
		Ping(ctx context.Context) *redis.StatusCmd
	}
	Config struct {
		Credentials struct {
			User     string `yaml:"user" mapstructure:"user"`
			Password string `yaml:"password" mapstructure:"password"`
		} `yaml:"credentials" mapstructure:"credentials"`
		URL                string              `yaml:"url" mapstructure:"url"`
		ConnectionsPerCore int                 `yaml:"connectionsPerCore" mapstructure:"connectionsPerCore"`
		ConnectionTimeout  stdlibtime.Duration `yaml:"connectionTimeout" mapstructure:"connectionTimeout"`
	}
)

// Private API.

const (
	defaultConnectionsPerCore = 10
	defaultConnectionTimeout  = 30 * stdlibtime.Second
)

type (
	config struct {
		WardenStorage Config `yaml:"warden/connectors/storage/v3" mapstructure:"warden/connectors/storage/v3"` //nolint:tagliatelle // Nope.
	}
)
