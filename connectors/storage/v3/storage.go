// SPDX-License-Identifier: ice License 1.0

package storage

import (
	"context"
	"runtime"
	stdlibtime "time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	appCfg "github.com/ice-blockchain/warden/config"
	"github.com/ice-blockchain/warden/log"
)

func MustConnect(ctx context.Context, applicationYAMLKey string) DB {
	var cfg config
	appCfg.MustLoadFromKey(applicationYAMLKey, &cfg)

	return MustConnectWithConfig(ctx, applicationYAMLKey, &cfg.WardenStorage)
}

//nolint:mnd,gomnd // Configs.
func MustConnectWithConfig(ctx context.Context, clientName string, cfg *Config) DB {
	if cfg.URL == "" {
		log.Panic(errors.New("url is required"))
	}
	if cfg.ConnectionsPerCore <= 0 {
		cfg.ConnectionsPerCore = defaultConnectionsPerCore
	}
	if cfg.ConnectionTimeout <= 0 {
		cfg.ConnectionTimeout = defaultConnectionTimeout
	}
	opts, err := redis.ParseURL(cfg.URL)
	log.Panic(errors.Wrap(err, "invalid redis url")) //nolint:revive // That's intended.
	if opts.Username == "" {
		opts.Username = cfg.Credentials.User
	}
	if opts.Password == "" {
		opts.Password = cfg.Credentials.Password
	}
	opts.ClientName = clientName
	opts.MaxRetries = 25
	opts.MinRetryBackoff = 10 * stdlibtime.Millisecond
	opts.MaxRetryBackoff = 1 * stdlibtime.Second
	opts.DialTimeout = cfg.ConnectionTimeout
	opts.ReadTimeout = 30 * stdlibtime.Second
	opts.WriteTimeout = 30 * stdlibtime.Second
	opts.ConnMaxIdleTime = 60 * stdlibtime.Second
	opts.ContextTimeoutEnabled = true
	opts.PoolFIFO = true
	opts.PoolSize = cfg.ConnectionsPerCore * runtime.GOMAXPROCS(-1)
	opts.MinIdleConns = 1
	client := redis.NewClient(opts)

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = cfg.ConnectionTimeout
	log.Panic(errors.Wrapf(backoff.Retry(func() error { return ping(ctx, client) }, backoff.WithContext(retry, ctx)),
		"failed to ping %v", opts.Addr))

	return client
}

func ping(ctx context.Context, db DB) error {
	result, err := db.Ping(ctx).Result()
	if err != nil {
		return errors.Wrap(err, "ping failed")
	}
	if result != "PONG" {
		return errors.Errorf("unexpected ping response: %v", result)
	}

	return nil
}
