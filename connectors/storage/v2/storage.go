// SPDX-License-Identifier: ice License 1.0

package storage

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	appCfg "github.com/ice-blockchain/warden/config"
	"github.com/ice-blockchain/warden/log"
)

func MustConnect(ctx context.Context, ddl, applicationYAMLKey string) *DB {
	var cfg config
	appCfg.MustLoadFromKey(applicationYAMLKey, &cfg)

	return MustConnectWithConfig(ctx, ddl, &cfg.WardenStorage)
}

func MustConnectWithConfig(ctx context.Context, ddl string, cfg *Config) *DB {
	if cfg.PrimaryURL == "" {
		log.Panic(errors.New("primaryURL is required"))
	}
	if cfg.ConnectionTimeout <= 0 {
		cfg.ConnectionTimeout = defaultConnectionTimeout
	}
	master := mustConnectPool(ctx, cfg, cfg.PrimaryURL)
	replicas := make([]*pgxpool.Pool, 0, len(cfg.ReplicaURLs))
	for _, url := range cfg.ReplicaURLs {
		replicas = append(replicas, mustConnectPool(ctx, cfg, url))
	}
	if len(replicas) == 0 {
		replicas = append(replicas, master)
	}
	if ddl != "" && cfg.RunDDL {
		for statement := range strings.SplitSeq(ddl, ddlStatementSeparator) {
			_, err := master.Exec(ctx, statement)
			log.Panic(errors.Wrapf(err, "failed to run statement: %v", statement))
		}
	}

	return &DB{master: master, lb: &lb{replicas: replicas}}
}

func mustConnectPool(ctx context.Context, cfg *Config, url string) (db *pgxpool.Pool) {
	poolConfig, err := pgxpool.ParseConfig(url)
	log.Panic(errors.Wrap(err, "failed to parse pool config")) //nolint:revive // Intended
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		var res int
		if qErr := conn.QueryRow(ctx, `SELECT 1`).Scan(&res); qErr != nil {
			return errors.Wrapf(qErr, "dummy select failed")
		}
		if res != 1 {
			return errors.New("db validation failed")
		}

		return nil
	}
	db, err = pgxpool.NewWithConfig(ctx, poolConfig)
	log.Panic(errors.Wrap(err, "failed to start pool"))

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = cfg.ConnectionTimeout
	log.Panic(errors.Wrapf(backoff.Retry(func() error { return db.Ping(ctx) }, backoff.WithContext(retry, ctx)),
		"failed to ping %v", poolConfig.ConnConfig.Host))

	return db
}

func (db *DB) Primary() *pgxpool.Pool {
	return db.primary()
}

func (db *DB) Replica() *pgxpool.Pool {
	return db.replica()
}

func (db *DB) primary() *pgxpool.Pool {
	return db.master
}

func (db *DB) replica() *pgxpool.Pool {
	return db.lb.replicas[atomic.AddUint64(&db.lb.currentIndex, 1)%uint64(len(db.lb.replicas))]
}

func (db *DB) Ping(ctx context.Context) error {
	return errors.Wrap(db.master.Ping(ctx), "failed to ping primary")
}

func (db *DB) Close() error {
	for _, replica := range db.lb.replicas {
		if replica != db.master {
			replica.Close()
		}
	}
	db.master.Close()

	return nil
}
