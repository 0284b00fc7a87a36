// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // Registers the pgx driver used by wait.ForSQL.
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ice-blockchain/warden/log"
)

// MustStart skips the test when no container runtime is available.
func MustStart(t *testing.T, opts ...Option) *Container {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	container := New(context.Background(), opts...)
	t.Cleanup(func() { log.Error(container.Close(context.Background())) })

	return container
}

func New(ctx context.Context, opts ...Option) *Container {
	customizers := []testcontainers.ContainerCustomizer{
		postgres.WithDatabase(pgDatabase),
		postgres.WithUsername(pgUser),
		postgres.WithPassword(pgPass),
		testcontainers.WithWaitStrategyAndDeadline(
			time.Minute,
			wait.ForExposedPort(),
			wait.ForSQL(nat.Port(dbPort), "pgx", func(host string, port nat.Port) string {
				return connectionString(host, port.Port(), pgDatabase)
			}),
		),
	}
	for i := range opts {
		customizers = append(customizers, opts[i])
	}
	container, err := postgres.Run(ctx, pgImage, customizers...)
	if err != nil {
		log.Panic("failed to start postgres container: " + err.Error())
	}

	return &Container{
		container: container,
		seed:      uint64(time.Now().UnixMilli()), //nolint:gosec // Never negative.
	}
}

func (c *Container) ConnectionString(ctx context.Context, dbName string) string {
	containerPort, err := c.container.MappedPort(ctx, dbPort)
	if err != nil {
		log.Panic("failed to get mapped port: " + err.Error())
	}
	host, err := c.container.Host(ctx)
	if err != nil {
		log.Panic("failed to get container host: " + err.Error())
	}
	if dbName == "" {
		dbName = pgDatabase
	}

	return connectionString(host, containerPort.Port(), dbName)
}

func (c *Container) Close(ctx context.Context) error {
	return c.container.Terminate(ctx) //nolint:wrapcheck // Proxy.
}

// MustTempDB creates an isolated database and returns its connection string together with a function dropping it.
func (c *Container) MustTempDB(ctx context.Context) (connString string, drop func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := pgx.Connect(ctx, c.ConnectionString(ctx, pgDatabase))
	if err != nil {
		log.Panic("failed to connect to postgres container: " + err.Error())
	}
	defer conn.Close(ctx) //nolint:errcheck // Nothing to do about it.
	dbName := tempDBName + strconv.FormatUint(atomic.AddUint64(&c.seed, 1), 10)
	if _, err = conn.Exec(ctx, `CREATE DATABASE `+dbName+` TEMPLATE `+pgDatabase); err != nil {
		log.Panic("failed to create temp database: " + err.Error())
	}

	return c.ConnectionString(ctx, dbName), func() {
		dropCtx := context.Background()
		admin, cErr := pgx.Connect(dropCtx, c.ConnectionString(dropCtx, pgDatabase))
		if cErr != nil {
			log.Error(cErr)

			return
		}
		defer admin.Close(dropCtx) //nolint:errcheck // Nothing to do about it.
		_, cErr = admin.Exec(dropCtx, `DROP DATABASE IF EXISTS `+dbName+` WITH (FORCE)`)
		log.Error(cErr)
	}
}

func connectionString(host, port, dbName string) string {
	return (&url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(pgUser, pgPass),
		Host:   net.JoinHostPort(host, port),
		Path:   dbName,
	}).String()
}
