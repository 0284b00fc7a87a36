// SPDX-License-Identifier: ice License 1.0

package ratelimit

import (
	"context"
	_ "embed"
	"io"
	"sync"
	stdlibtime "time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	storage "github.com/ice-blockchain/warden/connectors/storage/v3"
	"github.com/ice-blockchain/warden/time"
)

// Public API.

const (
	DefaultLimit  = 5
	DefaultWindow = stdlibtime.Minute

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var (
	ErrRateLimited = errors.New("rate limit exceeded")
)

type (
	// Metadata is what callers need to render X-RateLimit-* headers.
	Metadata struct {
		Limit         int `json:"limit"`
		WindowSeconds int `json:"windowSeconds"`
		Remaining     int `json:"remaining"`
		ResetSeconds  int `json:"resetSeconds"`
	}
	// Limiter counts requests per key in fixed windows that start with the first request of the key
	// and reset once more than the window has elapsed since.
	Limiter interface {
		io.Closer
		// Allow counts the request and reports whether it fits into the limit.
		Allow(ctx context.Context, key string) (bool, error)
		// Remaining is max(0, limit-count) of the live window, or limit if there is none. It does not count a request.
		Remaining(ctx context.Context, key string) (int, error)
		// ResetIn is the number of whole seconds until the live window resets, or the window length if there is none.
		ResetIn(ctx context.Context, key string) (int, error)
		// Check counts the request like Allow and returns the resulting Metadata.
		// A refused request fails with a terror.Err wrapping ErrRateLimited, carrying the Metadata as data.
		Check(ctx context.Context, key string) (*Metadata, error)
	}
)

// Private API.

const (
	redisKeyPrefix = "ratelimit:"
	idleWindows    = 2
	// Unrelated keys only contend on the map of their own shard.
	memoryShards = 16
)

var (
	//go:embed incr.lua
	incrScriptSource string
	//go:embed peek.lua
	peekScriptSource string
	//nolint:gochecknoglobals // Stateless scripts, loaded lazily by go-redis.
	incrScript, peekScript = redis.NewScript(incrScriptSource), redis.NewScript(peekScriptSource)
)

type (
	window struct {
		count   int64
		resetIn stdlibtime.Duration
	}
	counter interface {
		io.Closer
		// incr atomically starts a new window if needed and counts one request in it.
		incr(ctx context.Context, key string, now stdlibtime.Time, length stdlibtime.Duration) (*window, error)
		// peek returns nil if the key has no live window.
		peek(ctx context.Context, key string, now stdlibtime.Time, length stdlibtime.Duration) (*window, error)
	}
	limiter struct {
		counter counter
		now     func() *time.Time
		limit   int
		window  stdlibtime.Duration
	}
	entry struct {
		windowStart stdlibtime.Time
		count       int64
		mx          sync.Mutex
	}
	memoryCounter struct {
		shards [memoryShards]*ttlcache.Cache[string, *entry]
	}
	redisCounter struct {
		db     storage.DB
		closer io.Closer
	}
	config struct {
		WardenRateLimit struct {
			Backend string              `yaml:"backend" mapstructure:"backend"`
			Limit   int                 `yaml:"limit" mapstructure:"limit"`
			Window  stdlibtime.Duration `yaml:"window" mapstructure:"window"`
		} `yaml:"warden/ratelimit" mapstructure:"warden/ratelimit"` //nolint:tagliatelle // Nope.
	}
)
