// SPDX-License-Identifier: ice License 1.0

package ratelimit

import (
	"context"
	"strings"
	stdlibtime "time"

	"github.com/pkg/errors"

	appCfg "github.com/ice-blockchain/warden/config"
	storage "github.com/ice-blockchain/warden/connectors/storage/v3"
	"github.com/ice-blockchain/warden/log"
	"github.com/ice-blockchain/warden/terror"
	"github.com/ice-blockchain/warden/time"
)

func New(ctx context.Context, applicationYAMLKey string) Limiter {
	var cfg config
	appCfg.MustLoadFromKey(applicationYAMLKey, &cfg)
	limit, window := cfg.WardenRateLimit.Limit, cfg.WardenRateLimit.Window
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	switch backend := strings.ToLower(cfg.WardenRateLimit.Backend); backend {
	case "", BackendMemory:
		return NewInMemory(limit, window, nil)
	case BackendRedis:
		db := storage.MustConnect(ctx, applicationYAMLKey)

		return newLimiter(&redisCounter{db: db, closer: db}, limit, window, nil)
	default:
		log.Panic(errors.Errorf("unsupported rate limit backend %q", backend))

		return nil
	}
}

// NewInMemory keeps the windows in the process. A nil now defaults to time.Now.
func NewInMemory(limit int, window stdlibtime.Duration, now func() *time.Time) Limiter {
	return newLimiter(newMemoryCounter(window), limit, window, now)
}

// NewRedis shares the windows between instances. Expiry follows the Redis server clock; db stays owned by the caller.
func NewRedis(db storage.DB, limit int, window stdlibtime.Duration) Limiter {
	return newLimiter(&redisCounter{db: db}, limit, window, nil)
}

func newLimiter(cnt counter, limit int, window stdlibtime.Duration, now func() *time.Time) *limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}

	return &limiter{counter: cnt, now: now, limit: limit, window: window}
}

func (l *limiter) Close() error {
	return errors.Wrap(l.counter.Close(), "failed to close rate limit counter")
}

func (l *limiter) Allow(ctx context.Context, key string) (bool, error) {
	w, err := l.counter.incr(ctx, key, *l.now().Time, l.window)
	if err != nil {
		return false, errors.Wrapf(err, "failed to count request for %v", key)
	}

	return w.count <= int64(l.limit), nil
}

func (l *limiter) Remaining(ctx context.Context, key string) (int, error) {
	w, err := l.counter.peek(ctx, key, *l.now().Time, l.window)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to peek window of %v", key)
	}

	return l.remaining(w), nil
}

func (l *limiter) ResetIn(ctx context.Context, key string) (int, error) {
	w, err := l.counter.peek(ctx, key, *l.now().Time, l.window)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to peek window of %v", key)
	}

	return l.resetIn(w), nil
}

func (l *limiter) Check(ctx context.Context, key string) (*Metadata, error) {
	w, err := l.counter.incr(ctx, key, *l.now().Time, l.window)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to count request for %v", key)
	}
	md := &Metadata{
		Limit:         l.limit,
		WindowSeconds: int(l.window / stdlibtime.Second),
		Remaining:     l.remaining(w),
		ResetSeconds:  l.resetIn(w),
	}
	if w.count > int64(l.limit) {
		return md, terror.New(ErrRateLimited, md.data())
	}

	return md, nil
}

func (l *limiter) remaining(w *window) int {
	if w == nil {
		return l.limit
	}

	return int(max(0, int64(l.limit)-w.count))
}

func (l *limiter) resetIn(w *window) int {
	if w == nil {
		return int(l.window / stdlibtime.Second)
	}

	return int(max(0, w.resetIn) / stdlibtime.Second)
}

func (md *Metadata) data() map[string]any {
	return map[string]any{
		"limit":         md.Limit,
		"windowSeconds": md.WindowSeconds,
		"remaining":     md.Remaining,
		"resetSeconds":  md.ResetSeconds,
	}
}
