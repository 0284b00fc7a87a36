// SPDX-License-Identifier: ice License 1.0

package ratelimit

import (
	"context"
	stdlibtime "time"

	"github.com/pkg/errors"
)

func (c *redisCounter) Close() error {
	if c.closer == nil {
		return nil
	}

	return errors.Wrap(c.closer.Close(), "failed to close redis")
}

func (c *redisCounter) incr(ctx context.Context, key string, _ stdlibtime.Time, length stdlibtime.Duration) (*window, error) {
	res, err := incrScript.Run(ctx, c.db, []string{redisKeyPrefix + key}, length.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, errors.Wrap(err, "incr script failed")
	}

	return parseWindow(res)
}

func (c *redisCounter) peek(ctx context.Context, key string, _ stdlibtime.Time, _ stdlibtime.Duration) (*window, error) {
	res, err := peekScript.Run(ctx, c.db, []string{redisKeyPrefix + key}).Int64Slice()
	if err != nil {
		return nil, errors.Wrap(err, "peek script failed")
	}
	if len(res) == 2 && res[0] == 0 {
		return nil, nil //nolint:nilnil // Absent window.
	}

	return parseWindow(res)
}

func parseWindow(res []int64) (*window, error) {
	if len(res) != 2 { //nolint:mnd,gomnd // Count and ttl.
		return nil, errors.Errorf("unexpected script result %v", res)
	}

	return &window{count: res[0], resetIn: stdlibtime.Duration(res[1]) * stdlibtime.Millisecond}, nil
}
