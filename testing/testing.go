// SPDX-License-Identifier: ice License 1.0

package testing

import (
	"context"
	"sync"
	"testing"
	stdlibtime "time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/ice-blockchain/warden/time"
)

type (
	// Clock is a manually advanced time source for tests.
	Clock struct {
		now stdlibtime.Time
		mx  sync.Mutex
	}
)

func GIVEN(_ string, logic func()) {
	logic()
}

func WHEN(_ string, logic func()) {
	logic()
}

func THEN(logic func()) {
	logic()
}

func IT(_ string, logic func()) {
	logic()
}

func AND(_ string, logic func()) {
	logic()
}

func SETUP(_ string, logic func()) {
	logic()
}

func MustMarshal(tb testing.TB, val any) string {
	tb.Helper()
	valueBytes, err := json.MarshalContext(context.Background(), val)
	require.NoError(tb, err)

	return string(valueBytes)
}

func MustUnmarshal[T any](tb testing.TB, val string) *T {
	tb.Helper()
	tt := new(T)
	require.NoError(tb, json.UnmarshalContext(context.Background(), []byte(val), tt))

	return tt
}

func NewClock(start stdlibtime.Time) *Clock {
	return &Clock{now: start.UTC()}
}

func (c *Clock) Now() *time.Time {
	c.mx.Lock()
	defer c.mx.Unlock()

	return time.New(c.now)
}

func (c *Clock) Advance(d stdlibtime.Duration) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.now = c.now.Add(d)
}
