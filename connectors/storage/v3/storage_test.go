// SPDX-License-Identifier: ice License 1.0

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ice-blockchain/warden/connectors/storage/v3/fixture"
)

func TestMustConnect(t *testing.T) {
	t.Parallel()
	db := MustConnectWithConfig(t.Context(), t.Name(), &Config{URL: fixture.MustStartRedis(t)})
	defer func() { require.NoError(t, db.Close()) }()

	result, err := db.Ping(t.Context()).Result()
	require.NoError(t, err)
	assert.Equal(t, "PONG", result)
	require.NoError(t, db.Set(t.Context(), "k", "v", 0).Err())
	val, err := db.Get(t.Context(), "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}
