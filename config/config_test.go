// SPDX-License-Identifier: ice License 1.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoadFromKey(t *testing.T) {
	t.Parallel()
	var development bool
	MustLoadFromKey("development", &development)
	assert.True(t, development)

	var cfg struct {
		Encoder string `yaml:"encoder" mapstructure:"encoder"`
		Level   string `yaml:"level" mapstructure:"level"`
	}
	MustLoadFromKey("logger", &cfg)
	assert.Equal(t, "console", cfg.Encoder)
	assert.NotEmpty(t, cfg.Level)
}

func TestSecretFromEnv(t *testing.T) { //nolint:paralleltest // It mutates the environment.
	t.Setenv("WARDEN_AUTH_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "global")
	require.Equal(t, "global", SecretFromEnv("warden/auth", "JWT_SECRET", "JWT_SECRET"))

	t.Setenv("WARDEN_AUTH_JWT_SECRET", "scoped")
	require.Equal(t, "scoped", SecretFromEnv("warden/auth", "JWT_SECRET", "JWT_SECRET"))

	require.Empty(t, SecretFromEnv("warden/other-module", "UNSET_VALUE"))
}
