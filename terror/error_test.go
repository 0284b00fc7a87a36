// SPDX-License-Identifier: ice License 1.0

package terror

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErr(t *testing.T) {
	t.Parallel()
	errSentinel := errors.New("sentinel")
	err := errors.Wrapf(New(errSentinel, map[string]any{"remaining": 0}), "outer")

	require.ErrorIs(t, err, errSentinel)
	tErr := As(err)
	require.NotNil(t, tErr)
	assert.Equal(t, map[string]any{"remaining": 0}, tErr.Data)
	assert.Equal(t, map[string]any{"remaining": 0}, DataOf(err))
	assert.Equal(t, "outer: sentinel", err.Error())

	assert.Nil(t, As(errSentinel))
	assert.Nil(t, DataOf(errSentinel))
	assert.NotErrorIs(t, err, errors.New("sentinel"))
}
