// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ice-blockchain/warden/log"
)

const (
	redisImage = "redis:7-alpine"
	redisPort  = "6379/tcp"
)

// MustStartRedis starts a throwaway redis and returns its url. The test is skipped when no container runtime is available.
func MustStartRedis(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        redisImage,
			ExposedPorts: []string{redisPort},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Panic("failed to start redis container: " + err.Error())
	}
	t.Cleanup(func() { log.Error(container.Terminate(context.Background())) })
	endpoint, err := container.PortEndpoint(ctx, redisPort, "")
	if err != nil {
		log.Panic("failed to get redis endpoint: " + err.Error())
	}

	return fmt.Sprintf("redis://%v/0", endpoint)
}
