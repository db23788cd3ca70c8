//go:build integration

package testutil

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisContainer wraps a Redis testcontainer.
type RedisContainer struct {
	Container testcontainers.Container
	Addr      string
}

// SetupRedis starts a Redis testcontainer.
func SetupRedis(ctx context.Context) (*RedisContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Redis container: %w", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get Redis endpoint: %w", err)
	}

	return &RedisContainer{Container: container, Addr: endpoint}, nil
}

// Client returns a new client for the container. Callers close it.
func (r *RedisContainer) Client() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: r.Addr})
}

// Cleanup removes the container.
func (r *RedisContainer) Cleanup(_ context.Context) error {
	if r == nil || r.Container == nil {
		return nil
	}
	return testcontainers.TerminateContainer(r.Container)
}
