package repository_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:17.6-alpine3.22"
	redisImage    = "redis:7.4-alpine"
)

// backendContainer is a started backend and the address clients dial.
type backendContainer struct {
	container testcontainers.Container
	addr      string
}

func (c backendContainer) terminate(ctx context.Context) error {
	if c.container == nil {
		return nil
	}

	return c.container.Terminate(ctx)
}

// startContainer runs a container and resolves its client address. The
// container is terminated again when the address cannot be resolved.
func startContainer(
	ctx context.Context,
	name string,
	run func(ctx context.Context) (testcontainers.Container, error),
	addr func(ctx context.Context, c testcontainers.Container) (string, error),
) (backendContainer, error) {
	c, err := run(ctx)
	if err != nil {
		return backendContainer{}, fmt.Errorf("run %s: %w", name, err)
	}

	address, err := addr(ctx, c)
	if err != nil {
		return backendContainer{}, errors.Join(fmt.Errorf("%s address: %w", name, err), c.Terminate(ctx))
	}

	return backendContainer{container: c, addr: address}, nil
}

// startPostgres addr is a connection string with kv_entries already migrated.
func startPostgres(ctx context.Context) (backendContainer, error) {
	var pg *postgres.PostgresContainer

	return startContainer(ctx, "postgres",
		func(ctx context.Context) (testcontainers.Container, error) {
			var err error
			pg, err = postgres.Run(ctx, postgresImage,
				postgres.WithDatabase("cart"),
				postgres.WithUsername("cart"),
				postgres.WithPassword("cart"),
				postgres.WithInitScripts("../migrations/01_kv_entries.up.sql"),
				postgres.BasicWaitStrategies(),
			)
			return pg, err
		},
		func(ctx context.Context, _ testcontainers.Container) (string, error) {
			return pg.ConnectionString(ctx, "sslmode=disable")
		},
	)
}

func startRedis(ctx context.Context) (backendContainer, error) {
	return startContainer(ctx, "redis",
		func(ctx context.Context) (testcontainers.Container, error) {
			return testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
				ContainerRequest: testcontainers.ContainerRequest{
					Image:        redisImage,
					ExposedPorts: []string{"6379/tcp"},
					WaitingFor:   wait.ForLog("Ready to accept connections"),
				},
				Started: true,
			})
		},
		func(ctx context.Context, c testcontainers.Container) (string, error) {
			return c.Endpoint(ctx, "")
		},
	)
}
