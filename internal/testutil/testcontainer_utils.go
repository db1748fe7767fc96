package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startupTimeout is generous so slow CI runners can pull images.
const startupTimeout = 3 * time.Minute

// containerEndpoint starts image, waits for it and returns its host:port.
func containerEndpoint(image, port string, env map[string]string, strategy wait.Strategy) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	opts := []testcontainers.ContainerCustomizer{
		testcontainers.WithExposedPorts(port),
		testcontainers.WithWaitStrategy(strategy),
	}
	if len(env) > 0 {
		opts = append(opts, testcontainers.WithEnv(env))
	}

	c, err := testcontainers.Run(ctx, image, opts...)
	if err != nil {
		return "", err
	}

	endpoint, err := c.Endpoint(ctx, "")
	if err != nil {
		_ = c.Terminate(context.Background())
		return "", err
	}
	return endpoint, nil
}

// skipOnError skips the calling test when a shared container failed to
// start, typically because no Docker daemon is reachable.
func skipOnError(t *testing.T, name string, err error) {
	t.Helper()
	if err != nil {
		t.Skipf("%s container unavailable: %v", name, err)
	}
}
