package testutil

import (
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// GetRedisAddress returns host:port of a shared Redis container.
func GetRedisAddress(t *testing.T) string {
	t.Helper()

	redisOnce.Do(func() {
		redisAddr, redisErr = containerEndpoint("redis:7", "6379/tcp", nil,
			wait.ForAll(
				wait.ForListeningPort("6379/tcp"),
				wait.ForLog("Ready to accept connections"),
			),
		)
	})
	skipOnError(t, "redis", redisErr)
	return redisAddr
}
