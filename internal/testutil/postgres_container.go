package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go/wait"

	// Registers the "pgx" driver used by the readiness probe.
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

func postgresDSN(hostPort string) string {
	return fmt.Sprintf("postgres://stepform:stepform@%s/stepform_test?sslmode=disable", hostPort)
}

// GetPostgresDSN returns a DSN for a shared PostgreSQL container.
func GetPostgresDSN(t *testing.T) string {
	t.Helper()

	pgOnce.Do(func() {
		var endpoint string
		endpoint, pgErr = containerEndpoint("postgres:16", "5432/tcp",
			map[string]string{
				"POSTGRES_USER":     "stepform",
				"POSTGRES_PASSWORD": "stepform",
				"POSTGRES_DB":       "stepform_test",
			},
			wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("ready to accept connections"),
				wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
					return postgresDSN(host + ":" + port.Port())
				}).WithQuery("SELECT 1"),
			).WithDeadline(2*time.Minute),
		)
		if pgErr == nil {
			pgDSN = postgresDSN(endpoint)
		}
	})
	skipOnError(t, "postgres", pgErr)
	return pgDSN
}
