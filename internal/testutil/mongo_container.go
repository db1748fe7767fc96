package testutil

import (
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	mongoOnce sync.Once
	mongoURI  string
	mongoErr  error
)

// GetMongoURI returns a connection URI for a shared MongoDB container.
func GetMongoURI(t *testing.T) string {
	t.Helper()

	mongoOnce.Do(func() {
		var endpoint string
		endpoint, mongoErr = containerEndpoint("mongo:7", "27017/tcp", nil,
			wait.ForAll(
				wait.ForListeningPort("27017/tcp"),
				wait.ForLog("Waiting for connections"),
			),
		)
		if mongoErr == nil {
			mongoURI = "mongodb://" + endpoint
		}
	})
	skipOnError(t, "mongo", mongoErr)
	return mongoURI
}
