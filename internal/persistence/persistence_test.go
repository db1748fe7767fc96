package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	opened, err := Open(context.Background(), Options{Driver: DriverMemory})
	require.NoError(t, err)
	require.IsType(t, &InMemoryStore{}, opened.Store)
	require.NoError(t, opened.Close(context.Background()))
}

func TestOpen_SQLiteFile(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "stepform.db")

	opened, err := Open(ctx, Options{Driver: DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, opened.Store.CreateSubmission(ctx, newTestSubmission("s1")))
	require.NoError(t, opened.Close(ctx))

	reopened, err := Open(ctx, Options{Driver: DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	defer reopened.Close(ctx)

	got, err := reopened.Store.GetSubmission(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "contact", got.WizardID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "etcd"})
	require.ErrorContains(t, err, `unknown driver "etcd"`)
}

func TestOpen_BadRedisURL(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: DriverRedis, DSN: "not a url"})
	require.Error(t, err)
}
