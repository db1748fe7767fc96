package persistence

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
)

// Options select and address a backend.
type Options struct {
	Driver string
	// DSN is a file path or "file:" URI for sqlite, a connection URL for
	// postgres, redis and mongo.
	DSN string
	// Prefix namespaces Redis keys.
	Prefix string
	// Database is the MongoDB database name.
	Database string
}

// Opened is a Store together with the function that releases its
// connections.
type Opened struct {
	Store Store
	Close func(ctx context.Context) error
}

func noClose(context.Context) error { return nil }

// Open connects to the backend described by opts and prepares its schema.
func Open(ctx context.Context, opts Options) (*Opened, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return &Opened{Store: NewInMemoryStore(), Close: noClose}, nil

	case DriverSQLite:
		db, err := sql.Open("sqlite", opts.DSN)
		if err != nil {
			return nil, err
		}
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
		s, err := NewSQLiteStore(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Opened{Store: s, Close: func(context.Context) error { return db.Close() }}, nil

	case DriverPostgres:
		db, err := sql.Open("pgx", opts.DSN)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		s, err := NewPostgresStore(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Opened{Store: s, Close: func(context.Context) error { return db.Close() }}, nil

	case DriverRedis:
		ropts, err := redis.ParseURL(opts.DSN)
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(ropts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, err
		}
		return &Opened{
			Store: NewRedisStore(client, opts.Prefix),
			Close: func(context.Context) error { return client.Close() },
		}, nil

	case DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.DSN))
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &Opened{
			Store: NewMongoStore(client, opts.Database),
			Close: client.Disconnect,
		}, nil

	default:
		return nil, fmt.Errorf("persistence: unknown driver %q", opts.Driver)
	}
}
