package stepform

import (
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/stepform/internal/persistence"
	"github.com/petrijr/stepform/internal/wizard"
	"github.com/petrijr/stepform/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Controller            = wizard.Controller
	Config                = wizard.Config
	Labels                = wizard.Labels
	Store                 = persistence.Store
	Submission            = api.Submission
	SubmissionListOptions = api.SubmissionListOptions
	ParentRecord          = api.ParentRecord
	RequestContext        = api.RequestContext
	RenderedOutput        = api.RenderedOutput
	NextAction            = api.NextAction
	GroupID               = api.GroupID
	Catalog               = api.Catalog
	CatalogFunc           = api.CatalogFunc
	CompletionAction      = api.CompletionAction
	RecordDefaults        = api.RecordDefaults
	Status                = api.Status
	Observer              = api.Observer
	StepEvent             = api.StepEvent
	BasicMetrics          = api.BasicMetrics
	BasicMetricsSnapshot  = api.BasicMetricsSnapshot
	NoopObserver          = api.NoopObserver
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

const (
	StatusActive   = api.StatusActive
	StatusArchived = api.StatusArchived
)

// Store constructors.
// These wrap the internal/persistence package so external callers
// never need to import internal packages.

// NewInMemoryStore returns a non-durable Store, useful for tests.
func NewInMemoryStore() Store {
	return persistence.NewInMemoryStore()
}

// NewSQLiteStore returns a Store kept in a SQLite database opened with the
// "sqlite" driver from modernc.org/sqlite.
func NewSQLiteStore(db *sql.DB) (Store, error) {
	s, err := persistence.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewPostgresStore returns a Store kept in PostgreSQL, typically opened with
// the "pgx" driver.
func NewPostgresStore(db *sql.DB) (Store, error) {
	s, err := persistence.NewPostgresStore(db)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewRedisStore returns a Store kept in Redis under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) Store {
	return persistence.NewRedisStore(client, prefix)
}

// NewMongoStore returns a Store kept in the named MongoDB database.
func NewMongoStore(client *mongo.Client, database string) Store {
	return persistence.NewMongoStore(client, database)
}

// NewController validates cfg and returns a Controller.
func NewController(cfg Config) (*Controller, error) {
	return wizard.New(cfg)
}
