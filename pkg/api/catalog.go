package api

import (
	"context"
	"time"
)

// Catalog supplies the ordered field groups that make up a wizard's steps.
// Implementations are read once per request and must not be cached across
// requests by callers.
type Catalog interface {
	Groups(ctx context.Context) ([]GroupID, error)
}

// CatalogFunc adapts a function to Catalog.
type CatalogFunc func(ctx context.Context) ([]GroupID, error)

func (f CatalogFunc) Groups(ctx context.Context) ([]GroupID, error) {
	return f(ctx)
}

// CompletionAction is an opaque side effect run once a submission reaches
// the terminal state (notify someone, enqueue a review, ...).
type CompletionAction func(ctx context.Context, sub *Submission, completedAt time.Time) error
