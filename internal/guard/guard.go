// Package guard authorizes resume requests against the secret token stored
// with each submission.
package guard

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"

	"github.com/petrijr/stepform/internal/persistence"
	"github.com/petrijr/stepform/pkg/api"
)

// TokenLength is the length of every generated token.
const TokenLength = 26

// NewToken returns a fresh resume token: 128 bits from crypto/rand, base32
// encoded.
func NewToken() string {
	return rand.Text()
}

// Match reports whether presented equals stored. An empty stored token never
// matches.
func Match(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}

// SubmissionReader is the part of the store the guard needs.
type SubmissionReader interface {
	GetSubmission(ctx context.Context, id string) (*api.Submission, error)
}

// Guard checks resume credentials.
type Guard struct {
	store SubmissionReader
}

// New returns a Guard reading submissions from store.
func New(store SubmissionReader) *Guard {
	return &Guard{store: store}
}

// Authorize returns the submission named by id when token matches its
// stored secret. Every credential problem is reported as an error wrapping
// api.ErrResumeDenied; only store failures come back unwrapped.
func (g *Guard) Authorize(ctx context.Context, id, token string) (*api.Submission, error) {
	if id == "" || id == api.NewSubmissionID {
		return nil, api.DowngradeReason(api.ErrResumeDenied, "no submission id")
	}
	if token == "" {
		return nil, api.DowngradeReason(api.ErrResumeDenied, "no token for submission %s", id)
	}

	sub, err := g.store.GetSubmission(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrSubmissionNotFound) {
			return nil, api.DowngradeReason(api.ErrResumeDenied, "submission %s not found", id)
		}
		return nil, err
	}
	if sub.Token == "" {
		return nil, api.DowngradeReason(api.ErrResumeDenied, "submission %s has no token", id)
	}
	if !Match(sub.Token, token) {
		return nil, api.DowngradeReason(api.ErrResumeDenied, "token mismatch for submission %s", id)
	}
	return sub, nil
}
