package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/petrijr/stepform/pkg/api"
)

var (
	// ErrSubmissionNotFound is returned when a submission does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrParentNotFound is returned when no completion was ever recorded
	// against a parent record.
	ErrParentNotFound = errors.New("parent record not found")

	// ErrStepConflict is returned by AdvanceStep and CompleteSubmission when
	// the submitted step is ahead of the highest step the submission reached.
	ErrStepConflict = errors.New("step conflict")

	// ErrSubmissionCompleted is returned by AdvanceStep and
	// CompleteSubmission when the submission already reached the terminal
	// state. For CompleteSubmission it identifies the losing side of a race.
	ErrSubmissionCompleted = errors.New("submission already completed")

	// ErrDuplicateSubmission is returned when creating a submission whose ID
	// is already taken.
	ErrDuplicateSubmission = errors.New("duplicate submission id")
)

// SubmissionStore persists wizard submissions. Every method is a single
// independent write or read; no method spans several records.
type SubmissionStore interface {
	// CreateSubmission inserts a new record. The caller assigns the ID.
	CreateSubmission(ctx context.Context, sub *api.Submission) error
	GetSubmission(ctx context.Context, id string) (*api.Submission, error)
	ListSubmissions(ctx context.Context, opts api.SubmissionListOptions) ([]*api.Submission, error)

	// MergeFields upserts field values; keys not in fields are untouched.
	MergeFields(ctx context.Context, id string, fields map[string]string) error
	SetTitle(ctx context.Context, id, title string) error
	SetToken(ctx context.Context, id, token string) error
	SetStatus(ctx context.Context, id string, status api.Status) error

	// AdvanceStep records that step was submitted on an unfinished
	// submission and marks it incomplete. It is a compare-and-set on the
	// stored current step:
	//   - current == step: current becomes step+1
	//   - current >  step: an earlier step was revisited, current is kept.
	//     A racer that lost the current == step case lands here too.
	//   - current <  step: ErrStepConflict
	//   - already completed: ErrSubmissionCompleted
	AdvanceStep(ctx context.Context, id string, step int) error

	// CompleteSubmission clears the incomplete flag if the submission is
	// still incomplete and its current step equals step. Exactly one caller
	// can win; the others get ErrSubmissionCompleted.
	CompleteSubmission(ctx context.Context, id string, step int, at time.Time) error
}

// ParentStore records the terminal back-reference on parent records.
type ParentStore interface {
	RecordCompletion(ctx context.Context, parentID, submissionID string, at time.Time) error
	GetParent(ctx context.Context, parentID string) (*api.ParentRecord, error)
}

// Store bundles both interfaces so the wizard can depend on a single
// abstraction. Every backend in this package implements it.
type Store interface {
	SubmissionStore
	ParentStore
}
