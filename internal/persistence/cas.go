package persistence

import (
	"context"

	"github.com/petrijr/stepform/pkg/api"
)

// checkAdvance applies the AdvanceStep rules to a loaded record.
func checkAdvance(current int, completed bool, step int) error {
	switch {
	case completed:
		return ErrSubmissionCompleted
	case current < step:
		return ErrStepConflict
	default:
		return nil
	}
}

// checkComplete applies the CompleteSubmission rules to a loaded record.
func checkComplete(current int, completed bool, step int) error {
	return checkAdvance(current, completed, step)
}

// explainRejected reloads a record after a conditional write matched nothing
// and reports why.
func explainRejected(ctx context.Context, s SubmissionStore, id string, step int) error {
	sub, err := s.GetSubmission(ctx, id)
	if err != nil {
		return err
	}
	if err := checkAdvance(sub.CurrentStep, !sub.CompletedAt.IsZero(), step); err != nil {
		return err
	}
	// The record changed between the write and the read; report it as the
	// losing side of a race.
	return ErrStepConflict
}

func matches(sub *api.Submission, opts api.SubmissionListOptions) bool {
	if opts.WizardID != "" && sub.WizardID != opts.WizardID {
		return false
	}
	if opts.Status != "" && sub.Status != opts.Status {
		return false
	}
	if opts.OnlyIncomplete && !sub.Incomplete {
		return false
	}
	return true
}
