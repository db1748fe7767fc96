// Package resolver decides which submission and which step an incoming
// request is about.
package resolver

import (
	"context"
	"errors"

	"github.com/petrijr/stepform/pkg/api"
)

// Authorizer checks resume credentials. *guard.Guard implements it.
type Authorizer interface {
	Authorize(ctx context.Context, id, token string) (*api.Submission, error)
}

// Resolution is the outcome of resolving one request.
type Resolution struct {
	// SubmissionID is the resumed submission, or api.NewSubmissionID.
	SubmissionID string
	Step         int
	// Submission is the resumed record; nil for a new submission.
	Submission *api.Submission
	// Downgrades lists why credentials or step values were ignored. Each
	// entry wraps api.ErrResumeDenied or api.ErrOutOfRangeStep.
	Downgrades []error
}

// IsNew reports whether the request starts a new submission.
func (r Resolution) IsNew() bool {
	return r.SubmissionID == api.NewSubmissionID
}

// Resolver resolves requests for one wizard.
type Resolver struct {
	wizardID string
	auth     Authorizer
}

// New returns a Resolver for wizardID.
func New(wizardID string, auth Authorizer) *Resolver {
	return &Resolver{wizardID: wizardID, auth: auth}
}

// Resolve picks the submission and step for rc. Credential and step
// anomalies never fail the call; they downgrade to a new submission at
// step 1. Only store failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, rc api.RequestContext, totalSteps int) (Resolution, error) {
	res := Resolution{SubmissionID: api.NewSubmissionID, Step: 1}

	if rc.SubmissionID == "" || rc.SubmissionID == api.NewSubmissionID {
		return res, nil
	}

	sub, err := r.auth.Authorize(ctx, rc.SubmissionID, rc.Token)
	switch {
	case errors.Is(err, api.ErrResumeDenied):
		res.Downgrades = append(res.Downgrades, err)
		return res, nil
	case err != nil:
		return res, err
	case !sub.Resumable(r.wizardID):
		res.Downgrades = append(res.Downgrades,
			api.DowngradeReason(api.ErrResumeDenied, "submission %s is not resumable", sub.ID))
		return res, nil
	}

	res.SubmissionID = sub.ID
	res.Submission = sub
	res.Step, res.Downgrades = StepWithin(rc, totalSteps, sub.CurrentStep)
	return res, nil
}

// Step applies the step precedence: the POST body marker, then the
// navigation parameter, then 1. A value above totalSteps is discarded and
// the next source is tried.
func Step(rc api.RequestContext, totalSteps int) (int, []error) {
	return StepWithin(rc, totalSteps, totalSteps)
}

// StepWithin is Step for a submission that has reached step reached: a
// value beyond it is discarded the same way as one beyond totalSteps.
func StepWithin(rc api.RequestContext, totalSteps, reached int) (int, []error) {
	var downgrades []error

	for _, c := range []struct {
		source string
		step   int
	}{
		{"posted", rc.PostedStep},
		{"query", rc.QueryStep},
	} {
		if c.step <= 0 {
			continue
		}
		if c.step > totalSteps {
			downgrades = append(downgrades,
				api.DowngradeReason(api.ErrOutOfRangeStep, "%s step %d exceeds %d", c.source, c.step, totalSteps))
			continue
		}
		if c.step > reached {
			downgrades = append(downgrades,
				api.DowngradeReason(api.ErrOutOfRangeStep, "%s step %d is ahead of reached step %d", c.source, c.step, reached))
			continue
		}
		return c.step, downgrades
	}
	return 1, downgrades
}
