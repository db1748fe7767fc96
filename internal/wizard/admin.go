package wizard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/petrijr/stepform/internal/persistence"
	"github.com/petrijr/stepform/pkg/api"
)

// ErrInvalidFieldKey is returned for administrative edits whose keys are not
// scoped to a group of the wizard's catalog.
var ErrInvalidFieldKey = errors.New("invalid field key")

// List returns this wizard's submissions.
func (c *Controller) List(ctx context.Context, opts api.SubmissionListOptions) ([]*api.Submission, error) {
	opts.WizardID = c.id
	return c.store.ListSubmissions(ctx, opts)
}

// Get returns one of this wizard's submissions.
func (c *Controller) Get(ctx context.Context, id string) (*api.Submission, error) {
	sub, err := c.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.WizardID != c.id {
		return nil, persistence.ErrSubmissionNotFound
	}
	return sub, nil
}

// EditFields overwrites group-scoped values from the administrative path.
// Keys must be of the form "<group>/<field>" naming a group in the wizard's
// catalog. The submission's progress, token and completion state are left
// untouched.
func (c *Controller) EditFields(ctx context.Context, id string, fields map[string]string) (*api.Submission, error) {
	if _, err := c.Get(ctx, id); err != nil {
		return nil, err
	}
	groups, err := c.groups(ctx)
	if err != nil {
		return nil, err
	}
	for k := range fields {
		group, name, ok := strings.Cut(k, "/")
		if !ok || group == "" || name == "" {
			return nil, fmt.Errorf("%w: %q is not <group>/<field>", ErrInvalidFieldKey, k)
		}
		if !slices.Contains(groups, api.GroupID(group)) {
			return nil, fmt.Errorf("%w: %q names unknown group %q", ErrInvalidFieldKey, k, group)
		}
	}
	if err := c.store.MergeFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return c.store.GetSubmission(ctx, id)
}

// Archive takes a submission out of circulation; it can no longer be
// resumed.
func (c *Controller) Archive(ctx context.Context, id string) (*api.Submission, error) {
	if _, err := c.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := c.store.SetStatus(ctx, id, api.StatusArchived); err != nil {
		return nil, err
	}
	return c.store.GetSubmission(ctx, id)
}
