package wizard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/petrijr/stepform/internal/persistence"
	"github.com/petrijr/stepform/internal/resolver"
	"github.com/petrijr/stepform/pkg/api"
)

// ours reports whether a save belongs to this wizard's public form.
func (c *Controller) ours(ctx context.Context, rc api.RequestContext) bool {
	var reason error
	switch {
	case rc.Admin:
		reason = api.DowngradeReason(api.ErrForeignSubmission, "administrative save")
	case rc.PostedWizardID != c.id:
		reason = api.DowngradeReason(api.ErrForeignSubmission, "posted wizard %q", rc.PostedWizardID)
	default:
		return true
	}
	c.observer.OnRequestDowngraded(ctx, c.id, reason)
	return false
}

// scopeFields prefixes bare field names with the group they were posted for.
func scopeFields(group api.GroupID, fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	prefix := string(group) + "/"
	for name, v := range fields {
		name = strings.TrimPrefix(name, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		out[api.FieldKey(group, name)] = v
	}
	return out
}

// Submit persists the posted group and then runs the save hook, the way an
// external form engine would: a new submission is created for step 1 of a
// fresh visitor, otherwise the resumed submission receives the values.
func (c *Controller) Submit(ctx context.Context, rc api.RequestContext) (api.NextAction, error) {
	if !c.ours(ctx, rc) {
		return api.Ignore(), nil
	}

	groups, err := c.groups(ctx)
	if err != nil {
		return api.NextAction{}, err
	}
	total := len(groups)

	res, err := c.resolver.Resolve(ctx, rc, total)
	if err != nil {
		return api.NextAction{}, err
	}
	c.downgraded(ctx, res.Downgrades)

	// Values posted for a step the request may not submit belong to no
	// group; keep none of them.
	if rc.PostedStep > 0 && rc.PostedStep != res.Step {
		c.logger.InfoContext(ctx, "posted_step_discarded",
			"wizard", c.id,
			"submission_id", res.SubmissionID,
			"posted_step", rc.PostedStep,
			"step", res.Step,
		)
		if res.IsNew() {
			return api.Redirect(restartURL(rc.ReturnURL())), nil
		}
		return api.Redirect(nextStepURL(rc.ReturnURL(), res.Step, res.SubmissionID, rc.Token)), nil
	}

	fields := scopeFields(groups[res.Step-1], rc.Fields)
	id := res.SubmissionID

	if res.IsNew() {
		id = c.newID()
		sub := &api.Submission{
			ID:          id,
			WizardID:    c.id,
			ParentID:    rc.ParentID,
			Status:      c.recordDefaults.Status,
			CurrentStep: 1,
			Incomplete:  true,
			Fields:      fields,
			CreatedAt:   c.now(),
		}
		if err := c.store.CreateSubmission(ctx, sub); err != nil {
			return api.NextAction{}, err
		}
		c.observer.OnSubmissionStarted(ctx, c.event(id, 1, total))
	} else if err := c.store.MergeFields(ctx, id, fields); err != nil {
		return api.NextAction{}, err
	}

	return c.HandleSubmit(ctx, id, rc.WithStep(res.Step))
}

// HandleSubmit is the save hook run after a submission's values have been
// stored. It advances the submission to the next step, or completes it on
// the last step, and returns where the browser goes next. Saves that carry
// another wizard's marker or come from the administrative path are ignored.
func (c *Controller) HandleSubmit(ctx context.Context, id string, rc api.RequestContext) (next api.NextAction, err error) {
	ctx, span := c.startSpan(ctx, spanSubmit, rc)
	defer func() { endSpan(span, err) }()

	if !c.ours(ctx, rc) {
		return api.Ignore(), nil
	}

	groups, err := c.groups(ctx)
	if err != nil {
		return api.NextAction{}, err
	}
	total := len(groups)

	step, downgrades := resolver.Step(rc, total)
	c.downgraded(ctx, downgrades)
	annotate(span, id, step, total)

	token := rc.Token
	if step == 1 {
		title := rc.ParentID
		if title == "" {
			title = id
		}
		if err := c.store.SetTitle(ctx, id, title); err != nil {
			return api.NextAction{}, err
		}
		token = c.newToken()
		if err := c.store.SetToken(ctx, id, token); err != nil {
			return api.NextAction{}, err
		}
	}

	if step < total {
		if err := c.store.AdvanceStep(ctx, id, step); err != nil {
			return api.NextAction{}, err
		}
		c.observer.OnStepSubmitted(ctx, c.event(id, step, total))
		return api.Redirect(nextStepURL(rc.ReturnURL(), step+1, id, token)), nil
	}

	at := c.now()
	err = c.store.CompleteSubmission(ctx, id, step, at)
	switch {
	case errors.Is(err, persistence.ErrSubmissionCompleted):
		c.logger.InfoContext(ctx, "duplicate_completion_ignored",
			"wizard", c.id,
			"submission_id", id,
		)
	case err != nil:
		return api.NextAction{}, err
	default:
		if rc.ParentID != "" {
			if err := c.store.RecordCompletion(ctx, rc.ParentID, id, at); err != nil {
				return api.NextAction{}, err
			}
		}
		c.observer.OnSubmissionCompleted(ctx, c.event(id, step, total))
		c.runCompletionActions(ctx, id, at)
	}

	if rc.ParentID != "" {
		return api.Redirect(parentURL(c.parentURL, rc.ParentID, c.tag)), nil
	}
	return api.Redirect(finishedURL(rc.ReturnURL())), nil
}

func (c *Controller) runCompletionActions(ctx context.Context, id string, at time.Time) {
	if len(c.actions) == 0 {
		return
	}
	sub, err := c.store.GetSubmission(ctx, id)
	if err != nil {
		c.logger.WarnContext(ctx, "completion_actions_skipped",
			"wizard", c.id,
			"submission_id", id,
			"error", err,
		)
		return
	}
	for i, action := range c.actions {
		if err := action(ctx, sub.Clone(), at); err != nil {
			c.logger.WarnContext(ctx, "completion_action_failed",
				"wizard", c.id,
				"submission_id", id,
				"action", i,
				"error", err,
			)
		}
	}
}
