package stepform

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/stepform/pkg/api"
)

func TestWizardBuilder_BuildAndRun(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	metrics := &BasicMetrics{}

	var completed []string
	ctrl := New("contact").
		Group("personal").
		Group("message").
		Tag("contacted").
		Record("lead", StatusActive).
		ReturnTo("/customers/{id}").
		Observe(metrics).
		OnComplete(func(ctx context.Context, sub *Submission, at time.Time) error {
			completed = append(completed, sub.ID)
			return nil
		}).
		MustBuild(store)

	require.Equal(t, "contact", ctrl.ID())

	page, _ := url.Parse("/customers/c-1/contact")
	next, err := ctrl.Submit(ctx, RequestContext{
		PostedWizardID: "contact",
		PostedStep:     1,
		ParentID:       "c-1",
		PageURL:        page,
		Fields:         map[string]string{"name": "Ada"},
	})
	require.NoError(t, err)
	require.Equal(t, api.ActionRedirect, next.Kind)

	loc, err := url.Parse(next.URL)
	require.NoError(t, err)
	q := loc.Query()

	next, err = ctrl.Submit(ctx, RequestContext{
		SubmissionID:   q.Get(api.ParamSubmissionID),
		Token:          q.Get(api.ParamToken),
		QueryStep:      2,
		PostedWizardID: "contact",
		PostedStep:     2,
		ParentID:       "c-1",
		PageURL:        loc,
		Fields:         map[string]string{"body": "hello"},
	})
	require.NoError(t, err)
	require.Equal(t, "/customers/c-1?updated=contacted", next.URL)
	require.Equal(t, []string{q.Get(api.ParamSubmissionID)}, completed)

	sub, err := store.GetSubmission(ctx, completed[0])
	require.NoError(t, err)
	require.Equal(t, "hello", sub.Fields["message/body"])
	require.EqualValues(t, 1, metrics.Snapshot().SubmissionsCompleted)
}

func TestWizardBuilder_WithoutGroupsIsNotUsable(t *testing.T) {
	ctrl, err := New("empty").Build(NewInMemoryStore())
	require.NoError(t, err)

	_, err = ctrl.Render(context.Background(), RequestContext{})
	_, ok := api.IsConfigurationError(err)
	require.True(t, ok)
}

func TestWizardBuilder_EmptyGroupPanics(t *testing.T) {
	require.Panics(t, func() { New("contact").Group("") })
}

func TestWizardBuilder_RequiresStore(t *testing.T) {
	_, err := New("contact").Group("a").Build(nil)
	require.Error(t, err)
}
