package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/stepform/internal/guard"
	"github.com/petrijr/stepform/internal/persistence"
	"github.com/petrijr/stepform/pkg/api"
)

func TestStep_Precedence(t *testing.T) {
	tests := []struct {
		name       string
		rc         api.RequestContext
		want       int
		downgraded int
	}{
		{"default", api.RequestContext{}, 1, 0},
		{"query only", api.RequestContext{QueryStep: 2}, 2, 0},
		{"posted beats query", api.RequestContext{PostedStep: 3, QueryStep: 2}, 3, 0},
		{"posted out of range falls to query", api.RequestContext{PostedStep: 9, QueryStep: 2}, 2, 1},
		{"both out of range", api.RequestContext{PostedStep: 9, QueryStep: 4}, 1, 2},
		{"query out of range", api.RequestContext{QueryStep: 4}, 1, 1},
		{"last step", api.RequestContext{QueryStep: 3}, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, downgrades := Step(tt.rc, 3)
			require.Equal(t, tt.want, got)
			require.Len(t, downgrades, tt.downgraded)
			for _, d := range downgrades {
				require.ErrorIs(t, d, api.ErrOutOfRangeStep)
			}
		})
	}
}

func newResolver(t *testing.T) (*Resolver, *persistence.InMemoryStore) {
	t.Helper()
	ctx := context.Background()
	store := persistence.NewInMemoryStore()

	require.NoError(t, store.CreateSubmission(ctx, &api.Submission{
		ID: "42", WizardID: "contact", Status: api.StatusActive, CurrentStep: 2, Token: "T", Incomplete: true,
	}))
	require.NoError(t, store.CreateSubmission(ctx, &api.Submission{
		ID: "50", WizardID: "contact", Status: api.StatusActive, CurrentStep: 3, Token: "T", Incomplete: false,
	}))
	require.NoError(t, store.CreateSubmission(ctx, &api.Submission{
		ID: "60", WizardID: "survey", Status: api.StatusActive, CurrentStep: 1, Token: "T", Incomplete: true,
	}))
	require.NoError(t, store.CreateSubmission(ctx, &api.Submission{
		ID: "70", WizardID: "contact", Status: api.StatusArchived, CurrentStep: 1, Token: "T", Incomplete: true,
	}))
	return New("contact", guard.New(store)), store
}

func TestResolve_FreshVisitor(t *testing.T) {
	r, _ := newResolver(t)

	res, err := r.Resolve(context.Background(), api.RequestContext{QueryStep: 3}, 3)
	require.NoError(t, err)
	require.True(t, res.IsNew())
	require.Equal(t, 1, res.Step)
	require.Nil(t, res.Submission)
}

func TestResolve_ValidResumeTrustsStep(t *testing.T) {
	r, _ := newResolver(t)

	res, err := r.Resolve(context.Background(), api.RequestContext{SubmissionID: "42", Token: "T", QueryStep: 2}, 3)
	require.NoError(t, err)
	require.Equal(t, "42", res.SubmissionID)
	require.Equal(t, 2, res.Step)
	require.NotNil(t, res.Submission)
	require.Empty(t, res.Downgrades)
}

func TestResolve_DowngradesToNew(t *testing.T) {
	r, _ := newResolver(t)

	tests := []struct {
		name string
		rc   api.RequestContext
	}{
		{"wrong token", api.RequestContext{SubmissionID: "42", Token: "WRONG", QueryStep: 2}},
		{"missing token", api.RequestContext{SubmissionID: "42", QueryStep: 2}},
		{"unknown id", api.RequestContext{SubmissionID: "404", Token: "T", QueryStep: 2}},
		{"completed", api.RequestContext{SubmissionID: "50", Token: "T", QueryStep: 2}},
		{"other wizard", api.RequestContext{SubmissionID: "60", Token: "T", QueryStep: 2}},
		{"archived", api.RequestContext{SubmissionID: "70", Token: "T", QueryStep: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), tt.rc, 3)
			require.NoError(t, err)
			require.True(t, res.IsNew())
			require.Equal(t, 1, res.Step)
			require.Len(t, res.Downgrades, 1)
			require.ErrorIs(t, res.Downgrades[0], api.ErrResumeDenied)
		})
	}
}

func TestResolve_OutOfRangeStepOnResume(t *testing.T) {
	r, _ := newResolver(t)

	res, err := r.Resolve(context.Background(), api.RequestContext{SubmissionID: "42", Token: "T", QueryStep: 7}, 3)
	require.NoError(t, err)
	require.Equal(t, "42", res.SubmissionID)
	require.Equal(t, 1, res.Step)
	require.Len(t, res.Downgrades, 1)
	require.ErrorIs(t, res.Downgrades[0], api.ErrOutOfRangeStep)
}

func TestResolve_StepBeyondReachedFallsThrough(t *testing.T) {
	r, _ := newResolver(t)
	ctx := context.Background()

	// Submission 42 has reached step 2 of 3.
	res, err := r.Resolve(ctx, api.RequestContext{SubmissionID: "42", Token: "T", QueryStep: 3}, 3)
	require.NoError(t, err)
	require.Equal(t, "42", res.SubmissionID)
	require.Equal(t, 1, res.Step)
	require.Len(t, res.Downgrades, 1)
	require.ErrorIs(t, res.Downgrades[0], api.ErrOutOfRangeStep)

	res, err = r.Resolve(ctx, api.RequestContext{SubmissionID: "42", Token: "T", PostedStep: 3, QueryStep: 2}, 3)
	require.NoError(t, err)
	require.Equal(t, 2, res.Step)
	require.Len(t, res.Downgrades, 1)
}

func TestStepWithin(t *testing.T) {
	step, downgrades := StepWithin(api.RequestContext{QueryStep: 2}, 3, 2)
	require.Equal(t, 2, step)
	require.Empty(t, downgrades)

	step, downgrades = StepWithin(api.RequestContext{PostedStep: 3}, 3, 2)
	require.Equal(t, 1, step)
	require.Len(t, downgrades, 1)
}

type brokenAuth struct{}

func (brokenAuth) Authorize(ctx context.Context, id, token string) (*api.Submission, error) {
	return nil, errors.New("store down")
}

func TestResolve_StoreFailurePropagates(t *testing.T) {
	_, err := New("contact", brokenAuth{}).Resolve(context.Background(), api.RequestContext{SubmissionID: "42", Token: "T"}, 3)
	require.EqualError(t, err, "store down")
}
