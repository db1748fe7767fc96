package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/stepform/pkg/api"
)

// runStoreContract exercises the behaviour every Store backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		sub := newTestSubmission("sub-1")
		require.NoError(t, s.CreateSubmission(ctx, sub))

		got, err := s.GetSubmission(ctx, "sub-1")
		require.NoError(t, err)
		require.Equal(t, "contact", got.WizardID)
		require.Equal(t, "parent-9", got.ParentID)
		require.Equal(t, api.StatusActive, got.Status)
		require.Equal(t, 1, got.CurrentStep)
		require.True(t, got.Incomplete)
		require.True(t, got.CompletedAt.IsZero())
		require.Equal(t, "Ada", got.Fields["personal/name"])
		require.False(t, got.CreatedAt.IsZero())
	})

	t.Run("DuplicateCreate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.CreateSubmission(ctx, newTestSubmission("dup")))
		require.ErrorIs(t, s.CreateSubmission(ctx, newTestSubmission("dup")), ErrDuplicateSubmission)
	})

	t.Run("NotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetSubmission(ctx, "missing")
		require.ErrorIs(t, err, ErrSubmissionNotFound)
		require.ErrorIs(t, s.SetTitle(ctx, "missing", "x"), ErrSubmissionNotFound)
		require.ErrorIs(t, s.MergeFields(ctx, "missing", map[string]string{"a/b": "c"}), ErrSubmissionNotFound)
		require.ErrorIs(t, s.AdvanceStep(ctx, "missing", 1), ErrSubmissionNotFound)
		require.ErrorIs(t, s.CompleteSubmission(ctx, "missing", 1, time.Now()), ErrSubmissionNotFound)

		_, err = s.GetParent(ctx, "nobody")
		require.ErrorIs(t, err, ErrParentNotFound)
	})

	t.Run("MergeFieldsAndSetters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateSubmission(ctx, newTestSubmission("m")))

		require.NoError(t, s.MergeFields(ctx, "m", map[string]string{
			"personal/name":  "Grace",
			"address/street": "Main St. 1",
			"address/$zip":   "00100",
		}))
		require.NoError(t, s.SetTitle(ctx, "m", "parent-9"))
		require.NoError(t, s.SetToken(ctx, "m", "tok"))
		require.NoError(t, s.SetStatus(ctx, "m", api.StatusArchived))

		got, err := s.GetSubmission(ctx, "m")
		require.NoError(t, err)
		require.Equal(t, "Grace", got.Fields["personal/name"])
		require.Equal(t, "Main St. 1", got.Fields["address/street"])
		require.Equal(t, "00100", got.Fields["address/$zip"])
		require.Equal(t, "parent-9", got.Title)
		require.Equal(t, "tok", got.Token)
		require.Equal(t, api.StatusArchived, got.Status)
	})

	t.Run("ListFilters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a := newTestSubmission("a")
		b := newTestSubmission("b")
		b.WizardID = "survey"
		c := newTestSubmission("c")
		c.Incomplete = false
		for _, sub := range []*api.Submission{a, b, c} {
			require.NoError(t, s.CreateSubmission(ctx, sub))
		}
		require.NoError(t, s.SetStatus(ctx, "c", api.StatusArchived))

		all, err := s.ListSubmissions(ctx, api.SubmissionListOptions{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		require.Equal(t, "a", all[0].ID)

		contact, err := s.ListSubmissions(ctx, api.SubmissionListOptions{WizardID: "contact"})
		require.NoError(t, err)
		require.Len(t, contact, 2)

		active, err := s.ListSubmissions(ctx, api.SubmissionListOptions{Status: api.StatusActive})
		require.NoError(t, err)
		require.Len(t, active, 2)

		open, err := s.ListSubmissions(ctx, api.SubmissionListOptions{WizardID: "contact", OnlyIncomplete: true})
		require.NoError(t, err)
		require.Len(t, open, 1)
		require.Equal(t, "a", open[0].ID)
	})

	t.Run("AdvanceStep", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateSubmission(ctx, newTestSubmission("adv")))

		require.NoError(t, s.AdvanceStep(ctx, "adv", 1))
		got, err := s.GetSubmission(ctx, "adv")
		require.NoError(t, err)
		require.Equal(t, 2, got.CurrentStep)

		// Revisiting an earlier step keeps the frontier.
		require.NoError(t, s.AdvanceStep(ctx, "adv", 1))
		got, err = s.GetSubmission(ctx, "adv")
		require.NoError(t, err)
		require.Equal(t, 2, got.CurrentStep)

		require.ErrorIs(t, s.AdvanceStep(ctx, "adv", 3), ErrStepConflict)
	})

	t.Run("CompleteSubmission", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateSubmission(ctx, newTestSubmission("done")))
		require.NoError(t, s.AdvanceStep(ctx, "done", 1))

		require.ErrorIs(t, s.CompleteSubmission(ctx, "done", 3, time.Now()), ErrStepConflict)

		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, s.CompleteSubmission(ctx, "done", 2, at))

		got, err := s.GetSubmission(ctx, "done")
		require.NoError(t, err)
		require.False(t, got.Incomplete)
		require.True(t, got.CompletedAt.Equal(at))

		require.ErrorIs(t, s.CompleteSubmission(ctx, "done", 2, at), ErrSubmissionCompleted)
		require.ErrorIs(t, s.AdvanceStep(ctx, "done", 1), ErrSubmissionCompleted)
	})

	t.Run("ConcurrentCompleteHasOneWinner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateSubmission(ctx, newTestSubmission("race")))

		const n = 8
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.CompleteSubmission(ctx, "race", 1, time.Now())
			}()
		}
		wg.Wait()
		close(errs)

		won := 0
		for err := range errs {
			if err == nil {
				won++
				continue
			}
			require.ErrorIs(t, err, ErrSubmissionCompleted)
		}
		require.Equal(t, 1, won)
	})

	t.Run("ConcurrentAdvanceMovesOnce", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateSubmission(ctx, newTestSubmission("adv-race")))

		const n = 8
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.AdvanceStep(ctx, "adv-race", 1)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := s.GetSubmission(ctx, "adv-race")
		require.NoError(t, err)
		require.Equal(t, 2, got.CurrentStep)
	})

	t.Run("ParentBackReference", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.RecordCompletion(ctx, "parent-9", "sub-1", first))
		require.NoError(t, s.RecordCompletion(ctx, "parent-9", "sub-2", first.Add(time.Hour)))

		p, err := s.GetParent(ctx, "parent-9")
		require.NoError(t, err)
		require.Equal(t, "parent-9", p.ID)
		require.Equal(t, "sub-2", p.RecentSubmission)
		require.True(t, p.LastCompletedAt.Equal(first.Add(time.Hour)))
	})
}

func newTestSubmission(id string) *api.Submission {
	return &api.Submission{
		ID:          id,
		WizardID:    "contact",
		ParentID:    "parent-9",
		Status:      api.StatusActive,
		CurrentStep: 1,
		Incomplete:  true,
		Fields:      map[string]string{"personal/name": "Ada"},
	}
}
