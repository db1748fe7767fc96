package stepform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func failing(n int, calls *int) CompletionAction {
	return func(ctx context.Context, sub *Submission, at time.Time) error {
		*calls++
		if *calls <= n {
			return errors.New("mail relay down")
		}
		return nil
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	var calls int
	action := Retry(3).Action(failing(2, &calls))

	require.NoError(t, action(context.Background(), &Submission{ID: "s1"}, time.Now()))
	require.Equal(t, 3, calls)
}

func TestRetry_ReturnsAllErrorsWhenExhausted(t *testing.T) {
	var calls int
	action := Retry(2).Action(failing(5, &calls))

	err := action(context.Background(), &Submission{ID: "s1"}, time.Now())
	require.ErrorContains(t, err, "mail relay down")
	require.Equal(t, 2, calls)
}

func TestRetry_NonPositiveAttemptsRunsOnce(t *testing.T) {
	require.Equal(t, 1, Retry(0).Policy().MaxAttempts)
}

func TestRetry_ZeroValueBuilderRunsOnce(t *testing.T) {
	var b RetryBuilder
	var calls int
	err := b.Action(failing(5, &calls))(context.Background(), &Submission{}, time.Now())
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestRetry_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	action := Retry(5).WithConstantBackoff(time.Hour).Action(func(ctx context.Context, sub *Submission, at time.Time) error {
		calls++
		cancel()
		return errors.New("boom")
	})

	err := action(ctx, &Submission{}, time.Now())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := Retry(5).WithExponentialBackoff(100*time.Millisecond, 2, 300*time.Millisecond).Policy()

	require.Equal(t, 100*time.Millisecond, p.backoff(1))
	require.Equal(t, 200*time.Millisecond, p.backoff(2))
	require.Equal(t, 300*time.Millisecond, p.backoff(3))
	require.Equal(t, 300*time.Millisecond, p.backoff(4))
	require.Zero(t, Retry(2).Policy().backoff(1))
}
