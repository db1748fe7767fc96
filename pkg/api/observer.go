package api

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
)

// StepEvent describes one step-level occurrence in a wizard run.
type StepEvent struct {
	WizardID     string
	SubmissionID string
	Step         int
	TotalSteps   int
}

// Observer receives callbacks from the wizard controller for logging and
// metrics.
//
// Implementations should be fast and non-blocking; they run inside the
// request that triggered them.
type Observer interface {
	// OnStepRendered is called after a step's render request was built.
	OnStepRendered(ctx context.Context, ev StepEvent)

	// OnSubmissionStarted is called once per submission, after step 1 was
	// saved and its secret token issued.
	OnSubmissionStarted(ctx context.Context, ev StepEvent)

	// OnStepSubmitted is called after a non-final step advanced.
	OnStepSubmitted(ctx context.Context, ev StepEvent)

	// OnSubmissionCompleted is called after the terminal bookkeeping write.
	OnSubmissionCompleted(ctx context.Context, ev StepEvent)

	// OnRequestDowngraded is called when a request was quietly degraded:
	// resume denied, step discarded, or a foreign save ignored. reason wraps
	// ErrResumeDenied, ErrOutOfRangeStep or ErrForeignSubmission.
	OnRequestDowngraded(ctx context.Context, wizardID string, reason error)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnStepRendered(ctx context.Context, ev StepEvent)                       {}
func (NoopObserver) OnSubmissionStarted(ctx context.Context, ev StepEvent)                  {}
func (NoopObserver) OnStepSubmitted(ctx context.Context, ev StepEvent)                      {}
func (NoopObserver) OnSubmissionCompleted(ctx context.Context, ev StepEvent)                {}
func (NoopObserver) OnRequestDowngraded(ctx context.Context, wizardID string, reason error) {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnStepRendered(ctx context.Context, ev StepEvent) {
	for _, o := range c.observers {
		o.OnStepRendered(ctx, ev)
	}
}

func (c *CompositeObserver) OnSubmissionStarted(ctx context.Context, ev StepEvent) {
	for _, o := range c.observers {
		o.OnSubmissionStarted(ctx, ev)
	}
}

func (c *CompositeObserver) OnStepSubmitted(ctx context.Context, ev StepEvent) {
	for _, o := range c.observers {
		o.OnStepSubmitted(ctx, ev)
	}
}

func (c *CompositeObserver) OnSubmissionCompleted(ctx context.Context, ev StepEvent) {
	for _, o := range c.observers {
		o.OnSubmissionCompleted(ctx, ev)
	}
}

func (c *CompositeObserver) OnRequestDowngraded(ctx context.Context, wizardID string, reason error) {
	for _, o := range c.observers {
		o.OnRequestDowngraded(ctx, wizardID, reason)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs wizard lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func stepAttrs(ev StepEvent) []any {
	return []any{
		slog.String("wizard", ev.WizardID),
		slog.String("submission_id", ev.SubmissionID),
		slog.Int("step", ev.Step),
		slog.Int("total_steps", ev.TotalSteps),
	}
}

func (o *LoggingObserver) OnStepRendered(ctx context.Context, ev StepEvent) {
	o.Logger.DebugContext(ctx, "step_rendered", stepAttrs(ev)...)
}

func (o *LoggingObserver) OnSubmissionStarted(ctx context.Context, ev StepEvent) {
	o.Logger.InfoContext(ctx, "submission_started", stepAttrs(ev)...)
}

func (o *LoggingObserver) OnStepSubmitted(ctx context.Context, ev StepEvent) {
	o.Logger.InfoContext(ctx, "step_submitted", stepAttrs(ev)...)
}

func (o *LoggingObserver) OnSubmissionCompleted(ctx context.Context, ev StepEvent) {
	o.Logger.InfoContext(ctx, "submission_completed", stepAttrs(ev)...)
}

func (o *LoggingObserver) OnRequestDowngraded(ctx context.Context, wizardID string, reason error) {
	o.Logger.DebugContext(ctx, "request_downgraded",
		slog.String("wizard", wizardID),
		slog.Any("reason", reason),
	)
}

// BasicMetrics collects simple counters.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	stepsRendered        atomic.Int64
	submissionsStarted   atomic.Int64
	stepsSubmitted       atomic.Int64
	submissionsCompleted atomic.Int64
	resumesDenied        atomic.Int64
	stepsDiscarded       atomic.Int64
	foreignSaves         atomic.Int64
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	StepsRendered        int64
	SubmissionsStarted   int64
	StepsSubmitted       int64
	SubmissionsCompleted int64

	// InProgress is started minus completed: runs that were begun and have
	// not (yet) reached the terminal step.
	InProgress int64

	ResumesDenied  int64
	StepsDiscarded int64
	ForeignSaves   int64
}

func (m *BasicMetrics) OnStepRendered(ctx context.Context, ev StepEvent) {
	m.stepsRendered.Add(1)
}

func (m *BasicMetrics) OnSubmissionStarted(ctx context.Context, ev StepEvent) {
	m.submissionsStarted.Add(1)
}

func (m *BasicMetrics) OnStepSubmitted(ctx context.Context, ev StepEvent) {
	m.stepsSubmitted.Add(1)
}

func (m *BasicMetrics) OnSubmissionCompleted(ctx context.Context, ev StepEvent) {
	m.submissionsCompleted.Add(1)
}

func (m *BasicMetrics) OnRequestDowngraded(ctx context.Context, wizardID string, reason error) {
	switch {
	case errors.Is(reason, ErrResumeDenied):
		m.resumesDenied.Add(1)
	case errors.Is(reason, ErrOutOfRangeStep):
		m.stepsDiscarded.Add(1)
	case errors.Is(reason, ErrForeignSubmission):
		m.foreignSaves.Add(1)
	}
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.submissionsStarted.Load()
	completed := m.submissionsCompleted.Load()

	return BasicMetricsSnapshot{
		StepsRendered:        m.stepsRendered.Load(),
		SubmissionsStarted:   started,
		StepsSubmitted:       m.stepsSubmitted.Load(),
		SubmissionsCompleted: completed,
		InProgress:           started - completed,
		ResumesDenied:        m.resumesDenied.Load(),
		StepsDiscarded:       m.stepsDiscarded.Load(),
		ForeignSaves:         m.foreignSaves.Load(),
	}
}
