// Package wizard implements the step-wizard state machine: it renders the
// field group for the resolved step, accepts submitted groups, and decides
// where the browser goes next.
package wizard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/petrijr/stepform/internal/guard"
	"github.com/petrijr/stepform/internal/persistence"
	"github.com/petrijr/stepform/internal/resolver"
	"github.com/petrijr/stepform/pkg/api"
)

// Default labels.
const (
	DefaultNextLabel   = "Next step"
	DefaultFinishLabel = "Finish"
	DefaultThanks      = "Thanks for your submission, we will get back to you very soon!"
)

// DefaultParentURL is the parent permalink template used when none is set.
const DefaultParentURL = "/parents/{id}"

// Labels are the user-facing strings of a wizard.
type Labels struct {
	Next   string
	Finish string
	Thanks string
}

// Config describes how to construct a Controller. WizardID, Catalog and
// Store are required; everything else has a default.
type Config struct {
	WizardID string
	// Tag is the value of the "updated" parameter on the parent page after
	// completion. Defaults to WizardID.
	Tag            string
	RecordDefaults api.RecordDefaults
	Labels         Labels
	// ParentURL is the parent permalink template; "{id}" is replaced with
	// the parent id.
	ParentURL string

	Catalog api.Catalog
	Store   persistence.Store

	Observer          api.Observer
	Logger            *slog.Logger
	Tracer            trace.Tracer
	CompletionActions []api.CompletionAction

	Now      func() time.Time
	NewID    func() string
	NewToken func() string
}

// Controller runs one wizard.
type Controller struct {
	id             string
	tag            string
	recordDefaults api.RecordDefaults
	labels         Labels
	parentURL      string

	catalog  api.Catalog
	store    persistence.Store
	resolver *resolver.Resolver

	observer api.Observer
	logger   *slog.Logger
	tracer   trace.Tracer
	actions  []api.CompletionAction

	now      func() time.Time
	newID    func() string
	newToken func() string
}

// New validates cfg and returns a Controller.
func New(cfg Config) (*Controller, error) {
	if cfg.WizardID == "" {
		return nil, errors.New("wizard: WizardID is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("wizard: Catalog is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("wizard: Store is required")
	}

	c := &Controller{
		id:             cfg.WizardID,
		tag:            cfg.Tag,
		recordDefaults: cfg.RecordDefaults,
		labels:         cfg.Labels,
		parentURL:      cfg.ParentURL,
		catalog:        cfg.Catalog,
		store:          cfg.Store,
		resolver:       resolver.New(cfg.WizardID, guard.New(cfg.Store)),
		observer:       cfg.Observer,
		logger:         cfg.Logger,
		tracer:         cfg.Tracer,
		actions:        cfg.CompletionActions,
		now:            cfg.Now,
		newID:          cfg.NewID,
		newToken:       cfg.NewToken,
	}

	if c.tag == "" {
		c.tag = c.id
	}
	if c.recordDefaults.Status == "" {
		c.recordDefaults.Status = api.StatusActive
	}
	if c.labels.Next == "" {
		c.labels.Next = DefaultNextLabel
	}
	if c.labels.Finish == "" {
		c.labels.Finish = DefaultFinishLabel
	}
	if c.labels.Thanks == "" {
		c.labels.Thanks = DefaultThanks
	}
	if c.parentURL == "" {
		c.parentURL = DefaultParentURL
	}
	if c.observer == nil {
		c.observer = api.NoopObserver{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
	if c.newToken == nil {
		c.newToken = guard.NewToken
	}
	return c, nil
}

// ID returns the wizard identifier.
func (c *Controller) ID() string {
	return c.id
}

// groups reads the catalog for this request.
func (c *Controller) groups(ctx context.Context) ([]api.GroupID, error) {
	groups, err := c.catalog.Groups(ctx)
	if err != nil {
		if _, ok := api.IsConfigurationError(err); ok {
			return nil, err
		}
		return nil, api.NewConfigurationError(c.id, "catalog unavailable", err)
	}
	if len(groups) == 0 {
		return nil, api.NewConfigurationError(c.id, "no field groups", nil)
	}
	return groups, nil
}

func (c *Controller) downgraded(ctx context.Context, reasons []error) {
	for _, r := range reasons {
		c.observer.OnRequestDowngraded(ctx, c.id, r)
	}
}

func (c *Controller) event(id string, step, total int) api.StepEvent {
	return api.StepEvent{WizardID: c.id, SubmissionID: id, Step: step, TotalSteps: total}
}

// Render produces the output for the current request: the terminal
// acknowledgement when the navigation says the wizard is finished,
// otherwise the form for the resolved step. Rendering has no side effects
// on stored submissions.
func (c *Controller) Render(ctx context.Context, rc api.RequestContext) (out api.RenderedOutput, err error) {
	ctx, span := c.startSpan(ctx, spanRender, rc)
	defer func() { endSpan(span, err) }()

	if rc.Finished {
		return api.RenderedOutput{Finished: true, Message: c.labels.Thanks}, nil
	}

	groups, err := c.groups(ctx)
	if err != nil {
		return api.RenderedOutput{}, err
	}
	total := len(groups)

	res, err := c.resolver.Resolve(ctx, rc, total)
	if err != nil {
		return api.RenderedOutput{}, err
	}
	c.downgraded(ctx, res.Downgrades)

	group := groups[res.Step-1]
	label := c.labels.Next
	if res.Step >= total {
		label = c.labels.Finish
	}
	hidden := api.HiddenFields{WizardID: c.id, CurrentStep: res.Step}
	progress := api.NewProgress(res.Step, total)

	form := &api.RenderRequest{
		WizardID:          c.id,
		SubmissionID:      res.SubmissionID,
		Step:              res.Step,
		TotalSteps:        total,
		Group:             group,
		NewRecordDefaults: c.recordDefaults,
		SubmitLabel:       label,
		TrailingHTML:      hidden.HTML(),
		Hidden:            hidden,
		Progress:          progress,
		Caption:           progress.Caption(),
	}
	if !res.IsNew() {
		form.Values = res.Submission.GroupValues(group)
	}

	annotate(span, res.SubmissionID, res.Step, total)
	c.observer.OnStepRendered(ctx, c.event(res.SubmissionID, res.Step, total))
	return api.RenderedOutput{Form: form}, nil
}
