package stepform

import (
	"fmt"
	"log/slog"

	"github.com/petrijr/stepform/internal/catalog"
	"github.com/petrijr/stepform/internal/wizard"
	"github.com/petrijr/stepform/pkg/api"
)

// WizardBuilder provides a fluent API for defining a wizard:
//
//	ctrl, err := stepform.New("contact").
//	    Group("personal").
//	    Group("address").
//	    Group("message").
//	    ReturnTo("/customers/{id}").
//	    OnComplete(notifySales).
//	    Build(store)
type WizardBuilder struct {
	cfg    wizard.Config
	groups []api.GroupID
}

// New creates a builder for the wizard with the given id.
func New(id string) *WizardBuilder {
	return &WizardBuilder{cfg: wizard.Config{WizardID: id}}
}

// ID returns the wizard id.
func (b *WizardBuilder) ID() string {
	return b.cfg.WizardID
}

// Group appends a field group; the n-th group becomes step n.
func (b *WizardBuilder) Group(id GroupID) *WizardBuilder {
	if id == "" {
		panic(fmt.Sprintf("stepform: wizard %q: group id must not be empty", b.cfg.WizardID))
	}
	b.groups = append(b.groups, id)
	return b
}

// Catalog replaces the static group list with c, for example a file-backed
// catalog that is re-read on every request.
func (b *WizardBuilder) Catalog(c Catalog) *WizardBuilder {
	b.cfg.Catalog = c
	return b
}

// Tag sets the value of the "updated" parameter added on return to the
// parent page.
func (b *WizardBuilder) Tag(tag string) *WizardBuilder {
	b.cfg.Tag = tag
	return b
}

// Record sets the type and status of records created on step 1.
func (b *WizardBuilder) Record(typ string, status Status) *WizardBuilder {
	b.cfg.RecordDefaults = RecordDefaults{Type: typ, Status: status}
	return b
}

// Labels overrides the user-facing strings. Empty fields keep their defaults.
func (b *WizardBuilder) Labels(l Labels) *WizardBuilder {
	b.cfg.Labels = l
	return b
}

// ReturnTo sets the parent permalink template; "{id}" is replaced with the
// parent id.
func (b *WizardBuilder) ReturnTo(template string) *WizardBuilder {
	b.cfg.ParentURL = template
	return b
}

// Observe adds an observer. Several observers are combined.
func (b *WizardBuilder) Observe(obs Observer) *WizardBuilder {
	if b.cfg.Observer == nil {
		b.cfg.Observer = obs
	} else {
		b.cfg.Observer = api.NewCompositeObserver(b.cfg.Observer, obs)
	}
	return b
}

// Logger sets the structured logger.
func (b *WizardBuilder) Logger(l *slog.Logger) *WizardBuilder {
	b.cfg.Logger = l
	return b
}

// OnComplete registers an action run once the terminal step is saved.
func (b *WizardBuilder) OnComplete(action CompletionAction) *WizardBuilder {
	if action == nil {
		panic(fmt.Sprintf("stepform: wizard %q: nil completion action", b.cfg.WizardID))
	}
	b.cfg.CompletionActions = append(b.cfg.CompletionActions, action)
	return b
}

// Config returns the underlying controller configuration without a store.
// Typically used when interacting with lower-level APIs.
func (b *WizardBuilder) Config() Config {
	cfg := b.cfg
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.NewStatic(cfg.WizardID, b.groups...)
	}
	return cfg
}

// Build returns a Controller that keeps its submissions in store.
func (b *WizardBuilder) Build(store Store) (*Controller, error) {
	cfg := b.Config()
	cfg.Store = store
	return wizard.New(cfg)
}

// MustBuild is like Build but panics on error.
// Useful for initialization in main().
func (b *WizardBuilder) MustBuild(store Store) *Controller {
	c, err := b.Build(store)
	if err != nil {
		panic(err)
	}
	return c
}
