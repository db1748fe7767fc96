package api

import (
	"fmt"
	"html"
	"strconv"
)

// Hidden round-trip fields carried by every rendered form.
const (
	HiddenWizardID    = "wizard_id"
	HiddenCurrentStep = "current_step"
)

// Navigation parameters read from resume links and written into redirects.
const (
	ParamSubmissionID = "submission_id"
	ParamToken        = "token"
	ParamStep         = "step"
	ParamFinished     = "finished"
	ParamUpdated      = "updated"
)

// RecordDefaults describes the record the form engine creates on step 1.
type RecordDefaults struct {
	Type   string `json:"type"`
	Status Status `json:"status"`
}

// Progress is the presentational position of a step within the wizard.
type Progress struct {
	Step    int     `json:"step"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// NewProgress computes the progress indicator for step out of total.
func NewProgress(step, total int) Progress {
	p := Progress{Step: step, Total: total}
	if total > 0 {
		p.Percent = float64(step) / float64(total) * 100
	}
	return p
}

// Caption returns the "Step N of M" label shown above the form.
func (p Progress) Caption() string {
	return fmt.Sprintf("Step %d of %d", p.Step, p.Total)
}

// HiddenFields are the values the submitted form must echo back.
type HiddenFields struct {
	WizardID    string `json:"wizard_id"`
	CurrentStep int    `json:"current_step"`
}

// HTML renders the hidden inputs.
func (h HiddenFields) HTML() string {
	return fmt.Sprintf(`<input type="hidden" name="%s" value="%s"/> <input type="hidden" name="%s" value="%d"/>`,
		HiddenWizardID, html.EscapeString(h.WizardID),
		HiddenCurrentStep, h.CurrentStep,
	)
}

// Values returns the hidden fields as form values.
func (h HiddenFields) Values() map[string]string {
	return map[string]string{
		HiddenWizardID:    h.WizardID,
		HiddenCurrentStep: strconv.Itoa(h.CurrentStep),
	}
}

// RenderRequest is what the wizard hands to the form-rendering collaborator
// for one step.
type RenderRequest struct {
	WizardID          string            `json:"wizard_id"`
	SubmissionID      string            `json:"submission_id"`
	Step              int               `json:"step"`
	TotalSteps        int               `json:"total_steps"`
	Group             GroupID           `json:"group"`
	NewRecordDefaults RecordDefaults    `json:"new_record"`
	SubmitLabel       string            `json:"submit_label"`
	TrailingHTML      string            `json:"trailing_html"`
	Hidden            HiddenFields      `json:"hidden"`
	Progress          Progress          `json:"progress"`
	Caption           string            `json:"caption"`
	Values            map[string]string `json:"values,omitempty"`
}

// RenderedOutput is either a form for the current step or the terminal
// acknowledgement.
type RenderedOutput struct {
	Finished bool           `json:"finished"`
	Message  string         `json:"message,omitempty"`
	Form     *RenderRequest `json:"form,omitempty"`
}

// ActionKind tags a NextAction.
type ActionKind int

const (
	// ActionNone means the request was not meant for this wizard.
	ActionNone ActionKind = iota
	ActionRender
	ActionRedirect
)

func (k ActionKind) String() string {
	switch k {
	case ActionRender:
		return "render"
	case ActionRedirect:
		return "redirect"
	default:
		return "none"
	}
}

// NextAction tells the request boundary what to do once the wizard is done
// with a request. Nothing runs after the boundary has acted on it.
type NextAction struct {
	Kind   ActionKind
	Output RenderedOutput
	URL    string
}

// Render wraps a rendered output.
func Render(out RenderedOutput) NextAction {
	return NextAction{Kind: ActionRender, Output: out}
}

// Redirect wraps a redirect target.
func Redirect(url string) NextAction {
	return NextAction{Kind: ActionRedirect, URL: url}
}

// Ignore is returned for saves that belong to some other form.
func Ignore() NextAction {
	return NextAction{Kind: ActionNone}
}
