package api

import (
	"errors"
	"math"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubmission_Resumable(t *testing.T) {
	base := &Submission{
		ID:         "42",
		WizardID:   "healthcheck",
		Status:     StatusActive,
		Incomplete: true,
	}
	require.True(t, base.Resumable("healthcheck"))
	require.False(t, base.Resumable("other"))

	archived := base.Clone()
	archived.Status = StatusArchived
	require.False(t, archived.Resumable("healthcheck"))

	done := base.Clone()
	done.Incomplete = false
	require.False(t, done.Resumable("healthcheck"))

	var missing *Submission
	require.False(t, missing.Resumable("healthcheck"))
}

func TestSubmission_GroupValuesAndClone(t *testing.T) {
	sub := &Submission{Fields: map[string]string{
		FieldKey("contact", "email"): "a@example.com",
		FieldKey("contact", "name"):  "Ada",
		FieldKey("budget", "amount"): "10",
	}}

	require.Equal(t, map[string]string{"email": "a@example.com", "name": "Ada"}, sub.GroupValues("contact"))
	require.Empty(t, sub.GroupValues("unknown"))

	cp := sub.Clone()
	cp.Fields["contact/email"] = "changed"
	require.Equal(t, "a@example.com", sub.Fields["contact/email"], "clone must not share the fields map")
}

func TestNewProgress(t *testing.T) {
	p := NewProgress(1, 3)
	require.InDelta(t, 100.0/3.0, p.Percent, 1e-9)
	require.Equal(t, "Step 1 of 3", p.Caption())

	require.Equal(t, 100.0, NewProgress(3, 3).Percent)
	require.Equal(t, 100.0, NewProgress(1, 1).Percent)
	require.False(t, math.IsNaN(NewProgress(1, 0).Percent))
}

func TestHiddenFields_HTMLEscapesWizardID(t *testing.T) {
	h := HiddenFields{WizardID: `a"b`, CurrentStep: 2}
	out := h.HTML()
	require.Contains(t, out, `name="wizard_id" value="a&#34;b"`)
	require.Contains(t, out, `name="current_step" value="2"`)
	require.Equal(t, "2", h.Values()[HiddenCurrentStep])
}

func TestRequestContext_ReturnURL(t *testing.T) {
	ref, _ := url.Parse("https://example.com/from?a=1")
	page, _ := url.Parse("https://example.com/page")

	rc := RequestContext{Referer: ref, PageURL: page}
	got := rc.ReturnURL()
	require.Equal(t, ref.String(), got.String())

	got.RawQuery = "mutated=1"
	require.Equal(t, "a=1", ref.RawQuery, "ReturnURL must return a copy")

	rc = RequestContext{PageURL: page}
	require.Equal(t, page.String(), rc.ReturnURL().String())

	require.Equal(t, "/", RequestContext{}.ReturnURL().String())
}

func TestRequestContext_WithStepDoesNotMutateOriginal(t *testing.T) {
	rc := RequestContext{PostedStep: 3}
	cp := rc.WithStep(1)
	require.Equal(t, 3, rc.PostedStep)
	require.Equal(t, 1, cp.PostedStep)

	fields := map[string]string{"a": "1"}
	withFields := rc.WithFields(fields)
	fields["a"] = "2"
	require.Equal(t, "1", withFields.Fields["a"])
}

func TestConfigurationError(t *testing.T) {
	cause := errors.New("file missing")
	err := NewConfigurationError("healthcheck", "catalog unavailable", cause)

	ce, ok := IsConfigurationError(err)
	require.True(t, ok)
	require.Equal(t, "healthcheck", ce.WizardID)
	require.ErrorIs(t, err, cause)
	require.True(t, strings.Contains(err.Error(), "catalog unavailable"))

	_, ok = IsConfigurationError(errors.New("other"))
	require.False(t, ok)
}
