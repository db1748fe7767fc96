package api

import (
	"maps"
	"net/url"
)

// RequestContext holds everything one HTTP request tells the wizard. It is
// built once at the request boundary and passed by value; nothing in the
// wizard reads request state from anywhere else.
type RequestContext struct {
	// SubmissionID is the id carried on the resume link, or empty.
	SubmissionID string
	// Token is the resume secret carried on the resume link, or empty.
	Token string
	// QueryStep is the step from the navigation parameters; 0 means absent.
	QueryStep int
	// PostedStep is the hidden step marker from the POST body; 0 means absent.
	PostedStep int
	// Finished is set when the navigation carries finished=1.
	Finished bool

	// PostedWizardID is the hidden wizard marker from the POST body.
	PostedWizardID string
	// Fields are the posted field values for the step being submitted.
	Fields map[string]string

	// ParentID identifies the parent record in scope, if any.
	ParentID string
	// Referer is the page the browser came from.
	Referer *url.URL
	// PageURL is the URL of the form page itself, used when no referer is
	// available.
	PageURL *url.URL
	// Admin marks saves coming from the administrative path.
	Admin bool
}

// WithStep returns a copy of rc whose POST step marker is step.
func (rc RequestContext) WithStep(step int) RequestContext {
	rc.PostedStep = step
	return rc
}

// WithFields returns a copy of rc carrying a private copy of fields.
func (rc RequestContext) WithFields(fields map[string]string) RequestContext {
	rc.Fields = maps.Clone(fields)
	return rc
}

// ReturnURL is the page a redirect should go back to.
func (rc RequestContext) ReturnURL() *url.URL {
	switch {
	case rc.Referer != nil:
		u := *rc.Referer
		return &u
	case rc.PageURL != nil:
		u := *rc.PageURL
		return &u
	default:
		return &url.URL{Path: "/"}
	}
}
