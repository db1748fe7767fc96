package api

import (
	"maps"
	"strings"
	"time"
)

// NewSubmissionID is the sentinel submission id used before the first step
// has been saved.
const NewSubmissionID = "new"

// Status is the publication state of a submission record, independent of
// how far the visitor got through the wizard.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusArchived Status = "ARCHIVED"
)

// GroupID identifies a field group. Step n of a wizard renders the group at
// index n-1 of its catalog.
type GroupID string

// FieldKey scopes a field name to the group it was posted with.
//
//	FieldKey("contact", "email") == "contact/email"
func FieldKey(group GroupID, field string) string {
	return string(group) + "/" + field
}

// Submission is one in-progress or completed multi-step entry.
type Submission struct {
	ID       string
	WizardID string
	Title    string
	ParentID string
	Status   Status

	// CurrentStep is the highest step reached (1-based).
	CurrentStep int

	// Token is the secret required to resume this submission. It is empty
	// until the first step has been processed.
	Token string

	// Incomplete stays true until the final step has been submitted.
	Incomplete bool

	// Fields accumulates group-scoped values across steps.
	Fields map[string]string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt time.Time
}

// Resumable reports whether a visitor may continue this submission in the
// given wizard.
func (s *Submission) Resumable(wizardID string) bool {
	return s != nil &&
		s.WizardID == wizardID &&
		s.Status == StatusActive &&
		s.Incomplete
}

// GroupValues returns the saved values of one group keyed by bare field name.
func (s *Submission) GroupValues(group GroupID) map[string]string {
	out := make(map[string]string)
	if s == nil {
		return out
	}
	prefix := string(group) + "/"
	for k, v := range s.Fields {
		if name, ok := strings.CutPrefix(k, prefix); ok {
			out[name] = v
		}
	}
	return out
}

// Clone returns a deep copy so stores can hand out records without sharing
// the Fields map.
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Fields = maps.Clone(s.Fields)
	if cp.Fields == nil {
		cp.Fields = make(map[string]string)
	}
	return &cp
}

// ParentRecord is the externally owned record a wizard run is attached to.
// The wizard only writes the completion back-reference.
type ParentRecord struct {
	ID               string
	RecentSubmission string
	LastCompletedAt  time.Time
}

// SubmissionListOptions controls how submissions are listed.
// Zero values mean "no filter" for that field.
type SubmissionListOptions struct {
	WizardID       string
	Status         Status
	OnlyIncomplete bool
}
