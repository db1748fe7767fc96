package httpapi

import (
	"time"

	"github.com/petrijr/stepform/pkg/api"
)

const timeLayout = time.RFC3339

// submissionResponse is the admin view of a submission. The resume token is
// never exposed.
type submissionResponse struct {
	ID          string            `json:"id"`
	WizardID    string            `json:"wizard_id"`
	Title       string            `json:"title"`
	ParentID    string            `json:"parent_id,omitempty"`
	Status      api.Status        `json:"status"`
	CurrentStep int               `json:"current_step"`
	Incomplete  bool              `json:"incomplete"`
	Fields      map[string]string `json:"fields"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
	CompletedAt string            `json:"completed_at,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func toSubmissionResponse(sub *api.Submission) submissionResponse {
	return submissionResponse{
		ID:          sub.ID,
		WizardID:    sub.WizardID,
		Title:       sub.Title,
		ParentID:    sub.ParentID,
		Status:      sub.Status,
		CurrentStep: sub.CurrentStep,
		Incomplete:  sub.Incomplete,
		Fields:      sub.Fields,
		CreatedAt:   formatTime(sub.CreatedAt),
		UpdatedAt:   formatTime(sub.UpdatedAt),
		CompletedAt: formatTime(sub.CompletedAt),
	}
}
