package wizard

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/petrijr/stepform/pkg/api"
)

// nextStepURL merges the resume parameters into u, keeping any other query
// parameters it already carries.
func nextStepURL(u *url.URL, step int, id, token string) string {
	q := u.Query()
	q.Set(api.ParamStep, strconv.Itoa(step))
	q.Set(api.ParamSubmissionID, id)
	q.Set(api.ParamToken, token)
	q.Del(api.ParamFinished)
	u.RawQuery = q.Encode()
	return u.String()
}

// finishedURL sends the browser back to the form page in its terminal state.
func finishedURL(u *url.URL) string {
	q := u.Query()
	q.Del(api.ParamStep)
	q.Del(api.ParamSubmissionID)
	q.Del(api.ParamToken)
	q.Set(api.ParamFinished, "1")
	u.RawQuery = q.Encode()
	return u.String()
}

// restartURL sends the browser back to a fresh form.
func restartURL(u *url.URL) string {
	q := u.Query()
	q.Del(api.ParamStep)
	q.Del(api.ParamSubmissionID)
	q.Del(api.ParamToken)
	q.Del(api.ParamFinished)
	u.RawQuery = q.Encode()
	return u.String()
}

// parentURL expands the permalink template for parentID and tags it with
// the wizard that just completed.
func parentURL(template, parentID, tag string) string {
	raw := strings.ReplaceAll(template, "{id}", url.PathEscape(parentID))
	u, err := url.Parse(raw)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set(api.ParamUpdated, tag)
	u.RawQuery = q.Encode()
	return u.String()
}
