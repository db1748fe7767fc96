package httpapi

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/petrijr/stepform/pkg/api"
)

// positive parses a step parameter; anything that is not a positive
// integer counts as absent.
func positive(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// sameOriginReferer returns the Referer header when it points back at this
// host, so redirects never leave the site.
func sameOriginReferer(r *http.Request) *url.URL {
	raw := r.Header.Get("Referer")
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	if u.Host != "" && u.Host != r.Host {
		return nil
	}
	return u
}

// requestContext builds the immutable wizard view of r. For POST requests
// the form must already be parsed.
func requestContext(r *http.Request) api.RequestContext {
	q := r.URL.Query()
	rc := api.RequestContext{
		SubmissionID: q.Get(api.ParamSubmissionID),
		Token:        q.Get(api.ParamToken),
		QueryStep:    positive(q.Get(api.ParamStep)),
		Finished:     q.Get(api.ParamFinished) == "1",
		ParentID:     chi.URLParam(r, "parentID"),
		Referer:      sameOriginReferer(r),
		PageURL:      &url.URL{Path: r.URL.Path, RawQuery: r.URL.RawQuery},
	}

	if r.Method == http.MethodPost {
		rc.PostedWizardID = r.PostForm.Get(api.HiddenWizardID)
		rc.PostedStep = positive(r.PostForm.Get(api.HiddenCurrentStep))
		rc.Fields = make(map[string]string, len(r.PostForm))
		for k, vs := range r.PostForm {
			if k == api.HiddenWizardID || k == api.HiddenCurrentStep || len(vs) == 0 {
				continue
			}
			rc.Fields[k] = vs[0]
		}
	}
	return rc
}
