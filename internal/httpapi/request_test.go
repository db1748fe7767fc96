package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/petrijr/stepform/pkg/api"
)

func TestRequestContext_FromPost(t *testing.T) {
	form := url.Values{
		api.HiddenWizardID:    {"contact"},
		api.HiddenCurrentStep: {"2"},
		"name":                {"Ada", "ignored"},
	}
	r := httptest.NewRequest(http.MethodPost,
		"/parents/7/wizards/contact?submission_id=42&token=T&step=3",
		strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Referer", "http://example.com/parents/7/wizards/contact?step=2")
	require.NoError(t, r.ParseForm())

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("parentID", "7")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	rc := requestContext(r)
	require.Equal(t, "42", rc.SubmissionID)
	require.Equal(t, "T", rc.Token)
	require.Equal(t, 3, rc.QueryStep)
	require.Equal(t, 2, rc.PostedStep)
	require.Equal(t, "contact", rc.PostedWizardID)
	require.Equal(t, "7", rc.ParentID)
	require.Equal(t, map[string]string{"name": "Ada"}, rc.Fields)
	require.NotNil(t, rc.Referer)
	require.Equal(t, "/parents/7/wizards/contact", rc.PageURL.Path)
	require.False(t, rc.Finished)
}

func TestRequestContext_BadStepsAreAbsent(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-2", "1.5", ""} {
		r := httptest.NewRequest(http.MethodGet, "/wizards/contact?step="+url.QueryEscape(raw), nil)
		require.Equal(t, 0, requestContext(r).QueryStep, raw)
	}
}

func TestValidateToken_RejectsWrongSecretAndExpiry(t *testing.T) {
	tok, err := IssueToken("a", "ops", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("a", tok)
	require.NoError(t, err)
	require.Equal(t, "ops", claims.Subject)
	require.Equal(t, RoleAdmin, claims.Role)

	_, err = ValidateToken("b", tok)
	require.Error(t, err)

	expired, err := IssueToken("a", "ops", RoleAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken("a", expired)
	require.Error(t, err)
}
