package wizard

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextStepURL_PreservesOtherParameters(t *testing.T) {
	u, err := url.Parse("https://example.test/apply?lang=fi&step=1&finished=1")
	require.NoError(t, err)

	got := nextStepURL(u, 2, "abc", "tok")
	require.Equal(t, "https://example.test/apply?lang=fi&step=2&submission_id=abc&token=tok", got)
}

func TestParentURL(t *testing.T) {
	require.Equal(t, "/parents/42?updated=healthcheck", parentURL(DefaultParentURL, "42", "healthcheck"))
	require.Equal(t, "/p/a%2Fb?updated=x", parentURL("/p/{id}", "a/b", "x"))
	require.Equal(t, "https://cms.test/i/7/?ref=mail&updated=x", parentURL("https://cms.test/i/{id}/?ref=mail", "7", "x"))
}
