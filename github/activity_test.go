package github

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `[
  {"type":"PushEvent","repo":{"id":1,"name":"octocat/hello"}},
  {"type":"WatchEvent","repo":{"id":2,"name":"golang/go"}},
  {"type":"PushEvent","repo":{"id":1,"name":"octocat/hello"}},
  {"type":"PushEvent","repo":{"id":3,"name":"octocat/spoon"}},
  {"type":"IssuesEvent"},
  {"repo":{"id":4,"name":"no/type"}},
  {"type":"PushEvent","repo":{"id":1,"name":"octocat/hello"}}
]`

func TestSummarize(t *testing.T) {
	got, err := Summarize([]byte(samplePayload))
	require.NoError(t, err)

	want := []TypeSummary{
		{Type: "PushEvent", Repos: []RepoCount{
			{ID: 1, Name: "octocat/hello", Count: 3},
			{ID: 3, Name: "octocat/spoon", Count: 1},
		}},
		{Type: "WatchEvent", Repos: []RepoCount{
			{ID: 2, Name: "golang/go", Count: 1},
		}},
	}
	assert.Equal(t, want, got)
}

func TestSummarize_Empty(t *testing.T) {
	got, err := Summarize([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSummarize_RejectsNonArray(t *testing.T) {
	for _, payload := range []string{`{"message":"Not Found"}`, `not json`, ``} {
		_, err := Summarize([]byte(payload))
		assert.ErrorIs(t, err, ErrUnexpectedPayload, "payload %q", payload)
	}
}

func TestFormat(t *testing.T) {
	summary, err := Summarize([]byte(samplePayload))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Format(&buf, summary))
	assert.Equal(t,
		"PushEvent 3 times in octocat/hello\n"+
			"PushEvent 1 times in octocat/spoon\n"+
			"WatchEvent 1 times in golang/go\n",
		buf.String())
}
