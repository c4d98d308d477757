package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summarizerTestURL = "https://openrouter.test/api/v1"

func newTestSummarizer(t *testing.T, apiKey string) *Summarizer {
	t.Helper()
	s := NewSummarizer(summarizerTestURL, apiKey, "openai/gpt-4o", 500)
	httpmock.ActivateNonDefault(s.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return s
}

func TestSummarize_Success(t *testing.T) {
	s := newTestSummarizer(t, "test-key")

	httpmock.RegisterResponder(http.MethodPost, summarizerTestURL+"/chat/completions",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

			var body chatCompletionRequest
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "openai/gpt-4o", body.Model)
			assert.Equal(t, 500, body.MaxTokens)
			require.Len(t, body.Messages, 1)
			assert.Equal(t, "user", body.Messages[0].Role)
			assert.Equal(t, "Temples all morning, ramen after dark.", body.Messages[0].Content)

			return httpmock.NewStringResponse(http.StatusOK,
				`{"choices":[{"message":{"content":"A full day of temples capped with ramen."}}]}`), nil
		})

	summary, err := s.Summarize(context.Background(), "Temples all morning, ramen after dark.")

	require.NoError(t, err)
	assert.Equal(t, "A full day of temples capped with ramen.", summary)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestSummarize_RemoteErrorBody(t *testing.T) {
	s := newTestSummarizer(t, "test-key")

	httpmock.RegisterResponder(http.MethodPost, summarizerTestURL+"/chat/completions",
		httpmock.NewStringResponder(http.StatusPaymentRequired,
			`{"error":{"message":"Insufficient credits"}}`))

	_, err := s.Summarize(context.Background(), "some notes")

	require.Error(t, err)
	var remoteErr *RemoteServiceError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "Insufficient credits", remoteErr.Message)
}

func TestSummarize_MalformedResponse(t *testing.T) {
	s := newTestSummarizer(t, "test-key")

	httpmock.RegisterResponder(http.MethodPost, summarizerTestURL+"/chat/completions",
		httpmock.NewStringResponder(http.StatusOK, `{"choices": oops`))

	_, err := s.Summarize(context.Background(), "some notes")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestSummarize_NoChoicesNoError(t *testing.T) {
	s := newTestSummarizer(t, "test-key")

	httpmock.RegisterResponder(http.MethodPost, summarizerTestURL+"/chat/completions",
		httpmock.NewStringResponder(http.StatusOK, `{}`))

	_, err := s.Summarize(context.Background(), "some notes")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected response format")
}

func TestSummarize_MissingAPIKey(t *testing.T) {
	s := newTestSummarizer(t, "")

	_, err := s.Summarize(context.Background(), "some notes")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
	assert.Zero(t, httpmock.GetTotalCallCount(), "no request should leave the server without a key")
}

func TestSummarize_NewCallReplacesPreviousResult(t *testing.T) {
	s := newTestSummarizer(t, "test-key")

	httpmock.RegisterResponder(http.MethodPost, summarizerTestURL+"/chat/completions",
		httpmock.NewStringResponder(http.StatusOK,
			`{"choices":[{"message":{"content":"first summary"}}]}`))
	first, err := s.Summarize(context.Background(), "some notes")
	require.NoError(t, err)
	assert.Equal(t, "first summary", first)

	httpmock.RegisterResponder(http.MethodPost, summarizerTestURL+"/chat/completions",
		httpmock.NewStringResponder(http.StatusOK,
			`{"choices":[{"message":{"content":"second summary"}}]}`))
	second, err := s.Summarize(context.Background(), "some notes")
	require.NoError(t, err)
	assert.Equal(t, "second summary", second, "each call hits the model again, no caching")
}
