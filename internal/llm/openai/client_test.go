package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/price-tracker/internal/llm"
)

const testBaseURL = "https://llm.test/v1"
const completionsURL = testBaseURL + "/chat/completions"

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func newTestClient(t *testing.T, opts ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		APIKey:      "sk-test",
		BaseURL:     testBaseURL,
		Model:       "gpt-4o-mini",
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// completion wraps content in a chat/completions envelope.
func completion(t *testing.T, content string) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	require.NoError(t, err)
	return string(b)
}

func TestExtract_Success(t *testing.T) {
	setupHTTPMock(t)

	var captured map[string]any
	httpmock.RegisterResponder(http.MethodPost, completionsURL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		return httpmock.NewStringResponse(http.StatusOK,
			completion(t, `{"products":[{"product_name":"Milk","price":1500},{"product_name":"","price":1000},{"product_name":"Bread","price":-5}]}`)), nil
	})

	res := newTestClient(t).Extract(context.Background(), []byte("jpeg-bytes"))

	require.True(t, res.OK())
	assert.Equal(t, llm.FailureNone, res.Failure)
	require.Len(t, res.Candidates, 3)
	assert.Equal(t, "Milk", res.Candidates[0].Name)
	assert.InDelta(t, 1500, *res.Candidates[0].Price, 0.001)

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	assert.InDelta(t, 0.1, captured["temperature"], 1e-6)
	assert.Equal(t, map[string]any{"type": "json_object"}, captured["response_format"])
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestExtract_MissingCredential(t *testing.T) {
	setupHTTPMock(t)

	res := newTestClient(t, func(c *Config) { c.APIKey = "" }).Extract(context.Background(), []byte("img"))

	assert.Equal(t, llm.FailureMissingCredential, res.Failure)
	assert.Empty(t, res.Candidates)
	assert.Zero(t, httpmock.GetTotalCallCount(), "no request without a credential")
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
		kind      llm.FailureKind
	}{
		{
			name:      "transport",
			responder: httpmock.NewErrorResponder(errors.New("connection refused")),
			kind:      llm.FailureTransport,
		},
		{
			name:      "unauthorized",
			responder: httpmock.NewStringResponder(http.StatusUnauthorized, `{"error":{"message":"bad key"}}`),
			kind:      llm.FailureBadStatus,
		},
		{
			name:      "server_error",
			responder: httpmock.NewStringResponder(http.StatusInternalServerError, `oops`),
			kind:      llm.FailureBadStatus,
		},
		{
			name:      "choices_absent",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"id":"x","object":"chat.completion"}`),
			kind:      llm.FailureEnvelope,
		},
		{
			name:      "choices_empty",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"choices":[]}`),
			kind:      llm.FailureEnvelope,
		},
		{
			name:      "content_null",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"choices":[{"message":{"content":null}}]}`),
			kind:      llm.FailureEnvelope,
		},
		{
			name:      "envelope_not_json",
			responder: httpmock.NewStringResponder(http.StatusOK, `<html>`),
			kind:      llm.FailureEnvelope,
		},
		{
			name:      "content_not_json",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"choices":[{"message":{"content":"I see a price tag"}}]}`),
			kind:      llm.FailureContent,
		},
		{
			name:      "products_missing",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"choices":[{"message":{"content":"{\"items\":[]}"}}]}`),
			kind:      llm.FailureProducts,
		},
		{
			name:      "products_not_list",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"choices":[{"message":{"content":"{\"products\":\"Milk\"}"}}]}`),
			kind:      llm.FailureProducts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHTTPMock(t)
			httpmock.RegisterResponder(http.MethodPost, completionsURL, tt.responder)

			res := newTestClient(t).Extract(context.Background(), []byte("img"))

			assert.Equal(t, tt.kind, res.Failure)
			assert.Error(t, res.Err)
			assert.False(t, res.OK())
			count := 0
			for range res.Seq() {
				count++
			}
			assert.Zero(t, count)
		})
	}
}

func TestExtract_FencedContent(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, completionsURL,
		httpmock.NewStringResponder(http.StatusOK, completion(t, "```json\n{\"products\":[{\"product_name\":\"Tofu\",\"price\":\"2,300\"}]}\n```")))

	res := newTestClient(t).Extract(context.Background(), []byte("img"))

	require.True(t, res.OK())
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "Tofu", res.Candidates[0].Name)
	assert.InDelta(t, 2300, *res.Candidates[0].Price, 0.001)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{}, nil)
	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, "gpt-4o-mini", c.cfg.Model)
	assert.Equal(t, DefaultBaseURL+"/chat/completions", c.endpoint())
	assert.NotNil(t, c.logger)
}
