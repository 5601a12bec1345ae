package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeepSeekTestClient(t *testing.T, handler http.HandlerFunc) *DeepSeekClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewDeepSeekClientWithConfig(DeepSeekConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "deepseek-chat",
		Timeout: 10 * time.Second,
	})
}

func chatCompletion(content string) string {
	resp := map[string]any{
		"id":    "cmpl-1",
		"model": "deepseek-chat",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestDeepSeekCompleteWithSystem(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string

	client := newDeepSeekTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatCompletion(`{"summary": "ok"}`))
	})

	got, err := client.CompleteWithSystem(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, `{"summary": "ok"}`, got)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "deepseek-chat", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "system text", gotReq.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_object", gotReq.ResponseFormat.Type)
}

func TestDeepSeekCompleteOmitsEmptySystem(t *testing.T) {
	var gotReq chatRequest
	client := newDeepSeekTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		io.WriteString(w, chatCompletion("hi"))
	})

	_, err := client.Complete(context.Background(), "just a prompt")
	require.NoError(t, err)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
}

func TestDeepSeekRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	client := newDeepSeekTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"error": {"message": "slow down"}}`)
			return
		}
		io.WriteString(w, chatCompletion("recovered"))
	})

	got, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDeepSeekResponseFormatFallback(t *testing.T) {
	var sawFormat, sawNoFormat atomic.Bool
	client := newDeepSeekTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req chatRequest
		_ = json.Unmarshal(body, &req)
		if req.ResponseFormat != nil {
			sawFormat.Store(true)
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error": {"message": "response_format is not supported"}}`)
			return
		}
		sawNoFormat.Store(true)
		io.WriteString(w, chatCompletion("plain mode"))
	})

	got, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "plain mode", got)
	assert.True(t, sawFormat.Load(), "first attempt should carry response_format")
	assert.True(t, sawNoFormat.Load(), "fallback attempt should drop response_format")
}

func TestDeepSeekServerError(t *testing.T) {
	client := newDeepSeekTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "upstream exploded")
	})

	_, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestDeepSeekAPIErrorBody(t *testing.T) {
	client := newDeepSeekTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error": {"message": "model overloaded", "type": "server_error"}}`)
	})

	_, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestDeepSeekNoChoices(t *testing.T) {
	client := newDeepSeekTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id": "cmpl-1", "choices": []}`)
	})

	_, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion")
}

func TestDeepSeekRequiresAPIKey(t *testing.T) {
	client := NewDeepSeekClientWithConfig(DeepSeekConfig{APIKey: ""})
	_, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "API key"))
}

func TestDeepSeekDefaults(t *testing.T) {
	client := NewDeepSeekClient("k")
	assert.Equal(t, "deepseek-chat", client.GetModel())
	client.SetModel("deepseek-reasoner")
	assert.Equal(t, "deepseek-reasoner", client.GetModel())
}
