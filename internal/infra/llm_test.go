package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMClient_NotConfigured(t *testing.T) {
	c := NewLLMClient("http://unused", "", "m", nil)
	assert.False(t, c.Configured())

	_, err := c.Complete(context.Background(), []LLMMessage{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, ErrLLMNotConfigured)
}

func TestLLMClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Take with food."}}]}`))
	}))
	defer srv.Close()

	c := NewLLMClient(srv.URL+"/", "sk-test", "test-model", nil)
	reply, err := c.Complete(context.Background(), []LLMMessage{
		{Role: "system", Content: "You are a pharmacy assistant."},
		{Role: "user", Content: "How should I take ibuprofen?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Take with food.", reply)
}

func TestLLMClient_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c := NewLLMClient(srv.URL, "sk-test", "m", nil)
	_, err := c.Complete(context.Background(), []LLMMessage{{Role: "user", Content: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
