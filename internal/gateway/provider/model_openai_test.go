package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"quorum/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *OpenAIChatClient {
	return NewOpenAIChatClient(config.LLMConfig{
		BaseURL:    url,
		APIKey:     "sk-test",
		Model:      "test-model",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	})
}

func TestCallSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"看涨分析完成"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Call(context.Background(), ChatPayload{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "看涨分析完成", out)
}

func TestCallRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Call(context.Background(), ChatPayload{User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCallDoesNotRetryOn400(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad prompt"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Call(context.Background(), ChatPayload{User: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad prompt")
	assert.Equal(t, int32(1), calls.Load())
}

func TestEndpointNormalization(t *testing.T) {
	c := newTestClient("https://api.example.com/v1/chat/completions/")
	assert.Equal(t, "https://api.example.com/v1/chat/completions", c.endpoint())
}
