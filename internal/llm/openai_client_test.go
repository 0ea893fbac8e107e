package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"tribunal/internal/agent/ports"
	"tribunal/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewOpenAIClient(Config{
		Model:       "gpt-4o-mini",
		APIKey:      "test-key",
		BaseURL:     server.URL,
		Temperature: 0.7,
		MaxRetries:  1,
	}, nil)
	require.NoError(t, err)
	return client
}

func completionsResponse(contents ...string) map[string]any {
	choices := make([]any, len(contents))
	for i, content := range contents {
		choices[i] = map[string]any{
			"message": map[string]any{"content": content},
		}
	}
	return map[string]any{
		"choices": choices,
		"usage": map[string]any{
			"prompt_tokens":     100,
			"completion_tokens": 20,
			"total_tokens":      120,
		},
	}
}

func TestOpenAIClientQuery(t *testing.T) {
	var payload map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionsResponse("hello"))
	})

	completions, err := client.Query(context.Background(), []ports.Message{
		{Role: "user", Content: "hi"},
	}, ports.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, completions, 1)
	require.Equal(t, "hello", completions[0].Content)

	require.Equal(t, "gpt-4o-mini", payload["model"])
	require.Equal(t, 0.7, payload["temperature"])
	require.Equal(t, float64(1), payload["n"])
}

func TestOpenAIClientBatchedSampling(t *testing.T) {
	var payload map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_ = json.NewEncoder(w).Encode(completionsResponse("a", "b", "c"))
	})

	completions, err := client.Query(context.Background(), nil, ports.QueryOptions{N: 3})
	require.NoError(t, err)
	require.Len(t, completions, 3)
	require.Equal(t, float64(3), payload["n"])
}

func TestOpenAIClientTemperatureOverride(t *testing.T) {
	var payload map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_ = json.NewEncoder(w).Encode(completionsResponse("ok"))
	})

	temp := 0.0
	_, err := client.Query(context.Background(), nil, ports.QueryOptions{Temperature: &temp})
	require.NoError(t, err)
	require.Equal(t, 0.0, payload["temperature"])

	client.SetTemperature(0.3)
	_, err = client.Query(context.Background(), nil, ports.QueryOptions{})
	require.NoError(t, err)
	require.Equal(t, 0.3, payload["temperature"])
}

func TestOpenAIClientCacheControlMarker(t *testing.T) {
	var payload struct {
		Messages []map[string]any `json:"messages"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_ = json.NewEncoder(w).Encode(completionsResponse("ok"))
	})

	_, err := client.Query(context.Background(), []ports.Message{
		{Role: "system", Content: "stable prefix", CacheEligible: true},
		{Role: "user", Content: "varying suffix"},
	}, ports.QueryOptions{})
	require.NoError(t, err)
	require.Contains(t, payload.Messages[0], "cache_control")
	require.NotContains(t, payload.Messages[1], "cache_control")
}

func TestOpenAIClientTracksSpend(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionsResponse("ok"))
	})

	_, err := client.Query(context.Background(), nil, ports.QueryOptions{})
	require.NoError(t, err)
	stats := client.Stats()
	require.Equal(t, 1, stats.APICalls)
	require.Equal(t, 100, stats.TokensSent)
	require.Equal(t, 20, stats.TokensReceived)
	require.Greater(t, stats.InstanceCost, 0.0)
}

func TestOpenAIClientPermanentErrorNotRetried(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	_, err := client.Query(context.Background(), nil, ports.QueryOptions{})
	require.Error(t, err)
	require.False(t, errors.IsTransient(err))
	require.Equal(t, 1, calls)
}

func TestMockClientCyclesResponses(t *testing.T) {
	mock := NewMockClient("one", "two")

	completions, err := mock.Query(context.Background(), nil, ports.QueryOptions{N: 3})
	require.NoError(t, err)
	require.Equal(t, "one", completions[0].Content)
	require.Equal(t, "two", completions[1].Content)
	require.Equal(t, "one", completions[2].Content)
	require.Equal(t, 1, mock.Queries())
}
