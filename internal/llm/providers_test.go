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

	"github.com/Veraticus/sift/internal/common"
)

func testRequest() Request {
	return Request{
		ModelName:   "test-model",
		Temperature: 0,
		Batch: []BatchItem{
			{Index: 0, Description: "WOOLWORTHS 123"},
			{Index: 1, Description: "UBER TRIP"},
		},
		Categories: []CategoryRef{
			{ID: "cat-groceries", Name: "Groceries"},
			{ID: "cat-transport", Name: "Transport"},
		},
	}
}

func fastConfig(provider, endpoint string) Config {
	return Config{
		Provider:   provider,
		APIKey:     "test-key",
		Endpoint:   endpoint,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		RateLimit:  600,
		Timeout:    5 * time.Second,
	}
}

func TestNewClassifier_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"unknown provider", Config{Provider: "mystery"}, true},
		{"remote without endpoint", Config{Provider: ProviderRemote}, true},
		{"openai without key", Config{Provider: ProviderOpenAI}, true},
		{"anthropic without key", Config{Provider: ProviderAnthropic}, true},
		{"gemini without key", Config{Provider: ProviderGemini}, true},
		{"bayes needs nothing", Config{Provider: ProviderBayes}, false},
		{"remote", Config{Provider: "Remote", Endpoint: "http://localhost"}, false},
		{"openai", Config{Provider: ProviderOpenAI, APIKey: "k"}, false},
		{"anthropic", Config{Provider: ProviderAnthropic, APIKey: "k"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClassifier(ctx, tt.cfg, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, client)
			assert.NoError(t, client.Close())
		})
	}
}

func TestRemoteClassifier(t *testing.T) {
	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"results":[{"index":0,"categoryId":"cat-groceries"}],"usage":{"inputTokens":12,"outputTokens":3},"modelName":"served-model"}`)
	}))
	defer server.Close()

	client, err := NewClassifier(context.Background(), fastConfig(ProviderRemote, server.URL), nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	req := testRequest()
	req.EnableThinking = true
	req.Temperature = 0.5

	resp, err := client.ClassifyBatch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, ProviderRemote, got.Provider)
	assert.Equal(t, "test-model", got.ModelName)
	assert.True(t, got.EnableThinking)
	assert.Len(t, got.Batch, 2)
	assert.Len(t, got.Categories, 2)

	assert.Equal(t, []Result{{Index: 0, CategoryID: "cat-groceries"}}, resp.Results)
	assert.Equal(t, "served-model", resp.ModelName)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.InDelta(t, 0.5, resp.Temperature, 0.0001)
	assert.True(t, resp.EnableThinking)
}

func TestRemoteClassifier_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"results":[{"index":1,"categoryId":"cat-transport"}]}`)
	}))
	defer server.Close()

	client, err := NewClassifier(context.Background(), fastConfig(ProviderRemote, server.URL), nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	resp, err := client.ClassifyBatch(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "test-model", resp.ModelName)
	assert.Equal(t, []Result{{Index: 1, CategoryID: "cat-transport"}}, resp.Results)
}

func TestRemoteClassifier_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client, err := NewClassifier(context.Background(), fastConfig(ProviderRemote, server.URL), nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	_, err = client.ClassifyBatch(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestClassifyBatch_EmptyBatchSkipsProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("provider should not be called")
	}))
	defer server.Close()

	client, err := NewClassifier(context.Background(), fastConfig(ProviderRemote, server.URL), nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	resp, err := client.ClassifyBatch(context.Background(), Request{ModelName: "m"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestOpenAIClassifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])
		assert.Contains(t, body, "temperature")

		_, _ = io.WriteString(w, `{
			"model": "gpt-test",
			"choices": [{"message": {"role": "assistant", "content": "{\"results\":[{\"index\":0,\"categoryId\":\"cat-groceries\"},{\"index\":1,\"categoryId\":\"cat-transport\"}]}"}}],
			"usage": {"prompt_tokens": 40, "completion_tokens": 9}
		}`)
	}))
	defer server.Close()

	client, err := NewClassifier(context.Background(), fastConfig(ProviderOpenAI, server.URL), nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	resp, err := client.ClassifyBatch(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, "gpt-test", resp.ModelName)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 40, resp.Usage.InputTokens)
	assert.Equal(t, 9, resp.Usage.OutputTokens)
}

func TestAnthropicClassifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])
		assert.Contains(t, body, "thinking")
		assert.NotContains(t, body, "temperature")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "test-model",
			"content": [
				{"type": "thinking", "thinking": "hmm", "signature": "sig"},
				{"type": "text", "text": "{\"results\":[{\"index\":1,\"categoryId\":\"cat-transport\"}]}"}
			],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 20, "output_tokens": 4}
		}`)
	}))
	defer server.Close()

	client, err := NewClassifier(context.Background(), fastConfig(ProviderAnthropic, server.URL), nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	req := testRequest()
	req.EnableThinking = true

	resp, err := client.ClassifyBatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []Result{{Index: 1, CategoryID: "cat-transport"}}, resp.Results)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 20, resp.Usage.InputTokens)
}

func TestGeminiClassifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "test-model:generateContent")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"results\":[{\"index\":0,\"categoryId\":\"cat-groceries\"}]}"}]}}],
			"usageMetadata": {"promptTokenCount": 30, "candidatesTokenCount": 6},
			"modelVersion": "test-model-001"
		}`)
	}))
	defer server.Close()

	client, err := NewClassifier(context.Background(), fastConfig(ProviderGemini, server.URL), nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	resp, err := client.ClassifyBatch(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, []Result{{Index: 0, CategoryID: "cat-groceries"}}, resp.Results)
	assert.Equal(t, "test-model-001", resp.ModelName)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 30, resp.Usage.InputTokens)
	assert.Equal(t, 6, resp.Usage.OutputTokens)
}

func TestBayesClassifier(t *testing.T) {
	client, err := NewClassifier(context.Background(), Config{Provider: ProviderBayes, MinConfidence: 0.5}, nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	_, err = client.ClassifyBatch(context.Background(), testRequest())
	require.ErrorIs(t, err, common.ErrClassifierUnavailable)

	client.Train([]Example{
		{Description: "WOOLWORTHS METRO 123", CategoryID: "cat-groceries"},
		{Description: "WOOLWORTHS TOWN HALL", CategoryID: "cat-groceries"},
		{Description: "COLES SUPERMARKET", CategoryID: "cat-groceries"},
		{Description: "UBER TRIP HELP.UBER.COM", CategoryID: "cat-transport"},
		{Description: "UBER TRIP SYDNEY", CategoryID: "cat-transport"},
		{Description: "OPAL TRAVEL CARD", CategoryID: "cat-transport"},
	})

	resp, err := client.ClassifyBatch(context.Background(), testRequest())
	require.NoError(t, err)
	assert.ElementsMatch(t, []Result{
		{Index: 0, CategoryID: "cat-groceries"},
		{Index: 1, CategoryID: "cat-transport"},
	}, resp.Results)

	req := testRequest()
	req.Categories = req.Categories[:1]
	resp, err = client.ClassifyBatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []Result{{Index: 0, CategoryID: "cat-groceries"}}, resp.Results, "classes outside the catalog are never returned")
}

func TestDescriptionTerms(t *testing.T) {
	assert.Equal(t, []string{"woolworths", "metro"}, descriptionTerms("WOOLWORTHS METRO #123 x"))
	assert.Empty(t, descriptionTerms("1234 5678"))
}
