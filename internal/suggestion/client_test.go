package suggestion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig(baseURL string) *Config {
	return &Config{
		BaseURL:          baseURL,
		Model:            "gpt-3.5-turbo",
		MaxTokens:        200,
		Temperature:      0.7,
		Timeout:          2 * time.Second,
		MaxRetries:       2,
		RetryDelay:       time.Millisecond,
		BreakerThreshold: 50,
		BreakerTimeout:   time.Second,
	}
}

func completion(text string) string {
	raw, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": text}},
		},
	})
	return string(raw)
}

func TestClient_Generate_Success(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(completion("  I was laid off in March and have no income.  ")))
	}))
	defer server.Close()

	client := NewClient(createTestConfig(server.URL), logger.NewTestLogger(t))
	text, err := client.Generate(context.Background(), "sk-test", models.FieldReasonForApplying, "I lost my job")

	require.NoError(t, err)
	assert.Equal(t, "I was laid off in March and have no income.", text)
	assert.Equal(t, "gpt-3.5-turbo", captured.Model)
	assert.Equal(t, 200, captured.MaxTokens)
	assert.InDelta(t, 0.7, captured.Temperature, 1e-9)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, `Help me improve this explanation of why I am applying for support: "I lost my job"`, captured.Messages[1].Content)
}

func TestUserPrompt(t *testing.T) {
	for _, f := range models.NarrativeFields {
		fresh, err := userPrompt(f, "")
		require.NoError(t, err)
		improve, err := userPrompt(f, "some text")
		require.NoError(t, err)
		assert.NotEqual(t, fresh, improve)
		assert.Contains(t, improve, `"some text"`)
	}

	_, err := userPrompt("name", "")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestClient_Generate_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(completion("draft")))
	}))
	defer server.Close()

	client := NewClient(createTestConfig(server.URL), logger.NewTestLogger(t))
	text, err := client.Generate(context.Background(), "sk", models.FieldEmploymentCircumstances, "")

	require.NoError(t, err)
	assert.Equal(t, "draft", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Generate_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantMsg   string
		wantCalls int32
	}{
		{"unauthorized is not retried", http.StatusUnauthorized, `{}`, "OpenAI API error: 401", 1},
		{"empty choices", http.StatusOK, `{"choices": []}`, "No response from OpenAI", 1},
		{"blank content", http.StatusOK, `{"choices": [{"message": {"role": "assistant", "content": "  \n "}}]}`, "No response from OpenAI", 1},
		{"persistent server error", http.StatusInternalServerError, `{}`, "OpenAI API error: 500", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(createTestConfig(server.URL), logger.NewTestLogger(t))
			_, err := client.Generate(context.Background(), "sk", models.FieldCurrentFinancialSituation, "")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_Generate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	cfg := createTestConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	cfg.MaxRetries = 0
	client := NewClient(cfg, logger.NewTestLogger(t))

	_, err := client.Generate(context.Background(), "sk", models.FieldReasonForApplying, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAPIError_Unwrap(t *testing.T) {
	assert.ErrorIs(t, &APIError{StatusCode: 429}, ErrRejected)
	assert.NotErrorIs(t, &APIError{StatusCode: 503}, ErrRejected)
}
