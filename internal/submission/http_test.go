package submission

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"social-support-wizard/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSubmitter_Success(t *testing.T) {
	var received applicationEvent
	var idempotencyKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		idempotencyKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	submitter := NewHTTPSubmitter(server.URL, time.Second, logger.NewTestLogger(t))
	receipt, err := submitter.Submit(context.Background(), testApplication())

	require.NoError(t, err)
	assert.Equal(t, BackendHTTP, receipt.Backend)
	assert.Equal(t, received.ApplicationID, receipt.ApplicationID)
	assert.Equal(t, idempotencyKey, receipt.ApplicationID)
	assert.Equal(t, testApplication(), received.Application)
}

func TestHTTPSubmitter_UsesReturnedID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"applicationId":"SSA-2024-0001","status":"received"}`))
	}))
	defer server.Close()

	receipt, err := NewHTTPSubmitter(server.URL, time.Second, logger.NewTestLogger(t)).
		Submit(context.Background(), testApplication())

	require.NoError(t, err)
	assert.Equal(t, "SSA-2024-0001", receipt.ApplicationID)
	assert.Equal(t, "received", receipt.Status)
}

func TestHTTPSubmitter_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, "status 500"},
		{"rejected", http.StatusBadRequest, "status 400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := NewHTTPSubmitter(server.URL, time.Second, logger.NewTestLogger(t)).
				Submit(context.Background(), testApplication())

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHTTPSubmitter_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewHTTPSubmitter(url, time.Second, logger.NewTestLogger(t)).
		Submit(context.Background(), testApplication())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
