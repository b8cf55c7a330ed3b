package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-key", "gemini-2.0-flash", WithBaseURL(server.URL))
}

func TestUploadAndCreateJob(t *testing.T) {
	t.Run("uploads the file then creates the job", func(t *testing.T) {
		var uploadedBody []byte
		var createPayload map[string]any

		mux := http.NewServeMux()
		mux.HandleFunc("POST /upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
			assert.Equal(t, "application/jsonl", r.Header.Get("Content-Type"))
			uploadedBody, _ = io.ReadAll(r.Body)
			json.NewEncoder(w).Encode(map[string]any{
				"file": map[string]string{"name": "files/abc", "uri": "https://files/abc"},
			})
		})
		mux.HandleFunc("POST /v1beta/batches", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createPayload))
			json.NewEncoder(w).Encode(map[string]string{
				"name":  "batches/job-123",
				"state": "JOB_STATE_PENDING",
			})
		})

		client := newTestClient(t, mux)
		info, err := client.UploadAndCreateJob(context.Background(), "run_wave00_batch000", []byte(`{"custom_id":"request_0"}`+"\n"))
		require.NoError(t, err)

		assert.Equal(t, "batches/job-123", info.ID)
		assert.Equal(t, StatePending, info.State)
		assert.Equal(t, `{"custom_id":"request_0"}`+"\n", string(uploadedBody))
		assert.Equal(t, "models/gemini-2.0-flash", createPayload["model"])
		assert.Equal(t, "run_wave00_batch000", createPayload["displayName"])
		assert.Equal(t, "https://files/abc", createPayload["inputFile"])
	})

	t.Run("error classification", func(t *testing.T) {
		tests := []struct {
			name       string
			statusCode int
			wantErr    error
			retryable  bool
		}{
			{"quota exhausted", http.StatusTooManyRequests, ErrQuotaExceeded, true},
			{"server error", http.StatusInternalServerError, ErrTransient, true},
			{"bad request", http.StatusBadRequest, ErrInvalidRequest, false},
			{"unauthorized", http.StatusUnauthorized, ErrPermissionDenied, false},
			{"forbidden", http.StatusForbidden, ErrPermissionDenied, false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					http.Error(w, "nope", tt.statusCode)
				}))

				_, err := client.UploadAndCreateJob(context.Background(), "b", []byte("{}\n"))
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.retryable, Retryable(err))
			})
		}
	})

	t.Run("missing job name is rejected", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /upload/v1beta/files", func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"file": map[string]string{"uri": "u"}})
		})
		mux.HandleFunc("POST /v1beta/batches", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{}`))
		})

		client := newTestClient(t, mux)
		_, err := client.UploadAndCreateJob(context.Background(), "b", []byte("{}\n"))
		require.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestGetJobState(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/batches/job-123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"name":           "batches/job-123",
			"state":          "JOB_STATE_RUNNING",
			"completedCount": 40,
			"totalCount":     100,
			"createTime":     "2026-01-15T10:00:00Z",
			"updateTime":     "2026-01-15T10:30:00Z",
		})
	}))

	status, err := client.GetJobState(context.Background(), "batches/job-123")
	require.NoError(t, err)

	assert.Equal(t, "batches/job-123", status.ID)
	assert.Equal(t, StateRunning, status.State)
	assert.Equal(t, 40, status.CompletedCount)
	assert.Equal(t, 100, status.TotalCount)
	assert.False(t, status.CreateTime.IsZero())
	assert.False(t, status.State.Terminal())
}

func TestDownloadJobOutput(t *testing.T) {
	output := `{"custom_id":"request_0","response":{"candidates":[{"content":{"parts":[{"text":"{\"confident_score\":7}"}]}}]}}
{"custom_id":"request_1","error":{"message":"model overloaded"}}
not even json
{"custom_id":"request_2","response":{"candidates":[]}}
`

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/batches/job-123:output", r.URL.Path)
		w.Write([]byte(output))
	}))

	records, err := client.DownloadJobOutput(context.Background(), "batches/job-123")
	require.NoError(t, err)
	require.Len(t, records, 3, "the unparsable line is skipped")

	assert.Equal(t, "request_0", records[0].Key)
	assert.JSONEq(t, `{"confident_score":7}`, string(records[0].Payload))
	assert.Equal(t, "request_1", records[1].Key)
	assert.Equal(t, "model overloaded", records[1].Err)
	assert.Equal(t, "request_2", records[2].Key)
	assert.Equal(t, "empty response", records[2].Err)
}

func TestParseJobState(t *testing.T) {
	assert.Equal(t, StateSucceeded, ParseJobState("JOB_STATE_SUCCEEDED"))
	assert.Equal(t, StateUnknown, ParseJobState("SOMETHING_NEW"))
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateCancelled.Terminal())
	assert.False(t, StatePending.Terminal())
}
