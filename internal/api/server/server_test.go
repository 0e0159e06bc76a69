package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/metrics"
	"vm-transcriber/internal/app/repository/memory"
	"vm-transcriber/internal/app/testutil"
)

func setupTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	t.Cleanup(func() { _ = store.Close() })
	srv := NewServer(DefaultConfig("127.0.0.1:0", false), store, metrics.New().Registry, zap.NewNop())
	return srv, store
}

func serve(srv *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv, _ := setupTestServer(t)

	w := serve(srv, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestServer_Metrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	m.RecordOutcome(metrics.OutcomeSuccess, "complete")
	srv := NewServer(DefaultConfig("127.0.0.1:0", false), memory.NewStore(), m.Registry, zap.NewNop())

	w := serve(srv, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `vmt_transcriptions_total{outcome="success",stage="complete"} 1`)
}

func TestTranscriptionHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		expectedStatus int
		validateBody   func(*testing.T, map[string]interface{})
	}{
		{
			name:           "recorded message",
			path:           "/api/v1/transcriptions/42",
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "42", body["msg_id"])
				assert.Equal(t, "https://discord.com/channels/1000/2000/9001", body["reply_link"])
			},
		},
		{
			name:           "unknown message",
			path:           "/api/v1/transcriptions/43",
			expectedStatus: http.StatusNotFound,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "not_found", body["kind"])
				assert.NotEmpty(t, body["request_id"])
			},
		},
		{
			name:           "non numeric id",
			path:           "/api/v1/transcriptions/abc",
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "bad_request", body["kind"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, store := setupTestServer(t)
			require.NoError(t, store.Put(context.Background(), "42", "https://discord.com/channels/1000/2000/9001"))

			w := serve(srv, tt.path)
			assert.Equal(t, tt.expectedStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			tt.validateBody(t, body)
		})
	}
}

func TestTranscriptionHandler_StoreUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := testutil.NewMockResultStore(t)
	store.On("Get", mock.Anything, "42").Return("", false, apperrors.Stage(apperrors.ErrStore, errors.New("connection refused")))
	srv := NewServer(DefaultConfig("127.0.0.1:0", false), store, metrics.New().Registry, zap.NewNop())

	w := serve(srv, "/api/v1/transcriptions/42")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTranscriptionHandler_StoreClosed(t *testing.T) {
	srv, store := setupTestServer(t)
	require.NoError(t, store.Close())

	w := serve(srv, "/api/v1/transcriptions/42")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "closed")
}

func TestServer_StartShutdown(t *testing.T) {
	srv, _ := setupTestServer(t)
	require.NoError(t, srv.Start())

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
}
