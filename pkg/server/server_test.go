package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repoviewd/internal/config"
	"github.com/fyrsmithlabs/repoviewd/internal/mcp"
	"github.com/fyrsmithlabs/repoviewd/internal/sandbox"
)

func newTestServer(t *testing.T, authToken string) *Server {
	t.Helper()

	svc, err := sandbox.NewService(t.TempDir(), nil, sandbox.DefaultCaps(), zap.NewNop())
	require.NoError(t, err)

	mcpServer, err := mcp.NewServer(mcp.DefaultConfig(), svc)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = config.Duration(time.Second)
	cfg.Server.AuthToken = config.Secret(authToken)

	return NewServer(cfg, mcpServer, zap.NewNop())
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "repoviewd", health.Service)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestMCPEndpoint_BearerAuth(t *testing.T) {
	s := newTestServer(t, "s3cret")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic s3cret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.Echo().ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}

	t.Run("valid token passes auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header.Set("Authorization", "Bearer s3cret")
		rec := httptest.NewRecorder()
		s.Echo().ServeHTTP(rec, req)

		// The SDK handler rejects the malformed MCP request body, but the
		// middleware let it through.
		assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestMCPEndpoint_NoAuthConfigured(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthDoesNotRequireAuth(t *testing.T) {
	s := newTestServer(t, "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
