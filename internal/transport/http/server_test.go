package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/spendagent/internal/adapter/llm"
	"github.com/xiaot623/spendagent/internal/adapter/payments"
	"github.com/xiaot623/spendagent/internal/config"
	"github.com/xiaot623/spendagent/internal/service"
	"github.com/xiaot623/spendagent/internal/tools"
	"github.com/xiaot623/spendagent/policy"
)

func newTestServer(t *testing.T, cfg config.Server) http.Handler {
	t.Helper()
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	catalog := tools.NewCatalog()
	resolver := llm.NewResolver(llm.NewMockClient(), catalog, "gpt-3.5-turbo", config.DefaultSystemPrompt)
	svc := service.New(payments.NewDemoProvider(), resolver, catalog, engine, nil)
	return NewServer(svc, cfg)
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer(t, config.Server{CORSOrigin: "*"})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodPost, "/api/agent", bytes.NewBufferString(`{"prompt":"show my invoices"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "in_demo_hosting")
	assert.Contains(t, rec.Body.String(), `"kind":"invoice_list"`)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "spendagent_operations_total"))
}

func TestServerRateLimit(t *testing.T) {
	srv := newTestServer(t, config.Server{RatePerSecond: 0.001})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/operations", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
