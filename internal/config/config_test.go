package config

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syrilster/leave-lop-console/internal/model"
)

func TestNewEnvironmentConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := NewEnvironmentConfig()
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
		assert.Equal(t, 300*time.Millisecond, cfg.DebounceInterval)
		assert.Equal(t, StoreBackendFile, cfg.StoreBackend)
		assert.Equal(t, 2025, cfg.DefaultYear)
		assert.Equal(t, 7, cfg.DefaultMonth)
		assert.Equal(t, 5, cfg.DefaultPageSize)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("HTTP_TIMEOUT", "2s")
		t.Setenv("STORE_BACKEND", "redis")
		t.Setenv("DEFAULT_PAGE_SIZE", "20")
		t.Setenv("EMAIL_TO", "a@example.com,b@example.com")

		cfg, err := NewEnvironmentConfig()
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
		assert.Equal(t, StoreBackendRedis, cfg.StoreBackend)
		assert.Equal(t, 20, cfg.DefaultPageSize)
		assert.Equal(t, "a@example.com,b@example.com", cfg.EmailTo)
	})

	t.Run("Error on unknown store backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "s3")
		_, err := NewEnvironmentConfig()
		assert.Error(t, err)
	})

	t.Run("Error on malformed duration", func(t *testing.T) {
		t.Setenv("HTTP_TIMEOUT", "soon")
		_, err := NewEnvironmentConfig()
		assert.Error(t, err)
	})
}

func TestNewApplicationConfig(t *testing.T) {
	t.Setenv("STORE_DIR", t.TempDir())
	t.Setenv("VERSION", "v2")
	t.Setenv("DEFAULT_MONTH", "3")

	cfg, err := NewApplicationConfig()
	require.NoError(t, err)
	defer cfg.Close()

	assert.Equal(t, "v2", cfg.Version())
	assert.NotNil(t, cfg.LedgerClient())
	assert.NotNil(t, cfg.EmailClient())
	assert.NotNil(t, cfg.Metrics())
	assert.Equal(t, model.QueryParams{Year: 2025, Month: 3, Page: 1, PageSize: 5}, cfg.DefaultQuery())

	require.NoError(t, cfg.BlobStore().Put("k", []byte("v")))
	got, err := cfg.BlobStore().Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestServerRoutes(t *testing.T) {
	server := NewServer().
		WithRoutes("", Route{Path: "/health", Method: http.MethodGet, Handler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}}).
		WithRoutes("/v1", Route{Path: "/boom", Method: http.MethodGet, Handler: func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}}).
		WithHandler("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
	h := server.Handler()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{method: http.MethodGet, path: "/health", want: http.StatusOK},
		{method: http.MethodGet, path: "/metrics", want: http.StatusTeapot},
		{method: http.MethodGet, path: "/v1/boom", want: http.StatusInternalServerError},
		{method: http.MethodPost, path: "/health", want: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/missing", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
