package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dopejs/staticenv/internal/config"
	"github.com/dopejs/staticenv/internal/logging"
	"github.com/dopejs/staticenv/internal/web"
)

func newAPI(t *testing.T) (*Client, *config.Store) {
	t.Helper()
	store := config.NewStore(filepath.Join(t.TempDir(), config.ConfigFile))
	require.NoError(t, store.Load())
	srv := httptest.NewServer(web.NewServer(store, 0, "test", logging.Discard()).Handler())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	return c, store
}

func TestNew(t *testing.T) {
	c, err := New("127.0.0.1:19850/")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:19850", c.baseURL)

	_, err = New("  ")
	assert.Error(t, err)
}

func TestRoundTripAgainstServer(t *testing.T) {
	c, store := newAPI(t)
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", health.Version)
	assert.False(t, health.ReadOnly)

	envs, err := c.Environments(ctx)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.True(t, envs[0].IsProduction())

	vars, err := c.Variables(ctx, envs[0].ID)
	require.NoError(t, err)
	assert.Empty(t, vars)

	require.NoError(t, c.SaveVariables(ctx, envs[0].ID, map[string]string{"A": "1"}))
	stored, err := store.GetVariables(envs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1"}, stored)
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "environment not found"})
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	_, err = c.Variables(context.Background(), "missing")
	var apiErr APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "environment not found", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "p", "properties": map[string]string{"A": "1"}})
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	vars, err := c.Variables(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1"}, vars)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithRetry(2, time.Millisecond))
	require.NoError(t, err)

	err = c.SaveVariables(context.Background(), "p", nil)
	var apiErr APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "down", apiErr.Message)
}
