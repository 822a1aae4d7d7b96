package descriptor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalSnapshot = `
models:
  - name: Product
    public: true
    properties:
      name: string
routes:
  - method: Product.find
    verb: get
    path: /Products
`

func TestLoad_BlocksFileURL(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "file:///etc/hosts")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, InputError, le.Code)
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "ftp://example.com/app.yaml")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, InputError, le.Code)
}

func TestLoad_EmptyInput(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "  ")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, InputError, le.Code)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, InputError, le.Code)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalSnapshot), 0o600))

	app, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, app.Models, 1)
	assert.Equal(t, "Product", app.Models[0].Name)
	require.Len(t, app.Routes, 1)
	assert.Equal(t, "/Products", app.Routes[0].Path)
}

func TestLoad_ParseAndValidationErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("models: [\n"), 0o600))
	_, err := Load(context.Background(), bad)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ParseError, le.Code)
	assert.Equal(t, bad, le.Location)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("routes:\n  - {method: find, verb: get, path: /x}\n"), 0o600))
	_, err = Load(context.Background(), invalid)
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ValidationError, le.Code)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestLoad_URLRetriesTransientErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(minimalSnapshot))
	}))
	defer srv.Close()

	app, err := Load(context.Background(), srv.URL+"/app.yaml",
		WithMaxRetries(3), WithBackoffBase(time.Millisecond))
	require.NoError(t, err)
	assert.Len(t, app.Models, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestLoad_URLClientErrorNotRetried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL, WithMaxRetries(3), WithBackoffBase(time.Millisecond))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, NetworkError, le.Code)
	assert.Contains(t, le.Message, "404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, "http://127.0.0.1:1/app.yaml",
		WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(time.Millisecond))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, NetworkError, le.Code)
}

func TestDecode_JSON(t *testing.T) {
	t.Parallel()
	app, err := Decode([]byte(`{"models":[{"name":"A","properties":{"n":{"type":"number","required":true}}}]}`))
	require.NoError(t, err)
	require.Len(t, app.Models[0].Properties, 1)
	assert.True(t, app.Models[0].Properties[0].Required)
}

func TestDecode_Empty(t *testing.T) {
	t.Parallel()
	_, err := Decode([]byte("  \n"))
	assert.Error(t, err)
}
