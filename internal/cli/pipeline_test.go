package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalAppYAML = `
models:
  - name: Product
    public: true
    properties:
      id: {type: number, id: true, generated: true}
      name: {type: string, required: true}
routes:
  - method: Product.create
    verb: post
    path: /Products
    accepts: [{arg: data, type: object, http: {source: body}}]
    returns: [{arg: data, type: Product, root: true}]
  - method: Product.find
    verb: get
    path: /Products
    returns: [{arg: data, type: [Product], root: true}]
`

func writeApp(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalAppYAML), 0o600))
	return dir, path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestGeneratePipeline_DryRun(t *testing.T) {
	t.Parallel()
	dir, app := writeApp(t)
	out := filepath.Join(dir, "swagger.json")

	stdout, err := execute(t, "generate", "--input", app, "--out", out, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Planned write to "+out)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "dry-run must not write")
}

func TestGeneratePipeline_WritesFile(t *testing.T) {
	t.Parallel()
	dir, app := writeApp(t)
	out := filepath.Join(dir, "swagger.json")

	_, err := execute(t, "generate", "--input", app, "--out", out,
		"--operation-scoped-models", "--relation-properties", "--title", "Shop")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2.0", doc["swagger"])
	assert.Equal(t, "Shop", doc["info"].(map[string]any)["title"])
	defs := doc["definitions"].(map[string]any)
	assert.Contains(t, defs, "Product")
	assert.Contains(t, defs, "$new_Product")
	assert.Contains(t, defs, "ProductWithRelations")

	_, err = execute(t, "generate", "--input", app, "--out", out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage, "existing output without --force")
}

func TestGeneratePipeline_Stdout(t *testing.T) {
	t.Parallel()
	_, app := writeApp(t)

	stdout, err := execute(t, "generate", "--input", app, "--out", "-", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, `swagger: "2.0"`)
	assert.Contains(t, stdout, "operationId: Product.find")
}

func TestGeneratePipeline_LoadErrorIsUsageError(t *testing.T) {
	t.Parallel()
	_, err := execute(t, "generate", "--input", filepath.Join(t.TempDir(), "missing.yaml"), "--out", "-")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "Location:")
}
