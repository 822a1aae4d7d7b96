package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestInit_WritesSampleConfig(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"init", "--out", path})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "loopback-swagger configuration")
	assert.Contains(t, string(data), "generateRelationProperties")
}

func TestInit_SampleKeysAreAccepted(t *testing.T) {
	t.Parallel()
	// Every commented key in the sample must be understood by generate.
	var uncommented []byte
	for _, line := range strings.Split(sampleConfigYAML, "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, ": ") {
			uncommented = append(uncommented, strings.TrimPrefix(line, "# ")+"\n"...)
		}
	}
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(uncommented, &raw))
	require.NotEmpty(t, raw)

	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, os.WriteFile(path, uncommented, 0o600))
	cfg := defaultGenerateConfig()
	require.NoError(t, applyGenerateConfigFromFile(&cfg, path))
	assert.Equal(t, "./app.yaml", cfg.Input)
	assert.Equal(t, []string{"^create$"}, cfg.CreatePatterns)
}

func TestInit_ExistingWithoutForce(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"init", "--out", path})

	err := root.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage)

	root = NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"init", "--out", path, "--force"})
	require.NoError(t, root.Execute())
}
