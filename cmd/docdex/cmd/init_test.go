package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdex/docdex/internal/config"
)

// chdirTemp switches to a fresh temp dir for the test, restoring the
// previous working directory on cleanup (t.Chdir requires Go 1.24+).
func chdirTemp(t *testing.T) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func TestInitCmd_WritesConfig(t *testing.T) {
	chdirTemp(t)

	out, err := runCommand(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, config.DefaultConfigFile)

	data, err := os.ReadFile(config.DefaultConfigFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "provider: ollama")
}

func TestInitCmd_RefusesOverwrite(t *testing.T) {
	chdirTemp(t)

	_, err := runCommand(t, "init")
	require.NoError(t, err)

	_, err = runCommand(t, "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runCommand(t, "init", "--force")
	assert.NoError(t, err)
}

func TestInitCmd_ProducesLoadableConfig(t *testing.T) {
	chdirTemp(t)

	_, err := runCommand(t, "init")
	require.NoError(t, err)

	cfg, err := config.Load(config.DefaultConfigFile)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, 5, cfg.Search.TopK)
}
